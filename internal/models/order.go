package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts de commande
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCompleted  = "completed"
	OrderCancelled  = "cancelled"
)

// Statuts de paiement
const (
	PaymentPending             = "pending"
	PaymentWaitingConfirmation = "waiting_for_confirmation"
	PaymentCompleted           = "completed"
	PaymentFailed              = "failed"
	PaymentRefunded            = "refunded"
)

// Statuts de livraison
const (
	ShippingPending   = "pending"
	ShippingShipped   = "shipped"
	ShippingDelivered = "delivered"
)

// Méthodes de paiement
const (
	MethodCOD          = "cod"
	MethodCard         = "card"
	MethodBankTransfer = "bank_transfer"
)

type Order struct {
	ID            gocql.UUID `json:"id"`
	OrderCode     string     `json:"order_code"`
	UserID        string     `json:"user_id"`
	TotalPrice    float64    `json:"total_price"` // Figé à la création, jamais recalculé
	OrderStatus   string     `json:"order_status"`
	PaymentStatus string     `json:"payment_status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type OrderItem struct {
	ID        gocql.UUID  `json:"id"`
	OrderID   gocql.UUID  `json:"order_id"`
	ProductID gocql.UUID  `json:"product_id"`
	VariantID *gocql.UUID `json:"variant_id,omitempty"`
	Quantity  int         `json:"quantity"`
	// Snapshots au moment de la commande
	Price float64 `json:"price"`
	Size  string  `json:"size,omitempty"`
	Color string  `json:"color,omitempty"`
	SKU   string  `json:"sku,omitempty"`
}

// OrderDetail regroupe la commande avec ses lignes, sa livraison et son paiement
type OrderDetail struct {
	Order    Order           `json:"order"`
	Items    []OrderItem     `json:"items"`
	Shipping *ShippingRecord `json:"shipping,omitempty"`
	Payment  *PaymentRecord  `json:"payment,omitempty"`
}

// IsValidOrderStatus vérifie qu'un statut de commande fait partie du vocabulaire
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCompleted, OrderCancelled:
		return true
	default:
		return false
	}
}

// IsValidPaymentStatus vérifie qu'un statut de paiement fait partie du vocabulaire
func IsValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentWaitingConfirmation, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	default:
		return false
	}
}

// IsValidShippingStatus vérifie qu'un statut de livraison fait partie du vocabulaire
func IsValidShippingStatus(s string) bool {
	switch s {
	case ShippingPending, ShippingShipped, ShippingDelivered:
		return true
	default:
		return false
	}
}

// CanTransitionOrder valide une transition de la machine à états des commandes.
// pending → processing → shipped → delivered → completed
// pending|processing → cancelled
// completed et cancelled sont terminaux.
func CanTransitionOrder(from, to string) bool {
	switch from {
	case OrderPending:
		return to == OrderProcessing || to == OrderCancelled
	case OrderProcessing:
		return to == OrderShipped || to == OrderCancelled
	case OrderShipped:
		return to == OrderDelivered
	case OrderDelivered:
		return to == OrderCompleted
	default:
		return false
	}
}

// IsCancellable indique si une commande peut encore être annulée
func IsCancellable(status string) bool {
	return status == OrderPending || status == OrderProcessing
}
