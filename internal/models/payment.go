package models

import (
	"time"

	"github.com/gocql/gocql"
)

type PaymentRecord struct {
	ID              gocql.UUID `json:"id"`
	OrderID         gocql.UUID `json:"order_id"`
	Amount          float64    `json:"amount"`
	Method          string     `json:"method"` // cod, card, bank_transfer
	Status          string     `json:"status"`
	TransactionID   string     `json:"transaction_id"`
	ReferenceNumber string     `json:"reference_number,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsValidPaymentMethod vérifie la méthode de paiement demandée au checkout
func IsValidPaymentMethod(m string) bool {
	switch m {
	case MethodCOD, MethodCard, MethodBankTransfer:
		return true
	default:
		return false
	}
}

// NeedsDelivery indique si la méthode déclenche la création de la livraison
// chez le transporteur juste après le commit de la commande
func NeedsDelivery(method string) bool {
	return method == MethodCOD || method == MethodCard
}
