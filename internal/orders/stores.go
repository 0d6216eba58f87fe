package orders

import (
	"context"
	"time"

	"github.com/gocql/gocql"

	"velora_back_end/internal/models"
)

// CartStore : collaborateur interne, source des lignes du checkout.
// La suppression du panier fait partie de l'écriture atomique de la commande
// (voir OrderStore.CreateOrderAtomic), jamais d'un appel séparé.
type CartStore interface {
	GetItems(ctx context.Context, userID string) ([]models.CartItem, error)
}

// InventoryStore : collaborateur interne, stock et prix des variantes
type InventoryStore interface {
	// GetVariant retourne une variante par identifiant
	GetVariant(ctx context.Context, variantID gocql.UUID) (*models.ProductVariant, error)
	// MinVariantPrice retourne le prix minimum parmi les variantes du produit
	// (prix de repli quand aucune variante n'est choisie)
	MinVariantPrice(ctx context.Context, productID gocql.UUID) (float64, error)
	// Restock réincrémente le stock d'une variante du produit après annulation
	// et journalise le mouvement. Cible la variante au plus petit id.
	Restock(ctx context.Context, productID gocql.UUID, quantity int, orderID gocql.UUID, userID string) error
}

// AccountStore : collaborateur interne, coordonnées du client pour la livraison
type AccountStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// OrderStore persiste les commandes et leurs lignes.
// L'implémentation garantit l'atomicité de CreateOrderAtomic et la
// sémantique compare-and-set des opérations CAS.
type OrderStore interface {
	// CreateOrderAtomic écrit commande + lignes + livraison + paiement et
	// supprime les lignes du panier en un seul lot tout-ou-rien
	CreateOrderAtomic(ctx context.Context, order models.Order, items []models.OrderItem,
		shipping models.ShippingRecord, payment models.PaymentRecord, clearCartUserID string) error

	GetOrder(ctx context.Context, id gocql.UUID) (*models.Order, error)
	GetOrderDetail(ctx context.Context, id gocql.UUID) (*models.OrderDetail, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)

	// UpdateOrderFields met à jour indépendamment chaque champ non vide
	UpdateOrderFields(ctx context.Context, id gocql.UUID, orderStatus, paymentStatus, shippingStatus string) error

	// CASOrderStatus ne transitionne que si le statut courant vaut from.
	// Retourne applied=false et le statut réellement observé sinon.
	CASOrderStatus(ctx context.Context, id gocql.UUID, from, to string) (applied bool, current string, err error)

	// CASPaymentStatus ne transitionne le paiement que si son statut vaut from
	CASPaymentStatus(ctx context.Context, orderID gocql.UUID, from, to string) (applied bool, current string, err error)

	// SetTracking renseigne le numéro de suivi après acceptation du transporteur
	SetTracking(ctx context.Context, orderID gocql.UUID, trackingNumber, carrier string) error

	GetShipping(ctx context.Context, orderID gocql.UUID) (*models.ShippingRecord, error)
	GetPayment(ctx context.Context, orderID gocql.UUID) (*models.PaymentRecord, error)
	GetPaymentByTransaction(ctx context.Context, transactionID string) (*models.PaymentRecord, error)

	// ListAutoCompletable re-filtre à chaque appel : delivered, paiement
	// completed, dernière mise à jour antérieure au délai de grâce, aucune
	// réclamation ouverte
	ListAutoCompletable(ctx context.Context, olderThan time.Time) ([]models.Order, error)
	HasOpenIssue(ctx context.Context, orderID gocql.UUID) (bool, error)

	AppendAudit(ctx context.Context, entry models.AuditLog) error
}

// DeliveryClient : le client transporteur vu par l'assembleur
type DeliveryClient interface {
	CreateDelivery(ctx context.Context, orderCode string, customer models.User,
		address models.Address, totalQuantity int, paymentMethod string, amountEUR float64) (trackingNumber, carrier string, err error)
}

// PromoApplier consomme un code promotionnel au checkout et retourne la
// remise. L'unicité d'usage est revérifiée côté base au moment de l'écriture.
type PromoApplier interface {
	Apply(ctx context.Context, code, userID string, orderID gocql.UUID, orderAmount float64) (float64, error)
}

// TrackingInvalidator purge le cache de suivi d'un colis quand son statut de
// livraison est corrigé côté admin : les infos en cache sont alors périmées.
type TrackingInvalidator interface {
	Invalidate(trackingNumber string)
}

// Notifier : notifications best-effort (emails, indexation). Jamais bloquant.
type Notifier interface {
	OrderConfirmed(detail models.OrderDetail, email string)
	OrderStatusChanged(order models.Order, email, newStatus string)
}

// Indexer : indexation best-effort des commandes pour la recherche admin
type Indexer interface {
	IndexOrder(order models.Order)
}
