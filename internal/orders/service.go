package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"velora_back_end/internal/errs"
	"velora_back_end/internal/models"
)

// ErrOrderWrite : message générique renvoyé au client quand l'écriture
// atomique échoue. Le détail ne part que dans les logs serveur.
var ErrOrderWrite = errors.New("la commande n'a pas pu être enregistrée")

// Service assemble les commandes : panier → commande durable, puis
// déclenche la livraison best-effort après commit
type Service struct {
	orders    OrderStore
	cart      CartStore
	inventory InventoryStore
	accounts  AccountStore
	delivery  DeliveryClient
	promos    PromoApplier
	notify    Notifier
	indexer   Indexer
	tracking  TrackingInvalidator
	now       func() time.Time
}

// NewService construit l'assembleur. delivery, notify et indexer peuvent être
// nil : la commande existe même quand les partenaires sont indisponibles.
func NewService(orders OrderStore, cart CartStore, inventory InventoryStore, accounts AccountStore) *Service {
	return &Service{
		orders:    orders,
		cart:      cart,
		inventory: inventory,
		accounts:  accounts,
		now:       time.Now,
	}
}

// WithDelivery branche le client transporteur
func (s *Service) WithDelivery(d DeliveryClient) *Service {
	s.delivery = d
	return s
}

// WithPromotions branche l'évaluateur de codes promotionnels
func (s *Service) WithPromotions(p PromoApplier) *Service {
	s.promos = p
	return s
}

// WithNotifier branche les notifications email
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notify = n
	return s
}

// WithIndexer branche l'indexation Elasticsearch
func (s *Service) WithIndexer(i Indexer) *Service {
	s.indexer = i
	return s
}

// WithTrackingInvalidation branche la purge du cache de suivi
func (s *Service) WithTrackingInvalidation(t TrackingInvalidator) *Service {
	s.tracking = t
	return s
}

// NewOrderCode génère un code de commande opaque et résistant aux collisions
func NewOrderCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "CMD-" + strings.ToUpper(raw[:16])
}

// CreateOrder convertit le panier de l'utilisateur en commande.
// Commande, lignes, livraison, paiement et suppression du panier partent dans
// une seule écriture tout-ou-rien ; l'appel transporteur n'a lieu qu'APRÈS le
// commit et son échec n'annule jamais une commande déjà enregistrée.
func (s *Service) CreateOrder(ctx context.Context, userID, shippingAddress, paymentMethod, promoCode string) (*models.OrderDetail, error) {
	if userID == "" {
		return nil, errs.NewValidation("user", "utilisateur manquant")
	}
	if !models.IsValidPaymentMethod(paymentMethod) {
		return nil, errs.NewValidation("payment_method", "méthode de paiement inconnue: "+paymentMethod)
	}
	if strings.TrimSpace(shippingAddress) == "" {
		return nil, errs.NewValidation("shipping_address", "adresse de livraison manquante")
	}

	cartItems, err := s.cart.GetItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lecture panier: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, errs.NewValidation("cart", "le panier est vide")
	}

	now := s.now()
	orderID := gocql.UUID(uuid.New())

	var items []models.OrderItem
	var total float64
	for _, ci := range cartItems {
		if ci.Quantity <= 0 {
			return nil, errs.NewValidation("quantity", "quantité invalide dans le panier")
		}
		item := models.OrderItem{
			ID:        gocql.UUID(uuid.New()),
			OrderID:   orderID,
			ProductID: ci.ProductID,
			VariantID: ci.VariantID,
			Quantity:  ci.Quantity,
		}

		if ci.VariantID != nil {
			variant, err := s.inventory.GetVariant(ctx, *ci.VariantID)
			if err != nil {
				return nil, fmt.Errorf("lecture variante %s: %w", ci.VariantID, err)
			}
			item.Price = variant.Price
			item.SKU = variant.SKU
			item.Size = variant.Attributes["size"]
			item.Color = variant.Attributes["color"]
		} else {
			// Pas de variante choisie : prix de repli, minimum parmi les
			// variantes du produit
			price, err := s.inventory.MinVariantPrice(ctx, ci.ProductID)
			if err != nil {
				return nil, fmt.Errorf("prix de repli produit %s: %w", ci.ProductID, err)
			}
			item.Price = price
		}

		total += item.Price * float64(item.Quantity)
		items = append(items, item)
	}

	if promoCode != "" {
		if s.promos == nil {
			return nil, errs.NewValidation("promo_code", "codes promotionnels non disponibles")
		}
		discount, err := s.promos.Apply(ctx, promoCode, userID, orderID, total)
		if err != nil {
			return nil, err
		}
		total -= discount
		if total < 0 {
			total = 0
		}
	}

	order := models.Order{
		ID:            orderID,
		OrderCode:     NewOrderCode(),
		UserID:        userID,
		TotalPrice:    total, // figé ici, jamais recalculé
		OrderStatus:   models.OrderPending,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	parsed := models.ParseAddress(shippingAddress)
	shipping := models.ShippingRecord{
		ID:         gocql.UUID(uuid.New()),
		OrderID:    orderID,
		RawAddress: shippingAddress,
		Address1:   parsed.Address1,
		City:       parsed.City,
		State:      parsed.State,
		Postcode:   parsed.Postcode,
		Structured: parsed.Kind == models.AddressStructured,
		Status:     models.ShippingPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	payment := models.PaymentRecord{
		ID:            gocql.UUID(uuid.New()),
		OrderID:       orderID,
		Amount:        total,
		Method:        paymentMethod,
		Status:        models.PaymentPending,
		TransactionID: uuid.New().String(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orders.CreateOrderAtomic(ctx, order, items, shipping, payment, userID); err != nil {
		// Rollback complet : le panier reste intact, le client reçoit un
		// message générique, le détail reste côté serveur
		log.Printf("❌ Écriture commande %s échouée (user %s): %v", order.OrderCode, userID, err)
		return nil, ErrOrderWrite
	}

	log.Printf("✅ Commande %s créée (%.2f€, %d lignes) pour %s", order.OrderCode, total, len(items), userID)

	detail := &models.OrderDetail{Order: order, Items: items, Shipping: &shipping, Payment: &payment}

	// Après commit : livraison best-effort. Une panne transporteur laisse
	// tracking_number à null et la commande visible pour reprise manuelle.
	if models.NeedsDelivery(paymentMethod) {
		s.createDeliveryAfterCommit(ctx, detail, parsed)
	}

	if s.notify != nil {
		if user, err := s.accounts.GetUser(ctx, userID); err == nil && user.Email != "" {
			go s.notify.OrderConfirmed(*detail, user.Email)
		}
	}
	if s.indexer != nil {
		go s.indexer.IndexOrder(order)
	}

	return detail, nil
}

func (s *Service) createDeliveryAfterCommit(ctx context.Context, detail *models.OrderDetail, addr models.Address) {
	if s.delivery == nil {
		return
	}

	user, err := s.accounts.GetUser(ctx, detail.Order.UserID)
	if err != nil {
		log.Printf("⚠️ Livraison non créée pour %s (étape contact): %v — commande conservée, suivi à null",
			detail.Order.OrderCode, err)
		return
	}

	totalQty := 0
	for _, it := range detail.Items {
		totalQty += it.Quantity
	}

	tracking, carrier, err := s.delivery.CreateDelivery(ctx, detail.Order.OrderCode, *user, addr,
		totalQty, detail.Payment.Method, detail.Order.TotalPrice)
	if err != nil {
		// Échec partiel assumé : la commande survit à une panne transporteur
		log.Printf("⚠️ Livraison non créée pour %s (étape transporteur): %v — commande conservée, suivi à null",
			detail.Order.OrderCode, err)
		return
	}

	if err := s.orders.SetTracking(ctx, detail.Order.ID, tracking, carrier); err != nil {
		log.Printf("⚠️ Numéro de suivi %s non persisté pour %s: %v", tracking, detail.Order.OrderCode, err)
		return
	}
	detail.Shipping.TrackingNumber = &tracking
	detail.Shipping.Carrier = carrier
}

// GetOrder retourne une commande avec lignes, livraison et paiement.
// Un client ne voit que ses commandes ; un admin voit tout.
func (s *Service) GetOrder(ctx context.Context, id gocql.UUID, requesterID, requesterRole string) (*models.OrderDetail, error) {
	detail, err := s.orders.GetOrderDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if requesterRole != "admin" && detail.Order.UserID != requesterID {
		return nil, errs.ErrForbidden
	}
	return detail, nil
}

// ListOrders retourne les commandes d'un utilisateur
func (s *Service) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orders.ListOrdersByUser(ctx, userID)
}

// UpdateFields : champs modifiables par un admin, chacun indépendant
type UpdateFields struct {
	OrderStatus    string `json:"order_status"`
	PaymentStatus  string `json:"payment_status"`
	ShippingStatus string `json:"shipping_status"`
}

// UpdateOrder applique les champs non vides après validation du vocabulaire.
// Toute valeur inconnue est rejetée en bloc.
func (s *Service) UpdateOrder(ctx context.Context, id gocql.UUID, fields UpdateFields, adminID string) error {
	if fields.OrderStatus == "" && fields.PaymentStatus == "" && fields.ShippingStatus == "" {
		return errs.NewValidation("fields", "aucune mise à jour fournie")
	}
	if fields.OrderStatus != "" {
		if !models.IsValidOrderStatus(fields.OrderStatus) {
			return errs.NewValidation("order_status", "statut de commande inconnu: "+fields.OrderStatus)
		}
		// completed n'est jamais posé à la main : seul le balayage
		// d'auto-complétion effectue delivered → completed
		if fields.OrderStatus == models.OrderCompleted {
			return errs.NewValidation("order_status", "completed est réservé à l'auto-complétion")
		}
	}
	if fields.PaymentStatus != "" && !models.IsValidPaymentStatus(fields.PaymentStatus) {
		return errs.NewValidation("payment_status", "statut de paiement inconnu: "+fields.PaymentStatus)
	}
	if fields.ShippingStatus != "" && !models.IsValidShippingStatus(fields.ShippingStatus) {
		return errs.NewValidation("shipping_status", "statut de livraison inconnu: "+fields.ShippingStatus)
	}

	before, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if fields.OrderStatus != "" && fields.OrderStatus != before.OrderStatus &&
		!models.CanTransitionOrder(before.OrderStatus, fields.OrderStatus) {
		return errs.NewValidation("order_status",
			"transition interdite de "+before.OrderStatus+" vers "+fields.OrderStatus)
	}

	if err := s.orders.UpdateOrderFields(ctx, id, fields.OrderStatus, fields.PaymentStatus, fields.ShippingStatus); err != nil {
		return fmt.Errorf("mise à jour commande %s: %w", id, err)
	}

	s.audit(ctx, adminID, "order.update", id, before, fields)

	// Le suivi en cache ne doit pas survivre à une correction manuelle
	if fields.ShippingStatus != "" && s.tracking != nil {
		if sh, err := s.orders.GetShipping(ctx, id); err == nil && sh.TrackingNumber != nil {
			s.tracking.Invalidate(*sh.TrackingNumber)
		}
	}

	if fields.OrderStatus != "" {
		after := *before
		after.OrderStatus = fields.OrderStatus
		s.notifyStatus(ctx, after, fields.OrderStatus)
		if s.indexer != nil {
			go s.indexer.IndexOrder(after)
		}
	}
	return nil
}

// CancelOrder annule une commande encore annulable. Le statut est revérifié
// par compare-and-set au moment de l'écriture : une course avec un webhook
// transporteur (commande passée shipped entre-temps) perd proprement.
func (s *Service) CancelOrder(ctx context.Context, id gocql.UUID, requesterID, requesterRole string) error {
	detail, err := s.orders.GetOrderDetail(ctx, id)
	if err != nil {
		return err
	}
	if requesterRole != "admin" && detail.Order.UserID != requesterID {
		return errs.ErrForbidden
	}
	if !models.IsCancellable(detail.Order.OrderStatus) {
		return errs.NewValidation("order_status",
			"commande non annulable depuis le statut "+detail.Order.OrderStatus)
	}

	applied, current, err := s.orders.CASOrderStatus(ctx, id, detail.Order.OrderStatus, models.OrderCancelled)
	if err != nil {
		return fmt.Errorf("annulation commande %s: %w", id, err)
	}
	if !applied {
		// Le statut a bougé entre la lecture et l'écriture : aucune mutation
		log.Printf("⚠️ Annulation refusée pour %s: statut passé à %s pendant l'opération", detail.Order.OrderCode, current)
		return errs.ErrConflict
	}

	// Restock : une variante du produit est réincrémentée de la quantité de
	// la ligne, avec journalisation du mouvement d'inventaire
	for _, item := range detail.Items {
		if err := s.inventory.Restock(ctx, item.ProductID, item.Quantity, id, requesterID); err != nil {
			log.Printf("⚠️ Restock produit %s après annulation de %s échoué: %v", item.ProductID, detail.Order.OrderCode, err)
		}
	}

	if detail.Payment != nil && detail.Payment.Status == models.PaymentCompleted {
		if _, _, err := s.orders.CASPaymentStatus(ctx, id, models.PaymentCompleted, models.PaymentRefunded); err != nil {
			log.Printf("⚠️ Passage du paiement en refunded pour %s échoué: %v", detail.Order.OrderCode, err)
		}
	}

	s.audit(ctx, requesterID, "order.cancel", id, detail.Order.OrderStatus, models.OrderCancelled)
	log.Printf("✅ Commande %s annulée", detail.Order.OrderCode)

	cancelled := detail.Order
	cancelled.OrderStatus = models.OrderCancelled
	s.notifyStatus(ctx, cancelled, models.OrderCancelled)
	if s.indexer != nil {
		go s.indexer.IndexOrder(cancelled)
	}
	return nil
}

// ApplyPaymentResult applique un statut de transaction VÉRIFIÉ auprès de la
// passerelle. Idempotent : le même couple (transaction, statut) appliqué deux
// fois ne produit qu'une seule transition.
func (s *Service) ApplyPaymentResult(ctx context.Context, transactionID, referenceNumber, paymentStatus string) error {
	payment, err := s.orders.GetPaymentByTransaction(ctx, transactionID)
	if err != nil {
		return err
	}

	switch paymentStatus {
	case models.PaymentCompleted:
		if payment.Status != models.PaymentPending && payment.Status != models.PaymentWaitingConfirmation {
			// Déjà appliqué (ou remboursé) : no-op
			return nil
		}
		applied, _, err := s.orders.CASPaymentStatus(ctx, payment.OrderID, payment.Status, models.PaymentCompleted)
		if err != nil {
			return err
		}
		if !applied {
			return nil
		}
		if err := s.orders.UpdateOrderFields(ctx, payment.OrderID, "", models.PaymentCompleted, ""); err != nil {
			log.Printf("⚠️ Statut de paiement non reporté sur la commande %s: %v", payment.OrderID, err)
		}
		if ok, _, err := s.orders.CASOrderStatus(ctx, payment.OrderID, models.OrderPending, models.OrderProcessing); err == nil && ok {
			if order, err := s.orders.GetOrder(ctx, payment.OrderID); err == nil {
				s.notifyStatus(ctx, *order, models.OrderProcessing)
				if s.indexer != nil {
					go s.indexer.IndexOrder(*order)
				}
			}
		}
		log.Printf("✅ Paiement confirmé pour transaction %s (réf %s)", transactionID, referenceNumber)

	case models.PaymentFailed:
		if payment.Status != models.PaymentPending && payment.Status != models.PaymentWaitingConfirmation {
			return nil
		}
		if _, _, err := s.orders.CASPaymentStatus(ctx, payment.OrderID, payment.Status, models.PaymentFailed); err != nil {
			return err
		}
		if err := s.orders.UpdateOrderFields(ctx, payment.OrderID, "", models.PaymentFailed, ""); err != nil {
			log.Printf("⚠️ Statut de paiement non reporté sur la commande %s: %v", payment.OrderID, err)
		}
		log.Printf("❌ Paiement refusé pour transaction %s", transactionID)

	case models.PaymentWaitingConfirmation:
		if payment.Status != models.PaymentPending {
			return nil
		}
		if _, _, err := s.orders.CASPaymentStatus(ctx, payment.OrderID, models.PaymentPending, models.PaymentWaitingConfirmation); err != nil {
			return err
		}

	default:
		return errs.NewValidation("status", "statut de paiement inattendu: "+paymentStatus)
	}
	return nil
}

// AutoCompleteOrders promeut en completed les commandes livrées et payées
// dont la dernière mise à jour est antérieure au délai de grâce et sans
// réclamation ouverte. Idempotent : une exécution immédiate suivante ne
// sélectionne aucune ligne.
func (s *Service) AutoCompleteOrders(ctx context.Context, gracePeriod time.Duration) (int, error) {
	cutoff := s.now().Add(-gracePeriod)
	candidates, err := s.orders.ListAutoCompletable(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sélection des commandes auto-complétables: %w", err)
	}

	completed := 0
	for _, order := range candidates {
		// Revérification réclamation au moment de l'écriture
		if open, err := s.orders.HasOpenIssue(ctx, order.ID); err != nil || open {
			continue
		}
		applied, _, err := s.orders.CASOrderStatus(ctx, order.ID, models.OrderDelivered, models.OrderCompleted)
		if err != nil {
			log.Printf("⚠️ Auto-complétion de %s échouée: %v", order.OrderCode, err)
			continue
		}
		if !applied {
			continue
		}
		completed++
		s.audit(ctx, "sweeper", "order.auto_complete", order.ID, models.OrderDelivered, models.OrderCompleted)
		if s.indexer != nil {
			done := order
			done.OrderStatus = models.OrderCompleted
			go s.indexer.IndexOrder(done)
		}
	}

	if completed > 0 {
		log.Printf("✅ Auto-complétion: %d commande(s) passée(s) en completed", completed)
	}
	return completed, nil
}

func (s *Service) notifyStatus(ctx context.Context, order models.Order, newStatus string) {
	if s.notify == nil {
		return
	}
	user, err := s.accounts.GetUser(ctx, order.UserID)
	if err != nil || user.Email == "" {
		return
	}
	go s.notify.OrderStatusChanged(order, user.Email, newStatus)
}

func (s *Service) audit(ctx context.Context, userID, action string, orderID gocql.UUID, oldValue, newValue interface{}) {
	oldJSON, _ := json.Marshal(oldValue)
	newJSON, _ := json.Marshal(newValue)
	entry := models.AuditLog{
		ID:         gocql.UUID(uuid.New()),
		UserID:     userID,
		Action:     action,
		Resource:   "order",
		ResourceID: orderID.String(),
		OldValue:   string(oldJSON),
		NewValue:   string(newJSON),
		Success:    true,
		Timestamp:  s.now(),
	}
	if err := s.orders.AppendAudit(ctx, entry); err != nil {
		log.Printf("⚠️ Erreur enregistrement audit %s: %v", action, err)
	}
}
