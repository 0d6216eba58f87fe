package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
)

// ScyllaOrderStore implémente OrderStore sur le keyspace ks_orders.
// L'atomicité de CreateOrderAtomic repose sur un batch loggé : toutes les
// tables concernées (commande, lignes, livraison, paiement, panier) vivent
// dans le même keyspace.
type ScyllaOrderStore struct{}

func NewScyllaOrderStore() *ScyllaOrderStore {
	return &ScyllaOrderStore{}
}

func (s *ScyllaOrderStore) CreateOrderAtomic(ctx context.Context, order models.Order, items []models.OrderItem,
	shipping models.ShippingRecord, payment models.PaymentRecord, clearCartUserID string) error {

	session, err := database.GetOrdersSession()
	if err != nil {
		return fmt.Errorf("session ScyllaDB orders: %w", err)
	}

	batch := session.NewBatch(gocql.LoggedBatch).WithContext(ctx)

	batch.Query(`INSERT INTO orders (order_id, order_code, user_id, total_price, order_status, payment_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.OrderCode, order.UserID, order.TotalPrice,
		order.OrderStatus, order.PaymentStatus, order.CreatedAt, order.UpdatedAt)

	for _, item := range items {
		batch.Query(`INSERT INTO order_items (order_id, item_id, product_id, variant_id, quantity, price, size, color, sku)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.OrderID, item.ID, item.ProductID, item.VariantID,
			item.Quantity, item.Price, item.Size, item.Color, item.SKU)
	}

	batch.Query(`INSERT INTO shipping_records (order_id, shipping_id, raw_address, address1, city, state, postcode, structured, carrier, tracking_number, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		shipping.OrderID, shipping.ID, shipping.RawAddress, shipping.Address1,
		shipping.City, shipping.State, shipping.Postcode, shipping.Structured,
		shipping.Carrier, shipping.TrackingNumber, shipping.Status,
		shipping.CreatedAt, shipping.UpdatedAt)

	batch.Query(`INSERT INTO payment_records (order_id, payment_id, amount, method, status, transaction_id, reference_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.OrderID, payment.ID, payment.Amount, payment.Method,
		payment.Status, payment.TransactionID, payment.ReferenceNumber,
		payment.CreatedAt, payment.UpdatedAt)

	// Table de correspondance pour retrouver le paiement depuis le postback
	batch.Query(`INSERT INTO payments_by_transaction (transaction_id, payment_id, order_id, amount, method, status, reference_number)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		payment.TransactionID, payment.ID, payment.OrderID, payment.Amount,
		payment.Method, payment.Status, payment.ReferenceNumber)

	// Vider le panier dans le même lot : pas de commande avec panier résiduel,
	// pas de panier vidé sans commande
	batch.Query(`DELETE FROM cart_items WHERE user_id = ?`, clearCartUserID)

	if err := session.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("batch création commande: %w", err)
	}
	return nil
}

func (s *ScyllaOrderStore) GetOrder(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, fmt.Errorf("session ScyllaDB orders: %w", err)
	}

	q := database.GetPreparedGetOrder()
	if q == nil {
		q = session.Query(`SELECT order_id, order_code, user_id, total_price, order_status, payment_status, created_at, updated_at
			FROM orders WHERE order_id = ?`)
	}

	var o models.Order
	err = q.WithContext(ctx).Bind(id).
		Scan(&o.ID, &o.OrderCode, &o.UserID, &o.TotalPrice, &o.OrderStatus, &o.PaymentStatus, &o.CreatedAt, &o.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, errsNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("lecture commande %s: %w", id, err)
	}
	return &o, nil
}

func (s *ScyllaOrderStore) GetOrderDetail(ctx context.Context, id gocql.UUID) (*models.OrderDetail, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	session, _ := database.GetOrdersSession()

	detail := &models.OrderDetail{Order: *order}

	itemsQuery := database.GetPreparedGetOrderItems()
	if itemsQuery == nil {
		itemsQuery = session.Query(`SELECT item_id, order_id, product_id, variant_id, quantity, price, size, color, sku
			FROM order_items WHERE order_id = ?`)
	}

	iter := itemsQuery.WithContext(ctx).Bind(id).Iter()
	var item models.OrderItem
	for iter.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.VariantID,
		&item.Quantity, &item.Price, &item.Size, &item.Color, &item.SKU) {
		detail.Items = append(detail.Items, item)
		item = models.OrderItem{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture lignes commande %s: %w", id, err)
	}

	if shipping, err := s.GetShipping(ctx, id); err == nil {
		detail.Shipping = shipping
	}
	if payment, err := s.GetPayment(ctx, id); err == nil {
		detail.Payment = payment
	}
	return detail, nil
}

func (s *ScyllaOrderStore) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, fmt.Errorf("session ScyllaDB orders: %w", err)
	}

	iter := session.Query(`SELECT order_id, order_code, user_id, total_price, order_status, payment_status, created_at, updated_at
		FROM orders_by_user WHERE user_id = ?`, userID).WithContext(ctx).Iter()

	var orders []models.Order
	var o models.Order
	for iter.Scan(&o.ID, &o.OrderCode, &o.UserID, &o.TotalPrice, &o.OrderStatus, &o.PaymentStatus, &o.CreatedAt, &o.UpdatedAt) {
		orders = append(orders, o)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture commandes utilisateur %s: %w", userID, err)
	}
	return orders, nil
}

func (s *ScyllaOrderStore) UpdateOrderFields(ctx context.Context, id gocql.UUID, orderStatus, paymentStatus, shippingStatus string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return fmt.Errorf("session ScyllaDB orders: %w", err)
	}

	now := time.Now()

	var sets []string
	var args []interface{}
	if orderStatus != "" {
		sets = append(sets, "order_status = ?")
		args = append(args, orderStatus)
	}
	if paymentStatus != "" {
		sets = append(sets, "payment_status = ?")
		args = append(args, paymentStatus)
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, now, id)
		cql := "UPDATE orders SET " + strings.Join(sets, ", ") + " WHERE order_id = ?"
		if err := session.Query(cql, args...).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("mise à jour commande %s: %w", id, err)
		}
	}

	if paymentStatus != "" {
		if err := session.Query(`UPDATE payment_records SET status = ?, updated_at = ? WHERE order_id = ?`,
			paymentStatus, now, id).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("mise à jour paiement de %s: %w", id, err)
		}
	}

	if shippingStatus != "" {
		if err := session.Query(`UPDATE shipping_records SET status = ?, updated_at = ? WHERE order_id = ?`,
			shippingStatus, now, id).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("mise à jour livraison de %s: %w", id, err)
		}
	}
	return nil
}

func (s *ScyllaOrderStore) CASOrderStatus(ctx context.Context, id gocql.UUID, from, to string) (bool, string, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, "", fmt.Errorf("session ScyllaDB orders: %w", err)
	}

	var current string
	applied, err := session.Query(`UPDATE orders SET order_status = ?, updated_at = ? WHERE order_id = ? IF order_status = ?`,
		to, time.Now(), id, from).WithContext(ctx).ScanCAS(&current)
	if err != nil {
		return false, "", fmt.Errorf("CAS statut commande %s: %w", id, err)
	}
	if applied {
		current = to
	}
	return applied, current, nil
}

func (s *ScyllaOrderStore) CASPaymentStatus(ctx context.Context, orderID gocql.UUID, from, to string) (bool, string, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, "", fmt.Errorf("session ScyllaDB orders: %w", err)
	}

	var current string
	applied, err := session.Query(`UPDATE payment_records SET status = ?, updated_at = ? WHERE order_id = ? IF status = ?`,
		to, time.Now(), orderID, from).WithContext(ctx).ScanCAS(&current)
	if err != nil {
		return false, "", fmt.Errorf("CAS statut paiement %s: %w", orderID, err)
	}
	if applied {
		current = to
	}
	return applied, current, nil
}

func (s *ScyllaOrderStore) SetTracking(ctx context.Context, orderID gocql.UUID, trackingNumber, carrier string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return fmt.Errorf("session ScyllaDB orders: %w", err)
	}

	if err := session.Query(`UPDATE shipping_records SET tracking_number = ?, carrier = ?, updated_at = ? WHERE order_id = ?`,
		trackingNumber, carrier, time.Now(), orderID).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("enregistrement suivi %s: %w", trackingNumber, err)
	}
	return nil
}

func (s *ScyllaOrderStore) GetShipping(ctx context.Context, orderID gocql.UUID) (*models.ShippingRecord, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, fmt.Errorf("session ScyllaDB orders: %w", err)
	}

	var r models.ShippingRecord
	err = session.Query(`SELECT order_id, shipping_id, raw_address, address1, city, state, postcode, structured, carrier, tracking_number, status, created_at, updated_at
		FROM shipping_records WHERE order_id = ?`, orderID).WithContext(ctx).
		Scan(&r.OrderID, &r.ID, &r.RawAddress, &r.Address1, &r.City, &r.State, &r.Postcode,
			&r.Structured, &r.Carrier, &r.TrackingNumber, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, errsNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("lecture livraison de %s: %w", orderID, err)
	}
	return &r, nil
}

func (s *ScyllaOrderStore) GetPayment(ctx context.Context, orderID gocql.UUID) (*models.PaymentRecord, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, fmt.Errorf("session ScyllaDB orders: %w", err)
	}

	var p models.PaymentRecord
	err = session.Query(`SELECT order_id, payment_id, amount, method, status, transaction_id, reference_number, created_at, updated_at
		FROM payment_records WHERE order_id = ?`, orderID).WithContext(ctx).
		Scan(&p.OrderID, &p.ID, &p.Amount, &p.Method, &p.Status, &p.TransactionID, &p.ReferenceNumber, &p.CreatedAt, &p.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, errsNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("lecture paiement de %s: %w", orderID, err)
	}
	return &p, nil
}

func (s *ScyllaOrderStore) GetPaymentByTransaction(ctx context.Context, transactionID string) (*models.PaymentRecord, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, fmt.Errorf("session ScyllaDB orders: %w", err)
	}

	q := database.GetPreparedGetPaymentByTx()
	if q == nil {
		q = session.Query(`SELECT payment_id, order_id, amount, method, status, reference_number
			FROM payments_by_transaction WHERE transaction_id = ?`)
	}

	var p models.PaymentRecord
	p.TransactionID = transactionID
	err = q.WithContext(ctx).Bind(transactionID).
		Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Status, &p.ReferenceNumber)
	if err == gocql.ErrNotFound {
		return nil, errsNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("lecture transaction %s: %w", transactionID, err)
	}

	// La table de correspondance n'est pas mise à jour par les CAS : le statut
	// de référence vit dans payment_records
	if fresh, err := s.GetPayment(ctx, p.OrderID); err == nil {
		return fresh, nil
	}
	return &p, nil
}

func (s *ScyllaOrderStore) ListAutoCompletable(ctx context.Context, olderThan time.Time) ([]models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, fmt.Errorf("session ScyllaDB orders: %w", err)
	}

	// Vue matérialisée orders_by_status, partitionnée par order_status
	iter := session.Query(`SELECT order_id, order_code, user_id, total_price, order_status, payment_status, created_at, updated_at
		FROM orders_by_status WHERE order_status = ?`, models.OrderDelivered).WithContext(ctx).Iter()

	var candidates []models.Order
	var o models.Order
	for iter.Scan(&o.ID, &o.OrderCode, &o.UserID, &o.TotalPrice, &o.OrderStatus, &o.PaymentStatus, &o.CreatedAt, &o.UpdatedAt) {
		if o.PaymentStatus == models.PaymentCompleted && o.UpdatedAt.Before(olderThan) {
			candidates = append(candidates, o)
		}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture commandes livrées: %w", err)
	}

	// Les réclamations ouvertes écartent la commande de la sélection
	var eligible []models.Order
	for _, c := range candidates {
		open, err := s.HasOpenIssue(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if !open {
			eligible = append(eligible, c)
		}
	}
	return eligible, nil
}

func (s *ScyllaOrderStore) HasOpenIssue(ctx context.Context, orderID gocql.UUID) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, fmt.Errorf("session ScyllaDB orders: %w", err)
	}

	iter := session.Query(`SELECT status FROM issues WHERE order_id = ?`, orderID).WithContext(ctx).Iter()
	var status string
	open := false
	for iter.Scan(&status) {
		if status == models.IssueOpen {
			open = true
		}
	}
	if err := iter.Close(); err != nil {
		return false, fmt.Errorf("lecture réclamations de %s: %w", orderID, err)
	}
	return open, nil
}

func (s *ScyllaOrderStore) AppendAudit(ctx context.Context, entry models.AuditLog) error {
	if q := database.GetPreparedInsertAuditLog(); q != nil {
		return q.WithContext(ctx).Bind(entry.ID, entry.UserID, entry.Action, entry.Resource, entry.ResourceID,
			entry.OldValue, entry.NewValue, entry.Success, entry.ErrorMsg, entry.Timestamp).Exec()
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		return fmt.Errorf("session ScyllaDB orders: %w", err)
	}
	return session.Query(`INSERT INTO order_audit (id, user_id, action, resource, resource_id, old_value, new_value, success, error_msg, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.Action, entry.Resource, entry.ResourceID,
		entry.OldValue, entry.NewValue, entry.Success, entry.ErrorMsg, entry.Timestamp).
		WithContext(ctx).Exec()
}
