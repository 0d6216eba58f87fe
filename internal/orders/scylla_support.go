package orders

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"velora_back_end/internal/database"
	"velora_back_end/internal/errs"
	"velora_back_end/internal/models"
)

func errsNotFound() error {
	return errs.ErrNotFound
}

// ScyllaCartStore lit le panier depuis ks_orders. Le panier vit dans le même
// keyspace que les commandes pour que sa suppression rejoigne le batch atomique.
type ScyllaCartStore struct{}

func NewScyllaCartStore() *ScyllaCartStore {
	return &ScyllaCartStore{}
}

func (s *ScyllaCartStore) GetItems(ctx context.Context, userID string) ([]models.CartItem, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, fmt.Errorf("session ScyllaDB orders: %w", err)
	}

	q := database.GetPreparedGetCartItems()
	if q == nil {
		q = session.Query(`SELECT user_id, product_id, variant_id, quantity, added_at
			FROM cart_items WHERE user_id = ?`)
	}

	iter := q.WithContext(ctx).Bind(userID).Iter()

	var items []models.CartItem
	var it models.CartItem
	for iter.Scan(&it.UserID, &it.ProductID, &it.VariantID, &it.Quantity, &it.AddedAt) {
		items = append(items, it)
		it = models.CartItem{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture panier %s: %w", userID, err)
	}
	return items, nil
}

// ScyllaInventoryStore : variantes et mouvements de stock, keyspace ks_products
type ScyllaInventoryStore struct{}

func NewScyllaInventoryStore() *ScyllaInventoryStore {
	return &ScyllaInventoryStore{}
}

func (s *ScyllaInventoryStore) GetVariant(ctx context.Context, variantID gocql.UUID) (*models.ProductVariant, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, fmt.Errorf("session ScyllaDB products: %w", err)
	}

	var v models.ProductVariant
	err = session.Query(`SELECT variant_id, product_id, sku, price, stock, attributes, is_active, created_at, updated_at
		FROM product_variants_by_id WHERE variant_id = ?`, variantID).WithContext(ctx).
		Scan(&v.ID, &v.ProductID, &v.SKU, &v.Price, &v.Stock, &v.Attributes, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture variante %s: %w", variantID, err)
	}
	return &v, nil
}

func (s *ScyllaInventoryStore) MinVariantPrice(ctx context.Context, productID gocql.UUID) (float64, error) {
	variants, err := s.listVariants(ctx, productID)
	if err != nil {
		return 0, err
	}
	if len(variants) == 0 {
		return 0, errs.NewValidation("product", "produit sans variante: "+productID.String())
	}

	min := variants[0].Price
	for _, v := range variants[1:] {
		if v.Price < min {
			min = v.Price
		}
	}
	return min, nil
}

// Restock réincrémente la variante au plus petit identifiant du produit.
// Heuristique assumée : la ligne de commande ne retient pas toujours la
// variante, le stock retourne donc sur une variante déterministe du produit.
func (s *ScyllaInventoryStore) Restock(ctx context.Context, productID gocql.UUID, quantity int, orderID gocql.UUID, userID string) error {
	session, err := database.GetProductsSession()
	if err != nil {
		return fmt.Errorf("session ScyllaDB products: %w", err)
	}

	variants, err := s.listVariants(ctx, productID)
	if err != nil {
		return err
	}
	if len(variants) == 0 {
		return errs.NewValidation("product", "produit sans variante: "+productID.String())
	}

	target := variants[0]
	for _, v := range variants[1:] {
		if v.ID.String() < target.ID.String() {
			target = v
		}
	}

	newStock := target.Stock + quantity
	if err := session.Query(`UPDATE product_variants SET stock = ?, updated_at = ? WHERE product_id = ? AND variant_id = ?`,
		newStock, time.Now(), productID, target.ID).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("restock variante %s: %w", target.ID, err)
	}

	movement := models.StockMovement{
		ID:        gocql.UUID(uuid.New()),
		ProductID: productID,
		VariantID: &target.ID,
		Type:      "return",
		Quantity:  quantity,
		PrevStock: target.Stock,
		NewStock:  newStock,
		Reason:    "annulation de commande",
		OrderID:   &orderID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	if err := session.Query(`INSERT INTO stock_movements (movement_id, product_id, variant_id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		movement.ID, movement.ProductID, movement.VariantID, movement.Type, movement.Quantity,
		movement.PrevStock, movement.NewStock, movement.Reason, movement.OrderID, movement.UserID,
		movement.CreatedAt).WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Mouvement de stock non journalisé (variante %s): %v", target.ID, err)
	}

	log.Printf("📦 Stock variante %s: %d → %d (retour commande)", target.ID, target.Stock, newStock)
	return nil
}

func (s *ScyllaInventoryStore) listVariants(ctx context.Context, productID gocql.UUID) ([]models.ProductVariant, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, fmt.Errorf("session ScyllaDB products: %w", err)
	}

	iter := session.Query(`SELECT variant_id, product_id, sku, price, stock, attributes, is_active, created_at, updated_at
		FROM product_variants WHERE product_id = ?`, productID).WithContext(ctx).Iter()

	var variants []models.ProductVariant
	var v models.ProductVariant
	for iter.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Price, &v.Stock, &v.Attributes, &v.IsActive, &v.CreatedAt, &v.UpdatedAt) {
		variants = append(variants, v)
		v = models.ProductVariant{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture variantes produit %s: %w", productID, err)
	}
	return variants, nil
}

// ScyllaAccountStore : coordonnées client, keyspace ks_users
type ScyllaAccountStore struct{}

func NewScyllaAccountStore() *ScyllaAccountStore {
	return &ScyllaAccountStore{}
}

func (s *ScyllaAccountStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return nil, fmt.Errorf("session ScyllaDB users: %w", err)
	}

	var u models.User
	err = session.Query(`SELECT user_id, name, email, phone, role, country
		FROM users WHERE user_id = ?`, userID).WithContext(ctx).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Country)
	if err == gocql.ErrNotFound {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture utilisateur %s: %w", userID, err)
	}
	return &u, nil
}
