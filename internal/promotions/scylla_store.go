package promotions

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"

	"velora_back_end/internal/database"
	"velora_back_end/internal/errs"
	"velora_back_end/internal/models"
)

// ScyllaStore : promotions et usages dans ks_orders. L'unicité d'usage repose
// sur INSERT ... IF NOT EXISTS (clé (promo_id, user_id)), pas sur une lecture
// préalable.
type ScyllaStore struct{}

func NewScyllaStore() *ScyllaStore {
	return &ScyllaStore{}
}

func (s *ScyllaStore) GetByCode(ctx context.Context, code string) (*models.Promotion, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, fmt.Errorf("session ScyllaDB orders: %w", err)
	}

	var p models.Promotion
	err = session.Query(`SELECT promo_id, code, type, value, min_amount, max_uses, max_uses_per_user, starts_at, expires_at, is_active, created_at, updated_at
		FROM promotions WHERE code = ?`, code).WithContext(ctx).
		Scan(&p.ID, &p.Code, &p.Type, &p.Value, &p.MinAmount, &p.MaxUses,
			&p.MaxUsesPerUser, &p.StartsAt, &p.ExpiresAt, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture promotion %s: %w", code, err)
	}

	// Le compteur global vit dans une table counter dédiée
	var used int64
	err = session.Query(`SELECT used_count FROM promotion_counters WHERE promo_id = ?`, p.ID).
		WithContext(ctx).Scan(&used)
	if err != nil && err != gocql.ErrNotFound {
		return nil, fmt.Errorf("lecture compteur promotion %s: %w", code, err)
	}
	p.UsedCount = int(used)

	return &p, nil
}

func (s *ScyllaStore) CountUserUsage(ctx context.Context, promoID gocql.UUID, userID string) (int, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return 0, fmt.Errorf("session ScyllaDB orders: %w", err)
	}

	var count int
	err = session.Query(`SELECT COUNT(*) FROM promotion_usages WHERE promo_id = ? AND user_id = ?`,
		promoID, userID).WithContext(ctx).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("comptage usages promotion %s: %w", promoID, err)
	}
	return count, nil
}

func (s *ScyllaStore) MarkUsed(ctx context.Context, usage models.PromotionUsage) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, fmt.Errorf("session ScyllaDB orders: %w", err)
	}

	// LWT : le premier arrivé écrit, les suivants voient applied=false
	applied, err := session.Query(`INSERT INTO promotion_usages (promo_id, user_id, order_id, used_at)
		VALUES (?, ?, ?, ?) IF NOT EXISTS`,
		usage.PromoID, usage.UserID, usage.OrderID, usage.UsedAt).
		WithContext(ctx).ScanCAS()
	if err != nil {
		return false, fmt.Errorf("enregistrement usage promotion %s: %w", usage.PromoID, err)
	}
	return applied, nil
}

func (s *ScyllaStore) IncrementUsedCount(ctx context.Context, promoID gocql.UUID) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return fmt.Errorf("session ScyllaDB orders: %w", err)
	}

	return session.Query(`UPDATE promotion_counters SET used_count = used_count + 1 WHERE promo_id = ?`,
		promoID).WithContext(ctx).Exec()
}
