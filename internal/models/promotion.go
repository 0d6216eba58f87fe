package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Promotion struct {
	ID             gocql.UUID `json:"id"`
	Code           string     `json:"code"`
	Type           string     `json:"type"` // "percentage", "fixed"
	Value          float64    `json:"value"`
	MinAmount      float64    `json:"min_amount"`
	MaxUses        int        `json:"max_uses"` // 0 = illimité
	UsedCount      int        `json:"used_count"`
	MaxUsesPerUser int        `json:"max_uses_per_user"` // 1 = usage unique
	StartsAt       time.Time  `json:"starts_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// PromotionUsage : une ligne par (promotion, utilisateur, commande).
// L'unicité (promo_id, user_id) est garantie par la base, pas par un compteur en mémoire.
type PromotionUsage struct {
	PromoID gocql.UUID `json:"promo_id"`
	UserID  string     `json:"user_id"`
	OrderID gocql.UUID `json:"order_id"`
	UsedAt  time.Time  `json:"used_at"`
}

type PromotionValidation struct {
	IsValid      bool    `json:"is_valid"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Discount     float64 `json:"discount"`
	Code         string  `json:"code"`
}
