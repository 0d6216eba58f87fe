package models

import (
	"time"

	"github.com/gocql/gocql"
)

type CartItem struct {
	UserID    string      `json:"user_id"`
	ProductID gocql.UUID  `json:"product_id"`
	VariantID *gocql.UUID `json:"variant_id,omitempty"`
	Quantity  int         `json:"quantity"`
	AddedAt   time.Time   `json:"added_at"`
}
