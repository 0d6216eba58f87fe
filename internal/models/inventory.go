package models

import (
	"time"

	"github.com/gocql/gocql"
)

type ProductVariant struct {
	ID         gocql.UUID        `json:"id"`
	ProductID  gocql.UUID        `json:"product_id"`
	SKU        string            `json:"sku"`
	Price      float64           `json:"price"`
	Stock      int               `json:"stock"`
	Attributes map[string]string `json:"attributes"` // {"size": "L", "color": "red"}
	IsActive   bool              `json:"is_active"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

type StockMovement struct {
	ID        gocql.UUID  `json:"id"`
	ProductID gocql.UUID  `json:"product_id"`
	VariantID *gocql.UUID `json:"variant_id,omitempty"`
	Type      string      `json:"type"` // "sale", "restock", "return", "adjustment"
	Quantity  int         `json:"quantity"`
	PrevStock int         `json:"prev_stock"`
	NewStock  int         `json:"new_stock"`
	Reason    string      `json:"reason"`
	OrderID   *gocql.UUID `json:"order_id,omitempty"`
	UserID    string      `json:"user_id"`
	CreatedAt time.Time   `json:"created_at"`
}
