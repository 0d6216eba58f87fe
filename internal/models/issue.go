package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Issue : réclamation ouverte sur une commande (litige, demande de remboursement...).
// Une commande avec une réclamation ouverte n'est jamais auto-complétée.
type Issue struct {
	ID         gocql.UUID `json:"id"`
	OrderID    gocql.UUID `json:"order_id"`
	UserID     string     `json:"user_id"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"` // open, resolved, rejected
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

const (
	IssueOpen     = "open"
	IssueResolved = "resolved"
	IssueRejected = "rejected"
)
