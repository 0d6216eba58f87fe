package models

import (
	"strings"
	"time"

	"github.com/gocql/gocql"
)

type ShippingRecord struct {
	ID             gocql.UUID `json:"id"`
	OrderID        gocql.UUID `json:"order_id"`
	RawAddress     string     `json:"raw_address"`
	Address1       string     `json:"address1"`
	City           string     `json:"city"`
	State          string     `json:"state"`
	Postcode       string     `json:"postcode"`
	Structured     bool       `json:"structured"` // false = seule l'adresse libre est fiable
	Carrier        string     `json:"carrier"`
	TrackingNumber *string    `json:"tracking_number,omitempty"` // null tant que le transporteur n'a pas accepté
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Address est la forme structurée d'une adresse de livraison.
// Kind distingue explicitement une adresse décomposée d'un simple texte libre :
// les deux variantes ne sont jamais confondues en aval.
type Address struct {
	Kind     AddressKind `json:"kind"`
	Raw      string      `json:"raw"`
	Address1 string      `json:"address1,omitempty"`
	City     string      `json:"city,omitempty"`
	State    string      `json:"state,omitempty"`
	Postcode string      `json:"postcode,omitempty"`
	Country  string      `json:"country,omitempty"`
}

type AddressKind string

const (
	AddressStructured AddressKind = "structured"
	AddressRawOnly    AddressKind = "raw" // repli explicite : décomposition impossible
)

// ParseAddress tente une décomposition "au mieux" d'une adresse saisie en texte
// libre (rue, ville, région, code postal séparés par des virgules). Si le texte
// ne contient pas assez de segments, on retourne la variante repli AddressRawOnly
// avec uniquement le texte d'origine.
func ParseAddress(raw string) Address {
	raw = strings.TrimSpace(raw)
	parts := splitAddress(raw)

	if len(parts) < 3 {
		return Address{Kind: AddressRawOnly, Raw: raw}
	}

	addr := Address{
		Kind:     AddressStructured,
		Raw:      raw,
		Address1: parts[0],
		City:     parts[1],
	}

	switch len(parts) {
	case 3:
		addr.Postcode = parts[2]
	default:
		addr.State = parts[2]
		addr.Postcode = parts[3]
	}

	// Un code postal vide ou manifestement non postal invalide la décomposition
	if addr.Address1 == "" || addr.City == "" || !looksLikePostcode(addr.Postcode) {
		return Address{Kind: AddressRawOnly, Raw: raw}
	}

	return addr
}

func splitAddress(raw string) []string {
	var parts []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func looksLikePostcode(s string) bool {
	if s == "" || len(s) > 10 {
		return false
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ' || r == '-' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
		default:
			return false
		}
	}
	return digits > 0
}
