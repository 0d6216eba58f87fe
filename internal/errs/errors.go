// Package errs normalise les erreurs du domaine et des partenaires externes.
// Toute réponse HTTP d'un partenaire est convertie ici en PartnerError : le
// reste du code ne branche jamais sur les formes d'erreur d'une librairie HTTP.
package errs

import (
	"errors"
	"fmt"
)

// ValidationError : entrée manquante ou invalide. Échec immédiat,
// aucun appel réseau, aucune écriture partielle.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidation construit une ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation indique si err est (ou enveloppe) une erreur de validation
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Kind classe les échecs partenaires
type Kind int

const (
	// KindTransient : 5xx ou erreur réseau, réessayable avec backoff borné
	KindTransient Kind = iota
	// KindPermanent : 4xx, défaut de payload, jamais réessayé
	KindPermanent
	// KindAuth : 401, déclenche exactement un refresh de token + un retry
	KindAuth
)

// PartnerError : erreur normalisée d'un appel partenaire (transporteur ou
// passerelle de paiement). Payload garde le corps brut pour les logs serveur,
// jamais exposé à l'utilisateur.
type PartnerError struct {
	Kind    Kind
	Partner string
	Op      string
	Status  int
	Message string
	Payload string
}

func (e *PartnerError) Error() string {
	return fmt.Sprintf("%s %s: %s (http %d)", e.Partner, e.Op, e.Message, e.Status)
}

// NewPartner construit une PartnerError en classant le statut HTTP
func NewPartner(partner, op string, status int, message, payload string) *PartnerError {
	kind := KindTransient
	switch {
	case status == 401:
		kind = KindAuth
	case status >= 400 && status < 500:
		kind = KindPermanent
	}
	return &PartnerError{Kind: kind, Partner: partner, Op: op, Status: status, Message: message, Payload: payload}
}

// NewNetwork construit une PartnerError pour un échec réseau (pas de réponse HTTP)
func NewNetwork(partner, op string, cause error) *PartnerError {
	return &PartnerError{Kind: KindTransient, Partner: partner, Op: op, Message: cause.Error()}
}

// IsTransient indique si err vaut la peine d'être réessayée
func IsTransient(err error) bool {
	var p *PartnerError
	return errors.As(err, &p) && p.Kind == KindTransient
}

// IsPermanent indique un échec partenaire définitif (4xx)
func IsPermanent(err error) bool {
	var p *PartnerError
	return errors.As(err, &p) && p.Kind == KindPermanent
}

// IsAuth indique un 401 partenaire
func IsAuth(err error) bool {
	var p *PartnerError
	return errors.As(err, &p) && p.Kind == KindAuth
}

// ErrForbidden : l'appelant n'a pas le droit de voir ou modifier la ressource
var ErrForbidden = errors.New("accès refusé")

// ErrNotFound : la ressource demandée n'existe pas
var ErrNotFound = errors.New("ressource introuvable")

// ErrConflict : la ressource a changé d'état entre la lecture et l'écriture
var ErrConflict = errors.New("conflit d'état")
