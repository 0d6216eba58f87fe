package promotions

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"velora_back_end/internal/errs"
	"velora_back_end/internal/models"
)

// Store persiste les promotions et leurs usages. MarkUsed garantit l'unicité
// (promotion, utilisateur) côté base : deux appels concurrents pour le même
// couple ne produisent qu'un succès.
type Store interface {
	GetByCode(ctx context.Context, code string) (*models.Promotion, error)
	CountUserUsage(ctx context.Context, promoID gocql.UUID, userID string) (int, error)
	// MarkUsed enregistre l'usage si et seulement si aucun usage n'existe déjà
	// pour ce couple. Retourne applied=false quand l'usage existait.
	MarkUsed(ctx context.Context, usage models.PromotionUsage) (applied bool, err error)
	IncrementUsedCount(ctx context.Context, promoID gocql.UUID) error
}

// Evaluator valide et applique les codes promotionnels
type Evaluator struct {
	store Store
	now   func() time.Time
}

func NewEvaluator(store Store) *Evaluator {
	return &Evaluator{store: store, now: time.Now}
}

// Validate vérifie un code sans consommer d'usage : activation, fenêtre de
// validité, montant minimum, plafond global, plafond par utilisateur.
func (e *Evaluator) Validate(ctx context.Context, code, userID string, orderAmount float64) (*models.PromotionValidation, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, errs.NewValidation("code", "code promotionnel manquant")
	}

	promo, err := e.store.GetByCode(ctx, code)
	if err != nil {
		if err == errs.ErrNotFound {
			return invalid(code, "code promotionnel inconnu"), nil
		}
		return nil, err
	}

	now := e.now()
	switch {
	case !promo.IsActive:
		return invalid(code, "code promotionnel désactivé"), nil
	case now.Before(promo.StartsAt):
		return invalid(code, "code promotionnel pas encore actif"), nil
	case now.After(promo.ExpiresAt):
		return invalid(code, "code promotionnel expiré"), nil
	case orderAmount < promo.MinAmount:
		return invalid(code, "montant minimum non atteint"), nil
	case promo.MaxUses > 0 && promo.UsedCount >= promo.MaxUses:
		return invalid(code, "code promotionnel épuisé"), nil
	}

	if promo.MaxUsesPerUser > 0 {
		used, err := e.store.CountUserUsage(ctx, promo.ID, userID)
		if err != nil {
			return nil, err
		}
		if used >= promo.MaxUsesPerUser {
			return invalid(code, "code promotionnel déjà utilisé"), nil
		}
	}

	return &models.PromotionValidation{
		IsValid:  true,
		Code:     code,
		Discount: Discount(*promo, orderAmount),
	}, nil
}

// Apply consomme un usage après validation. La revérification d'unicité se
// fait au moment de l'écriture : sous concurrence, un seul appelant gagne.
func (e *Evaluator) Apply(ctx context.Context, code, userID string, orderID gocql.UUID, orderAmount float64) (float64, error) {
	validation, err := e.Validate(ctx, code, userID, orderAmount)
	if err != nil {
		return 0, err
	}
	if !validation.IsValid {
		return 0, errs.NewValidation("code", validation.ErrorMessage)
	}

	promo, err := e.store.GetByCode(ctx, validation.Code)
	if err != nil {
		return 0, err
	}

	if promo.MaxUsesPerUser > 0 {
		applied, err := e.store.MarkUsed(ctx, models.PromotionUsage{
			PromoID: promo.ID,
			UserID:  userID,
			OrderID: orderID,
			UsedAt:  e.now(),
		})
		if err != nil {
			return 0, err
		}
		if !applied {
			// Un autre checkout du même utilisateur a gagné la course
			return 0, errs.ErrConflict
		}
	}

	if err := e.store.IncrementUsedCount(ctx, promo.ID); err != nil {
		log.Printf("⚠️ Compteur d'usage non incrémenté pour %s: %v", promo.Code, err)
	}

	log.Printf("✅ Code %s appliqué (remise %.2f€) pour %s", promo.Code, validation.Discount, userID)
	return validation.Discount, nil
}

// Discount calcule la remise, bornée au montant de la commande
func Discount(promo models.Promotion, orderAmount float64) float64 {
	var d float64
	switch promo.Type {
	case "percentage":
		d = orderAmount * promo.Value / 100
	case "fixed":
		d = promo.Value
	default:
		return 0
	}
	d = math.Round(d*100) / 100
	if d > orderAmount {
		d = orderAmount
	}
	return d
}

func invalid(code, msg string) *models.PromotionValidation {
	return &models.PromotionValidation{IsValid: false, Code: code, ErrorMessage: msg}
}
