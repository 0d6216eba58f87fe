package promotions

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/errs"
	"velora_back_end/internal/models"
)

type memPromoStore struct {
	mu     sync.Mutex
	promos map[string]*models.Promotion
	usages map[string]models.PromotionUsage // clé promo_id:user_id
}

func newMemPromoStore(promos ...*models.Promotion) *memPromoStore {
	s := &memPromoStore{promos: map[string]*models.Promotion{}, usages: map[string]models.PromotionUsage{}}
	for _, p := range promos {
		s.promos[p.Code] = p
	}
	return s
}

func (s *memPromoStore) GetByCode(ctx context.Context, code string) (*models.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promos[code]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memPromoStore) CountUserUsage(ctx context.Context, promoID gocql.UUID, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usages[promoID.String()+":"+userID]; ok {
		return 1, nil
	}
	return 0, nil
}

func (s *memPromoStore) MarkUsed(ctx context.Context, usage models.PromotionUsage) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := usage.PromoID.String() + ":" + usage.UserID
	if _, exists := s.usages[key]; exists {
		return false, nil
	}
	s.usages[key] = usage
	return true, nil
}

func (s *memPromoStore) IncrementUsedCount(ctx context.Context, promoID gocql.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.promos {
		if p.ID == promoID {
			p.UsedCount++
		}
	}
	return nil
}

func activePromo(code string) *models.Promotion {
	return &models.Promotion{
		ID:             gocql.UUID(uuid.New()),
		Code:           code,
		Type:           "percentage",
		Value:          10,
		MinAmount:      20,
		MaxUsesPerUser: 1,
		StartsAt:       time.Now().Add(-24 * time.Hour),
		ExpiresAt:      time.Now().Add(24 * time.Hour),
		IsActive:       true,
	}
}

func TestValidateHappyPath(t *testing.T) {
	ev := NewEvaluator(newMemPromoStore(activePromo("BIENVENUE10")))

	v, err := ev.Validate(context.Background(), " bienvenue10 ", "user-1", 100)
	require.NoError(t, err)
	assert.True(t, v.IsValid)
	assert.Equal(t, 10.00, v.Discount)
	assert.Equal(t, "BIENVENUE10", v.Code, "le code est normalisé en majuscules")
}

func TestValidateRejections(t *testing.T) {
	expired := activePromo("EXPIRE")
	expired.ExpiresAt = time.Now().Add(-time.Hour)

	future := activePromo("BIENTOT")
	future.StartsAt = time.Now().Add(time.Hour)

	inactive := activePromo("COUPE")
	inactive.IsActive = false

	exhausted := activePromo("EPUISE")
	exhausted.MaxUses = 5
	exhausted.UsedCount = 5

	ev := NewEvaluator(newMemPromoStore(expired, future, inactive, exhausted, activePromo("MINIMUM")))

	cases := []struct {
		code   string
		amount float64
	}{
		{"INCONNU", 100},
		{"EXPIRE", 100},
		{"BIENTOT", 100},
		{"COUPE", 100},
		{"EPUISE", 100},
		{"MINIMUM", 10}, // sous le montant minimum de 20
	}
	for _, c := range cases {
		v, err := ev.Validate(context.Background(), c.code, "user-1", c.amount)
		require.NoError(t, err, c.code)
		assert.False(t, v.IsValid, "le code %s doit être refusé", c.code)
		assert.NotEmpty(t, v.ErrorMessage)
	}
}

func TestValidatePerUserCap(t *testing.T) {
	promo := activePromo("UNIQUE1")
	store := newMemPromoStore(promo)
	ev := NewEvaluator(store)

	_, err := ev.Apply(context.Background(), "UNIQUE1", "user-1", gocql.UUID(uuid.New()), 100)
	require.NoError(t, err)

	v, err := ev.Validate(context.Background(), "UNIQUE1", "user-1", 100)
	require.NoError(t, err)
	assert.False(t, v.IsValid, "déjà utilisé par cet utilisateur")

	v, err = ev.Validate(context.Background(), "UNIQUE1", "user-2", 100)
	require.NoError(t, err)
	assert.True(t, v.IsValid, "un autre utilisateur peut encore l'utiliser")
}

func TestApplyConcurrentSingleWinner(t *testing.T) {
	store := newMemPromoStore(activePromo("UNIQUE1"))
	ev := NewEvaluator(store)

	const callers = 10
	var successes, conflicts int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ev.Apply(context.Background(), "UNIQUE1", "user-1", gocql.UUID(uuid.New()), 100)
			switch {
			case err == nil:
				atomic.AddInt32(&successes, 1)
			case err == errs.ErrConflict || errs.IsValidation(err):
				atomic.AddInt32(&conflicts, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes, "exactement un checkout gagne le code à usage unique")
	assert.Equal(t, int32(callers-1), conflicts)
}

func TestDiscountComputation(t *testing.T) {
	percent := models.Promotion{Type: "percentage", Value: 15}
	assert.Equal(t, 15.00, Discount(percent, 100))
	assert.InDelta(t, 7.47, Discount(percent, 49.80), 0.001)

	fixed := models.Promotion{Type: "fixed", Value: 20}
	assert.Equal(t, 20.00, Discount(fixed, 100))
	assert.Equal(t, 15.00, Discount(fixed, 15), "la remise est bornée au montant")

	assert.Equal(t, 0.00, Discount(models.Promotion{Type: "mystère", Value: 5}, 100))
}

func TestApplyInvalidCodeReturnsValidationError(t *testing.T) {
	ev := NewEvaluator(newMemPromoStore())
	_, err := ev.Apply(context.Background(), "INCONNU", "user-1", gocql.UUID(uuid.New()), 100)
	assert.True(t, errs.IsValidation(err))
}
