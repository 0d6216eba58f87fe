package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"velora_back_end/internal/config"
	"velora_back_end/internal/models"
)

func TestSweeperPromotesInBackground(t *testing.T) {
	f := newFixture(t)
	id := deliveredPaidOrder(f, t, time.Now().Add(-100*time.Hour))

	sweeper := NewSweeper(f.svc, config.SweeperConfig{
		Interval:    10 * time.Millisecond,
		GracePeriod: 72 * time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		o, err := f.store.GetOrder(context.Background(), id)
		return err == nil && o.OrderStatus == models.OrderCompleted
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("le sweeper ne s'arrête pas à l'annulation du contexte")
	}
}
