package orders

import (
	"context"
	"log"
	"time"

	"velora_back_end/internal/config"
)

// Sweeper promeut périodiquement les commandes livrées en completed une fois
// le délai de grâce écoulé. Une seule instance tourne par processus ; les
// transitions étant en compare-and-set, des exécutions concurrentes restent
// sans double effet.
type Sweeper struct {
	service *Service
	cfg     config.SweeperConfig
}

func NewSweeper(service *Service, cfg config.SweeperConfig) *Sweeper {
	return &Sweeper{service: service, cfg: cfg}
}

// Run boucle jusqu'à annulation du contexte. Un cycle raté est journalisé et
// le suivant repart de zéro : la sélection est recalculée à chaque passage.
func (s *Sweeper) Run(ctx context.Context) {
	log.Printf("🧹 Sweeper démarré (cycle %s, délai de grâce %s)", s.cfg.Interval, s.cfg.GracePeriod)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("🧹 Sweeper arrêté")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if _, err := s.service.AutoCompleteOrders(ctx, s.cfg.GracePeriod); err != nil {
		log.Printf("⚠️ Cycle d'auto-complétion en erreur: %v", err)
	}
}
