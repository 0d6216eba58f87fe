package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"velora_back_end/internal/database"
)

// TokenAudit : copie d'audit du token transporteur. Le token vit en mémoire
// dans le garde d'authentification ; cette copie sert uniquement au support
// (diagnostiquer les échanges de credentials, jamais relue par le code).
type TokenAudit struct {
	ObtainedAt time.Time `json:"obtained_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	TokenHint  string    `json:"token_hint"` // 8 premiers caractères seulement
}

// PersistTokenAudit écrit la copie d'audit dans Redis.
// Un échec est loggé, jamais remonté : l'audit ne bloque pas le checkout.
func PersistTokenAudit(audit TokenAudit) {
	ctx := context.Background()
	data, err := json.Marshal(audit)
	if err != nil {
		log.Printf("⚠️ Erreur sérialisation audit token: %v", err)
		return
	}
	if err := database.Redis.Set(ctx, "courier:token_audit", data, 0).Err(); err != nil {
		log.Printf("⚠️ Erreur persistance audit token: %v", err)
	}
}
