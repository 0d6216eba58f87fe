package cache

import (
	"context"
	"encoding/json"
	"time"

	"velora_back_end/internal/database"
)

const (
	TrackingCacheTTL = 5 * time.Minute
	PostbackGuardTTL = 24 * time.Hour
)

// GetTrackingFromCache récupère les infos de suivi depuis Redis
func GetTrackingFromCache(trackingNumber string, dest interface{}) bool {
	ctx := context.Background()
	data, err := database.Redis.Get(ctx, "tracking:"+trackingNumber).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(data), dest) == nil
}

// SetTrackingInCache met en cache les infos de suivi (TTL court, le statut bouge)
func SetTrackingInCache(trackingNumber string, info interface{}) {
	ctx := context.Background()
	data, err := json.Marshal(info)
	if err != nil {
		return
	}
	database.Redis.Set(ctx, "tracking:"+trackingNumber, data, TrackingCacheTTL)
}

// InvalidateTrackingCache invalide le cache de suivi d'un colis
func InvalidateTrackingCache(trackingNumber string) {
	ctx := context.Background()
	database.Redis.Del(ctx, "tracking:"+trackingNumber)
}

// MarkPostbackSeen enregistre un postback passerelle déjà traité.
// Retourne false si ce (transaction, référence) avait déjà été vu.
func MarkPostbackSeen(transactionID, reference string) bool {
	ctx := context.Background()
	key := "postback:" + transactionID + ":" + reference
	ok, err := database.Redis.SetNX(ctx, key, "1", PostbackGuardTTL).Result()
	if err != nil {
		// Redis indisponible : on laisse passer, l'application du statut est
		// elle-même idempotente côté base
		return true
	}
	return ok
}
