package services

import (
	"velora_back_end/internal/cache"
)

// RedisTrackingCache expose le cache Redis de suivi sous la forme attendue
// par le client transporteur
type RedisTrackingCache struct{}

func NewRedisTrackingCache() *RedisTrackingCache {
	return &RedisTrackingCache{}
}

func (c *RedisTrackingCache) Get(trackingNumber string, dest interface{}) bool {
	return cache.GetTrackingFromCache(trackingNumber, dest)
}

func (c *RedisTrackingCache) Set(trackingNumber string, info interface{}) {
	cache.SetTrackingInCache(trackingNumber, info)
}

// Invalidate purge l'entrée après une correction admin du statut de livraison
func (c *RedisTrackingCache) Invalidate(trackingNumber string) {
	cache.InvalidateTrackingCache(trackingNumber)
}
