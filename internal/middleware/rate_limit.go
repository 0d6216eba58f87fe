package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/database"
)

const (
	// Limites par endpoint
	CheckoutMaxAttempts = 10
	PostbackMaxRequests = 60
	APIMaxRequests      = 100 // Par minute pour les endpoints généraux

	CheckoutCooldown = 5 * time.Minute
	APICooldown      = 1 * time.Minute
)

// CheckoutRateLimit limite les créations de commande par utilisateur.
// Redis indisponible = pas de limitation : le checkout passe toujours.
func CheckoutRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" || database.Redis == nil {
			c.Next()
			return
		}

		ctx := context.Background()
		key := "checkout_attempts:" + userID

		attempts, _ := database.Redis.Get(ctx, key).Int()
		if attempts >= CheckoutMaxAttempts {
			ttl := database.Redis.TTL(ctx, key).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de commandes. Réessayez dans %d minutes", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		pipe := database.Redis.TxPipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, CheckoutCooldown)
		pipe.Exec(ctx)

		c.Next()
	}
}

// APIRateLimit limite les requêtes générales par IP
func APIRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if database.Redis == nil {
			c.Next()
			return
		}

		ctx := context.Background()
		key := "api_requests:" + c.ClientIP()

		count, _ := database.Redis.Incr(ctx, key).Result()
		if count == 1 {
			database.Redis.Expire(ctx, key, APICooldown)
		}
		if count > APIMaxRequests {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Trop de requêtes"})
			c.Abort()
			return
		}

		c.Next()
	}
}
