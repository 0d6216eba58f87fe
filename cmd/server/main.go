package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/config"
	"velora_back_end/internal/courier"
	"velora_back_end/internal/database"
	"velora_back_end/internal/gateway"
	orderhandler "velora_back_end/internal/handlers/order"
	"velora_back_end/internal/orders"
	"velora_back_end/internal/promotions"
	"velora_back_end/internal/routes"
	"velora_back_end/internal/services"
)

func main() {
	config.Load()

	database.ConnectDatabases()

	// ✅ Prepared statements pour les chemins chauds du checkout
	database.InitPreparedStatements()

	// Partenaires externes
	courierCfg := config.LoadCourierConfig()
	gatewayCfg := config.LoadGatewayConfig()

	guard := courier.NewTokenGuardFromConfig(courierCfg, func(obtainedAt, expiresAt time.Time, hint string) {
		cache.PersistTokenAudit(cache.TokenAudit{
			ObtainedAt: obtainedAt,
			ExpiresAt:  expiresAt,
			TokenHint:  hint,
		})
	})

	trackingCache := services.NewRedisTrackingCache()
	courierClient := courier.NewClient(courierCfg, guard).
		WithWaybillArchive(services.NewMinioWaybillArchive()).
		WithTrackingCache(trackingCache)

	gatewayClient := gateway.NewClient(gatewayCfg)

	// Assembleur de commandes
	evaluator := promotions.NewEvaluator(promotions.NewScyllaStore())
	svc := orders.NewService(
		orders.NewScyllaOrderStore(),
		orders.NewScyllaCartStore(),
		orders.NewScyllaInventoryStore(),
		orders.NewScyllaAccountStore(),
	).
		WithDelivery(&courier.OrderDeliveryAdapter{Client: courierClient}).
		WithPromotions(evaluator).
		WithNotifier(services.NewEmailNotifier()).
		WithIndexer(services.NewOrderIndexer()).
		WithTrackingInvalidation(trackingCache)

	// Sweeper d'auto-complétion en tâche de fond
	sweeperCfg := config.LoadSweeperConfig()
	sweeper := orders.NewSweeper(svc, sweeperCfg)
	go sweeper.Run(context.Background())

	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = []string{frontendOrigin()}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	h := orderhandler.NewHandler(svc, evaluator, gatewayClient, courierClient, sweeperCfg.GracePeriod)
	routes.RegisterRoutes(r, h)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur Velora lancé sur le port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("❌ Erreur serveur:", err)
	}
}

func frontendOrigin() string {
	if o := os.Getenv("FRONTEND_ORIGIN"); o != "" {
		return o
	}
	return "http://localhost:3000"
}
