package routes

import (
	"github.com/gin-gonic/gin"

	"velora_back_end/internal/handlers/order"
	"velora_back_end/internal/middleware"
)

func RegisterRoutes(r *gin.Engine, h *order.Handler) {
	// Postback passerelle : pas de JWT, la transaction est revérifiée auprès
	// de la passerelle avant toute écriture
	r.POST("/payments/postback", middleware.APIRateLimit(), h.PaymentPostback)

	api := r.Group("/", middleware.AuthRequired())
	{
		api.POST("/orders/checkout", middleware.CheckoutRateLimit(), h.Checkout)
		api.GET("/orders", h.GetMyOrders)
		api.GET("/orders/:id", h.GetOrder)
		api.POST("/orders/:id/cancel", h.CancelOrder)
		api.GET("/orders/:id/tracking", h.GetTracking)
		api.GET("/orders/:id/waybill", h.GetWaybill)
		api.GET("/orders/:id/invoice", h.GetInvoice)
		api.POST("/orders/:id/issues", h.OpenIssue)

		api.POST("/promotions/validate", h.ValidatePromo)
	}

	admin := r.Group("/admin", middleware.AuthRequired(), middleware.RequireAdmin)
	{
		admin.PATCH("/orders/:id", h.UpdateOrder)
		admin.GET("/orders/search", h.SearchOrders)
		admin.POST("/orders/sweep", h.RunSweep)
		admin.PATCH("/orders/:id/issues/:issue_id", h.ResolveIssue)
	}
}
