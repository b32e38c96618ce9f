package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	bookings := g.Group("/bookings")
	bookings.Use(authMiddleware)
	{
		bookings.GET("", h.List)
		bookings.POST("", h.Create)
		bookings.POST("/quote", h.Quote)
		bookings.GET("/search", h.Search)
		bookings.GET("/recommendations", h.Recommend)

		bookings.GET("/:id", h.Get)
		bookings.PATCH("/:id", h.Update)
		bookings.POST("/:id/confirm", h.Confirm)
		bookings.POST("/:id/check-in", h.CheckIn)
		bookings.POST("/:id/check-out", h.CheckOut)
		bookings.POST("/:id/cancel", h.Cancel)
		bookings.POST("/:id/no-show", h.MarkNoShow)
		bookings.POST("/:id/payments", h.RecordPayment)
		bookings.POST("/:id/id-proof", h.UploadIDProof)
	}
}
