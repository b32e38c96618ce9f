package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	plans := g.Group("/rate-plans")
	plans.Use(authMiddleware)
	{
		plans.GET("", h.List)
		plans.GET("/calculator", h.Calculator)
		plans.GET("/:id", h.Get)
		plans.POST("", adminMiddleware, h.Create)
		plans.PATCH("/:id", adminMiddleware, h.Update)
		plans.DELETE("/:id", adminMiddleware, h.Delete)
	}
}
