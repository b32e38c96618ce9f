package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	billing := g.Group("/billing")
	billing.Use(authMiddleware)
	{
		billing.POST("/gst", h.CalculateGST)
	}
}
