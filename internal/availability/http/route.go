package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	availability := g.Group("/availability")
	availability.Use(authMiddleware)
	{
		availability.GET("", h.Search)
		availability.GET("/rooms/:id", h.RoomEntries)
		availability.GET("/rooms/:id/check", h.RoomCheck)
		availability.POST("/refresh", adminMiddleware, h.Refresh)
	}
}
