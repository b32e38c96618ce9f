package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	guests := g.Group("/guests")
	guests.Use(authMiddleware)
	{
		guests.GET("/:id", h.Get)
		guests.GET("/:id/preferences", h.GetPreferences)
		guests.PUT("/:id/preferences", h.PutPreferences)
	}
}
