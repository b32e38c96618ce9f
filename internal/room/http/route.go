package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers room and room type routes.
// Front desk staff can read; changing the room master requires a system admin.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	types := g.Group("/room-types")
	types.Use(authMiddleware)
	{
		types.GET("", h.ListTypes)
		types.GET("/:id", h.GetType)
		types.POST("", adminMiddleware, h.CreateType)
		types.PATCH("/:id", adminMiddleware, h.UpdateType)
		types.DELETE("/:id", adminMiddleware, h.DeleteType)
	}

	rooms := g.Group("/rooms")
	rooms.Use(authMiddleware)
	{
		rooms.GET("", h.List)
		rooms.GET("/:id", h.Get)
		rooms.POST("", adminMiddleware, h.Create)
		rooms.PATCH("/:id", adminMiddleware, h.Update)
	}
}
