package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/hotel-booking-backend/internal/availability"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/response"
	roomHttp "github.com/nekogravitycat/hotel-booking-backend/internal/room/http"
)

type Handler struct {
	service          availability.Service
	defaultDaysAhead int
}

func NewHandler(service availability.Service, defaultDaysAhead int) *Handler {
	return &Handler{service: service, defaultDaysAhead: defaultDaysAhead}
}

// Search lists rooms free for every night of the stay according to the cache.
func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	stay, err := daterange.Parse(req.CheckIn, req.CheckOut)
	if err != nil {
		response.Error(c, err)
		return
	}

	rooms, err := h.service.GetAvailableRooms(c.Request.Context(), stay, req.RoomTypeID, req.Guests)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]roomHttp.RoomResponse, len(rooms))
	for i, r := range rooms {
		items[i] = roomHttp.NewRoomResponse(r)
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "nights": stay.Nights()})
}

func (h *Handler) RoomEntries(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var q request.StayQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	stay, err := daterange.Parse(q.CheckIn, q.CheckOut)
	if err != nil {
		response.Error(c, err)
		return
	}

	entries, err := h.service.Entries(c.Request.Context(), uri.ID, stay)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]EntryResponse, len(entries))
	for i, e := range entries {
		items[i] = NewEntryResponse(e)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// RoomCheck reports whether the cache shows roomID free for every night of the stay.
func (h *Handler) RoomCheck(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var q request.StayQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	stay, err := daterange.Parse(q.CheckIn, q.CheckOut)
	if err != nil {
		response.Error(c, err)
		return
	}

	free, err := h.service.IsAvailable(c.Request.Context(), uri.ID, stay)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, RoomCheckResponse{
		RoomID:      uri.ID,
		CheckIn:     q.CheckIn,
		CheckOut:    q.CheckOut,
		Nights:      stay.Nights(),
		IsAvailable: free,
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	var body RefreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}
	if body.DaysAhead == 0 {
		body.DaysAhead = h.defaultDaysAhead
	}

	res, err := h.service.Refresh(c.Request.Context(), body.DaysAhead)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewRefreshResponse(res))
}
