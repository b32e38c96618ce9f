package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	fileHttp "github.com/nekogravitycat/hotel-booking-backend/internal/file/http"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pricing"
	roomHttp "github.com/nekogravitycat/hotel-booking-backend/internal/room/http"
)

var idProofTypes = []string{"image/jpeg", "image/png"}

type Handler struct {
	service        booking.Service
	taxPolicy      pricing.TaxPolicy
	fileHandler    *fileHttp.Handler
	uploadMaxBytes int64
}

func NewHandler(service booking.Service, taxPolicy pricing.TaxPolicy, fileHandler *fileHttp.Handler, uploadMaxBytes int64) *Handler {
	return &Handler{
		service:        service,
		taxPolicy:      taxPolicy,
		fileHandler:    fileHandler,
		uploadMaxBytes: uploadMaxBytes,
	}
}

func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	filter := booking.Filter{
		GuestID:   req.GuestID,
		RoomID:    req.RoomID,
		Status:    req.Status,
		Source:    req.Source,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: strings.ToUpper(req.SortOrder),
	}
	if req.From != "" {
		from := parseDate(req.From)
		filter.From = &from
	}
	if req.To != "" {
		to := parseDate(req.To)
		filter.To = &to
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	createdBy := auth.ActorID(c)

	b, err := h.service.Create(c.Request.Context(), booking.CreateRequest{
		GuestID:         body.GuestID,
		RoomID:          body.RoomID,
		RatePlanID:      body.RatePlanID,
		CheckIn:         parseDate(body.CheckIn),
		CheckOut:        parseDate(body.CheckOut),
		Adults:          body.Adults,
		Children:        body.Children,
		IncludeMeal:     body.IncludeMeal,
		Status:          booking.Status(body.Status),
		Source:          booking.Source(body.Source),
		TotalAmount:     body.TotalAmount,
		AdvancePayment:  body.AdvancePayment,
		PaymentMethod:   body.PaymentMethod,
		SpecialRequests: body.SpecialRequests,
		CreatedBy:       createdBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body UpdateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	req := booking.UpdateRequest{
		RoomID:          body.RoomID,
		RatePlanID:      body.RatePlanID,
		ClearRatePlan:   body.ClearRatePlan,
		CheckIn:         parseDatePtr(body.CheckIn),
		CheckOut:        parseDatePtr(body.CheckOut),
		Adults:          body.Adults,
		Children:        body.Children,
		IncludeMeal:     body.IncludeMeal,
		TotalAmount:     body.TotalAmount,
		PaymentMethod:   body.PaymentMethod,
		SpecialRequests: body.SpecialRequests,
	}
	if body.Source != nil {
		src := booking.Source(*body.Source)
		req.Source = &src
	}

	b, err := h.service.Update(c.Request.Context(), uri.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Confirm(c *gin.Context) {
	h.runTransition(c, h.service.Confirm)
}

func (h *Handler) CheckOut(c *gin.Context) {
	h.runTransition(c, h.service.CheckOut)
}

func (h *Handler) MarkNoShow(c *gin.Context) {
	h.runTransition(c, h.service.MarkNoShow)
}

// CheckIn checks the guest in. With {"bill": true} it also returns the GST
// bill for the booking total; the bill is validated before the status changes.
func (h *Handler) CheckIn(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body CheckInRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	ctx := c.Request.Context()

	var bill *pricing.Bill
	if body.Bill {
		current, err := h.service.GetByID(ctx, uri.ID)
		if err != nil {
			response.Error(c, err)
			return
		}
		computed, err := h.taxPolicy.Bill(current.TotalAmount, body.Discount, &pricing.TaxOverride{
			Mode:     pricing.Mode(body.Mode),
			CGSTRate: body.CGSTRate,
			SGSTRate: body.SGSTRate,
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		bill = &computed
	}

	b, err := h.service.CheckIn(ctx, uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, CheckInResponse{Booking: NewBookingResponse(b), Bill: bill})
}

func (h *Handler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	b, err := h.service.Cancel(c.Request.Context(), uri.ID, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) RecordPayment(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body PaymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	b, err := h.service.RecordPayment(c.Request.Context(), uri.ID, body.Amount, body.Method)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// UploadIDProof stores the guest's ID document and links it to the booking.
func (h *Handler) UploadIDProof(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	// Fail before accepting the upload when the booking does not exist.
	if _, err := h.service.GetByID(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	h.fileHandler.HandleFileUpload(c, fileHttp.FileUploadConfig{
		FormFieldName: "id_proof",
		MaxSizeBytes:  h.uploadMaxBytes,
		AllowedTypes:  idProofTypes,
		ResizeImage:   true,
		AfterUpload: func(ctx context.Context, fileID string) error {
			return h.service.AttachIDProof(ctx, uri.ID, fileID)
		},
	})
}

func (h *Handler) Quote(c *gin.Context) {
	var body QuoteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	q, err := h.service.Quote(c.Request.Context(), booking.QuoteRequest{
		RoomID:      body.RoomID,
		RatePlanID:  body.RatePlanID,
		CheckIn:     parseDate(body.CheckIn),
		CheckOut:    parseDate(body.CheckOut),
		Adults:      body.Adults,
		Children:    body.Children,
		IncludeMeal: body.IncludeMeal,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewQuoteResponse(q))
}

func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	rooms, err := h.service.SearchAvailable(c.Request.Context(), toSearch(req))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]roomHttp.RoomResponse, len(rooms))
	for i, r := range rooms {
		items[i] = roomHttp.NewRoomResponse(r)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Recommend(c *gin.Context) {
	var req RecommendationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	recs, err := h.service.Recommend(c.Request.Context(), req.GuestID, toSearch(req.SearchRequest))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]RecommendationResponse, len(recs))
	for i, r := range recs {
		items[i] = NewRecommendationResponse(r)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) runTransition(c *gin.Context, fn func(ctx context.Context, id string) (*booking.Booking, error)) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	b, err := fn(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func toSearch(req SearchRequest) booking.SearchRequest {
	return booking.SearchRequest{
		CheckIn:    parseDate(req.CheckIn),
		CheckOut:   parseDate(req.CheckOut),
		Guests:     req.Guests,
		RoomTypeID: req.RoomTypeID,
	}
}
