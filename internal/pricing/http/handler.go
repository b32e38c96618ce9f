package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pricing"
	"github.com/shopspring/decimal"
)

type BillRequest struct {
	BaseTariff decimal.Decimal  `json:"base_tariff"`
	Mode       string           `json:"mode" binding:"omitempty,oneof=INCLUDING EXCLUDING"`
	CGSTRate   *decimal.Decimal `json:"cgst_rate"`
	SGSTRate   *decimal.Decimal `json:"sgst_rate"`
	Discount   decimal.Decimal  `json:"discount"`
}

type Handler struct {
	policy pricing.TaxPolicy
}

func NewHandler(policy pricing.TaxPolicy) *Handler {
	return &Handler{policy: policy}
}

// CalculateGST computes a bill without touching any booking.
func (h *Handler) CalculateGST(c *gin.Context) {
	var body BillRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	bill, err := h.policy.Bill(body.BaseTariff, body.Discount, &pricing.TaxOverride{
		Mode:     pricing.Mode(body.Mode),
		CGSTRate: body.CGSTRate,
		SGSTRate: body.SGSTRate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}
