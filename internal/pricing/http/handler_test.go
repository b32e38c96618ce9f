package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	policy, err := pricing.NewTaxPolicy("EXCLUDING", "9", "9")
	require.NoError(t, err)

	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(policy), func(c *gin.Context) { c.Next() })
	return r
}

func executeRequest(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, "/v1/billing/gst", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCalculateGST(t *testing.T) {
	r := newTestRouter(t)

	t.Run("defaults from policy", func(t *testing.T) {
		w := executeRequest(r, `{"base_tariff": 1000, "discount": 50}`)
		require.Equal(t, http.StatusOK, w.Code)

		var bill map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bill))
		assert.Equal(t, "EXCLUDING", bill["mode"])
		assert.Equal(t, "1130", bill["final"])
		assert.Equal(t, "90", bill["cgst"])
	})

	t.Run("including override", func(t *testing.T) {
		w := executeRequest(r, `{"base_tariff": "1180", "mode": "INCLUDING"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var bill map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bill))
		assert.Equal(t, "1000", bill["pre_tax"])
		assert.Equal(t, "1180", bill["final"])
	})

	t.Run("invalid mode rejected by binding", func(t *testing.T) {
		w := executeRequest(r, `{"base_tariff": 1000, "mode": "BOTH"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("discount larger than bill", func(t *testing.T) {
		w := executeRequest(r, `{"base_tariff": 100, "discount": 500}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "discount cannot exceed")
	})
}
