package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/response"
	"github.com/sirupsen/logrus"
)

var (
	ErrMissingAuthHeader = apperror.New(http.StatusUnauthorized, "missing Authorization header")
	ErrBadAuthHeader     = apperror.New(http.StatusUnauthorized, "invalid Authorization header format")
	ErrInvalidToken      = apperror.New(http.StatusUnauthorized, "invalid or expired token")
)

// AuthRequired is a Gin middleware that validates JWT from Authorization: Bearer <token>.
// Rejected requests are logged at warning level without the token itself.
func AuthRequired(jwtManager *JWTManager, logger logrus.FieldLogger) gin.HandlerFunc {
	reject := func(c *gin.Context, appErr *apperror.AppError, cause error) {
		entry := logger.WithFields(logrus.Fields{
			"path":      c.Request.URL.Path,
			"client_ip": c.ClientIP(),
		})
		if cause != nil {
			entry = entry.WithError(cause)
		}
		entry.Warn(appErr.Message)

		response.Error(c, appErr)
		c.Abort()
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			reject(c, ErrMissingAuthHeader, nil)
			return
		}

		scheme, tokenStr, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tokenStr) == "" {
			reject(c, ErrBadAuthHeader, nil)
			return
		}

		claims, err := jwtManager.ParseAndValidate(strings.TrimSpace(tokenStr))
		if err != nil {
			reject(c, ErrInvalidToken, err)
			return
		}

		SetUser(c, claims.UserID, claims.Email)
		c.Next()
	}
}
