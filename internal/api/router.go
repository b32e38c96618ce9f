package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hotel-booking-backend/internal/availability"
	availabilityHttp "github.com/nekogravitycat/hotel-booking-backend/internal/availability/http"
	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/hotel-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/hotel-booking-backend/internal/file"
	fileHttp "github.com/nekogravitycat/hotel-booking-backend/internal/file/http"
	"github.com/nekogravitycat/hotel-booking-backend/internal/guest"
	guestHttp "github.com/nekogravitycat/hotel-booking-backend/internal/guest/http"
	"github.com/nekogravitycat/hotel-booking-backend/internal/metrics"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pricing"
	pricingHttp "github.com/nekogravitycat/hotel-booking-backend/internal/pricing/http"
	"github.com/nekogravitycat/hotel-booking-backend/internal/rateplan"
	rateplanHttp "github.com/nekogravitycat/hotel-booking-backend/internal/rateplan/http"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
	roomHttp "github.com/nekogravitycat/hotel-booking-backend/internal/room/http"
	"github.com/nekogravitycat/hotel-booking-backend/internal/user"
	userHttp "github.com/nekogravitycat/hotel-booking-backend/internal/user/http"
)

// Config carries the services and settings the router assembles handlers from.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	Logger      logrus.FieldLogger
	Metrics     *metrics.Metrics // nil disables the metrics endpoint
	MetricsPath string

	JWTManager *auth.JWTManager

	UserService         user.Service
	RoomService         room.Service
	RatePlanService     rateplan.Service
	GuestService        guest.Service
	AvailabilityService availability.Service
	BookingService      booking.Service
	FileService         file.Service

	Pricing          *pricing.Engine
	TaxPolicy        pricing.TaxPolicy
	AvailabilityDays int
	UploadMaxBytes   int64
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	// - RequestLogger: One structured log entry per request.
	r.Use(Recovery(cfg.Logger), RequestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
		r.GET(cfg.MetricsPath, cfg.Metrics.Handler())
	}

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:8081", // Swagger
			"http://localhost:3000", // Front desk UI
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager, cfg.Logger.WithField("component", "auth"))
	// sysAdminMiddleware: Further checks if the authenticated user has System Admin privileges.
	sysAdminMiddleware := userHttp.RequireSystemAdmin(cfg.UserService)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	roomHandler := roomHttp.NewHandler(cfg.RoomService)
	ratePlanHandler := rateplanHttp.NewHandler(cfg.RatePlanService, cfg.Pricing)
	guestHandler := guestHttp.NewHandler(cfg.GuestService)
	availabilityHandler := availabilityHttp.NewHandler(cfg.AvailabilityService, cfg.AvailabilityDays)
	pricingHandler := pricingHttp.NewHandler(cfg.TaxPolicy)
	fileHandler := fileHttp.NewHandler(cfg.FileService, cfg.Logger)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.TaxPolicy, fileHandler, cfg.UploadMaxBytes)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, sysAdminMiddleware)
		roomHttp.RegisterRoutes(v1, roomHandler, authMiddleware, sysAdminMiddleware)
		rateplanHttp.RegisterRoutes(v1, ratePlanHandler, authMiddleware, sysAdminMiddleware)
		guestHttp.RegisterRoutes(v1, guestHandler, authMiddleware)
		availabilityHttp.RegisterRoutes(v1, availabilityHandler, authMiddleware, sysAdminMiddleware)
		pricingHttp.RegisterRoutes(v1, pricingHandler, authMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware)
		fileHttp.RegisterRoutes(v1, fileHandler, authMiddleware)
	}

	return r
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
