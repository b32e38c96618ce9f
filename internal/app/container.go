package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/hotel-booking-backend/internal/api"
	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hotel-booking-backend/internal/availability"
	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/config"
	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
	"github.com/nekogravitycat/hotel-booking-backend/internal/file"
	"github.com/nekogravitycat/hotel-booking-backend/internal/guest"
	"github.com/nekogravitycat/hotel-booking-backend/internal/metrics"
	"github.com/nekogravitycat/hotel-booking-backend/internal/notification"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/storage"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pricing"
	"github.com/nekogravitycat/hotel-booking-backend/internal/rateplan"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
	"github.com/nekogravitycat/hotel-booking-backend/internal/user"
)

// notificationConcurrency caps in-flight SMTP deliveries.
const notificationConcurrency = 4

// Container holds the initialized components that are needed externally.
type Container struct {
	Router       *gin.Engine
	JWTManager   *auth.JWTManager
	Availability availability.Service
	Notifier     *notification.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg *config.Config, pool *pgxpool.Pool, logger *logrus.Logger) (*Container, error) {
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Shared infrastructure
	txManager := db.NewTxManager(pool)
	locker := db.NewAdvisoryLocker(pool)
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTokenTTL)

	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init file storage: %w", err)
	}

	taxPolicy, err := pricing.NewTaxPolicy(cfg.Billing.GSTMode, cfg.Billing.CGSTRate, cfg.Billing.SGSTRate)
	if err != nil {
		return nil, fmt.Errorf("init tax policy: %w", err)
	}

	// User Module
	userRepo := user.NewPgxRepository(pool)
	userService := user.NewService(userRepo, passwordHasher, logger.WithField("module", "user"))

	// Room Module
	roomRepo := room.NewPgxRepository(pool)
	roomService := room.NewService(roomRepo)

	// Rate Plan Module
	ratePlanRepo := rateplan.NewPgxRepository(pool)
	ratePlanService := rateplan.NewService(ratePlanRepo)

	// Guest Module
	guestRepo := guest.NewPgxRepository(pool)
	guestService := guest.NewService(guestRepo)

	// Pricing
	pricingEngine := pricing.NewEngine(cfg.Billing.WeekendDays, logger.WithField("module", "pricing"), m)

	// Availability Module reads occupancy straight from the bookings table.
	bookingRepo := booking.NewPgxRepository(pool)
	availabilityRepo := availability.NewPgxRepository(pool)
	availabilityService := availability.NewService(
		availabilityRepo,
		booking.NewOccupancySource(bookingRepo),
		roomRepo,
		txManager,
		locker,
		availability.Options{BatchDays: cfg.Availability.BatchDays},
		logger.WithField("module", "availability"),
		m,
	)

	// Notification Module
	notificationRepo := notification.NewPgxRepository(pool)
	mailer := notification.NewSMTPMailer(notification.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, logger.WithField("module", "notification"))
	notifier := notification.NewService(notificationRepo, mailer, notificationConcurrency, logger.WithField("module", "notification"), m)

	// Booking Module
	bookingService := booking.NewService(booking.Deps{
		Repo:         bookingRepo,
		Rooms:        roomRepo,
		RatePlans:    ratePlanService,
		Guests:       guestService,
		Availability: availabilityService,
		Pricing:      pricingEngine,
		Notifier:     notifier,
		Tx:           txManager,
		Logger:       logger.WithField("module", "booking"),
		Metrics:      m,
	})

	// File Module
	fileRepo := file.NewRepository(pool)
	fileService := file.NewService(fileRepo, store, logger.WithField("module", "file"))

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		Logger:              logger.WithField("module", "http"),
		Metrics:             m,
		MetricsPath:         cfg.Metrics.Path,
		JWTManager:          jwtManager,
		UserService:         userService,
		RoomService:         roomService,
		RatePlanService:     ratePlanService,
		GuestService:        guestService,
		AvailabilityService: availabilityService,
		BookingService:      bookingService,
		FileService:         fileService,
		Pricing:             pricingEngine,
		TaxPolicy:           taxPolicy,
		AvailabilityDays:    cfg.Availability.RefreshDays,
		UploadMaxBytes:      cfg.UploadMaxBytes,
	})

	return &Container{
		Router:       router,
		JWTManager:   jwtManager,
		Availability: availabilityService,
		Notifier:     notifier,
	}, nil
}
