// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"busline/internal/bookings"
	"busline/internal/notifications"
	"busline/internal/payments"
	"busline/internal/reservations"
	"busline/internal/schedules"
	"busline/internal/shared/config"
	"busline/internal/shared/database"
	"busline/pkg/cache"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config             *config.Config
	db                 *database.DB
	cacheService       cache.Service
	reservationService reservations.Service
	notifier           *reservations.Notifier
	producer           notifications.EventProducer

	// For dependency injection across feature setups
	scheduleService schedules.Service
	bookingService  bookings.Service
	paymentService  payments.Service
}

// NewRouter creates a new router instance. The reservation service,
// notifier and event producer are built in main because their
// background lifecycles outlive request handling.
func NewRouter(cfg *config.Config, db *database.DB, cacheService cache.Service,
	reservationService reservations.Service, notifier *reservations.Notifier,
	producer notifications.EventProducer) *Router {
	return &Router{
		config:             cfg,
		db:                 db,
		cacheService:       cacheService,
		reservationService: reservationService,
		notifier:           notifier,
		producer:           producer,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		// Schedule routes first: the directory is injected into the
		// reservation and booking setups
		r.setupScheduleRoutes(api)

		r.setupReservationRoutes(api)
		r.setupBookingRoutes(api)
		r.setupPaymentRoutes(api)
	}
}

// PaymentService exposes the wired payment service so main can start
// its expiry job processor
func (r *Router) PaymentService() payments.Service {
	return r.paymentService
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "busline-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "busline-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupScheduleRoutes configures the schedule directory routes
func (r *Router) setupScheduleRoutes(rg *gin.RouterGroup) {
	scheduleRepo := schedules.NewRepository(r.db.GetPostgreSQL())
	scheduleService := schedules.NewService(scheduleRepo)

	// Inject cache service dependency
	if r.cacheService != nil {
		scheduleService.SetCacheService(r.cacheService)
	}

	// Store schedule service for dependency injection
	r.scheduleService = scheduleService

	scheduleController := schedules.NewController(scheduleService)
	schedules.SetupScheduleRoutes(rg, scheduleController)
}

// setupReservationRoutes configures hold and seat availability routes
func (r *Router) setupReservationRoutes(rg *gin.RouterGroup) {
	reservationController := reservations.NewController(r.reservationService, r.notifier, r.scheduleService)
	reservations.SetupReservationRoutes(rg, reservationController, r.config)
}

// setupBookingRoutes configures booking management routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	bookingService := bookings.NewService(bookingRepo, r.reservationService, r.scheduleService)

	// Inject event producer dependency
	if r.producer != nil {
		bookingService.SetEventProducer(r.producer)
	}

	// Store booking service for dependency injection
	r.bookingService = bookingService

	bookingController := bookings.NewController(bookingService)
	bookings.SetupBookingRoutes(rg, bookingController, r.config)
}

// setupPaymentRoutes configures payment session routes
func (r *Router) setupPaymentRoutes(rg *gin.RouterGroup) {
	gateway := payments.NewUPIGateway(r.config)
	paymentService := payments.NewService(r.config, r.reservationService, r.bookingService, gateway)

	if r.producer != nil {
		paymentService.SetEventProducer(r.producer)
	}

	// Store payment service so main can start the expiry job
	r.paymentService = paymentService

	paymentController := payments.NewController(paymentService)
	payments.SetupPaymentRoutes(rg, paymentController, r.config)
}
