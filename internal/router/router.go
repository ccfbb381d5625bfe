package router

import (
	"time"

	"parkgate/internal/audit"
	"parkgate/internal/config"
	"parkgate/internal/handler"
	"parkgate/internal/middleware"
	"parkgate/internal/repository"
	"parkgate/internal/service"
	"parkgate/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, sink *audit.RedisSink, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	driverRepo := repository.NewDriverRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	slotSvc := service.NewSlotService(slotRepo, ticketRepo, sink)
	ticketSvc := service.NewTicketService(
		ticketRepo, slotSvc, paymentRepo, vehicleRepo, driverRepo, slotRepo,
		sink, dispatcher, cfg.FacilityName, cfg.PDFStoragePath,
	)
	paymentSvc := service.NewPaymentService(paymentRepo, ticketRepo, sink)
	shiftSvc := service.NewShiftService(shiftRepo, ticketRepo, paymentRepo, sink, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	slotsH := handler.NewSlotsHandler(slotSvc)
	ticketsH := handler.NewTicketsHandler(ticketSvc)
	paymentsH := handler.NewPaymentsHandler(paymentSvc)
	shiftsH := handler.NewShiftsHandler(shiftSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, sink))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cashier, supervisor, admin — declared per-endpoint
		anyOperator := middleware.RequireRole("cashier", "supervisor", "admin")
		supervisorUp := middleware.RequireRole("supervisor", "admin")
		adminOnly := middleware.RequireRole("admin")

		tickets := v1.Group("/tickets")
		{
			tickets.POST("/checkin", anyOperator, ticketsH.CheckIn)
			tickets.GET("", anyOperator, ticketsH.List)
			tickets.GET("/search", anyOperator, ticketsH.Search)
			tickets.GET("/:id", anyOperator, ticketsH.Get)
			tickets.POST("/:id/checkout", anyOperator, ticketsH.CheckOut)
			tickets.GET("/:id/receipt", anyOperator, ticketsH.Receipt)
			tickets.POST("/:id/receipt/email", anyOperator, ticketsH.EmailReceipt)
			tickets.DELETE("/:id", supervisorUp, ticketsH.Void)
			tickets.GET("/:id/payment", anyOperator, paymentsH.GetByTicket)
			tickets.POST("/:id/payment/recover", supervisorUp, paymentsH.Recover)
		}

		slots := v1.Group("/slots")
		{
			slots.GET("", anyOperator, slotsH.List)
			slots.GET("/occupancy", anyOperator, slotsH.Occupancy)
			slots.POST("", adminOnly, slotsH.Create)
			slots.PUT("/:id", adminOnly, slotsH.Update)
			slots.PUT("/:id/status", supervisorUp, slotsH.SetStatus)
			slots.DELETE("/:id", adminOnly, slotsH.Deactivate)
		}

		shifts := v1.Group("/shifts")
		{
			shifts.POST("/open", anyOperator, shiftsH.Open)
			shifts.POST("/close", anyOperator, shiftsH.Close)
			shifts.GET("/current", anyOperator, shiftsH.Current)
			shifts.GET("/summary", anyOperator, shiftsH.Summary)
			shifts.GET("", supervisorUp, shiftsH.History)
		}

		users := v1.Group("/users", adminOnly)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
