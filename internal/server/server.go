package server

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kmuchira/tiketi/config"
	"github.com/kmuchira/tiketi/internal/bookings"
	"github.com/kmuchira/tiketi/internal/handlers"
	"github.com/kmuchira/tiketi/internal/middleware"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	bookingSvc := bookings.NewService(db, config.InitDispatcher(cfg))

	r := gin.Default()

	setupRoutes(r, db, bookingSvc)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, db *gorm.DB, bookingSvc *bookings.Service) {
	r.Use(middleware.DatabaseMiddleware(db))

	bookingHandler := handlers.NewBookingHandler(bookingSvc)

	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", handlers.ListEvents)
			eventPublic.GET("/:id", handlers.GetEvent)
		}

		public.GET("/tickets/:id", handlers.GetTicket)
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.GET("/user", handlers.GetCurrentUser)

		eventProtected := protected.Group("/events")
		{
			eventProtected.POST("", handlers.CreateEvent)
			eventProtected.PUT("/:id", handlers.UpdateEvent)
			eventProtected.DELETE("/:id", handlers.DeleteEvent)
			eventProtected.POST("/:id/tickets", handlers.CreateTicket)
		}

		bookingProtected := protected.Group("/bookings")
		{
			bookingProtected.POST("", bookingHandler.Create)
			bookingProtected.GET("", bookingHandler.List)
			bookingProtected.GET("/:id", bookingHandler.Get)
			bookingProtected.POST("/:id/pay", bookingHandler.Pay)
			bookingProtected.POST("/:id/cancel", bookingHandler.Cancel)
			bookingProtected.GET("/:id/pass", handlers.GenerateBookingPass)
		}

		protected.POST("/checkin", handlers.CheckIn)
	}
}
