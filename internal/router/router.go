// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pigmarket/pigmarket-backend/internal/config"
	"github.com/pigmarket/pigmarket-backend/internal/events"
	"github.com/pigmarket/pigmarket-backend/internal/handlers"
	"github.com/pigmarket/pigmarket-backend/internal/middleware"
	"github.com/pigmarket/pigmarket-backend/internal/presence"
	"github.com/pigmarket/pigmarket-backend/internal/services"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config, tracker presence.Tracker, publisher events.Publisher) *gin.Engine {
	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize storage")
	}
	pricing := services.NewPricing(cfg.Business)
	notificationService := services.NewNotificationService(db, cfg)
	paymentService := services.NewPaymentService(db, pricing, storageService, publisher)
	reservationService := services.NewReservationService(db, cfg, notificationService, paymentService, publisher)

	authService := services.NewAuthService(db, cfg)
	userService := services.NewUserService(db, storageService)
	catalogService := services.NewCatalogService(db, storageService)
	cartService := services.NewCartService(db, reservationService, publisher)
	feedbackService := services.NewFeedbackService(db)
	messagingService := services.NewMessagingService(db)
	adminService := services.NewAdminService(db)
	exportService := services.NewExportService(adminService)

	// Initialize handlers
	onlineWindow := time.Duration(cfg.Business.OnlineWindowMinutes) * time.Minute
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	cartHandler := handlers.NewCartHandler(cartService)
	reservationHandler := handlers.NewReservationHandler(reservationService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService, userService)
	messageHandler := handlers.NewMessageHandler(messagingService, userService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	presenceHandler := handlers.NewPresenceHandler(tracker, messagingService, onlineWindow)
	adminHandler := handlers.NewAdminHandler(adminService, exportService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Locally stored uploads
	r.Static("/uploads", cfg.Server.UploadDir)

	// Authentication routes
	auth := r.Group("/auth")
	auth.Use(middleware.AuthRateLimit())
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
	}

	// Public catalog
	pigs := r.Group("/pigs")
	pigs.Use(middleware.OptionalAuth())
	{
		pigs.GET("", catalogHandler.ListPigs)
		pigs.GET("/breeds", catalogHandler.GetBreeds)
		pigs.GET("/:id", catalogHandler.GetPig)
	}

	// Signed-in customers and staff
	customer := r.Group("")
	customer.Use(middleware.AuthRequired(), middleware.TrackPresence(tracker))
	{
		customer.POST("/reservation/:pig_id", middleware.UploadRateLimit(), reservationHandler.Reserve)
		customer.POST("/purchase/:pig_id", middleware.UploadRateLimit(), reservationHandler.Purchase)
		customer.GET("/my-reservations", reservationHandler.MyReservations)
		customer.PUT("/my-reservations/:id", reservationHandler.UpdateMyReservation)
		customer.POST("/my-reservations/:id/cancel", reservationHandler.CancelMyReservation)

		customer.GET("/cart", cartHandler.GetCart)
		customer.POST("/cart/add/:pig_id", cartHandler.AddToCart)
		customer.POST("/cart/checkout", cartHandler.Checkout)
		customer.PUT("/cart/:id", cartHandler.UpdateCartItem)
		customer.DELETE("/cart/:id", cartHandler.RemoveCartItem)

		customer.GET("/feedback/:reservation_id", feedbackHandler.FormContext)
		customer.POST("/feedback", feedbackHandler.Submit)

		customer.GET("/profile", userHandler.GetProfile)
		customer.PUT("/profile", userHandler.UpdateProfile)
		customer.POST("/profile/photo", middleware.UploadRateLimit(), userHandler.UploadPhoto)
		customer.POST("/profile/password", userHandler.ChangePassword)

		customer.GET("/messages", messageHandler.Inbox)
		customer.POST("/messages", messageHandler.Start)
		customer.GET("/messages/:conversation_id", messageHandler.Open)
		customer.POST("/messages/:conversation_id", messageHandler.Send)
	}

	// JSON endpoints polled by the pages
	api := r.Group("/api")
	api.Use(middleware.AuthRequired(), middleware.TrackPresence(tracker))
	{
		api.GET("/check-message-status/:conversation_id", messageHandler.CheckMessageStatus)
		api.GET("/check-accepted-orders", reservationHandler.CheckAcceptedOrders)
		api.GET("/payment-details", paymentHandler.ListPaymentDetails)
		api.GET("/payment-details/:id", paymentHandler.GetPaymentDetails)
		api.POST("/upload-payment-proof/:id", middleware.UploadRateLimit(), paymentHandler.UploadPaymentProof)
		api.GET("/decline-notifications", notificationHandler.List)
		api.POST("/decline-notifications/read-all", notificationHandler.MarkAllRead)
		api.POST("/decline-notifications/:id/read", notificationHandler.MarkRead)
		api.GET("/admin-status", presenceHandler.AdminStatus)

		staffAPI := api.Group("")
		staffAPI.Use(middleware.StaffRequired())
		{
			staffAPI.POST("/toggle-payment-status/:id", paymentHandler.TogglePaymentStatus)
			staffAPI.GET("/pending-orders", reservationHandler.PendingOrders)
			staffAPI.GET("/pending-orders-count", reservationHandler.PendingOrdersCount)
			staffAPI.GET("/user-status/:user_id", presenceHandler.UserStatus)
		}
	}

	// Staff routes
	manage := r.Group("/manage")
	manage.Use(middleware.AuthRequired(), middleware.StaffRequired(), middleware.TrackPresence(tracker))
	{
		manage.GET("/dashboard", adminHandler.GetDashboardStats)
		manage.GET("/revenue", adminHandler.GetRevenue)
		manage.GET("/tracking", adminHandler.GetTrackingRecords)
		manage.GET("/tracking/export", adminHandler.ExportTrackingRecords)
		manage.GET("/audit-logs", adminHandler.GetAuditLogs)

		reservations := manage.Group("/reservations")
		{
			reservations.GET("", reservationHandler.ListReservations)
			reservations.POST("", reservationHandler.CreateReservation)
			reservations.POST("/confirm/:id", reservationHandler.Confirm)
			reservations.POST("/decline/:id", reservationHandler.Decline)
			reservations.POST("/mark-complete/:id", paymentHandler.MarkComplete)
			reservations.GET("/:id", reservationHandler.GetReservation)
			reservations.PUT("/:id", reservationHandler.UpdateReservation)
			reservations.DELETE("/:id", reservationHandler.Decline)
		}

		managedPigs := manage.Group("/pigs")
		{
			managedPigs.POST("", catalogHandler.CreatePig)
			managedPigs.PUT("/:id", catalogHandler.UpdatePig)
			managedPigs.DELETE("/:id", catalogHandler.DeletePig)
			managedPigs.POST("/:id/picture", middleware.UploadRateLimit(), catalogHandler.UploadPicture)
		}

		users := manage.Group("/users")
		{
			users.GET("", adminHandler.GetUsers)
			users.POST("", adminHandler.CreateUser)
			users.GET("/:id", adminHandler.GetUser)
			users.PUT("/:id", adminHandler.UpdateUser)
			users.DELETE("/:id", adminHandler.DeleteUser)
			users.POST("/:id/password", adminHandler.SetUserPassword)
		}

		manage.GET("/feedback", feedbackHandler.List)
		manage.GET("/feedback/:id", feedbackHandler.Get)

		manage.GET("/messages", messageHandler.Inbox)
		manage.GET("/messages/:conversation_id", messageHandler.Open)
		manage.POST("/messages/:conversation_id", messageHandler.Send)
		manage.DELETE("/messages/:conversation_id", messageHandler.DeleteConversation)
	}

	return r
}
