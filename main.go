package main

import (
	"log"

	"github.com/datasciencepursuer/bubufulplanet-sub000/config"
	"github.com/datasciencepursuer/bubufulplanet-sub000/database"
	"github.com/datasciencepursuer/bubufulplanet-sub000/handlers"
	"github.com/datasciencepursuer/bubufulplanet-sub000/middleware"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.Load()

	// Connect to database
	database.Connect()

	// Connect to Redis (optional, won't crash if unavailable)
	database.ConnectRedis()

	// Setup router
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": config.AppConfig.AppName,
		})
	})

	// ==========================================
	// AUTH ROUTES (public)
	// ==========================================
	auth := r.Group("/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
	}

	// ==========================================
	// API ROUTES (authenticated)
	// ==========================================
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	{
		// User
		api.GET("/users/me", handlers.GetProfile)
		api.PUT("/users/me", handlers.UpdateProfile)
		api.PUT("/users/me/fcm-token", handlers.UpdateFCMToken)
		api.POST("/users/search", handlers.SearchUsers)

		// Groups
		api.POST("/groups", handlers.CreateGroup)
		api.GET("/groups", handlers.GetGroups)
		api.GET("/groups/:id", handlers.GetGroup)
		api.PUT("/groups/:id", handlers.UpdateGroup)
		api.POST("/groups/:id/members", handlers.AddMember)
		api.DELETE("/groups/:id/members/:uid", handlers.RemoveMember)
		api.POST("/groups/:id/invite", handlers.InviteToGroupHandler)

		// External participants (people in the split without an account)
		api.GET("/groups/:id/participants", handlers.GetExternalParticipants)
		api.POST("/groups/:id/participants", handlers.CreateExternalParticipant)
		api.DELETE("/groups/:id/participants/:pid", handlers.DeleteExternalParticipant)

		// Trips
		api.POST("/groups/:id/trips", handlers.CreateTrip)
		api.GET("/groups/:id/trips", handlers.GetGroupTrips)
		api.GET("/trips/:id", handlers.GetTrip)
		api.PUT("/trips/:id", handlers.UpdateTrip)
		api.DELETE("/trips/:id", handlers.DeleteTrip)
		api.GET("/trips/:id/days", handlers.GetTripDays)

		// Days & events
		api.PUT("/days/:id", handlers.UpdateDay)
		api.POST("/days/:id/events", handlers.CreateEvent)
		api.GET("/events/:id", handlers.GetEvent)
		api.PUT("/events/:id", handlers.UpdateEvent)
		api.DELETE("/events/:id", handlers.DeleteEvent)

		// Expenses
		api.POST("/trips/:id/expenses", handlers.CreateExpense)
		api.GET("/trips/:id/expenses", handlers.GetTripExpenses)
		api.GET("/expenses/:id", handlers.GetExpense)
		api.PUT("/expenses/:id", handlers.UpdateExpense)
		api.DELETE("/expenses/:id", handlers.DeleteExpense)

		// Balances
		api.GET("/trips/:id/balances", handlers.GetTripBalances)
		api.GET("/balances", handlers.GetOverallBalances)

		// Activity
		api.GET("/activity", handlers.GetActivity)
		api.GET("/groups/:id/activity", handlers.GetGroupActivity)
	}

	// Start server
	port := config.AppConfig.Port
	log.Printf("🚀 %s server starting on port %s", config.AppConfig.AppName, port)
	log.Printf("📡 API docs: http://%s:%s/health", config.AppConfig.AppURL, port)

	addr := "0.0.0.0:" + port
	log.Printf("🚀 Listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
