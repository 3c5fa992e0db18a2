package main

import (
	"log"
	"os"

	"github.com/atlasworks/dataroom_backend/controllers"
	"github.com/atlasworks/dataroom_backend/database"
	"github.com/atlasworks/dataroom_backend/docs"
	"github.com/atlasworks/dataroom_backend/middleware"
	"github.com/atlasworks/dataroom_backend/websocket"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Data Room API
// @version         1.0
// @description     API Server for Guest Data Room Access
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize database
	database.Connect()
	database.Migrate()

	// Set up Swagger info
	docs.SwaggerInfo.Title = "Data Room API"
	docs.SwaggerInfo.Description = "API Server for Guest Data Room Access"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:" + os.Getenv("PORT")
	if docs.SwaggerInfo.Host == "localhost:" {
		docs.SwaggerInfo.Host = "localhost:8080"
	}
	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Schemes = []string{"http"}

	// Set up router
	router := SetupRouter()

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server running on port %s", port)
	log.Printf("Swagger documentation available at http://localhost:%s/swagger/index.html", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// SetupRouter builds the gin engine with all application routes
func SetupRouter() *gin.Engine {
	router := gin.Default()

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Authentication routes
	auth := router.Group("/api")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
	}

	// Guest routes: no session, every call re-supplies credentials
	guest := router.Group("/api/guest")
	{
		guest.POST("/verify-invite", controllers.VerifyInvite)
		guest.POST("/resend-credential", controllers.ResendCredential)
		guest.POST("/nda", controllers.GetNda)
		guest.POST("/sign-nda", controllers.SignNda)
		guest.POST("/content", controllers.GuestContent)
		guest.POST("/file-restriction", controllers.GuestFileRestriction)
	}

	// Protected member routes
	api := router.Group("/api")
	api.Use(middleware.JWTAuth())
	{
		// Data room routes
		api.GET("/rooms", controllers.GetRooms)
		api.POST("/rooms", controllers.CreateRoom)
		api.GET("/rooms/:id", controllers.GetRoom)
		api.PUT("/rooms/:id", controllers.UpdateRoom)
		api.DELETE("/rooms/:id", controllers.DeleteRoom)
		api.GET("/rooms/:id/activity", controllers.GetRoomActivity)

		// Content routes
		api.POST("/rooms/:id/folders", controllers.CreateFolder)
		api.POST("/rooms/:id/files", controllers.CreateFile)
		api.DELETE("/files/:id", controllers.DeleteFile)
		api.PUT("/files/:id/restriction", controllers.SetFileRestriction)

		// Invite routes
		api.GET("/rooms/:id/invites", controllers.GetRoomInvites)
		api.POST("/rooms/:id/invites", controllers.SendGuestInvite)
		api.DELETE("/invites/:id", controllers.RevokeInvite)
	}

	// WebSocket activity feed
	router.GET("/ws", websocket.HandleConnection)

	return router
}
