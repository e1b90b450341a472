package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/thebinarypenguin/scribblez-go/internal/database"
	"github.com/thebinarypenguin/scribblez-go/internal/handlers"
	"github.com/thebinarypenguin/scribblez-go/internal/kafka"
	"github.com/thebinarypenguin/scribblez-go/internal/middleware"
	"github.com/thebinarypenguin/scribblez-go/internal/repositories"
	"github.com/thebinarypenguin/scribblez-go/internal/router"
	"github.com/thebinarypenguin/scribblez-go/internal/services"
	"github.com/thebinarypenguin/scribblez-go/pkg/logger"
	"github.com/thebinarypenguin/scribblez-go/pkg/redisclient"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	logger.InitLogger()

	// Initialize database
	db, err := database.Connect(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Redis group member cache (optional)
	var groupCache *redisclient.GroupCache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		groupCache = redisclient.NewGroupCache(client)
	}

	// Kafka producer (optional)
	var producer *kafka.Producer
	if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
		producer = kafka.NewProducer(strings.Split(kafkaBrokers, ","))
		defer producer.Close()
	}

	// Setup Gin router
	r := gin.Default()

	middleware.SetupPrometheus(r)
	r.Use(middleware.LoggerMiddleware())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Initialize services
	noteRepo := repositories.NewNoteRepository(db)
	directory := repositories.NewDirectoryRepository(db, groupCache)
	webhook := services.NewWebhookNotifier()
	noteService := services.NewNoteService(noteRepo, directory, producer, webhook)
	groupService := services.NewGroupService(db, groupCache, producer)
	userService := services.NewUserService()

	// Initialize handlers
	noteHandler := handlers.NewNoteHandler(noteService)
	groupHandler := handlers.NewGroupHandler(groupService)
	importHandler := handlers.NewImportHandler(db)

	router.SiteRoutes(r)

	// Protected routes
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(userService))
	{
		router.NoteRoutes(protected, noteHandler)
		router.GroupRoutes(protected, groupHandler)
		router.ImportRoutes(protected, importHandler)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
