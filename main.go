package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"theory-service/internal/db"
	"theory-service/internal/event"
	"theory-service/internal/handlers"
	"theory-service/internal/repository"
	"theory-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		log.Fatal("MONGO_URI is required")
	}
	db.InitMongo(mongoURI)

	// RabbitMQ event publisher
	rabbitURL := os.Getenv("RABBITMQ_URI")
	eventExchange := os.Getenv("RABBITMQ_EXCHANGE")
	var publisher *event.EventPublisher
	if rabbitURL != "" && eventExchange != "" {
		var err error
		publisher, err = event.NewEventPublisher(rabbitURL, eventExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, events will not be published")
	}

	clientURL := os.Getenv("CLIENT_URL")
	if clientURL == "" {
		clientURL = "http://localhost:3000"
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{clientURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	mongoClient := db.Client
	database := mongoClient.Database("theory_service")

	// Repositories
	questionRepo := repository.NewQuestionRepository(database)
	testRepo := repository.NewTestRepository(database)
	attemptRepo := repository.NewAttemptRepository(database)
	userRepo := repository.NewUserRepository(database)

	// The scoring service publishes its own attempt/badge events.
	var sink service.EventSink
	if publisher != nil {
		sink = publisher
	}

	// Services
	questionService := service.NewQuestionService(questionRepo)
	testService := service.NewTestService(testRepo, questionRepo, attemptRepo)
	userService := service.NewUserService(userRepo, attemptRepo, testRepo)
	scoringService := service.NewScoringService(testRepo, questionRepo, attemptRepo, userRepo, sink)
	progressService := service.NewProgressService(userRepo, attemptRepo, testRepo, questionRepo)

	// Handlers
	questionHandler := handlers.NewQuestionHandler(questionService)
	testHandler := handlers.NewTestHandler(testService, scoringService, userService)
	userHandler := handlers.NewUserHandler(userService, progressService)

	api := r.Group("/api")

	// Public routes
	api.GET("/tests", func(c *gin.Context) {
		testHandler.ListTests(c)
		if publisher != nil {
			publisher.Publish("test.list", gin.H{"timestamp": time.Now()})
		}
	})

	// Authenticated routes
	authed := api.Group("")
	authed.Use(authRequired())
	{
		authed.GET("/tests/:id", testHandler.GetTest)
		authed.POST("/tests/:id/submit", testHandler.SubmitTest)
		authed.GET("/tests/:id/attempts", testHandler.GetAttempts)

		users := authed.Group("/users")
		{
			users.GET("/dashboard", userHandler.GetDashboard)
			users.GET("/incorrect-answers", userHandler.GetIncorrectAnswers)
			users.GET("/profile", userHandler.GetProfile)
			users.GET("/progress", userHandler.GetProgress)
		}
	}

	// Admin content management
	admin := api.Group("")
	admin.Use(authRequired(), adminRequired())
	{
		admin.POST("/tests", func(c *gin.Context) {
			testHandler.CreateTest(c)
			if publisher != nil {
				publisher.Publish("test.created", gin.H{
					"user_id":   c.GetString("userID"),
					"timestamp": time.Now(),
				})
			}
		})
		admin.PUT("/tests/:id", testHandler.UpdateTest)
		admin.DELETE("/tests/:id", testHandler.DeleteTest)

		admin.GET("/questions", questionHandler.ListQuestions)
		admin.GET("/questions/:id", questionHandler.GetQuestion)
		admin.POST("/questions", func(c *gin.Context) {
			questionHandler.CreateQuestion(c)
			if publisher != nil {
				publisher.Publish("question.created", gin.H{
					"user_id":   c.GetString("userID"),
					"timestamp": time.Now(),
				})
			}
		})
		admin.PUT("/questions/:id", questionHandler.UpdateQuestion)
		admin.DELETE("/questions/:id", questionHandler.DeleteQuestion)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "7077"
	}
	r.Run(":" + port)
}

// authRequired trusts the gateway-set identity header. Token verification
// happens upstream.
func authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authentification requise",
				"code":    "MISSING_USER_ID",
			})
			c.Abort()
			return
		}
		c.Set("userID", userID)
		c.Next()
	}
}

func adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-User-Role") != "admin" {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Accès réservé aux administrateurs",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
