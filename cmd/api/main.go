package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"dailybrief/db"
	"dailybrief/internal/config"
	"dailybrief/internal/handler"
	"dailybrief/internal/repository"
)

// redisQueue adapts the shared Redis helpers to the handler's queue surface.
type redisQueue struct{}

func (redisQueue) Push(data string) error {
	return db.PushToQueue(db.DigestQueueKey, data)
}

func (redisQueue) Length() (int64, error) {
	return db.QueueLength(db.DigestQueueKey)
}

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()

	err := db.Connect()
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

	err = db.ConnectRedis()
	if err != nil {
		log.Fatalf("error connecting to Redis: %v", err)
	}
	defer db.CloseRedis()

	digestRepo := repository.NewDigestRepository(db.DB)
	digestHandler := handler.NewDigestHandler(digestRepo, redisQueue{})

	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}

	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	slog.Info("AllowOrigins URL:", "urls", allowedOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.POST("/digests", digestHandler.CreateDigest)
	r.GET("/digests", digestHandler.GetDigests)
	r.GET("/digests/latest", digestHandler.GetLatestDigest)
	r.GET("/digests/:id", digestHandler.GetDigest)
	r.GET("/health", digestHandler.GetHealth)

	err = r.Run(":" + cfg.Port)
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
