package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"chak-property-server/handlers/admin"
	"chak-property-server/handlers/auth"
	"chak-property-server/handlers/payments"
	"chak-property-server/migrations"
	"chak-property-server/mpesa"
	"chak-property-server/store"
	"chak-property-server/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env file:", err)
	}

	r := gin.Default()

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "http://localhost:5173"
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Store selection happens once, here. With no DB configured the server runs
	// on the in-memory store for local development; a configured but unreachable
	// DB is fatal rather than a silent fallback.
	var paymentStore store.PaymentStore
	if os.Getenv("DB_HOST") == "" {
		log.Println("DB_HOST not set, using in-memory payment store (records are lost on restart)")
		paymentStore = store.NewMemoryStore()
	} else {
		db, err := utils.ConnectDatabase()
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := migrations.Migrate(db); err != nil {
			log.Fatalf("Failed to migrate payment tables: %v", err)
		}
		paymentStore = store.NewGormStore(db)
	}

	rdb := connectRedis()

	mpesaCfg := mpesa.ConfigFromEnv()
	tokens := mpesa.NewTokenProvider(mpesaCfg, rdb)
	mpesaClient := mpesa.NewClient(mpesaCfg, tokens)
	notifier := utils.NewNotifier()

	paymentHandler := payments.NewHandler(paymentStore, mpesaClient, tokens, notifier)
	paymentHandler.RegisterRoutes(r.Group("/api/mpesa"))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	if err := utils.InitJWT(); err != nil {
		log.Println("JWT_SECRET not set, admin endpoints disabled:", err)
	} else {
		adminHandler := admin.NewHandler(paymentStore)
		adminGroup := r.Group("/api/admin")
		adminGroup.Use(auth.ServiceAuthMiddleware())
		adminHandler.RegisterRoutes(adminGroup)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper := payments.NewSweeper(paymentStore, notifier)
	if ttl := os.Getenv("PAYMENT_PENDING_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			sweeper.PendingTTL = d
		} else {
			log.Printf("Invalid PAYMENT_PENDING_TTL %q, keeping default: %v", ttl, err)
		}
	}
	go sweeper.Run(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}

// connectRedis wires the shared token cache when REDIS_ADDR is set. Running
// without Redis just means every instance caches its own token.
func connectRedis() *redis.Client {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		log.Println("REDIS_ADDR not set, token caching stays process-local")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("Failed to connect to Redis at %s, token caching stays process-local: %v", redisAddr, err)
		return nil
	}

	log.Println("Connected to Redis")
	return rdb
}
