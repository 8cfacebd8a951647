package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ankit76350/whistleblower/internal/config"
	"github.com/ankit76350/whistleblower/internal/devserver"
)

func setupDependencies() (*gorm.DB, *redis.Client) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		config.Env("DB_HOST", "localhost"),
		config.Env("DB_USER", "whistleblower"),
		config.Env("DB_PASSWORD", "whistleblower"),
		config.Env("DB_NAME", "whistleblowerdb"),
		config.Env("DB_PORT", "5432"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: config.Env("REDIS_ADDR", "localhost:6379"),
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	return db, rdb
}

func main() {
	log.Info("Starting whistleblower dev backend...")

	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file loaded")
	}

	db, rdb := setupDependencies()
	svc := devserver.NewService(db, rdb)
	if err := svc.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	addr := config.Env("LISTEN_ADDR", ":8080")
	files, err := devserver.NewDiskStore(
		config.Env("FILES_DIR", "./data/files"),
		config.Env("PUBLIC_URL", "http://localhost"+addr),
	)
	if err != nil {
		log.Fatalf("Failed to prepare file store: %v", err)
	}

	hub := devserver.NewHub(svc)
	go hub.Run()

	r := gin.Default()
	h := devserver.NewHandler(svc, hub, files, []byte(config.Env("JWT_SECRET", "dev-only-secret")))
	h.RegisterRoutes(r)

	server := &http.Server{
		Addr:           addr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	log.WithField("addr", addr).Info("dev backend listening")
	log.Fatalf("%v", server.ListenAndServe())
}
