package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"medimate-backend/internal/api"
	"medimate-backend/internal/auth"
	"medimate-backend/internal/database"
	"medimate-backend/internal/messaging"
	"medimate-backend/internal/storage"
)

// Local mode runs the whole backend from a single process with no external
// services: sqlite instead of postgres, a directory instead of S3, and an
// in-process queue instead of RabbitMQ.
type Config struct {
	Root        string `env:"ROOT" envDefault:"./medimate"`
	Port        int    `env:"PORT" envDefault:"3000"`
	AnalyzerURL string `env:"ANALYZER_URL" envDefault:"http://localhost:8000"`
	JwtSecret   string `env:"JWT_SECRET" envDefault:"your-secret-key"`
}

const uploadBucket = "uploads"

func createDatabase(root string) *gorm.DB {
	path := filepath.Join(root, "db", "medimate.db")
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.GetMigrator(db).Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func createServer(db *gorm.DB, store storage.Provider, queue messaging.Publisher, cfg Config) *http.Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	historyHandler := api.NewHistoryService(db, queue)
	analyzerHandler := api.NewAnalyzerService(cfg.AnalyzerURL, store, uploadBucket)

	r.Route("/api", func(r chi.Router) {
		r.Get("/test", api.RestHandler(api.HealthCheck))

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware([]byte(cfg.JwtSecret)))
			historyHandler.AddRoutes(r)
			analyzerHandler.AddRoutes(r)
		})
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := os.MkdirAll(cfg.Root, os.ModePerm); err != nil {
		log.Fatalf("error creating directory for log file: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(cfg.Root, "backend.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	log.SetOutput(io.MultiWriter(f, os.Stderr))

	slog.Info("starting backend", "root", cfg.Root, "port", cfg.Port, "analyzer_url", cfg.AnalyzerURL)

	db := createDatabase(cfg.Root)

	store, err := storage.NewLocalProvider(filepath.Join(cfg.Root, "storage"))
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}
	if err := store.CreateBucket(context.Background(), uploadBucket); err != nil {
		log.Fatalf("Failed to create upload bucket: %v", err)
	}

	queue := messaging.NewInMemoryQueue()
	defer queue.Close()

	server := createServer(db, store, queue, cfg)

	// Goroutine for graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	slog.Info("server started", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	slog.Info("server stopped")
}
