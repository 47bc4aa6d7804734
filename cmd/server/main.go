package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/liamcoop/churn/inference"
	"github.com/liamcoop/churn/internal/config"
	"github.com/liamcoop/churn/internal/logger"
	_ "github.com/lib/pq"
)

type Server struct {
	cfg    *config.Config
	db     *sql.DB
	engine *inference.Engine
	store  inference.PredictionStore
	router *chi.Mux
}

// NewServer loads the model artifact and, when DATABASE_URL is set, opens
// the Postgres audit store. Without a database, audit entries are kept in
// memory.
func NewServer(cfg *config.Config) (*Server, error) {
	model, err := inference.LoadLogisticModel(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	handle, err := inference.NewHandle(cfg.ModelPath, model)
	if err != nil {
		return nil, err
	}
	logger.Info("Model loaded", "path", cfg.ModelPath, "features", model.Width())

	var db *sql.DB
	var store inference.PredictionStore = inference.NewInMemoryPredictionStore()

	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		store = inference.NewPostgresPredictionStore(db)
		logger.Info("Using Postgres prediction store")
	}

	engine, err := inference.NewEngine(handle, store)
	if err != nil {
		return nil, err
	}

	return NewServerWithEngine(cfg, engine, store, db), nil
}

// NewServerWithEngine wires the routes around an existing engine.
// db may be nil.
func NewServerWithEngine(cfg *config.Config, engine *inference.Engine, store inference.PredictionStore, db *sql.DB) *Server {
	s := &Server{
		cfg:    cfg,
		db:     db,
		engine: engine,
		store:  store,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(countStatus)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleHome)
	r.Get("/health", s.handleHealth)

	r.Route("/predict", func(r chi.Router) {
		r.Post("/", s.handlePredict)
		r.Post("/batch", s.handlePredictBatch)
		r.Post("/file", s.handlePredictFile)
	})
	r.Post("/ingest", s.handleIngest)

	// Audit log
	r.Get("/predictions", s.handleListPredictions)
	r.Get("/predictions/{requestId}", s.handleGetPrediction)

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// countStatus feeds response status classes into the logger counters
func countStatus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.HTTPStatus(ww.Status())
	})
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logger.Fatal("Failed to load configuration", "error", err)
	}

	server, err := NewServer(cfg)
	if err != nil {
		logger.Fatal("Failed to create server", "error", err)
	}
	if server.db != nil {
		defer server.db.Close()
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("Server starting", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	if err := logger.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "logger shutdown: %v\n", err)
	}

	logger.Info("Server stopped")
}
