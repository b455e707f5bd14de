package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"agrivoice-ai/internal/agent"
	"agrivoice-ai/internal/analytics"
	"agrivoice-ai/internal/auth"
	"agrivoice-ai/internal/config"
	"agrivoice-ai/internal/diagnosis"
	"agrivoice-ai/internal/report"
	"agrivoice-ai/internal/retry"
)

func main() {
	cfg := config.Load()

	// 1. Infrastructure
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err == nil {
			err = db.Ping()
		}
		if err == nil {
			break
		}
		log.Printf("Waiting for DB... (%d/10)", i+1)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatalf("Could not connect to DB: %v", err)
	}
	log.Println("Connected to Database.")

	m, err := migrate.New("file://migrations", cfg.DatabaseURL)
	if err != nil {
		log.Printf("Migration init failed: %v", err)
	} else if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Printf("Migration up failed: %v", err)
	} else {
		log.Println("Migrations applied successfully!")
	}

	// 2. Capability adapters
	tagger := agent.NewVisionClient(cfg.VisionEndpoint, cfg.VisionKey)
	advisor := agent.NewAdvisorClient(cfg.OpenAIEndpoint, cfg.OpenAIKey, cfg.OpenAIDeployment, cfg.OpenAIAPIVersion)
	translator := agent.NewTranslatorClient(cfg.TranslatorEndpoint, cfg.TranslatorKey, cfg.TranslatorRegion)
	synthesizer := agent.NewSpeechClient(cfg.SpeechRegion, cfg.SpeechKey)

	sink, err := analytics.NewFileSink(cfg.EventLogPath)
	if err != nil {
		log.Fatalf("Could not open event log: %v", err)
	}

	// 3. Services
	diagRepo := diagnosis.NewRepository(db)
	diagSvc := diagnosis.NewService(tagger, advisor, translator, synthesizer, sink, diagRepo,
		retry.DefaultConfig(agent.IsRetryable))
	diagHandler := diagnosis.NewHandler(diagSvc, report.NewService())

	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	authHandler := auth.NewHandler(auth.NewRepository(db), tm)
	analyticsHandler := analytics.NewHandler(sink)

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS for the PWA frontend
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
			if r.Method == "OPTIONS" {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		auth.RegisterRoutes(r, authHandler)
		diagnosis.RegisterRoutes(r, diagHandler)
		analytics.RegisterRoutes(r, analyticsHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tm))
			auth.RegisterProtectedRoutes(r, authHandler)
			diagnosis.RegisterProtectedRoutes(r, diagHandler)
		})
	})

	fmt.Printf("Server starting on port %s...\n", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
