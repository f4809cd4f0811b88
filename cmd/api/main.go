package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"prism/api/internal/analysis"
	"prism/api/internal/app"
	"prism/api/internal/authpw"
	"prism/api/internal/classify"
	"prism/api/internal/config"
	"prism/api/internal/email"
	"prism/api/internal/export"
	"prism/api/internal/genai"
	"prism/api/internal/search"
	"prism/api/internal/session"
	"prism/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, pgfts)

	deps := app.Deps{
		Store:    dataStore,
		Search:   searchService,
		Auth:     authpw.NewService(dataStore, cfg.JWTSecret),
		Exporter: export.NewService(dataStore),
	}

	// Redis carries refresh tokens and the per-decision analysis guard.
	// Without it both fall back to Postgres-only behavior.
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		deps.Sessions = redisStore
		deps.Guard = analysis.NewRedisGuard(redisStore.Client(), cfg.AIPrimaryTimeout+cfg.AISecondaryTimeout)
		log.Printf("using Redis for refresh tokens and the analysis guard")
	} else {
		log.Printf("using PostgreSQL for refresh token storage")
	}

	tiers := []analysis.Tier{
		{Model: cfg.AIPrimaryModel, Timeout: cfg.AIPrimaryTimeout},
		{Model: cfg.AISecondaryModel, Timeout: cfg.AISecondaryTimeout},
	}
	if strings.TrimSpace(cfg.AIBaseURL) != "" {
		client := genai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey)
		deps.Analyzer = analysis.NewOrchestrator(client, tiers)
		deps.Classifier = classify.NewAssisted(client, cfg.AISecondaryModel)
	} else {
		log.Printf("no AI backend configured, analysis uses the local heuristic")
		deps.Analyzer = analysis.NewOrchestrator(nil, tiers)
	}

	emailService := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	if emailService.IsConfigured() {
		deps.Email = emailService
	}

	service := app.New(cfg, deps)

	go service.ReindexSearch(ctx)

	if deps.Email != nil && cfg.ReminderInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.ReminderInterval)
			defer ticker.Stop()
			for range ticker.C {
				sent, err := service.SendDueReminders(ctx, 100)
				if err != nil {
					log.Printf("reminder sweep failed: %v", err)
					continue
				}
				if sent > 0 {
					log.Printf("sent %d review reminders", sent)
				}
			}
		}()
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Prism API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
