package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/ledgerchat/internal/advisor"
	"github.com/dvloznov/ledgerchat/internal/api/handlers"
	"github.com/dvloznov/ledgerchat/internal/api/middleware"
	"github.com/dvloznov/ledgerchat/internal/categories"
	"github.com/dvloznov/ledgerchat/internal/chat"
	"github.com/dvloznov/ledgerchat/internal/commit"
	"github.com/dvloznov/ledgerchat/internal/config"
	"github.com/dvloznov/ledgerchat/internal/conversation"
	"github.com/dvloznov/ledgerchat/internal/events"
	"github.com/dvloznov/ledgerchat/internal/events/amqpbridge"
	"github.com/dvloznov/ledgerchat/internal/logger"
	"github.com/dvloznov/ledgerchat/internal/parse"
	"github.com/dvloznov/ledgerchat/internal/quota"
	"github.com/dvloznov/ledgerchat/internal/quota/inmemory"
	"github.com/dvloznov/ledgerchat/internal/quota/sqlitestore"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	ctx := context.Background()

	// Usage store: sqlite by default, in-memory for throwaway runs.
	var store quota.RecordStore
	switch cfg.UsageBackend {
	case "memory":
		store = inmemory.NewStore()
	default:
		s, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("Failed to open usage store")
		}
		defer s.Close()
		store = s
	}

	plans := quota.NewPlanTable(cfg.QuotaFree, cfg.QuotaPlus, cfg.QuotaPro)
	meter := quota.NewMeter(store, plans, cfg.UserID, log)

	bus := events.NewBus()
	if cfg.AMQPURL != "" {
		bridge, err := amqpbridge.New(cfg.AMQPURL, cfg.AMQPExchange, log)
		if err != nil {
			log.Warn().Err(err).Msg("AMQP unavailable, change events stay in-process")
		} else {
			bridge.Attach(bus)
			defer bridge.Close()
		}
	}

	messages := chat.NewLog(time.Now)
	adv := advisor.New(bus, log)
	gateway := parse.NewHTTPGateway(cfg.LedgerBaseURL, cfg.BoundaryTimeout, log)
	committer := commit.NewHTTPCommitter(cfg.LedgerBaseURL, cfg.BoundaryTimeout, bus, log)

	boundary := categories.NewHTTPLister(cfg.LedgerBaseURL, cfg.BoundaryTimeout)
	cache := categories.NewCache(boundary, cfg.TrackerID, bus, log)
	if err := cache.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial category fetch failed")
	}

	orch := conversation.New(conversation.Config{
		Meter:     meter,
		Messages:  messages,
		Gateway:   gateway,
		Committer: committer,
		Advisor:   adv,
		Logger:    log,
		PlanTier:  cfg.PlanTier,
		TrackerID: cfg.TrackerID,
	})

	chatHandler := handlers.NewChatHandler(orch, messages, adv, boundary, cfg.TrackerID, plans, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/chat/messages", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			chatHandler.ListMessages(w, r)
		case http.MethodPost:
			chatHandler.SubmitMessage(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/chat/usage", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			chatHandler.Usage(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/categories/quick-add", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			chatHandler.QuickAddCategory(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.ChatPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.ChatPort).Msg("Starting chat server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down chat server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
