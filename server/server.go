package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CrateFM/config"
	"CrateFM/core/agent"
	"CrateFM/core/planner"
	"CrateFM/logger"
	"CrateFM/repository"

	"github.com/gorilla/mux"
)

// newRouter wires the API surface onto a mux router with CORS enabled.
func newRouter(apiHandler *APIHandler) *mux.Router {
	router := mux.NewRouter()

	// CORS middleware
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Catalog endpoints
	router.HandleFunc("/api/tracks", apiHandler.AddTrackHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks", apiHandler.GetTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/search", apiHandler.SearchTracksHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/stats", apiHandler.StatsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", apiHandler.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", apiHandler.UpdateTrackHandler).Methods(http.MethodPut)
	router.HandleFunc("/api/tracks/{id}", apiHandler.RemoveTrackHandler).Methods(http.MethodDelete)

	// Planning endpoints
	router.HandleFunc("/api/plan", apiHandler.CreatePlanHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/plan", apiHandler.CurrentPlanHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/plan/validate", apiHandler.ValidatePlanHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/plan/finalize", apiHandler.FinalizePlanHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/plan/resequence", apiHandler.ResequencePlanHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/plan/explain", apiHandler.ExplainPlanHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/plan/revise", apiHandler.RevisePlanHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/plan/mixability", apiHandler.MixabilityHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/plan/pool", apiHandler.CurrentPoolHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/plans/finalized", apiHandler.FinalizedPlansHandler).Methods(http.MethodGet)

	return router
}

// Start initializes and starts the HTTP server, blocking until shutdown.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogOutputPath,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
	})

	trackRepo := repository.NewMemoryTrackRepository()

	var gen planner.TextGenerator
	if cfg.AIAPIKey != "" {
		gen = agent.NewCrateAgent(&agent.CrateAgentConfig{
			APIBaseURL:  cfg.AIBaseURL,
			APIKey:      cfg.AIAPIKey,
			Model:       cfg.AIModel,
			MaxTokens:   cfg.AIMaxTokens,
			Temperature: cfg.AITemperature,
		})
	} else {
		logger.Warn("AI_API_KEY not set, planning runs deterministic paths only")
	}

	crate := planner.NewPlanner(trackRepo, gen,
		planner.WithDefaultTargetDuration(cfg.DefaultTargetDuration),
		planner.WithTolerance(cfg.FinalizeTolerance))

	apiHandler := NewAPIHandler(trackRepo, crate, cfg)
	router := newRouter(apiHandler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // AI-backed phases can be slow
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("CrateFM server listening", logger.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", logger.ErrorField(err))
	}
}
