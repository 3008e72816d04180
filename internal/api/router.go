package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/daybrief/internal/api/handlers"
	mw "github.com/Harshitk-cp/daybrief/internal/api/middleware"
	"github.com/Harshitk-cp/daybrief/internal/buildconfig"
	"github.com/Harshitk-cp/daybrief/internal/bus"
	"github.com/Harshitk-cp/daybrief/internal/config"
	"github.com/Harshitk-cp/daybrief/internal/domain"
	"github.com/Harshitk-cp/daybrief/internal/embedding"
	"github.com/Harshitk-cp/daybrief/internal/llm"
	"github.com/Harshitk-cp/daybrief/internal/service"
	"github.com/Harshitk-cp/daybrief/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router   *chi.Mux
	Bus      *bus.Bus
	Curator  *service.CuratorService
	Revision *service.RevisionController
	Mirror   *bus.RedisMirror

	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	factStore := store.NewFactStore(db)

	// External clients via provider factory
	var embeddingClient domain.EmbeddingClient
	var llmClient domain.CompletionClient

	llmProvider := config.LLMProvider()
	embeddingProvider := config.EmbeddingProvider()

	var err error
	llmClient, err = llm.NewClient(llmProvider, config.LLMAPIKey())
	if err != nil {
		logger.Warn("LLM client initialization failed", zap.String("provider", llmProvider), zap.Error(err))
		llmClient = llm.NewMockClient()
	} else {
		logger.Info("LLM client initialized", zap.String("provider", llmProvider))
	}

	embeddingClient, err = embedding.NewClient(embeddingProvider, config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("Embedding client initialization failed", zap.String("provider", embeddingProvider), zap.Error(err))
		embeddingClient = embedding.NewMockClient()
	} else {
		logger.Info("Embedding client initialized", zap.String("provider", embeddingProvider))
	}

	// Event bus (plus an optional Redis mirror for external transports)
	eventBus := bus.New(logger)
	var mirror *bus.RedisMirror
	if addr := config.RedisAddr(); addr != "" {
		mirror = bus.NewRedisMirror(&redis.Options{Addr: addr}, logger)
		mirror.Attach(eventBus,
			domain.TopicReportGenerated,
			domain.TopicReportUpdated,
			domain.TopicActionConfirmed,
			domain.TopicConflictDetected,
		)
		logger.Info("Redis event mirror attached", zap.String("addr", addr))
	}

	// Services
	session := service.NewPipelineSession()
	factSvc := service.NewFactService(factStore, embeddingClient, logger)
	detector := service.NewConflictDetector(llmClient, logger)
	reportSvc := service.NewReportService(session, factSvc, llmClient, eventBus, logger)
	revisionCtrl := service.NewRevisionController(session, reportSvc, factSvc, llmClient, eventBus, logger)
	meetingSvc := service.NewMeetingService(factSvc, llmClient, detector, eventBus, logger)
	curatorSvc := service.NewCuratorService(factSvc, llmClient, logger)
	chatSvc := service.NewChatService(factSvc, llmClient, curatorSvc, logger)

	// Handlers
	reportHandler := handlers.NewReportHandler(reportSvc)
	meetingHandler := handlers.NewMeetingHandler(meetingSvc)
	factHandler := handlers.NewFactHandler(factSvc)
	eventHandler := handlers.NewEventHandler(eventBus)
	chatHandler := handlers.NewChatHandler(chatSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Bus:       eventBus,
		Curator:   curatorSvc,
		Revision:  revisionCtrl,
		Mirror:    mirror,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)                                                 // Generate/extract request ID first
	r.Use(middleware.RealIP)                                            // Extract real IP
	r.Use(metricsCollector.Middleware)                                  // Collect metrics
	r.Use(mw.Logging(logger))                                           // Log all requests
	r.Use(middleware.Recoverer)                                         // Recover from panics
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst())) // Rate limiting

	// Health
	r.Get("/health", healthHandler(db))

	// Metrics
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		// Report pipeline
		r.Route("/report", func(r chi.Router) {
			r.Post("/generate", reportHandler.Generate)
			r.Get("/", reportHandler.Get)
			r.Post("/confirm", reportHandler.Confirm)
		})

		// Meeting ingestion
		r.Post("/meetings/notes", meetingHandler.IngestNotes)

		// Facts
		r.Route("/facts", func(r chi.Router) {
			r.Get("/", factHandler.List)
			r.Get("/search", factHandler.Search)
			r.Post("/", factHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", factHandler.SetEnabled)
				r.Delete("/", factHandler.Delete)
			})
		})

		// Event history
		r.Get("/events", eventHandler.History)

		// Chat
		r.Post("/chat", chatHandler.Chat)
	})

	return app
}

// Start launches the background services: the curator consumer and the
// revision controller's bus subscription.
func (app *App) Start() {
	app.Curator.Start()
	app.Revision.Start()
}

// Stop shuts the background services down in reverse order.
func (app *App) Stop() {
	app.Revision.Stop()
	app.Curator.Stop()
	if app.Mirror != nil {
		app.Mirror.Detach(app.Bus)
		_ = app.Mirror.Close()
	}
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
			"build":      buildconfig.VersionInfo(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.FactStore        = (*store.FactStore)(nil)
	_ domain.CompletionClient = (*llm.OpenAIClient)(nil)
	_ domain.CompletionClient = (*llm.AnthropicClient)(nil)
	_ domain.CompletionClient = (*llm.MockClient)(nil)
	_ domain.EmbeddingClient  = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient  = (*embedding.MockClient)(nil)
)
