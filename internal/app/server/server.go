package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"wagecalc/internal/domain/payroll"
	"wagecalc/internal/platform/config"
	"wagecalc/internal/platform/metrics"
	"wagecalc/internal/transport/http/api"
	payrollhandler "wagecalc/internal/transport/http/handlers/payroll"
	"wagecalc/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	Laws    *payroll.LawRegistry
	Calcs   *payroll.CalculatorRegistry
	Metrics *metrics.Collector
	Router  http.Handler
}

// New loads the tax law directory, builds both registries and assembles
// the router. An unreadable law directory is the only fatal condition.
func New(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	laws, calcs, err := payroll.Bootstrap(cfg.TaxLawDir)
	if err != nil {
		return nil, fmt.Errorf("bootstrap tax registries: %w", err)
	}
	log.Printf("loaded %d tax laws, %d calculators from %s", laws.Len(), len(calcs.Regions()), cfg.TaxLawDir)

	engine := payroll.NewEngine(laws, calcs, payroll.WithWorkers(cfg.EngineWorkers))
	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready", "laws": laws.Len()})
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.WriteJSON(w, http.StatusOK, collector.Snapshot())
		})
	}

	router.Route("/api", func(r chi.Router) {
		handler := payrollhandler.NewHandler(engine, laws, calcs, cfg.TaxLawDir, collector)
		handler.RegisterRoutes(r)
	})

	return &App{
		Config:  cfg,
		Laws:    laws,
		Calcs:   calcs,
		Metrics: collector,
		Router:  router,
	}, nil
}

func Run() {
	cfg := config.Load()
	app, err := New(cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	log.Printf("payroll server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
