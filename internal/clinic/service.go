package clinic

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/ranvier2d2/nexo-plus-project/internal/alerts"
	"github.com/ranvier2d2/nexo-plus-project/internal/guidelines"
	"github.com/ranvier2d2/nexo-plus-project/internal/notification"
	"github.com/ranvier2d2/nexo-plus-project/internal/store"
	"github.com/ranvier2d2/nexo-plus-project/pkg/config"
	"github.com/ranvier2d2/nexo-plus-project/pkg/interfaces"
	"github.com/ranvier2d2/nexo-plus-project/pkg/logger"
	"github.com/ranvier2d2/nexo-plus-project/pkg/monitoring"
	"github.com/ranvier2d2/nexo-plus-project/pkg/types"
)

// Dependencies are the external collaborators of the service
type Dependencies struct {
	Generator interfaces.TextGenerator
	Sender    interfaces.MessageSender

	// Reported by the health endpoint; a provider without credentials degrades the service
	GeneratorConfigured bool
	SenderConfigured    bool
}

// Service is the patient monitoring HTTP service
type Service struct {
	config      *config.Config
	logger      *logger.Logger
	patients    interfaces.PatientRepository
	parameters  interfaces.ParameterRepository
	ingestion   interfaces.IngestionRepository
	policy      *alerts.Policy
	advisor     *guidelines.Advisor
	metrics     *monitoring.MetricsCollector
	tracing     *monitoring.TracingManager
	health      *monitoring.HealthManager
	rateLimiter *RateLimiter
	router      *mux.Router
	server      *http.Server
	stopCleanup context.CancelFunc
	mu          sync.Mutex
}

// New creates the service with the LLM and WhatsApp clients built from configuration
func New(cfg *config.Config, log *logger.Logger) *Service {
	timeout := callTimeout(cfg)

	llm := notification.NewLLMClient(notification.LLMConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: timeout,
	}, log)

	whatsapp := notification.NewWhatsAppClient(notification.WhatsAppConfig{
		BaseURL:    cfg.WhatsApp.BaseURL,
		APIVersion: cfg.WhatsApp.APIVersion,
		PhoneID:    cfg.WhatsApp.PhoneID,
		Token:      cfg.WhatsApp.Token,
		Timeout:    timeout,
	}, log)

	if !llm.Configured() {
		log.Warn("OPENAI_API_KEY not set, alert messages will use fallback text")
	}
	if !whatsapp.Configured() {
		log.Warn("WHATSAPP_PHONE_ID or WHATSAPP_TOKEN not set, notifications are disabled")
	}

	return NewWithDependencies(cfg, log, Dependencies{
		Generator:           llm,
		Sender:              whatsapp,
		GeneratorConfigured: llm.Configured(),
		SenderConfigured:    whatsapp.Configured(),
	})
}

// NewWithDependencies wires the service around the given collaborators
func NewWithDependencies(cfg *config.Config, log *logger.Logger, deps Dependencies) *Service {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetricsCollector(cfg.Monitoring.ServiceName, registry)
	tracing := monitoring.NewTracingManager(cfg.Monitoring.ServiceName)

	patients := store.NewPatientStore(log)
	parameters := store.NewParameterStore(initialParameters(cfg), log)

	dispatcher := alerts.NewDispatcher(deps.Generator, deps.Sender, alerts.DispatcherConfig{
		CallTimeout:    callTimeout(cfg),
		AlertMaxTokens: cfg.Notification.AlertMaxTokens,
	}, metrics, tracing, log)

	health := monitoring.NewHealthManager(cfg.Monitoring.ServiceName, cfg.Server.Version)
	health.RegisterChecker("llm", monitoring.ConfiguredCheck(deps.GeneratorConfigured, "text generation not configured, using fallback messages"))
	health.RegisterChecker("whatsapp", monitoring.ConfiguredCheck(deps.SenderConfigured, "messaging not configured, notifications disabled"))

	s := &Service{
		config:     cfg,
		logger:     log,
		patients:   patients,
		parameters: parameters,
		ingestion:  store.NewIngestionStore(),
		policy:     alerts.NewPolicy(patients, parameters, dispatcher, metrics, tracing, log),
		advisor:    guidelines.NewAdvisor(deps.Generator, callTimeout(cfg), tracing, log),
		metrics:    metrics,
		tracing:    tracing,
		health:     health,
	}

	if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerMin > 0 {
		s.rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, time.Minute)
	}

	s.router = mux.NewRouter()
	s.setupRoutes(s.router)
	return s
}

// Handler returns the HTTP handler with all middleware applied.
// CORS wraps the router so preflight requests never reach route matching.
func (s *Service) Handler() http.Handler {
	return s.corsMiddleware(s.securityHeadersMiddleware(s.router))
}

// Start starts the HTTP server and blocks until it stops
func (s *Service) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	s.mu.Lock()
	s.server = server
	if s.rateLimiter != nil && s.config.RateLimit.CleanupInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		s.stopCleanup = cancel
		s.rateLimiter.StartCleanup(ctx, time.Duration(s.config.RateLimit.CleanupInterval)*time.Second)
	}
	s.mu.Unlock()

	s.logger.WithField("addr", addr).Info("Starting monitor service")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	server, stopCleanup := s.server, s.stopCleanup
	s.mu.Unlock()

	if stopCleanup != nil {
		stopCleanup()
	}
	if server == nil {
		return nil
	}
	s.logger.Info("Stopping monitor service")
	return server.Shutdown(ctx)
}

func callTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Notification.Timeout) * time.Second
}

func initialParameters(cfg *config.Config) types.ThresholdParameters {
	return types.ThresholdParameters{
		SystolicMin:  cfg.Thresholds.SystolicMin,
		SystolicMax:  cfg.Thresholds.SystolicMax,
		HeartRateMin: cfg.Thresholds.HeartRateMin,
		HeartRateMax: cfg.Thresholds.HeartRateMax,
		WeightDelta:  cfg.Thresholds.WeightDelta,
	}
}
