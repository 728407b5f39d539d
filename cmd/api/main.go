// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/capitalize-ai/assistant-evaluator/internal/config"
	"github.com/capitalize-ai/assistant-evaluator/internal/dataset"
	"github.com/capitalize-ai/assistant-evaluator/internal/evaluator"
	"github.com/capitalize-ai/assistant-evaluator/internal/generator"
	"github.com/capitalize-ai/assistant-evaluator/internal/handler"
	"github.com/capitalize-ai/assistant-evaluator/internal/llm"
	"github.com/capitalize-ai/assistant-evaluator/internal/middleware"
	natsclient "github.com/capitalize-ai/assistant-evaluator/internal/nats"
	"github.com/capitalize-ai/assistant-evaluator/internal/orchestrator"
	"github.com/capitalize-ai/assistant-evaluator/internal/service"
	"github.com/capitalize-ai/assistant-evaluator/internal/store"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
	"github.com/capitalize-ai/assistant-evaluator/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.ForEnv(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "assistant-evaluator", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the key-value store
	kv, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err), zap.String("backend", cfg.StoreBackend))
	}
	defer closeStore()

	// Load datasets
	criteria, err := dataset.LoadCriteria(cfg.CriteriaPath)
	if err != nil {
		log.Fatal("failed to load criteria", zap.Error(err))
	}
	questions, err := dataset.LoadQuestions(cfg.SampleInputsPath)
	if err != nil {
		log.Fatal("failed to load sample questions", zap.Error(err))
	}
	rubric, err := dataset.LoadRubric(cfg.RubricPath)
	if err != nil {
		log.Fatal("failed to load rubric", zap.Error(err))
	}

	// Initialize LLM clients
	registry := newRegistry(ctx, cfg, log)

	// Initialize services
	promptSvc := service.NewPromptService(store.NewPrompts(kv, log), log)
	initialPrompt, err := os.ReadFile(cfg.PromptPath)
	if err != nil {
		log.Warn("failed to read initial prompt", zap.Error(err), zap.String("path", cfg.PromptPath))
	}
	if _, err := promptSvc.Initialize(ctx, string(initialPrompt)); err != nil {
		log.Fatal("failed to initialize prompts", zap.Error(err))
	}

	runRepo := store.NewRuns(kv, log)

	annotationSvc := service.NewAnnotationService(store.NewAnnotations(kv, log), rubric, log)
	if err := annotationSvc.LoadFile(ctx, cfg.ConversationsPath); err != nil {
		log.Warn("conversations not loaded", zap.Error(err), zap.String("path", cfg.ConversationsPath))
	}

	snippetSvc := service.NewSnippetService(store.NewSnippetNotes(kv, log), log)
	if err := snippetSvc.LoadFile(ctx, cfg.SnippetsPath); err != nil {
		log.Warn("snippets not loaded", zap.Error(err), zap.String("path", cfg.SnippetsPath))
	}

	newGenerator := func(modelID, system string) *generator.Generator {
		return generator.New(registry, llm.ParseBackend(modelID),
			generator.WithSystemPrompt(system),
			generator.WithMaxTokens(cfg.MaxTokens),
			generator.WithTimeout(cfg.LLMTimeout),
			generator.WithLogger(log),
		)
	}
	newEvaluator := func(modelID string) *evaluator.Evaluator {
		return evaluator.New(registry, llm.ParseBackend(modelID),
			evaluator.WithTimeout(cfg.LLMTimeout),
			evaluator.WithLogger(log),
		)
	}

	orch := orchestrator.New(orchestrator.Config{
		Questions: questions,
		Criteria:  criteria,
		NewGenerator: func(modelID, system string) orchestrator.Generator {
			return newGenerator(modelID, system)
		},
		NewEvaluator: func(modelID string) orchestrator.Evaluator {
			return newEvaluator(modelID)
		},
		DefaultGeneratorModel: cfg.DefaultGeneratorModel,
		DefaultEvaluatorModel: cfg.DefaultEvaluatorModel,
		Runs:                  runRepo,
		Prompts:               promptSvc,
		Logger:                log,
	})

	runSvc := service.NewRunService(runRepo, orch, criteria, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(kv)
	capabilityHandler := handler.NewCapabilityHandler(handler.CapabilityConfig{
		Registry:              registry,
		Criteria:              criteria,
		Prompts:               promptSvc,
		NewGenerator:          newGenerator,
		NewEvaluator:          newEvaluator,
		DefaultGeneratorModel: cfg.DefaultGeneratorModel,
		DefaultEvaluatorModel: cfg.DefaultEvaluatorModel,
	}, log)
	promptHandler := handler.NewPromptHandler(promptSvc, log)
	runHandler := handler.NewRunHandler(orch, runSvc, log)
	streamHandler := handler.NewStreamHandler(orch, log)
	conversationHandler := handler.NewConversationHandler(annotationSvc, log)
	snippetHandler := handler.NewSnippetHandler(snippetSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Capabilities
		r.Post("/generate", capabilityHandler.Generate)
		r.Post("/evaluate", capabilityHandler.Evaluate)
		r.Get("/criteria", capabilityHandler.Criteria)
		r.Get("/models", capabilityHandler.Models)

		// Prompts
		r.Route("/prompts", func(r chi.Router) {
			r.Get("/", promptHandler.List)
			r.Post("/", promptHandler.Create)
			r.Get("/current", promptHandler.Current)
			r.Put("/current", promptHandler.SetCurrent)
		})

		// Run control
		r.Route("/run", func(r chi.Router) {
			r.Get("/", runHandler.Snapshot)
			r.Get("/stream", streamHandler.Stream)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RunControlRateLimit(cfg.RunRateLimitRequests, cfg.RateLimitWindow))
				r.Post("/generate", runHandler.Generate)
				r.Post("/evaluate", runHandler.Evaluate)
				r.Post("/stop", runHandler.Stop)
				r.Post("/resume", runHandler.Resume)
			})
		})

		// Run history
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", runHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", runHandler.Get)
				r.Delete("/", runHandler.Delete)
				r.Put("/pairs/{pairId}/human", runHandler.RecordHuman)
			})
		})

		// Conversation review
		r.Get("/rubric", conversationHandler.Rubric)
		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversationHandler.List)
			r.Get("/stats", conversationHandler.Stats)
			r.Get("/export", conversationHandler.Export)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Get("/annotation", conversationHandler.GetAnnotation)
				r.Put("/annotation", conversationHandler.UpdateAnnotation)
				r.Get("/score", conversationHandler.Score)
				r.Post("/criteria/{criterionId}/toggle", conversationHandler.ToggleCriterion)
				r.Post("/categories/{categoryId}/pass", conversationHandler.PassCategory)
			})
		})

		// Snippet open coding
		r.Route("/snippets", func(r chi.Router) {
			r.Get("/", snippetHandler.List)
			r.Get("/stats", snippetHandler.Stats)
			r.Get("/export", snippetHandler.Export)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", snippetHandler.Get)
				r.Put("/annotation", snippetHandler.Annotate)
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	// Let an in-flight phase persist its run before the store closes.
	if orch.Stop() {
		orch.Wait()
	}

	log.Info("server stopped")
}

// openStore returns the configured key-value store and a function that
// releases it.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.KV, func(), error) {
	switch cfg.StoreBackend {
	case "memory":
		return store.NewMemoryKV(), func() {}, nil

	case "nats":
		client, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return natsclient.NewKV(client), client.Close, nil

	case "file", "":
		kv, err := store.NewFileKV(cfg.DataDir, log)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// newRegistry registers a client for every provider with an API key.
func newRegistry(ctx context.Context, cfg *config.Config, log *logger.Logger) *llm.Registry {
	registry := llm.NewRegistry()
	keys := []struct {
		provider llm.Provider
		key      string
	}{
		{llm.ProviderAnthropic, cfg.AnthropicAPIKey},
		{llm.ProviderOpenAI, cfg.OpenAIAPIKey},
		{llm.ProviderGemini, cfg.GeminiAPIKey},
	}
	for _, k := range keys {
		if k.key == "" {
			continue
		}
		client, err := llm.NewClient(ctx, k.provider, k.key)
		if err != nil {
			log.Warn("failed to create LLM client", zap.Error(err), zap.String("provider", string(k.provider)))
			continue
		}
		registry.Register(k.provider, client)
	}
	if len(registry.Providers()) == 0 {
		log.Warn("no LLM provider configured, generation and evaluation will fail per item")
	}
	return registry
}
