package builder

import (
	"fmt"
	"net/http"
	"time"

	"github.com/futig/diagram-backend/internal/api"
	diagramapi "github.com/futig/diagram-backend/internal/api/diagram"
	"github.com/futig/diagram-backend/internal/cache"
	"github.com/futig/diagram-backend/internal/client"
	"github.com/futig/diagram-backend/internal/config"
	"github.com/futig/diagram-backend/internal/integration/generation"
	"github.com/futig/diagram-backend/internal/integration/vision"
	"github.com/futig/diagram-backend/internal/pipeline"
	"github.com/futig/diagram-backend/internal/pkg/metrics"
	"github.com/futig/diagram-backend/internal/pkg/validator"
	"github.com/futig/diagram-backend/internal/validation"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func Build() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	m := metrics.New(prometheus.DefaultRegisterer)

	// Result cache with background sweep
	resultCache := cache.NewMemoryCache(cfg.CacheCfg.SweepInterval, logger,
		cache.WithCapacity(cfg.CacheCfg.Capacity),
		cache.WithDefaultTTL(cfg.CacheCfg.TTL),
	)
	logger.Info("Result cache initialized",
		zap.Int("capacity", cfg.CacheCfg.Capacity),
		zap.Duration("ttl", cfg.CacheCfg.TTL),
		zap.Duration("sweep_interval", cfg.CacheCfg.SweepInterval),
	)

	// Generation capability and vision judge (with mock support)
	var generator pipeline.Generator
	var judge validation.Judge

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		generator = generation.NewMockConnector(logger)
		judge = vision.NewMockJudge()
	} else {
		switch cfg.GenerationCfg.Mode {
		case "service":
			logger.Info("Using HTTP generation service connector")
			generator = generation.NewServiceConnector(cfg.GenerationCfg.ServiceCfg, logger)
		default:
			logger.Info("Using Anthropic generation connector")
			generator = generation.NewAnthropicConnector(cfg.AnthropicCfg, logger)
		}
		if cfg.ValidationCfg.VisionEnabled {
			judge = vision.NewAnthropicJudge(cfg.AnthropicCfg, logger)
		}
	}

	// Validation engine with bounded browser pool
	var renderer validation.Renderer
	if cfg.ValidationCfg.BrowserEnabled {
		renderer = validation.NewChromeRenderer(
			cfg.ValidationCfg.MaxConcurrentRenders,
			cfg.ValidationCfg.RenderTimeout,
			logger,
		)
	}
	engine := validation.NewEngine(validation.DefaultRuleSet(), renderer, judge, m, logger)
	logger.Info("Validation engine initialized",
		zap.Bool("browser_enabled", cfg.ValidationCfg.BrowserEnabled),
		zap.Bool("vision_enabled", judge != nil),
	)

	// Feedback loop controller
	controller := pipeline.NewController(generator, engine, resultCache, m, pipeline.Config{
		MaxIterations:     cfg.PipelineCfg.MaxIterations,
		ValidationEnabled: cfg.PipelineCfg.ValidationEnabled,
	}, logger)

	// Resilience layer
	requestValidator := validator.NewRequestValidator(cfg.LimitsCfg)
	pipelineClient := client.New(controller, requestValidator, cfg.ClientCfg, m, logger)
	logger.Info("Pipeline client initialized",
		zap.Int("max_iterations", cfg.PipelineCfg.MaxIterations),
		zap.Duration("timeout", cfg.ClientCfg.Timeout),
	)

	// Setup API handler and router
	diagramHandler := diagramapi.NewHandler(pipelineClient, resultCache)
	router := api.SetupRouter(diagramHandler, cfg.ClientCfg.Timeout+30*time.Second, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server. Write timeout must outlive the pipeline deadline.
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ClientCfg.Timeout + time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		cache:  resultCache,
		logger: logger,
	}, nil
}
