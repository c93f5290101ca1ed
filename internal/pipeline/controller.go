// Package pipeline orchestrates the bounded generate-validate-regenerate
// loop around an injected generation capability.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/futig/diagram-backend/internal/cache"
	"github.com/futig/diagram-backend/internal/entity"
	"github.com/futig/diagram-backend/internal/pkg/metrics"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	DefaultMaxIterations = 5
	// HardIterationCap bounds latency and model spend regardless of caller
	// configuration.
	HardIterationCap = 10
)

// Config controls one controller instance.
type Config struct {
	MaxIterations     int
	ValidationEnabled bool
}

// Controller runs the feedback loop: generate, validate, and either stop or
// regenerate with accumulated feedback. Iterations are strictly sequential;
// iteration N+1 never starts before iteration N's validation has returned,
// because its prompt depends on that feedback.
type Controller struct {
	generator         Generator
	validator         Validator
	cache             cache.ResultCache
	metrics           *metrics.Metrics
	maxIterations     int
	validationEnabled bool
	logger            *zap.Logger
}

func NewController(
	generator Generator,
	validator Validator,
	resultCache cache.ResultCache,
	m *metrics.Metrics,
	cfg Config,
	logger *zap.Logger,
) *Controller {
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if maxIterations > HardIterationCap {
		maxIterations = HardIterationCap
	}

	return &Controller{
		generator:         generator,
		validator:         validator,
		cache:             resultCache,
		metrics:           m,
		maxIterations:     maxIterations,
		validationEnabled: cfg.ValidationEnabled,
		logger:            logger,
	}
}

// Run executes one pipeline invocation. Identical requests within the cache
// TTL are served from the cache without touching the generator. Generation
// failures propagate unchanged: retrying them is the resilience layer's
// job, never the controller's.
func (c *Controller) Run(ctx context.Context, req *entity.GenerationRequest) (*entity.PipelineResult, error) {
	start := time.Now()

	key := cache.Key(req)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			if c.metrics != nil {
				c.metrics.CacheHits.Inc()
			}
			ctxzap.Info(ctx, "pipeline result served from cache", zap.String("cache_key", key))
			return cached, nil
		}
	}
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
		c.metrics.PipelineRuns.Inc()
	}

	prompt := buildPrompt(req)

	var (
		feedback    []string
		totalTokens int64
		model       string
	)

	for iteration := 1; iteration <= c.maxIterations; iteration++ {
		iterCtx := ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(zap.Int("iteration", iteration)))

		attemptPrompt := withFeedback(prompt, feedback)

		genStart := time.Now()
		output, err := c.generator.Generate(iterCtx, attemptPrompt, req)
		if c.metrics != nil {
			c.metrics.GenerationTime.Observe(time.Since(genStart).Seconds())
		}
		if err != nil {
			return nil, fmt.Errorf("generation failed on iteration %d: %w", iteration, err)
		}
		totalTokens += output.TokensUsed
		model = output.Model

		if !c.validationEnabled {
			ctxzap.Info(iterCtx, "validation disabled, returning first artifact")
			return c.finish(key, &entity.PipelineResult{
				ID:       uuid.New().String(),
				Success:  true,
				Artifact: output.HTML,
				Metadata: entity.ResultMetadata{
					Model:      model,
					TokensUsed: totalTokens,
					ElapsedMs:  time.Since(start).Milliseconds(),
					Iterations: iteration,
				},
			}), nil
		}

		verdict, err := c.validator.Validate(iterCtx, output.HTML, req.Instruction)
		if err != nil {
			return nil, fmt.Errorf("validate artifact on iteration %d: %w", iteration, err)
		}

		if verdict.Valid {
			ctxzap.Info(iterCtx, "artifact passed validation",
				zap.Int("iterations", iteration),
				zap.Int64("tokens_used", totalTokens),
			)
			if c.metrics != nil {
				c.metrics.Iterations.Observe(float64(iteration))
			}
			return c.finish(key, c.buildResult(output.HTML, model, totalTokens, start, iteration, true)), nil
		}

		if iteration == c.maxIterations {
			// Budget exhausted: hand back the last artifact as best effort
			// and let the caller decide whether to accept it.
			ctxzap.Warn(iterCtx, "iteration budget exhausted, returning best-effort artifact",
				zap.Int("max_iterations", c.maxIterations),
				zap.Int("open_issues", len(verdict.Issues)),
			)
			if c.metrics != nil {
				c.metrics.Iterations.Observe(float64(iteration))
			}
			return c.finish(key, c.buildResult(output.HTML, model, totalTokens, start, iteration, false)), nil
		}

		feedback = append(feedback, verdict.Feedback)
		ctxzap.Info(iterCtx, "artifact failed validation, regenerating",
			zap.Int("issue_count", len(verdict.Issues)),
		)
	}

	// Unreachable: the loop always returns from its final iteration.
	return nil, fmt.Errorf("feedback loop exited without a terminal state")
}

func (c *Controller) buildResult(artifact, model string, tokens int64, start time.Time, iterations int, passed bool) *entity.PipelineResult {
	return &entity.PipelineResult{
		ID:       uuid.New().String(),
		Success:  true,
		Artifact: artifact,
		Metadata: entity.ResultMetadata{
			Model:            model,
			TokensUsed:       tokens,
			ElapsedMs:        time.Since(start).Milliseconds(),
			ValidationPassed: &passed,
			Iterations:       iterations,
		},
	}
}

func (c *Controller) finish(key string, result *entity.PipelineResult) *entity.PipelineResult {
	if c.cache != nil {
		c.cache.Set(key, result)
	}
	return result
}
