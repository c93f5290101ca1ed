// Package validation runs multi-phase checks against generated HTML
// artifacts and synthesizes feedback for the next generation attempt.
package validation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/futig/diagram-backend/internal/entity"
	"github.com/futig/diagram-backend/internal/pkg/metrics"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Judge is the optional vision-capable model used by the visual phase.
type Judge interface {
	Judge(ctx context.Context, screenshot []byte, requestText string) (*VisualJudgment, error)
}

// Engine validates artifacts in three phases: structural (static), browser
// (rendered) and visual (vision model). Phases that cannot run degrade to a
// single warning so partial infrastructure failure never blocks delivery.
// All reachable phases always run; the engine never short-circuits on the
// first error, because the feedback message must carry every finding.
type Engine struct {
	rules    RuleSet
	renderer Renderer
	judge    Judge
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewEngine creates a validation engine. renderer and judge may be nil,
// which skips the corresponding phase entirely.
func NewEngine(rules RuleSet, renderer Renderer, judge Judge, m *metrics.Metrics, logger *zap.Logger) *Engine {
	return &Engine{
		rules:    rules,
		renderer: renderer,
		judge:    judge,
		metrics:  m,
		logger:   logger,
	}
}

// Validate runs every reachable phase against the artifact and merges the
// findings. The error return is reserved for context cancellation; phase
// failures degrade to warnings.
func (e *Engine) Validate(ctx context.Context, artifact, requestText string) (*entity.ValidationResult, error) {
	start := time.Now()

	result := &entity.ValidationResult{}

	result.Issues = append(result.Issues, checkStructural(artifact, e.rules)...)
	result.ChecksPerformed = append(result.ChecksPerformed, "structural")

	if e.renderer != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.runBrowserPhase(ctx, artifact, result)
	}

	if e.judge != nil && result.Screenshot != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.runVisualPhase(ctx, requestText, result)
	}

	result.Valid = true
	for _, issue := range result.Issues {
		if e.metrics != nil {
			e.metrics.ValidationIssues.WithLabelValues(string(issue.Category), string(issue.Severity)).Inc()
		}
		if issue.Severity == entity.SeverityError {
			result.Valid = false
		}
	}

	if !result.Valid {
		result.Feedback = synthesizeFeedback(result, requestText)
	}
	result.ElapsedMs = time.Since(start).Milliseconds()

	ctxzap.Info(ctx, "artifact validated",
		zap.Bool("valid", result.Valid),
		zap.Int("issue_count", len(result.Issues)),
		zap.Strings("checks", result.ChecksPerformed),
		zap.Int64("elapsed_ms", result.ElapsedMs),
	)

	return result, nil
}

func (e *Engine) runBrowserPhase(ctx context.Context, artifact string, result *entity.ValidationResult) {
	report, err := e.renderer.Render(ctx, artifact)
	result.ChecksPerformed = append(result.ChecksPerformed, "browser")
	if err != nil {
		// Infrastructure degradation, not a verdict on the artifact.
		ctxzap.Warn(ctx, "browser phase unavailable", zap.Error(err))
		result.Issues = append(result.Issues, entity.ValidationIssue{
			Severity: entity.SeverityWarning,
			Category: entity.CategoryConsole,
			Message:  fmt.Sprintf("browser validation could not run: %v", err),
		})
		return
	}

	for _, msg := range report.ConsoleErrors {
		result.Issues = append(result.Issues, entity.ValidationIssue{
			Severity: entity.SeverityError,
			Category: entity.CategoryConsole,
			Message:  msg,
		})
	}
	for _, overflow := range report.Overflows {
		result.Issues = append(result.Issues, entity.ValidationIssue{
			Severity: entity.SeverityWarning,
			Category: entity.CategoryResponsive,
			Message: fmt.Sprintf("horizontal overflow at %s width %dpx (content %dpx exceeds %dpx)",
				overflow.Viewport, overflow.Width, overflow.ScrollWidth, overflow.ClientWidth),
		})
	}
	if report.MissingAltImages > 0 {
		result.Issues = append(result.Issues, entity.ValidationIssue{
			Severity: entity.SeverityWarning,
			Category: entity.CategoryAccessibility,
			Message:  fmt.Sprintf("%d image(s) missing alternative text", report.MissingAltImages),
		})
	}
	if report.UnlabeledButtons > 0 {
		result.Issues = append(result.Issues, entity.ValidationIssue{
			Severity: entity.SeverityWarning,
			Category: entity.CategoryAccessibility,
			Message:  fmt.Sprintf("%d button(s) without accessible text", report.UnlabeledButtons),
		})
	}
	result.Screenshot = report.Screenshot
}

func (e *Engine) runVisualPhase(ctx context.Context, requestText string, result *entity.ValidationResult) {
	judgment, err := e.judge.Judge(ctx, result.Screenshot, requestText)
	result.ChecksPerformed = append(result.ChecksPerformed, "visual")
	if err != nil {
		ctxzap.Warn(ctx, "visual phase unavailable", zap.Error(err))
		result.Issues = append(result.Issues, entity.ValidationIssue{
			Severity: entity.SeverityWarning,
			Category: entity.CategoryVisual,
			Message:  fmt.Sprintf("visual validation could not run: %v", err),
		})
		return
	}
	result.Issues = append(result.Issues, mapJudgment(judgment)...)
}

// synthesizeFeedback builds the single human-readable message injected into
// the next generation attempt: errors first, then warnings, each tagged
// with its category, followed by a restatement of the original request.
func synthesizeFeedback(result *entity.ValidationResult, requestText string) string {
	var b strings.Builder
	b.WriteString("The previous attempt failed validation.\n")

	if errs := result.Errors(); len(errs) > 0 {
		b.WriteString("\nMust fix:\n")
		for _, issue := range errs {
			fmt.Fprintf(&b, "- [%s] %s\n", issue.Category, issue.Message)
		}
	}
	if warns := result.Warnings(); len(warns) > 0 {
		b.WriteString("\nShould fix:\n")
		for _, issue := range warns {
			fmt.Fprintf(&b, "- [%s] %s\n", issue.Category, issue.Message)
		}
	}

	b.WriteString("\nOriginal request: ")
	b.WriteString(requestText)
	return b.String()
}
