package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/futig/diagram-backend/internal/cache"
	"github.com/futig/diagram-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	prompts []string
	output  *entity.GenerationOutput
	err     error
}

func (g *stubGenerator) Generate(_ context.Context, prompt string, _ *entity.GenerationRequest) (*entity.GenerationOutput, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return nil, g.err
	}
	return g.output, nil
}

type stubValidator struct {
	calls    int
	verdicts []*entity.ValidationResult
	err      error
}

func (v *stubValidator) Validate(_ context.Context, _, _ string) (*entity.ValidationResult, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	verdict := v.verdicts[0]
	if len(v.verdicts) > 1 {
		v.verdicts = v.verdicts[1:]
	}
	return verdict, nil
}

func validVerdict() *entity.ValidationResult {
	return &entity.ValidationResult{Valid: true}
}

func invalidVerdict(feedback string) *entity.ValidationResult {
	return &entity.ValidationResult{
		Valid:    false,
		Issues:   []entity.ValidationIssue{{Severity: entity.SeverityError, Category: entity.CategoryStructural, Message: "missing doctype"}},
		Feedback: feedback,
	}
}

func sampleOutput() *entity.GenerationOutput {
	return &entity.GenerationOutput{HTML: "<!DOCTYPE html><html></html>", TokensUsed: 100, Model: "test-model"}
}

func newTestController(g Generator, v Validator, c cache.ResultCache, cfg Config) *Controller {
	return NewController(g, v, c, nil, cfg, zap.NewNop())
}

func TestRunStopsOnFirstValidArtifact(t *testing.T) {
	gen := &stubGenerator{output: sampleOutput()}
	val := &stubValidator{verdicts: []*entity.ValidationResult{validVerdict()}}
	ctrl := newTestController(gen, val, nil, Config{MaxIterations: 5, ValidationEnabled: true})

	result, err := ctrl.Run(context.Background(), &entity.GenerationRequest{Instruction: "draw boxes"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, sampleOutput().HTML, result.Artifact)
	require.NotNil(t, result.Metadata.ValidationPassed)
	assert.True(t, *result.Metadata.ValidationPassed)
	assert.Equal(t, 1, result.Metadata.Iterations)
	assert.Equal(t, int64(100), result.Metadata.TokensUsed)
	assert.Len(t, gen.prompts, 1)
}

func TestRunExhaustsBudgetAndReturnsBestEffort(t *testing.T) {
	gen := &stubGenerator{output: sampleOutput()}
	val := &stubValidator{verdicts: []*entity.ValidationResult{invalidVerdict("add a doctype")}}
	ctrl := newTestController(gen, val, nil, Config{MaxIterations: 3, ValidationEnabled: true})

	result, err := ctrl.Run(context.Background(), &entity.GenerationRequest{Instruction: "draw boxes"})
	require.NoError(t, err)

	assert.Len(t, gen.prompts, 3, "generator must be called exactly MaxIterations times")
	assert.Equal(t, 3, val.calls)
	assert.True(t, result.Success, "best-effort artifact is still a successful run")
	require.NotNil(t, result.Metadata.ValidationPassed)
	assert.False(t, *result.Metadata.ValidationPassed)
	assert.Equal(t, 3, result.Metadata.Iterations)
	assert.Equal(t, int64(300), result.Metadata.TokensUsed)
}

func TestRunAccumulatesFeedbackAcrossIterations(t *testing.T) {
	gen := &stubGenerator{output: sampleOutput()}
	val := &stubValidator{verdicts: []*entity.ValidationResult{
		invalidVerdict("first round feedback"),
		invalidVerdict("second round feedback"),
		validVerdict(),
	}}
	ctrl := newTestController(gen, val, nil, Config{MaxIterations: 5, ValidationEnabled: true})

	_, err := ctrl.Run(context.Background(), &entity.GenerationRequest{Instruction: "draw boxes"})
	require.NoError(t, err)

	require.Len(t, gen.prompts, 3)
	assert.NotContains(t, gen.prompts[0], "first round feedback")
	assert.Contains(t, gen.prompts[1], "Attempt 1:")
	assert.Contains(t, gen.prompts[1], "first round feedback")
	assert.Contains(t, gen.prompts[2], "first round feedback")
	assert.Contains(t, gen.prompts[2], "second round feedback")
	assert.Contains(t, gen.prompts[2], "Regenerate the full document")
}

func TestRunPropagatesGenerationFailure(t *testing.T) {
	genErr := entity.NewRetryableError(entity.ErrorCategoryNetwork, errors.New("connection reset"))
	gen := &stubGenerator{err: genErr}
	val := &stubValidator{verdicts: []*entity.ValidationResult{validVerdict()}}
	ctrl := newTestController(gen, val, nil, Config{MaxIterations: 5, ValidationEnabled: true})

	result, err := ctrl.Run(context.Background(), &entity.GenerationRequest{Instruction: "draw boxes"})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, genErr)
	assert.Contains(t, err.Error(), "iteration 1")
	assert.Equal(t, 0, val.calls, "validation must not run on a failed generation")
}

func TestRunServesIdenticalRequestFromCache(t *testing.T) {
	resultCache := cache.NewMemoryCache(time.Hour, zap.NewNop())
	defer resultCache.Close()

	gen := &stubGenerator{output: sampleOutput()}
	val := &stubValidator{verdicts: []*entity.ValidationResult{validVerdict()}}
	ctrl := newTestController(gen, val, resultCache, Config{MaxIterations: 5, ValidationEnabled: true})

	req := &entity.GenerationRequest{Instruction: "draw boxes"}
	first, err := ctrl.Run(context.Background(), req)
	require.NoError(t, err)

	second, err := ctrl.Run(context.Background(), &entity.GenerationRequest{Instruction: "  Draw   Boxes "})
	require.NoError(t, err)

	assert.Same(t, first, second, "normalized-identical request must hit the cache")
	assert.Len(t, gen.prompts, 1, "cache hit must not touch the generator")
}

func TestRunCachesExhaustedResult(t *testing.T) {
	resultCache := cache.NewMemoryCache(time.Hour, zap.NewNop())
	defer resultCache.Close()

	gen := &stubGenerator{output: sampleOutput()}
	val := &stubValidator{verdicts: []*entity.ValidationResult{invalidVerdict("fix it")}}
	ctrl := newTestController(gen, val, resultCache, Config{MaxIterations: 2, ValidationEnabled: true})

	req := &entity.GenerationRequest{Instruction: "draw boxes"}
	_, err := ctrl.Run(context.Background(), req)
	require.NoError(t, err)

	cached, ok := resultCache.Get(cache.Key(req))
	require.True(t, ok, "best-effort results are cached too")
	assert.False(t, *cached.Metadata.ValidationPassed)
}

func TestRunDoesNotCacheFailures(t *testing.T) {
	resultCache := cache.NewMemoryCache(time.Hour, zap.NewNop())
	defer resultCache.Close()

	gen := &stubGenerator{err: errors.New("boom")}
	ctrl := newTestController(gen, &stubValidator{}, resultCache, Config{MaxIterations: 2, ValidationEnabled: true})

	req := &entity.GenerationRequest{Instruction: "draw boxes"}
	_, err := ctrl.Run(context.Background(), req)
	require.Error(t, err)

	_, ok := resultCache.Get(cache.Key(req))
	assert.False(t, ok)
}

func TestRunWithValidationDisabled(t *testing.T) {
	gen := &stubGenerator{output: sampleOutput()}
	val := &stubValidator{verdicts: []*entity.ValidationResult{invalidVerdict("would fail")}}
	ctrl := newTestController(gen, val, nil, Config{MaxIterations: 5, ValidationEnabled: false})

	result, err := ctrl.Run(context.Background(), &entity.GenerationRequest{Instruction: "draw boxes"})
	require.NoError(t, err)

	assert.Len(t, gen.prompts, 1)
	assert.Equal(t, 0, val.calls)
	assert.Nil(t, result.Metadata.ValidationPassed, "no verdict when validation is off")
	assert.Equal(t, 1, result.Metadata.Iterations)
}

func TestNewControllerClampsIterationBudget(t *testing.T) {
	gen := &stubGenerator{output: sampleOutput()}
	val := &stubValidator{verdicts: []*entity.ValidationResult{invalidVerdict("never good enough")}}
	ctrl := newTestController(gen, val, nil, Config{MaxIterations: 50, ValidationEnabled: true})

	_, err := ctrl.Run(context.Background(), &entity.GenerationRequest{Instruction: "draw boxes"})
	require.NoError(t, err)
	assert.Len(t, gen.prompts, HardIterationCap)
}

func TestNewControllerDefaultsIterationBudget(t *testing.T) {
	ctrl := newTestController(&stubGenerator{}, &stubValidator{}, nil, Config{})
	assert.Equal(t, DefaultMaxIterations, ctrl.maxIterations)
}

func TestRunPropagatesValidationFailure(t *testing.T) {
	gen := &stubGenerator{output: sampleOutput()}
	val := &stubValidator{err: errors.New("renderer crashed")}
	ctrl := newTestController(gen, val, nil, Config{MaxIterations: 5, ValidationEnabled: true})

	result, err := ctrl.Run(context.Background(), &entity.GenerationRequest{Instruction: "draw boxes"})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "validate artifact")
}

func TestBuildPromptIncludesAllSections(t *testing.T) {
	req := &entity.GenerationRequest{
		Instruction: "draw a flowchart",
		Files: []entity.FileBlock{
			{Name: "notes.txt", Size: 9, Text: "step data"},
		},
		Conversation: []entity.ConversationTurn{
			{Role: "user", Text: "make it blue"},
		},
		PriorArtifacts:  []string{"<html>v1</html>"},
		ExternalContext: "brand palette: navy",
	}

	prompt := buildPrompt(req)

	assert.True(t, strings.HasPrefix(prompt, "draw a flowchart"))
	assert.Contains(t, prompt, "notes.txt (9 bytes)")
	assert.Contains(t, prompt, "user: make it blue")
	assert.Contains(t, prompt, "artifact 1")
	assert.Contains(t, prompt, "brand palette: navy")
}

func TestWithFeedbackNoOpOnEmptyFeedback(t *testing.T) {
	assert.Equal(t, "base", withFeedback("base", nil))
}
