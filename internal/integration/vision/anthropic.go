package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/futig/diagram-backend/internal/config"
	"github.com/futig/diagram-backend/internal/validation"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// AnthropicJudge asks a vision-capable model whether the rendered
// screenshot matches the request.
type AnthropicJudge struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	logger    *zap.Logger
}

func NewAnthropicJudge(cfg config.AnthropicConfig, logger *zap.Logger) *AnthropicJudge {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	model := anthropic.Model(cfg.VisionModel)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}

	maxTokens := cfg.VisionMaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &AnthropicJudge{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Judge sends the screenshot and the original request text and maps the
// model's structured answer into a VisualJudgment. A response that cannot
// be parsed is reported with ParseFailed set, never as an error.
func (j *AnthropicJudge) Judge(ctx context.Context, screenshot []byte, requestText string) (*validation.VisualJudgment, error) {
	ctxzap.Info(ctx, "judging screenshot via vision model",
		zap.String("model", string(j.model)),
		zap.Int("screenshot_bytes", len(screenshot)),
	)

	resp, err := j.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     j.model,
		MaxTokens: j.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64("image/png", base64.StdEncoding.EncodeToString(screenshot)),
				anthropic.NewTextBlock(judgePrompt(requestText)),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vision judge: %w", err)
	}

	text := extractText(resp)

	var verdict struct {
		Valid   bool     `json:"valid"`
		Issues  []string `json:"issues"`
		Summary string   `json:"summary"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &verdict); err != nil {
		ctxzap.Warn(ctx, "vision judgment not parseable", zap.Error(err))
		return &validation.VisualJudgment{ParseFailed: true, Raw: text}, nil
	}

	return &validation.VisualJudgment{
		MatchesIntent: verdict.Valid,
		Issues:        verdict.Issues,
		Summary:       verdict.Summary,
		Raw:           text,
	}, nil
}

func judgePrompt(requestText string) string {
	return fmt.Sprintf(`This screenshot shows a generated HTML diagram for the request below.

Request: %s

Judge three things: does the diagram match the request's intent, is it visually clean, and are there obvious rendering bugs (overlapping text, cut-off elements, empty regions).

Respond with JSON only:
{"valid": true|false, "issues": ["..."], "summary": "..."}`, requestText)
}

// extractJSON trims any prose or code fence around the JSON object.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

func extractText(resp *anthropic.Message) string {
	var b strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(variant.Text)
		}
	}
	return strings.TrimSpace(b.String())
}
