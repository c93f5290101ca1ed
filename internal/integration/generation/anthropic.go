package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/futig/diagram-backend/internal/config"
	"github.com/futig/diagram-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// AnthropicConnector generates diagram artifacts through the Anthropic
// Messages API.
type AnthropicConnector struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	logger    *zap.Logger
}

func NewAnthropicConnector(cfg config.AnthropicConfig, logger *zap.Logger) *AnthropicConnector {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 16384
	}

	return &AnthropicConnector{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Generate produces one artifact for the assembled prompt. API failures are
// tagged retryable: the resilience layer decides how many chances they get.
func (c *AnthropicConnector) Generate(ctx context.Context, prompt string, _ *entity.GenerationRequest) (*entity.GenerationOutput, error) {
	ctxzap.Info(ctx, "generating artifact via anthropic",
		zap.String("model", string(c.model)),
		zap.Int("prompt_length", len(prompt)),
	)

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, entity.NewRetryableError(entity.ErrorCategoryNetwork,
			fmt.Errorf("anthropic message: %w", err))
	}

	html := extractHTML(extractText(resp))
	if html == "" {
		return nil, entity.NewRetryableError(entity.ErrorCategoryOther, entity.ErrEmptyArtifact)
	}

	tokens := resp.Usage.InputTokens + resp.Usage.OutputTokens
	ctxzap.Info(ctx, "artifact generated",
		zap.Int("artifact_length", len(html)),
		zap.Int64("tokens_used", tokens),
	)

	return &entity.GenerationOutput{
		HTML:       html,
		TokensUsed: tokens,
		Model:      string(resp.Model),
	}, nil
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
