package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/futig/diagram-backend/internal/config"
	"github.com/futig/diagram-backend/internal/entity"
	"github.com/futig/diagram-backend/internal/integration/common"
	pkghttp "github.com/futig/diagram-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ServiceConnector talks to a generic JSON-over-HTTP generation service,
// for deployments where the model sits behind an internal gateway.
type ServiceConnector struct {
	config    config.GenerationServiceConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

type serviceGenerateRequest struct {
	Prompt          string `json:"prompt"`
	SystemPrompt    string `json:"system_prompt"`
	ExternalContext string `json:"external_context,omitempty"`
}

type serviceGenerateResponse struct {
	HTML       string `json:"html"`
	TokensUsed int64  `json:"tokens_used"`
	Model      string `json:"model"`
}

func NewServiceConnector(cfg config.GenerationServiceConfig, logger *zap.Logger) *ServiceConnector {
	return &ServiceConnector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Generate requests one artifact from the generation service. Transport
// failures and server-side errors are tagged retryable; client-side
// rejections are terminal.
func (c *ServiceConnector) Generate(ctx context.Context, prompt string, req *entity.GenerationRequest) (*entity.GenerationOutput, error) {
	ctxzap.Info(ctx, "generating artifact via generation service",
		zap.Int("prompt_length", len(prompt)),
	)

	body := &serviceGenerateRequest{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
	}
	if req != nil {
		body.ExternalContext = req.ExternalContext
	}

	var resp serviceGenerateResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.GenerateEndpoint, body, &resp); err != nil {
		return nil, classifyServiceError(err)
	}

	if resp.HTML == "" {
		return nil, entity.NewRetryableError(entity.ErrorCategoryOther, entity.ErrEmptyArtifact)
	}

	ctxzap.Info(ctx, "artifact generated",
		zap.Int("artifact_length", len(resp.HTML)),
		zap.Int64("tokens_used", resp.TokensUsed),
	)

	return &entity.GenerationOutput{
		HTML:       extractHTML(resp.HTML),
		TokensUsed: resp.TokensUsed,
		Model:      resp.Model,
	}, nil
}

func classifyServiceError(err error) error {
	var netErr *pkghttp.NetworkError
	if errors.As(err, &netErr) {
		return entity.NewRetryableError(entity.ErrorCategoryNetwork, err)
	}

	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode >= 500 {
			return entity.NewRetryableError(entity.ErrorCategoryNetwork, err)
		}
		return entity.NewTerminalError(entity.ErrorCategoryOther, err)
	}

	return fmt.Errorf("generation service: %w", err)
}
