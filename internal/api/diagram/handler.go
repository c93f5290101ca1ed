package diagram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/futig/diagram-backend/internal/entity"
	"github.com/futig/diagram-backend/internal/pkg/logger"
	"github.com/futig/diagram-backend/internal/pkg/response"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	client     Client
	cacheAdmin CacheAdmin
}

func NewHandler(client Client, cacheAdmin CacheAdmin) *Handler {
	return &Handler{
		client:     client,
		cacheAdmin: cacheAdmin,
	}
}

// Generate handles POST /v1/diagrams - run the generation pipeline
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Generate")

	var dto GenerateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctxzap.Info(ctx, "starting diagram generation",
		zap.Int("instruction_length", len(dto.Instruction)),
		zap.Int("file_count", len(dto.Files)),
	)

	result, err := h.client.Invoke(ctx, toGenerationRequest(&dto))
	if err != nil {
		h.respondPipelineError(ctx, w, err)
		return
	}

	response.Success(w, toResultDTO(result))
}

// RetryLast handles POST /v1/diagrams/retry - replay the last request
func (h *Handler) RetryLast(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "RetryLast")

	ctxzap.Info(ctx, "retrying last diagram generation",
		zap.Int("last_attempt", h.client.Attempt()),
	)

	result, err := h.client.Retry(ctx)
	if err != nil {
		h.respondPipelineError(ctx, w, err)
		return
	}

	response.Success(w, toResultDTO(result))
}

// CacheStats handles GET /v1/cache/stats - cache observability
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.cacheAdmin.Stats())
}

// ClearCache handles DELETE /v1/cache - flush the result cache
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ClearCache")

	h.cacheAdmin.Clear()
	ctxzap.Info(ctx, "result cache cleared")

	response.NoContent(w)
}

// respondPipelineError maps a normalized pipeline failure onto an HTTP
// status. The body carries only the category and message, never internal
// issue lists or stack traces.
func (h *Handler) respondPipelineError(ctx context.Context, w http.ResponseWriter, err error) {
	category := entity.Classify(err)

	ctxzap.Error(ctx, "diagram generation failed",
		zap.String("category", string(category)),
		zap.Error(err),
	)

	status := http.StatusInternalServerError
	switch category {
	case entity.ErrorCategoryTimeout:
		status = http.StatusGatewayTimeout
	case entity.ErrorCategoryNetwork:
		status = http.StatusBadGateway
	case entity.ErrorCategoryOther:
		if errors.Is(err, entity.ErrInvalidRequest) {
			status = http.StatusBadRequest
		}
	}

	response.JSON(w, status, ErrorDTO{
		Category: string(category),
		Error:    err.Error(),
	})
}
