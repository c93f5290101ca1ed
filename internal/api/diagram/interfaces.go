package diagram

import (
	"context"

	"github.com/futig/diagram-backend/internal/cache"
	"github.com/futig/diagram-backend/internal/entity"
)

// Client is the resilient pipeline entry point the handler calls.
type Client interface {
	Invoke(ctx context.Context, req *entity.GenerationRequest) (*entity.PipelineResult, error)
	Retry(ctx context.Context) (*entity.PipelineResult, error)
	Attempt() int
}

// CacheAdmin exposes the cache operations available over the API.
type CacheAdmin interface {
	Stats() cache.Stats
	Invalidate(key string) bool
	Clear()
}
