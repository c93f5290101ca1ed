package pipeline

import (
	"context"

	"github.com/futig/diagram-backend/internal/entity"
)

// Generator is the injected generation capability.
type Generator interface {
	Generate(ctx context.Context, prompt string, req *entity.GenerationRequest) (*entity.GenerationOutput, error)
}

// Validator runs multi-phase validation of a generated artifact.
type Validator interface {
	Validate(ctx context.Context, artifact, requestText string) (*entity.ValidationResult, error)
}
