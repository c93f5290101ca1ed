package validator

import (
	"fmt"
	"strings"

	"github.com/futig/diagram-backend/internal/config"
	"github.com/futig/diagram-backend/internal/entity"
)

// Validator checks inbound generation requests against configured limits.
// Everything it rejects is a terminal failure: the resilience layer never
// retries a request that was invalid to begin with.
type Validator struct {
	limits config.RequestLimitsConfig
}

func NewRequestValidator(limits config.RequestLimitsConfig) *Validator {
	return &Validator{limits: limits}
}

// ValidateGenerationRequest returns an error wrapping entity.ErrInvalidRequest
// when the request violates any limit.
func (v *Validator) ValidateGenerationRequest(req *entity.GenerationRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", entity.ErrInvalidRequest)
	}

	if strings.TrimSpace(req.Instruction) == "" {
		return fmt.Errorf("%w: %s", entity.ErrInvalidRequest, entity.ErrEmptyInstruction)
	}

	if len(req.Instruction) > v.limits.MaxInstructionLength {
		return fmt.Errorf("%w: %s (%d > %d)", entity.ErrInvalidRequest, entity.ErrInstructionTooLong,
			len(req.Instruction), v.limits.MaxInstructionLength)
	}

	if len(req.Files) > v.limits.MaxFileCount {
		return fmt.Errorf("%w: %s (%d > %d)", entity.ErrInvalidRequest, entity.ErrTooManyFiles,
			len(req.Files), v.limits.MaxFileCount)
	}

	for _, f := range req.Files {
		if f.Size > v.limits.MaxFileSize {
			return fmt.Errorf("%w: %s: %q is %d bytes (limit %d)", entity.ErrInvalidRequest,
				entity.ErrFileTooLarge, f.Name, f.Size, v.limits.MaxFileSize)
		}
	}

	for _, turn := range req.Conversation {
		if turn.Role != "user" && turn.Role != "assistant" {
			return fmt.Errorf("%w: unknown conversation role %q", entity.ErrInvalidRequest, turn.Role)
		}
	}

	return nil
}
