package vision

import (
	"context"

	"github.com/futig/diagram-backend/internal/validation"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
)

// MockJudge approves every screenshot.
type MockJudge struct{}

func NewMockJudge() *MockJudge {
	return &MockJudge{}
}

func (m *MockJudge) Judge(ctx context.Context, _ []byte, _ string) (*validation.VisualJudgment, error) {
	ctxzap.Info(ctx, "[MOCK] judging screenshot")

	return &validation.VisualJudgment{
		MatchesIntent: true,
		Summary:       "mock judgment",
	}, nil
}
