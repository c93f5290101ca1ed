package generation

import (
	"context"

	"github.com/futig/diagram-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector returns a fixed, rule-conformant artifact for local
// development without model access.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

const mockArtifact = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Diagram (MOCK)</title>
<script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-slate-50 p-8">
<div class="max-w-3xl mx-auto grid grid-cols-1 md:grid-cols-3 gap-4">
<div class="rounded-lg border border-slate-300 bg-white p-4 text-center">Step 1</div>
<div class="rounded-lg border border-slate-300 bg-white p-4 text-center">Step 2</div>
<div class="rounded-lg border border-slate-300 bg-white p-4 text-center">Step 3</div>
</div>
</body>
</html>`

func (m *MockConnector) Generate(ctx context.Context, prompt string, _ *entity.GenerationRequest) (*entity.GenerationOutput, error) {
	ctxzap.Info(ctx, "[MOCK] generating artifact", zap.Int("prompt_length", len(prompt)))

	return &entity.GenerationOutput{
		HTML:       mockArtifact,
		TokensUsed: 0,
		Model:      "mock",
	}, nil
}
