package diagram

import "github.com/futig/diagram-backend/internal/entity"

// GenerateRequestDTO is the wire shape of a generation request.
type GenerateRequestDTO struct {
	Instruction     string    `json:"instruction"`
	Files           []FileDTO `json:"files,omitempty"`
	Conversation    []TurnDTO `json:"conversation,omitempty"`
	PriorArtifacts  []string  `json:"prior_artifacts,omitempty"`
	ExternalContext string    `json:"external_context,omitempty"`
}

type FileDTO struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Text string `json:"text"`
}

type TurnDTO struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ResultDTO is the wire shape of a pipeline result.
type ResultDTO struct {
	ID       string      `json:"id"`
	Success  bool        `json:"success"`
	Artifact string      `json:"artifact,omitempty"`
	Error    string      `json:"error,omitempty"`
	Metadata MetadataDTO `json:"metadata"`
}

type MetadataDTO struct {
	Model            string `json:"model"`
	TokensUsed       int64  `json:"tokens_used"`
	ElapsedMs        int64  `json:"elapsed_ms"`
	ValidationPassed *bool  `json:"validation_passed,omitempty"`
	Iterations       int    `json:"iterations"`
}

// ErrorDTO is the normalized terminal failure envelope. Category is one of
// timeout, network, other.
type ErrorDTO struct {
	Category string `json:"category"`
	Error    string `json:"error"`
}

func toGenerationRequest(dto *GenerateRequestDTO) *entity.GenerationRequest {
	req := &entity.GenerationRequest{
		Instruction:     dto.Instruction,
		PriorArtifacts:  dto.PriorArtifacts,
		ExternalContext: dto.ExternalContext,
	}
	for _, f := range dto.Files {
		req.Files = append(req.Files, entity.FileBlock{Name: f.Name, Size: f.Size, Text: f.Text})
	}
	for _, t := range dto.Conversation {
		req.Conversation = append(req.Conversation, entity.ConversationTurn{Role: t.Role, Text: t.Text})
	}
	return req
}

func toResultDTO(result *entity.PipelineResult) *ResultDTO {
	return &ResultDTO{
		ID:       result.ID,
		Success:  result.Success,
		Artifact: result.Artifact,
		Error:    result.Error,
		Metadata: MetadataDTO{
			Model:            result.Metadata.Model,
			TokensUsed:       result.Metadata.TokensUsed,
			ElapsedMs:        result.Metadata.ElapsedMs,
			ValidationPassed: result.Metadata.ValidationPassed,
			Iterations:       result.Metadata.Iterations,
		},
	}
}
