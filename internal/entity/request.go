package entity

// FileBlock is the parsed content of one reference file attached to a
// generation request. Text is already extracted by the upload layer.
type FileBlock struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Text string `json:"text"`
}

// ConversationTurn is a single prior turn of the conversation.
type ConversationTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// GenerationRequest is the immutable unit of work for the pipeline.
// It is also the input to cache-key derivation.
type GenerationRequest struct {
	Instruction     string             `json:"instruction"`
	Files           []FileBlock        `json:"files,omitempty"`
	Conversation    []ConversationTurn `json:"conversation,omitempty"`
	PriorArtifacts  []string           `json:"prior_artifacts,omitempty"`
	ExternalContext string             `json:"external_context,omitempty"`
}
