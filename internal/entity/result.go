package entity

// GenerationOutput is what a generation capability returns for one call.
type GenerationOutput struct {
	HTML       string
	TokensUsed int64
	Model      string
}

// ResultMetadata describes how a pipeline result was produced.
// ValidationPassed is nil when validation was disabled for the run.
type ResultMetadata struct {
	Model            string `json:"model"`
	TokensUsed       int64  `json:"tokens_used"`
	ElapsedMs        int64  `json:"elapsed_ms"`
	ValidationPassed *bool  `json:"validation_passed,omitempty"`
	Iterations       int    `json:"iterations"`
}

// PipelineResult is the final outcome of one pipeline invocation. It is the
// value stored in the result cache and returned to the caller. A cache hit
// returns the original result, ID included.
type PipelineResult struct {
	ID       string         `json:"id"`
	Success  bool           `json:"success"`
	Artifact string         `json:"artifact,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata ResultMetadata `json:"metadata"`
}
