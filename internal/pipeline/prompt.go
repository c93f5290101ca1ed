package pipeline

import (
	"fmt"
	"strings"

	"github.com/futig/diagram-backend/internal/entity"
)

// buildPrompt assembles the generation prompt from the request: the
// instruction, then reference files, conversation history, previously
// generated artifacts and any caller-attached external context.
func buildPrompt(req *entity.GenerationRequest) string {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(req.Instruction))

	if len(req.Files) > 0 {
		b.WriteString("\n\nReference files:\n")
		for _, f := range req.Files {
			fmt.Fprintf(&b, "--- %s (%d bytes) ---\n%s\n", f.Name, f.Size, f.Text)
		}
	}

	if len(req.Conversation) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, turn := range req.Conversation {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Text)
		}
	}

	if len(req.PriorArtifacts) > 0 {
		b.WriteString("\nPreviously generated artifacts to iterate on:\n")
		for i, artifact := range req.PriorArtifacts {
			fmt.Fprintf(&b, "--- artifact %d ---\n%s\n", i+1, artifact)
		}
	}

	if req.ExternalContext != "" {
		b.WriteString("\nAdditional context:\n")
		b.WriteString(req.ExternalContext)
		b.WriteString("\n")
	}

	return b.String()
}

// withFeedback appends the accumulated validation feedback of earlier
// iterations to the base prompt, newest last.
func withFeedback(prompt string, feedback []string) string {
	if len(feedback) == 0 {
		return prompt
	}

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nValidation feedback from previous attempts:\n")
	for i, message := range feedback {
		fmt.Fprintf(&b, "\nAttempt %d:\n%s\n", i+1, message)
	}
	b.WriteString("\nRegenerate the full document addressing every point above.")
	return b.String()
}
