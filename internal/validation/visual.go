package validation

import (
	"fmt"

	"github.com/futig/diagram-backend/internal/entity"
)

// VisualJudgment is a vision model's structured opinion of the rendered
// screenshot. ParseFailed signals that the model answered but its response
// could not be decoded; Raw then carries the unparsed text.
type VisualJudgment struct {
	MatchesIntent bool
	Issues        []string
	Summary       string
	Raw           string
	ParseFailed   bool
}

// mapJudgment converts a judgment into validation issues. Findings from a
// judgment that still considers the result valid are advisory warnings;
// findings from an invalid judgment are errors.
func mapJudgment(j *VisualJudgment) []entity.ValidationIssue {
	if j.ParseFailed {
		return []entity.ValidationIssue{{
			Severity: entity.SeverityWarning,
			Category: entity.CategoryVisual,
			Message:  fmt.Sprintf("visual judgment could not be parsed: %s", truncate(j.Raw, 500)),
		}}
	}

	severity := entity.SeverityWarning
	if !j.MatchesIntent {
		severity = entity.SeverityError
	}

	var issues []entity.ValidationIssue
	for _, finding := range j.Issues {
		issues = append(issues, entity.ValidationIssue{
			Severity: severity,
			Category: entity.CategoryVisual,
			Message:  finding,
		})
	}
	if len(issues) == 0 && !j.MatchesIntent {
		message := j.Summary
		if message == "" {
			message = "rendered output does not match the request"
		}
		issues = append(issues, entity.ValidationIssue{
			Severity: entity.SeverityError,
			Category: entity.CategoryVisual,
			Message:  message,
		})
	}
	return issues
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
