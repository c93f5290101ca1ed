package entity

// Severity of a validation issue. Errors make the verdict invalid,
// warnings do not.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Category of a validation issue, one per check family.
type Category string

const (
	CategoryStructural    Category = "structural"
	CategoryConsole       Category = "console"
	CategoryResponsive    Category = "responsive"
	CategoryAccessibility Category = "accessibility"
	CategoryVisual        Category = "visual"
)

// ValidationIssue is a single finding from one validation phase.
type ValidationIssue struct {
	Severity Severity `json:"severity"`
	Category Category `json:"category"`
	Message  string   `json:"message"`
}

// ValidationResult is the merged verdict of one validation pass.
// Created fresh per pass, never mutated after return.
type ValidationResult struct {
	Valid           bool              `json:"valid"`
	Issues          []ValidationIssue `json:"issues"`
	Feedback        string            `json:"feedback,omitempty"`
	Screenshot      []byte            `json:"-"`
	ElapsedMs       int64             `json:"elapsed_ms"`
	ChecksPerformed []string          `json:"checks_performed"`
}

// Errors returns only the error-severity issues.
func (r *ValidationResult) Errors() []ValidationIssue {
	return r.filter(SeverityError)
}

// Warnings returns only the warning-severity issues.
func (r *ValidationResult) Warnings() []ValidationIssue {
	return r.filter(SeverityWarning)
}

func (r *ValidationResult) filter(s Severity) []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range r.Issues {
		if issue.Severity == s {
			out = append(out, issue)
		}
	}
	return out
}
