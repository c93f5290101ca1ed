package validation

import (
	"fmt"
	"strings"

	"github.com/futig/diagram-backend/internal/entity"
	"golang.org/x/net/html"
)

// checkStructural verifies the artifact against the rule set without any
// external process. One error per violation; icon-init gaps are warnings.
func checkStructural(artifact string, rules RuleSet) []entity.ValidationIssue {
	var issues []entity.ValidationIssue

	lower := strings.ToLower(artifact)

	for _, marker := range rules.RequiredMarkers {
		if !strings.Contains(lower, strings.ToLower(marker)) {
			issues = append(issues, entity.ValidationIssue{
				Severity: entity.SeverityError,
				Category: entity.CategoryStructural,
				Message:  fmt.Sprintf("missing required marker %q", marker),
			})
		}
	}

	// The html parser auto-inserts html/head/body, so root-tag presence is
	// checked on the raw text instead of the parse tree.
	for _, tag := range rules.RequiredRootTags {
		if !strings.Contains(lower, "<"+tag) {
			issues = append(issues, entity.ValidationIssue{
				Severity: entity.SeverityError,
				Category: entity.CategoryStructural,
				Message:  fmt.Sprintf("missing required root tag <%s>", tag),
			})
		}
	}

	issues = append(issues, checkForbiddenElements(artifact, rules.ForbiddenElements)...)

	for _, rule := range rules.IconRules {
		if strings.Contains(lower, strings.ToLower(rule.Marker)) &&
			!strings.Contains(artifact, rule.InitCall) {
			issues = append(issues, entity.ValidationIssue{
				Severity: entity.SeverityWarning,
				Category: entity.CategoryStructural,
				Message:  fmt.Sprintf("icon library %q is referenced but %s() is never called", rule.Marker, rule.InitCall),
			})
		}
	}

	return issues
}

func checkForbiddenElements(artifact string, forbidden []string) []entity.ValidationIssue {
	if len(forbidden) == 0 {
		return nil
	}

	doc, err := html.Parse(strings.NewReader(artifact))
	if err != nil {
		return []entity.ValidationIssue{{
			Severity: entity.SeverityError,
			Category: entity.CategoryStructural,
			Message:  fmt.Sprintf("artifact is not parseable HTML: %v", err),
		}}
	}

	forbiddenSet := make(map[string]bool, len(forbidden))
	for _, name := range forbidden {
		forbiddenSet[strings.ToLower(name)] = true
	}

	counts := make(map[string]int)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && forbiddenSet[n.Data] {
			counts[n.Data]++
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	var issues []entity.ValidationIssue
	for _, name := range forbidden {
		if c := counts[strings.ToLower(name)]; c > 0 {
			issues = append(issues, entity.ValidationIssue{
				Severity: entity.SeverityError,
				Category: entity.CategoryStructural,
				Message:  fmt.Sprintf("forbidden element <%s> present (%d occurrence(s))", name, c),
			})
		}
	}
	return issues
}
