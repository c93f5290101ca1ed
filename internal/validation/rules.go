package validation

// IconRule flags an icon-library reference that is present without its
// required initialization call. Static marker checks alone miss this, so it
// gets its own rule.
type IconRule struct {
	Marker   string
	InitCall string
}

// RuleSet is the fixed rule set applied by the structural phase.
type RuleSet struct {
	// RequiredMarkers are substrings that must appear in the artifact,
	// typically script includes the diagram runtime depends on.
	RequiredMarkers []string
	// RequiredRootTags must be present as top-level document structure.
	RequiredRootTags []string
	// ForbiddenElements must not appear anywhere in the document.
	ForbiddenElements []string
	// IconRules are icon libraries with a mandatory init call.
	IconRules []IconRule
}

// DefaultRuleSet returns the rules every generated diagram must satisfy.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		RequiredMarkers: []string{
			"<!DOCTYPE html>",
			"https://cdn.tailwindcss.com",
		},
		RequiredRootTags:  []string{"html", "head", "body"},
		ForbiddenElements: []string{"iframe", "object", "embed", "frame"},
		IconRules: []IconRule{
			{Marker: "lucide", InitCall: "lucide.createIcons"},
		},
	}
}
