package models

import "strings"

// SelectorSeparator joins the selectors of a multi-selector rule
const SelectorSeparator = ",\n"

// CSSRule is one declarative rule registered with a filterer.
// Entries are compared by pointer, never by content.
type CSSRule struct {
	Selectors    string
	Declarations string
	Lazy         bool
	Injected     bool
}

// CSSText composes the literal stylesheet text for the rule
func (r *CSSRule) CSSText() string {
	return ComposeCSS(r.Selectors, r.Declarations)
}

// ComposeCSS builds the literal rule text from selectors and declarations
func ComposeCSS(selectors, declarations string) string {
	var b strings.Builder
	b.Grow(len(selectors) + len(declarations) + 3)
	b.WriteString(selectors)
	b.WriteString("\n{")
	b.WriteString(declarations)
	b.WriteString("}")
	return b.String()
}

// JoinSelectors normalizes a selector list into rule selector text
func JoinSelectors(selectors []string) string {
	return strings.Join(selectors, SelectorSeparator)
}

// RuleOptions controls how a rule is added
type RuleOptions struct {
	Lazy     bool // inject at the next commit instead of now
	Injected bool // already present in the live stylesheet
	Silent   bool // do not notify listeners
}

// Delta is the "apply stylesheet delta" message sent over the privileged channel
type Delta struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

// IsEmpty returns true if the delta carries nothing
func (d Delta) IsEmpty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}
