package models

// Exception is an opaque excepted-rule record
type Exception string

// Declarative is a [selectors, declarations] pair
type Declarative [2]string

// NewDeclarative builds a pair
func NewDeclarative(selectors, declarations string) Declarative {
	return Declarative{selectors, declarations}
}

// Selectors returns the selector text of the pair
func (d Declarative) Selectors() string { return d[0] }

// Declarations returns the declaration block of the pair
func (d Declarative) Declarations() string { return d[1] }

// Change is delivered to filterset listeners
type Change struct {
	Declarative []Declarative `json:"declarative,omitempty"`
	Exceptions  []Exception   `json:"exceptions,omitempty"`
}

// Snapshot is the selector view of a filterset
type Snapshot struct {
	Declarative []Declarative `json:"declarative"`
	Exceptions  []Exception   `json:"exceptions"`
}

// Selectors returns the selector text of every declarative entry
func (s Snapshot) Selectors() []string {
	out := make([]string, 0, len(s.Declarative))
	for _, d := range s.Declarative {
		out = append(out, d.Selectors())
	}
	return out
}
