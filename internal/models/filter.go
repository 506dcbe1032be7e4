package models

// FilterType represents the type of a line in a compiled cosmetic rules file
type FilterType int

const (
	FilterTypeComment FilterType = iota
	FilterTypeCosmetic
	FilterTypeCosmeticException
	FilterTypeUnsupported
)

// DefaultDeclarations is used when a cosmetic line carries no declaration block
const DefaultDeclarations = "display:none!important;"

// Filter represents one compiled cosmetic rule read from a rules file
type Filter struct {
	Type         FilterType
	Raw          string // Original line
	Selector     string // CSS selector text
	Declarations string // CSS declaration block, without braces
	Lazy         bool   // Defer injection to the next commit
}
