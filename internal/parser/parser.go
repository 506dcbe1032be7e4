package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/bnema/ublock-webkit-cosmetics/internal/models"
)

// Parser reads compiled cosmetic rules files.
//
// One rule per line:
//
//	.ad-banner                      hidden with the default declarations
//	#sidebar > .promo { opacity:0 } explicit declaration block
//	.late-widget $lazy              injected at the next commit
//	@@.allowed                      runtime exception
//	! comment
//
// Filter-list syntax (##, #@#, network rules) is compiled upstream and is
// reported as unsupported.
type Parser struct {
	stats Stats
}

// Stats tracks parsing statistics
type Stats struct {
	Total       int
	Cosmetic    int
	Exception   int
	Lazy        int
	Comments    int
	Unsupported int
	SkipReasons map[string]int // Detailed breakdown of skipped lines
}

// SkipReason constants
const (
	SkipFilterSyntax   = "filter-syntax (##, #@#, network)"
	SkipUnbalanced     = "unbalanced-braces"
	SkipEmptySelector  = "empty-selector"
	SkipEmptyDeclBlock = "empty-declarations"
)

const (
	exceptionPrefix = "@@"
	lazySuffix      = "$lazy"
)

// New creates a new parser
func New() *Parser {
	return &Parser{
		stats: Stats{
			SkipReasons: make(map[string]int),
		},
	}
}

// skip records a skipped line with reason
func (p *Parser) skip(reason string) models.Filter {
	p.stats.SkipReasons[reason]++
	return models.Filter{Type: models.FilterTypeUnsupported}
}

// Stats returns parsing statistics
func (p *Parser) Stats() Stats {
	return p.stats
}

// Parse reads rules file content and returns the parsed rules
func (p *Parser) Parse(r io.Reader) ([]models.Filter, error) {
	var filters []models.Filter
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		filter := p.parseLine(line)
		p.stats.Total++

		switch filter.Type {
		case models.FilterTypeComment:
			p.stats.Comments++
			continue
		case models.FilterTypeUnsupported:
			p.stats.Unsupported++
			continue
		case models.FilterTypeCosmetic:
			p.stats.Cosmetic++
			if filter.Lazy {
				p.stats.Lazy++
			}
		case models.FilterTypeCosmeticException:
			p.stats.Exception++
		}

		filters = append(filters, filter)
	}

	return filters, scanner.Err()
}

// parseLine parses a single line
func (p *Parser) parseLine(line string) models.Filter {
	if strings.HasPrefix(line, "!") {
		return models.Filter{Type: models.FilterTypeComment, Raw: line}
	}

	if isFilterSyntax(line) {
		return p.skip(SkipFilterSyntax)
	}

	if strings.HasPrefix(line, exceptionPrefix) {
		selector := strings.TrimSpace(line[len(exceptionPrefix):])
		if selector == "" {
			return p.skip(SkipEmptySelector)
		}
		return models.Filter{
			Type:     models.FilterTypeCosmeticException,
			Raw:      line,
			Selector: selector,
		}
	}

	body := line
	lazy := false
	if strings.HasSuffix(body, lazySuffix) {
		lazy = true
		body = strings.TrimSpace(strings.TrimSuffix(body, lazySuffix))
	}

	selector, declarations, ok := splitBlock(body)
	if !ok {
		return p.skip(SkipUnbalanced)
	}
	if selector == "" {
		return p.skip(SkipEmptySelector)
	}
	if declarations == "" {
		return p.skip(SkipEmptyDeclBlock)
	}

	return models.Filter{
		Type:         models.FilterTypeCosmetic,
		Raw:          line,
		Selector:     selector,
		Declarations: declarations,
		Lazy:         lazy,
	}
}

// splitBlock splits "selector { declarations }". A line without a block
// gets the default declarations.
func splitBlock(s string) (selector, declarations string, ok bool) {
	open := strings.LastIndex(s, "{")
	closing := strings.LastIndex(s, "}")
	switch {
	case open == -1 && closing == -1:
		return s, models.DefaultDeclarations, true
	case open == -1 || closing != len(s)-1 || closing < open:
		return "", "", false
	}
	selector = strings.TrimSpace(s[:open])
	declarations = strings.TrimSpace(s[open+1 : closing])
	if declarations != "" && !strings.HasSuffix(declarations, ";") {
		declarations += ";"
	}
	return selector, declarations, true
}

// isFilterSyntax checks for uncompiled filter-list syntax
func isFilterSyntax(line string) bool {
	markers := []string{"##", "#@#", "#?#", "#$#", "||", "$$"}
	for _, m := range markers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return strings.HasPrefix(line, "|") || strings.HasPrefix(line, "/")
}
