package channel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/bnema/ublock-webkit-cosmetics/internal/mlog"
	"github.com/bnema/ublock-webkit-cosmetics/internal/models"
	"go.uber.org/zap"
)

// Sheet is an in-process user stylesheet. It applies deltas the way the
// page host does: rules are keyed by their full text, rules the CSS parser
// rejects are dropped, and removing an absent rule is a no-op.
type Sheet struct {
	mu     sync.Mutex
	logger *zap.Logger
	closed bool

	index  map[string]int
	rules  []string
	deltas []models.Delta
	stats  SheetStats
}

// SheetStats tracks what the sheet did with incoming deltas
type SheetStats struct {
	Sends    int
	Added    int
	Removed  int
	Rejected int
}

// NewSheet creates an empty stylesheet host
func NewSheet(logger *zap.Logger) *Sheet {
	return &Sheet{
		logger: mlog.OrNop(logger).Named("sheet"),
		index:  make(map[string]int),
	}
}

// ApplyDelta implements Channel
func (s *Sheet) ApplyDelta(ctx context.Context, delta models.Delta) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.stats.Sends++
	s.deltas = append(s.deltas, models.Delta{
		Add:    append([]string(nil), delta.Add...),
		Remove: append([]string(nil), delta.Remove...),
	})

	for _, text := range delta.Remove {
		if s.remove(text) {
			s.stats.Removed++
		}
	}

	for _, text := range delta.Add {
		if _, ok := s.index[text]; ok {
			continue
		}
		if err := validateRule(text); err != nil {
			s.stats.Rejected++
			s.logger.Debug("rejected css rule", zap.String("rule", text), zap.Error(err))
			continue
		}
		s.index[text] = len(s.rules)
		s.rules = append(s.rules, text)
		s.stats.Added++
	}

	return nil
}

func (s *Sheet) remove(text string) bool {
	i, ok := s.index[text]
	if !ok {
		return false
	}
	delete(s.index, text)
	s.rules = append(s.rules[:i], s.rules[i+1:]...)
	for j := i; j < len(s.rules); j++ {
		s.index[s.rules[j]] = j
	}
	return true
}

// validateRule accepts exactly one qualified rule with at least one declaration
func validateRule(text string) error {
	sheet, err := parser.Parse(text)
	if err != nil {
		return err
	}
	if len(sheet.Rules) != 1 {
		return fmt.Errorf("expected 1 rule, got %d", len(sheet.Rules))
	}
	rule := sheet.Rules[0]
	if rule.Kind != css.QualifiedRule {
		return fmt.Errorf("unexpected %s", rule.Kind)
	}
	if len(rule.Declarations) == 0 {
		return fmt.Errorf("rule %q has no declarations", rule.Prelude)
	}
	return nil
}

// Close detaches the host. Later deltas fail with ErrClosed.
func (s *Sheet) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Rules returns the live rule texts in insertion order
func (s *Sheet) Rules() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.rules...)
}

// Has reports whether a rule text is live
func (s *Sheet) Has(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[text]
	return ok
}

// Text renders the live stylesheet
func (s *Sheet) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.rules, "\n")
}

// Deltas returns every delta received, in arrival order
func (s *Sheet) Deltas() []models.Delta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Delta(nil), s.deltas...)
}

// Stats returns delivery statistics
func (s *Sheet) Stats() SheetStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

var _ Channel = (*Sheet)(nil)
