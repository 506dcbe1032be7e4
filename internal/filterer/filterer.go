// Package filterer owns the declarative cosmetic filterset of one document
// and keeps the page's user stylesheet in sync with it.
package filterer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bnema/ublock-webkit-cosmetics/internal/dom"
	"github.com/bnema/ublock-webkit-cosmetics/internal/mlog"
	"github.com/bnema/ublock-webkit-cosmetics/internal/models"
	"github.com/bnema/ublock-webkit-cosmetics/internal/scheduler"
	"github.com/bnema/ublock-webkit-cosmetics/internal/stylesheet"
)

// Options configures a Filterer
type Options struct {
	// HideNodeAttr is the hide-marker attribute. Empty disables HideNode,
	// UnhideNode and hide-marker stripping.
	HideNodeAttr string

	// Document is the page. Without it GetFilteredElementCount returns 0.
	Document *dom.Document
	Matcher  *dom.Matcher

	// Scheduler creates the commit task. Defaults to frame timers of CommitDelay.
	Scheduler   scheduler.Factory
	CommitDelay time.Duration

	Logger *zap.Logger
}

// Filterer is the per-document cosmetic filtering controller.
// The context given to New is the host probe: once it is done, commits
// are silently dropped.
type Filterer struct {
	host   context.Context
	batch  *stylesheet.Batch
	logger *zap.Logger

	hideNodeAttr string
	document     *dom.Document
	matcher      *dom.Matcher
	commitTimer  scheduler.Task
	excluded     *dom.NodeSet

	mu                  sync.Mutex
	disabled            bool
	filterset           []*models.CSSRule
	addedCSSRules       []*models.CSSRule // added since the last commit
	exceptedCSSRules    []models.Exception
	hideNodeRuleApplied bool
	listeners           []Listener
}

// New creates a filterer staging into batch
func New(host context.Context, batch *stylesheet.Batch, opts Options) *Filterer {
	f := &Filterer{
		host:         host,
		batch:        batch,
		logger:       mlog.OrNop(opts.Logger).Named("filterer"),
		hideNodeAttr: opts.HideNodeAttr,
		document:     opts.Document,
		matcher:      opts.Matcher,
		excluded:     dom.NewNodeSet(),
	}
	if f.matcher == nil {
		f.matcher = dom.NewMatcher(dom.DefaultCacheSize, opts.Logger)
	}
	factory := opts.Scheduler
	if factory == nil {
		factory = scheduler.FrameFactory(opts.CommitDelay)
	}
	f.commitTimer = factory(f.commitNow)
	return f
}

// AddCSSRule registers a rule. Nil selectors, or selectors joining to an
// empty string, are ignored. Unless the filterer is disabled or the rule is
// lazy or already injected, its CSS text is staged right away. A commit is
// always scheduled, and listeners hear about the rule unless opts.Silent.
func (f *Filterer) AddCSSRule(selectors []string, declarations string, opts models.RuleOptions) {
	if selectors == nil {
		return
	}
	selectorsStr := models.JoinSelectors(selectors)
	if selectorsStr == "" {
		return
	}

	entry := &models.CSSRule{
		Selectors:    selectorsStr,
		Declarations: declarations,
		Lazy:         opts.Lazy,
		Injected:     opts.Injected,
	}

	f.mu.Lock()
	f.addedCSSRules = append(f.addedCSSRules, entry)
	f.filterset = append(f.filterset, entry)
	if !f.disabled && !entry.Lazy && !entry.Injected {
		f.batch.Add(entry.CSSText(), false)
		entry.Injected = true
	}
	listeners := f.listenersLocked()
	f.mu.Unlock()

	f.Commit(false)

	if opts.Silent || len(listeners) == 0 {
		return
	}
	notify(listeners, models.Change{
		Declarative: []models.Declarative{models.NewDeclarative(selectorsStr, declarations)},
	})
}

// ExceptCSSRules records runtime exceptions and tells listeners about them
func (f *Filterer) ExceptCSSRules(exceptions []models.Exception) {
	if len(exceptions) == 0 {
		return
	}
	f.mu.Lock()
	f.exceptedCSSRules = append(f.exceptedCSSRules, exceptions...)
	listeners := f.listenersLocked()
	f.mu.Unlock()

	if len(listeners) == 0 {
		return
	}
	notify(listeners, models.Change{
		Exceptions: append([]models.Exception(nil), exceptions...),
	})
}

// Commit flushes pending work. With immediate set, a scheduled commit is
// cancelled and the commit runs now; otherwise one commit is scheduled for
// the next frame, however many times Commit is called before it runs.
func (f *Filterer) Commit(immediate bool) {
	if immediate {
		f.commitTimer.Clear()
		f.commitNow()
		return
	}
	f.commitTimer.Start()
}

func (f *Filterer) commitNow() {
	// clear first so a commit requested while committing is not swallowed
	f.commitTimer.Clear()

	if err := f.host.Err(); err != nil {
		f.logger.Debug("host context gone, commit dropped", zap.Error(err))
		return
	}

	f.mu.Lock()
	lazy := 0
	for _, entry := range f.addedCSSRules {
		if !f.disabled && entry.Lazy && !entry.Injected {
			f.batch.Add(entry.CSSText(), false)
			entry.Injected = true
			lazy++
		}
	}
	pending := len(f.addedCSSRules)
	f.addedCSSRules = nil
	f.mu.Unlock()

	if pending > 0 {
		f.logger.Debug("commit", zap.Int("rules", pending), zap.Int("lazy", lazy))
	}
	f.batch.Apply(nil)
}

// Toggle enables or disables the whole filterset. Nothing happens when the
// filterer is already in the requested state. Otherwise every rule is
// withdrawn from or put back into the live stylesheet and the batch is
// applied once; onComplete runs after the channel acknowledged it.
func (f *Filterer) Toggle(enabled bool, onComplete func()) {
	f.mu.Lock()
	if enabled != f.disabled {
		f.mu.Unlock()
		return
	}
	f.toggleLocked()
	f.mu.Unlock()

	f.batch.Apply(onComplete)
}

// Flip toggles the filterset whatever its current state
func (f *Filterer) Flip(onComplete func()) {
	f.mu.Lock()
	f.toggleLocked()
	f.mu.Unlock()

	f.batch.Apply(onComplete)
}

func (f *Filterer) toggleLocked() {
	f.disabled = !f.disabled
	for _, entry := range f.filterset {
		if f.disabled {
			f.batch.Remove(entry.CSSText(), false)
		} else {
			f.batch.Add(entry.CSSText(), false)
		}
	}
	f.logger.Debug("filterset toggled",
		zap.Bool("disabled", f.disabled),
		zap.Int("rules", len(f.filterset)))
}

// Disabled reports whether the filterset is withdrawn from the page
func (f *Filterer) Disabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disabled
}

// Len returns the number of rules in the filterset
func (f *Filterer) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.filterset)
}
