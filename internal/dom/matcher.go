package dom

import (
	"github.com/andybalholm/cascadia"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/bnema/ublock-webkit-cosmetics/internal/mlog"
)

// DefaultCacheSize is the number of compiled selector texts kept by a Matcher
const DefaultCacheSize = 1024

// compiled is a cache entry. A nil group marks selector text that failed to compile.
type compiled struct {
	group cascadia.SelectorGroup
}

// Matcher evaluates selector texts against a document
type Matcher struct {
	cache  *lru.Cache[string, compiled]
	logger *zap.Logger
}

// NewMatcher creates a matcher caching up to size compiled selector texts
func NewMatcher(size int, logger *zap.Logger) *Matcher {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, compiled](size)
	return &Matcher{
		cache:  cache,
		logger: mlog.OrNop(logger).Named("matcher"),
	}
}

func (m *Matcher) compile(sel string) cascadia.SelectorGroup {
	if c, ok := m.cache.Get(sel); ok {
		return c.group
	}
	group, err := cascadia.ParseGroup(sel)
	if err != nil {
		m.logger.Debug("invalid selector", zap.String("selector", sel), zap.Error(err))
		group = nil
	}
	m.cache.Add(sel, compiled{group: group})
	return group
}

// QueryAll returns the element nodes matched by the union of selectors, in
// document order. Selector texts that do not compile match nothing.
func (m *Matcher) QueryAll(root *html.Node, selectors []string) []*html.Node {
	if root == nil || len(selectors) == 0 {
		return nil
	}
	groups := make(cascadia.SelectorGroup, 0, len(selectors))
	for _, sel := range selectors {
		groups = append(groups, m.compile(sel)...)
	}
	if len(groups) == 0 {
		return nil
	}
	return cascadia.QueryAll(root, groups)
}

// Count returns the number of element nodes matched by the union of selectors
func (m *Matcher) Count(root *html.Node, selectors []string) int {
	return len(m.QueryAll(root, selectors))
}

// Query returns the first element matched by sel, or nil
func (d *Document) Query(sel string) *html.Node {
	group, err := cascadia.ParseGroup(sel)
	if err != nil {
		return nil
	}
	return cascadia.Query(d.root, group)
}
