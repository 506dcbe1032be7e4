package filterer

import (
	"golang.org/x/net/html"

	"github.com/bnema/ublock-webkit-cosmetics/internal/dom"
	"github.com/bnema/ublock-webkit-cosmetics/internal/models"
)

// hideNodeDeclarations is the body of the hide-marker rule
const hideNodeDeclarations = "display:none!important;"

func (f *Filterer) hideNodeSelector() string {
	return "[" + f.hideNodeAttr + "]"
}

// ExcludeNode protects n from HideNode and unhides it now
func (f *Filterer) ExcludeNode(n *html.Node) {
	f.excluded.Add(n)
	f.UnhideNode(n)
}

// UnexcludeNode lets HideNode act on n again
func (f *Filterer) UnexcludeNode(n *html.Node) {
	f.excluded.Delete(n)
}

// IsExcluded reports whether n is protected from HideNode
func (f *Filterer) IsExcluded(n *html.Node) bool {
	return f.excluded.Has(n)
}

// HideNode marks n with the hide-marker attribute. The rule hiding marked
// nodes is added silently the first time any node is hidden.
func (f *Filterer) HideNode(n *html.Node) {
	if n == nil || f.excluded.Has(n) || f.hideNodeAttr == "" {
		return
	}
	dom.SetAttr(n, f.hideNodeAttr, "")

	f.mu.Lock()
	if f.hideNodeRuleApplied {
		f.mu.Unlock()
		return
	}
	f.hideNodeRuleApplied = true
	f.mu.Unlock()

	f.AddCSSRule([]string{f.hideNodeSelector()}, hideNodeDeclarations, models.RuleOptions{Silent: true})
}

// UnhideNode removes the hide-marker attribute from n
func (f *Filterer) UnhideNode(n *html.Node) {
	if n == nil || f.hideNodeAttr == "" {
		return
	}
	dom.RemoveAttr(n, f.hideNodeAttr)
}
