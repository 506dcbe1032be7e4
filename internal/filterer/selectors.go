package filterer

import (
	"regexp"
	"strings"

	"github.com/bnema/ublock-webkit-cosmetics/internal/models"
)

// reDanglingSeparator matches a selector separator left at the start or end
// of a line once the hide-marker selector is cut out
var reDanglingSeparator = regexp.MustCompile(`(?m)^,\n|,\n$`)

// GetAllSelectors snapshots the filterset. Unless includeHideMarker is set,
// the hide-marker selector is cut out of every rule and rules left without
// selectors are dropped.
func (f *Filterer) GetAllSelectors(includeHideMarker bool) models.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := models.Snapshot{
		Declarative: make([]models.Declarative, 0, len(f.filterset)),
		Exceptions:  append([]models.Exception(nil), f.exceptedCSSRules...),
	}
	strip := !includeHideMarker && f.hideNodeAttr != ""
	marker := f.hideNodeSelector()

	for _, entry := range f.filterset {
		selectors := entry.Selectors
		if strip {
			selectors = strings.Replace(selectors, marker, "", 1)
			selectors = reDanglingSeparator.ReplaceAllString(selectors, "")
			if selectors == "" {
				continue
			}
		}
		out.Declarative = append(out.Declarative, models.NewDeclarative(selectors, entry.Declarations))
	}
	return out
}

// GetFilteredElementCount counts the document elements matched by any
// selector of the filterset, hide-marker rule included
func (f *Filterer) GetFilteredElementCount() int {
	if f.document == nil {
		return 0
	}
	selectors := f.GetAllSelectors(true).Selectors()
	if len(selectors) == 0 {
		return 0
	}
	return f.matcher.Count(f.document.Root(), selectors)
}
