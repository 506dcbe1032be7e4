package stylesheet

// textSet is an insertion-ordered set of non-empty strings.
// Deleted slots are left empty and skipped by values.
type textSet struct {
	index map[string]int
	items []string
}

func newTextSet() textSet {
	return textSet{index: make(map[string]int)}
}

func (s *textSet) add(text string) {
	if _, ok := s.index[text]; ok {
		return
	}
	s.index[text] = len(s.items)
	s.items = append(s.items, text)
}

func (s *textSet) delete(text string) {
	i, ok := s.index[text]
	if !ok {
		return
	}
	delete(s.index, text)
	s.items[i] = ""
}

func (s *textSet) len() int {
	return len(s.index)
}

func (s *textSet) values() []string {
	out := make([]string, 0, len(s.index))
	for _, v := range s.items {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (s *textSet) clear() {
	clear(s.index)
	s.items = s.items[:0]
}
