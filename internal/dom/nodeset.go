package dom

import (
	"sync"
	"weak"

	"golang.org/x/net/html"
)

// NodeSet is a membership set that never keeps its nodes alive.
// The weak pointer of a node is its stable identity: two weak pointers made
// from the same node compare equal. Entries of collected nodes are simply
// never looked up again.
type NodeSet struct {
	mu    sync.Mutex
	nodes map[weak.Pointer[html.Node]]struct{}
}

// NewNodeSet creates an empty set
func NewNodeSet() *NodeSet {
	return &NodeSet{nodes: make(map[weak.Pointer[html.Node]]struct{})}
}

// Add inserts n
func (s *NodeSet) Add(n *html.Node) {
	if n == nil {
		return
	}
	s.mu.Lock()
	s.nodes[weak.Make(n)] = struct{}{}
	s.mu.Unlock()
}

// Delete removes n
func (s *NodeSet) Delete(n *html.Node) {
	if n == nil {
		return
	}
	s.mu.Lock()
	delete(s.nodes, weak.Make(n))
	s.mu.Unlock()
}

// Has reports whether n is a member
func (s *NodeSet) Has(n *html.Node) bool {
	if n == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.nodes[weak.Make(n)]
	return ok
}

// Len counts members whose node is still alive
func (s *NodeSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for p := range s.nodes {
		if p.Value() != nil {
			count++
		}
	}
	return count
}
