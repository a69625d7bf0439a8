// Package node provides a minimal display node: an identifier plus a set of
// named numeric attributes that animations can drive.
package node

import "sync"

// Node is safe for concurrent use.
type Node struct {
	id string

	mu    sync.RWMutex
	attrs map[string]float64
}

// New creates a Node with a copy of attrs.
func New(id string, attrs map[string]float64) *Node {
	n := new(Node)
	n.id = id
	n.attrs = make(map[string]float64, len(attrs))
	for k, v := range attrs {
		n.attrs[k] = v
	}
	return n
}

func (n *Node) ID() string {
	return n.id
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (float64, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.attrs[name]
	return v, ok
}

// SetAttr updates an existing attribute. Unknown names are ignored and
// reported by returning false.
func (n *Node) SetAttr(name string, v float64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.attrs[name]; !ok {
		return false
	}
	n.attrs[name] = v
	return true
}

// Define creates or overwrites an attribute.
func (n *Node) Define(name string, v float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attrs[name] = v
}

// Snapshot returns a copy of all attributes.
func (n *Node) Snapshot() map[string]float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string]float64, len(n.attrs))
	for k, v := range n.attrs {
		out[k] = v
	}
	return out
}
