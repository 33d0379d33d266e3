// Package ast defines the labeled syntax tree produced by the grammar engine
// and consumed by the compiler.
package ast

import (
	"iter"
	"strconv"
	"strings"
)

// Node is a labeled syntax tree node.
//
// Label is the name of the grammar rule or token class that produced the
// node. Value holds the token text for nodes created from a single token.
// Pos is the index of the first token the node covers in the token stream
// it was parsed from; Line and Column locate that token in the source.
type Node struct {
	Label    string
	Value    string
	HasValue bool
	Pos      int
	Line     int
	Column   int
	Children []*Node
}

// New returns a node with the given label and no value.
func New(label string, pos int) *Node {
	return &Node{Label: label, Pos: pos}
}

// NewLeaf returns a node holding a token value.
func NewLeaf(label, value string, pos int) *Node {
	return &Node{Label: label, Value: value, HasValue: true, Pos: pos}
}

// Add appends children to n.
func (n *Node) Add(children ...*Node) { n.Children = append(n.Children, children...) }

// Len returns the number of children of n.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}

	return len(n.Children)
}

// Child returns the i-th child of n, or nil if out of range.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}

	return n.Children[i]
}

// Truncate drops every child at index size and above.
func (n *Node) Truncate(size int) {
	if size < len(n.Children) {
		clear(n.Children[size:])
		n.Children = n.Children[:size]
	}
}

// All returns an iterator over the direct children of n.
func (n *Node) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, c := range n.Children {
			if !yield(c) {
				return
			}
		}
	}
}

// Walk returns a pre-order iterator over n and all of its descendants
// together with their depth relative to n.
func (n *Node) Walk() iter.Seq2[int, *Node] {
	return func(yield func(int, *Node) bool) {
		n.walk(0, yield)
	}
}

func (n *Node) walk(depth int, yield func(int, *Node) bool) bool {
	if n == nil {
		return true
	}

	if !yield(depth, n) {
		return false
	}

	for _, c := range n.Children {
		if !c.walk(depth+1, yield) {
			return false
		}
	}

	return true
}

// Equal reports whether n and o have the same labels, values and shape.
// Source positions are ignored.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}

	if n.Label != o.Label || n.HasValue != o.HasValue || n.Value != o.Value ||
		len(n.Children) != len(o.Children) {
		return false
	}

	for i := range n.Children {
		if !n.Children[i].Equal(o.Children[i]) {
			return false
		}
	}

	return true
}

// String returns a compact single-line rendering of the subtree rooted at n,
// for example: (expression (floatingpoint "1") (symbol "+") ...).
func (n *Node) String() string {
	var sb strings.Builder

	n.writeTo(&sb)

	return sb.String()
}

func (n *Node) writeTo(sb *strings.Builder) {
	if n == nil {
		sb.WriteString("()")

		return
	}

	sb.WriteByte('(')
	sb.WriteString(n.Label)

	if n.HasValue {
		sb.WriteByte(' ')
		sb.WriteString(strconv.Quote(n.Value))
	}

	for _, c := range n.Children {
		sb.WriteByte(' ')
		c.writeTo(sb)
	}

	sb.WriteByte(')')
}
