package parser

import (
	ts "github.com/tree-sitter/go-tree-sitter"
)

// Visitor is called for every node reached during Walk, together with the
// node's immediate parent (nil for the root). Returning false skips the
// node's subtree.
type Visitor func(node *ts.Node, parent *ts.Node) bool

// Walk performs a pre-order traversal of the tree rooted at node, visiting
// every reachable node exactly once.
//
// An identity-keyed visited set guards against structural sharing: trees
// recovered from malformed input can alias subtrees, and revisiting them
// would double-count usage occurrences (or loop forever on a cycle).
//
// Visitors must be pure with respect to the tree: no mutation, no I/O.
func Walk(node *ts.Node, visit Visitor) {
	if node == nil {
		return
	}
	visited := make(map[uintptr]struct{})
	walk(node, nil, visit, visited)
}

func walk(node *ts.Node, parent *ts.Node, visit Visitor, visited map[uintptr]struct{}) {
	id := node.Id()
	if _, seen := visited[id]; seen {
		return
	}
	visited[id] = struct{}{}

	if !visit(node, parent) {
		return
	}

	for i := uint(0); i < uint(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		walk(child, node, visit, visited)
	}
}

// NamedChildOfKind returns the first direct child with the given kind, or nil.
func NamedChildOfKind(node *ts.Node, kind string) *ts.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < uint(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// StringContent returns the text inside a string node without its quotes.
// Falls back to trimming the outer characters when the grammar exposes no
// string_fragment child (empty strings).
func StringContent(node *ts.Node, source []byte) string {
	if node == nil {
		return ""
	}
	if frag := NamedChildOfKind(node, "string_fragment"); frag != nil {
		return frag.Utf8Text(source)
	}
	text := node.Utf8Text(source)
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}
