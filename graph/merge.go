// Package graph unions rewritten node graphs and checks the reference closure of the result.
package graph

import (
	"fmt"
	"sort"

	"github.com/viant/i3smerge/i3s"
)

// RootPolicy defines how the second input's root joins the merged graph
type RootPolicy string

const (
	// RootAttach appends the second root to the first root's children
	RootAttach RootPolicy = "attach"
	// RootForest keeps both roots; the manifest lists them
	RootForest RootPolicy = "forest"
)

// ParseRootPolicy parses policy name, empty means attach
func ParseRootPolicy(name string) (RootPolicy, error) {
	switch RootPolicy(name) {
	case "", RootAttach:
		return RootAttach, nil
	case RootForest:
		return RootForest, nil
	}
	return "", fmt.Errorf("unsupported root policy: %q", name)
}

// Merge concatenates already rewritten graphs a and b; inputs are not modified
func Merge(a, b *i3s.Graph, policy RootPolicy) (*i3s.Graph, error) {
	if collisions := Collisions(a, b); len(collisions) > 0 {
		return nil, i3s.Errorf(i3s.ErrIdentifierCollision, "", "%d ids shared by both inputs, first: %v", len(collisions), collisions[0])
	}
	result := &i3s.Graph{
		Layout: a.Layout,
		Nodes:  make([]*i3s.Node, 0, len(a.Nodes)+len(b.Nodes)),
		Root:   a.Root,
	}
	result.Nodes = append(result.Nodes, a.Nodes...)
	result.Nodes = append(result.Nodes, b.Nodes...)
	switch policy {
	case RootForest:
		result.Roots = []int{a.Root, b.Root}
	default:
		if err := attach(result, a.Root, b.Root); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// attach replaces both root nodes with copies linking rootB under rootA
func attach(graph *i3s.Graph, rootA, rootB int) error {
	indexA, indexB := -1, -1
	for i, node := range graph.Nodes {
		switch node.ID {
		case rootA:
			indexA = i
		case rootB:
			indexB = i
		}
	}
	if indexA == -1 {
		return i3s.Errorf(i3s.ErrDanglingReference, "", "root %d not found", rootA)
	}
	if indexB == -1 {
		return i3s.Errorf(i3s.ErrDanglingReference, "", "root %d not found", rootB)
	}
	parent := graph.Nodes[indexA].Clone()
	parent.AppendChild(rootB)
	graph.Nodes[indexA] = parent
	child := graph.Nodes[indexB].Clone()
	child.ParentID = i3s.IntPtr(rootA)
	graph.Nodes[indexB] = child
	return nil
}

// Collisions returns sorted ids present in both graphs
func Collisions(a, b *i3s.Graph) []int {
	ids := a.IDSet()
	var result []int
	for id := range b.IDSet() {
		if ids[id] {
			result = append(result, id)
		}
	}
	sort.Ints(result)
	return result
}
