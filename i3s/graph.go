package i3s

// Graph represents an ordered node sequence of a package
type Graph struct {
	Layout Layout
	Nodes  []*Node
	Root   int
	// Roots lists every root when the graph is a forest; empty for a single tree
	Roots []int
}

// Len returns node count
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// IDs returns node ids in graph order
func (g *Graph) IDs() []int {
	result := make([]int, len(g.Nodes))
	for i, node := range g.Nodes {
		result[i] = node.ID
	}
	return result
}

// IDSet returns a set of node ids
func (g *Graph) IDSet() map[int]bool {
	result := make(map[int]bool, len(g.Nodes))
	for _, node := range g.Nodes {
		result[node.ID] = true
	}
	return result
}

// Lookup returns node with the given id or nil
func (g *Graph) Lookup(id int) *Node {
	for _, node := range g.Nodes {
		if node.ID == id {
			return node
		}
	}
	return nil
}

// MaxID returns the largest node or resource id in the graph, -1 for an empty graph
func (g *Graph) MaxID() int {
	result := -1
	for _, node := range g.Nodes {
		if node.ID > result {
			result = node.ID
		}
		for _, ref := range node.Mesh.Refs() {
			if *ref.Resource > result {
				result = *ref.Resource
			}
		}
	}
	return result
}

// RootIDs returns the forest roots or the single root
func (g *Graph) RootIDs() []int {
	if len(g.Roots) > 0 {
		return g.Roots
	}
	return []int{g.Root}
}

// IsForest returns true if graph has more than one root
func (g *Graph) IsForest() bool {
	return len(g.Roots) > 1
}

// FindRoot returns the id of the first parentless node
func FindRoot(nodes []*Node) (int, bool) {
	for _, node := range nodes {
		if node.IsRoot() {
			return node.ID, true
		}
	}
	return 0, false
}
