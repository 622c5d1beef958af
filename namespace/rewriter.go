package namespace

import "github.com/viant/i3smerge/i3s"

// Rewrite returns copies of nodes with offset added to every id, parent id, child id and mesh resource.
// Node order is preserved; an absent parent stays absent.
func Rewrite(nodes []*i3s.Node, offset int) []*i3s.Node {
	result := make([]*i3s.Node, len(nodes))
	for i, node := range nodes {
		result[i] = RewriteNode(node, offset)
	}
	return result
}

// RewriteNode returns a shifted copy of node
func RewriteNode(node *i3s.Node, offset int) *i3s.Node {
	result := node.Clone()
	result.ID += offset
	if result.ParentID != nil {
		*result.ParentID += offset
	}
	for i := range result.ChildIDs {
		result.ChildIDs[i] += offset
	}
	for _, ref := range []*i3s.MeshRef{result.Mesh.Geometry, result.Mesh.Material, result.Mesh.Attribute} {
		if ref != nil && ref.Resource != nil {
			*ref.Resource += offset
		}
	}
	return result
}

// RewriteGraph returns a shifted copy of graph
func RewriteGraph(graph *i3s.Graph, offset int) *i3s.Graph {
	result := &i3s.Graph{
		Layout: graph.Layout,
		Nodes:  Rewrite(graph.Nodes, offset),
		Root:   graph.Root + offset,
	}
	for _, root := range graph.Roots {
		result.Roots = append(result.Roots, root+offset)
	}
	return result
}
