package graph

import (
	"github.com/viant/i3smerge/asset"
	"github.com/viant/i3smerge/i3s"
)

// Validate checks that ids are unique and every parent and child reference resolves
func Validate(graph *i3s.Graph) error {
	ids := make(map[int]bool, len(graph.Nodes))
	for _, node := range graph.Nodes {
		if ids[node.ID] {
			return i3s.Errorf(i3s.ErrIdentifierCollision, "", "node id %d repeated", node.ID)
		}
		ids[node.ID] = true
	}
	for _, node := range graph.Nodes {
		if node.ParentID != nil && !ids[*node.ParentID] {
			return i3s.Errorf(i3s.ErrDanglingReference, "", "node %d references missing parent %d", node.ID, *node.ParentID)
		}
		for _, child := range node.ChildIDs {
			if !ids[child] {
				return i3s.Errorf(i3s.ErrDanglingReference, "", "node %d references missing child %d", node.ID, child)
			}
		}
	}
	for _, root := range graph.RootIDs() {
		if !ids[root] {
			return i3s.Errorf(i3s.ErrDanglingReference, "", "root %d not found", root)
		}
	}
	return nil
}

// ValidateAssets checks that every populated mesh resource has a payload in index
func ValidateAssets(graph *i3s.Graph, index asset.Index, input string) error {
	for _, node := range graph.Nodes {
		refs := node.Mesh.Refs()
		for _, category := range i3s.AssetCategories {
			ref, ok := refs[category]
			if !ok {
				continue
			}
			if !index.Has(category, *ref.Resource) {
				return i3s.Errorf(i3s.ErrAssetReferenceDangling, input, "node %d %s resource %d has no asset", node.ID, category, *ref.Resource)
			}
		}
	}
	return nil
}
