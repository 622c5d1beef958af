// Package standard loads and writes Standard packages: one flat descriptor file per node under nodes/.
package standard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/viant/afs"
	"github.com/viant/i3smerge/asset"
	"github.com/viant/i3smerge/codec"
	"github.com/viant/i3smerge/i3s"
	"github.com/viant/i3smerge/layout"
)

// Format handles Standard packages
type Format struct {
	fs    afs.Service
	codec *codec.Codec
}

// New creates a Standard format
func New(fs afs.Service) *Format {
	if fs == nil {
		fs = afs.New()
	}
	return &Format{fs: fs, codec: codec.New(fs)}
}

// Layout returns Standard
func (f *Format) Layout() i3s.Layout {
	return i3s.Standard
}

// Assets returns flat id named asset scheme
func (f *Format) Assets() asset.Scheme {
	return asset.NewFlat(f.fs)
}

// Load reads descriptors in ascending file id order; the declared id is authoritative
func (f *Format) Load(ctx context.Context, root string) (*i3s.Graph, error) {
	folder := filepath.Join(root, layout.NodesFolder)
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, i3s.Errorf(i3s.ErrMissingIndex, root, "%v", err)
	}
	type descriptor struct {
		id       int
		location string
	}
	var descriptors []descriptor
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := layout.DescriptorID(entry.Name())
		if !ok {
			continue
		}
		descriptors = append(descriptors, descriptor{id: id, location: filepath.Join(folder, entry.Name())})
	}
	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].id < descriptors[j].id })
	graph := &i3s.Graph{Layout: i3s.Standard}
	seen := map[int]bool{}
	for _, item := range descriptors {
		var fields i3s.Fields
		if err = f.codec.Read(ctx, item.location, &fields); err != nil {
			return nil, err
		}
		node, err := DecodeNode(fields)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", item.location, err)
		}
		if seen[node.ID] {
			return nil, i3s.Errorf(i3s.ErrIdentifierCollision, root, "duplicate node id %d in %s", node.ID, item.location)
		}
		seen[node.ID] = true
		graph.Nodes = append(graph.Nodes, node)
	}
	if len(graph.Nodes) == 0 {
		return nil, i3s.Errorf(i3s.ErrMissingIndex, root, "no node descriptors in %s", layout.NodesFolder)
	}
	rootID, ok := i3s.FindRoot(graph.Nodes)
	if !ok {
		rootID = graph.Nodes[0].ID
	}
	graph.Root = rootID
	return graph, nil
}

// Write persists nodes/<id>.json.gz per node
func (f *Format) Write(ctx context.Context, graph *i3s.Graph, root string) error {
	for _, node := range graph.Nodes {
		location := filepath.Join(root, layout.NodesFolder, strconv.Itoa(node.ID)+".json.gz")
		if err := f.codec.Write(ctx, location, EncodeNode(node)); err != nil {
			return err
		}
	}
	return nil
}

// RootReference sets store.rootNode to the root descriptor
func (f *Format) RootReference(manifest *i3s.Manifest, graph *i3s.Graph) {
	manifest.SetRootNode("./" + layout.NodesFolder + "/" + strconv.Itoa(graph.Root))
}

// DecodeNode decodes a node descriptor; id may be spelled id or index, parent parentId or parentIndex
func DecodeNode(fields i3s.Fields) (*i3s.Node, error) {
	node := &i3s.Node{}
	raw, ok := layout.Take(fields, "id", "index")
	if !ok {
		return nil, fmt.Errorf("node descriptor without id")
	}
	var err error
	if node.ID, err = layout.Int(raw); err != nil {
		return nil, err
	}
	if parent, ok := layout.Take(fields, "parentId", "parentIndex"); ok && string(parent) != "null" {
		value, err := layout.Int(parent)
		if err != nil {
			return nil, err
		}
		node.ParentID = &value
	}
	if children, ok := layout.Take(fields, "children"); ok {
		if node.ChildIDs, err = layout.Ints(children); err != nil {
			return nil, err
		}
	}
	if mesh, ok := layout.Take(fields, "mesh"); ok {
		if node.Mesh, err = layout.DecodeMesh(mesh); err != nil {
			return nil, err
		}
	}
	if len(fields) > 0 {
		node.Extra = fields
	}
	return node, nil
}

// EncodeNode encodes a node descriptor
func EncodeNode(node *i3s.Node) i3s.Fields {
	fields := node.Extra.Clone()
	if fields == nil {
		fields = i3s.Fields{}
	}
	fields["id"] = i3s.Marshal(node.ID)
	if node.ParentID != nil {
		fields["parentId"] = i3s.Marshal(*node.ParentID)
	}
	if len(node.ChildIDs) > 0 {
		fields["children"] = i3s.Marshal(node.ChildIDs)
	}
	if mesh := layout.EncodeMesh(&node.Mesh); mesh != nil {
		fields["mesh"] = mesh
	}
	return fields
}
