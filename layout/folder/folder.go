// Package folder loads and writes FolderCompact packages: one folder per node carrying an index document.
//
// A node folder is named "<id>" or "<id>-<subversion>". The node id is always the
// integer prefix before the first dash; the same rule applies to child and parent
// references. Written folders drop the suffix.
package folder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
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

// resourceMembers maps index document members to the mesh reference they populate
var resourceMembers = []struct {
	member   string
	category i3s.Category
}{
	{member: "geometryData", category: i3s.CategoryGeometry},
	{member: "textureData", category: i3s.CategoryTexture},
	{member: "attributeData", category: i3s.CategoryAttribute},
}

// Format handles FolderCompact packages
type Format struct {
	fs      afs.Service
	codec   *codec.Codec
	lenient bool
	logger  *slog.Logger
}

// Option configures format
type Option func(f *Format)

// WithLenient loads a node folder without index document as a childless leaf instead of failing
func WithLenient(lenient bool) Option {
	return func(f *Format) {
		f.lenient = lenient
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(f *Format) {
		f.logger = logger
	}
}

// New creates a FolderCompact format
func New(fs afs.Service, options ...Option) *Format {
	if fs == nil {
		fs = afs.New()
	}
	result := &Format{fs: fs, codec: codec.New(fs), logger: slog.Default()}
	for _, option := range options {
		option(result)
	}
	return result
}

// Layout returns FolderCompact
func (f *Format) Layout() i3s.Layout {
	return i3s.FolderCompact
}

// Assets returns per-node asset scheme
func (f *Format) Assets() asset.Scheme {
	return asset.NewPerNode(f.fs)
}

// Load reads node folders in ascending id order
func (f *Format) Load(ctx context.Context, root string) (*i3s.Graph, error) {
	folders, err := f.folders(root)
	if err != nil {
		return nil, err
	}
	graph := &i3s.Graph{Layout: i3s.FolderCompact}
	seen := map[int]string{}
	leaves := map[int]bool{}
	for _, name := range folders {
		id, _ := i3s.ParseFolderID(name)
		if prev, ok := seen[id]; ok {
			return nil, i3s.Errorf(i3s.ErrIdentifierCollision, root, "node folders %q and %q resolve to id %d", prev, name, id)
		}
		seen[id] = name
		folder := filepath.Join(root, layout.NodesFolder, name)
		location, ok := layout.IndexLocation(folder)
		if !ok {
			if !f.lenient {
				return nil, i3s.Errorf(i3s.ErrMissingIndex, root, "node folder %q has no %s", name, layout.IndexDocument)
			}
			f.logger.Warn("node folder without index document loaded as leaf", "folder", folder)
			graph.Nodes = append(graph.Nodes, &i3s.Node{ID: id})
			leaves[id] = true
			continue
		}
		var fields i3s.Fields
		if err = f.codec.Read(ctx, location, &fields); err != nil {
			return nil, err
		}
		node, err := DecodeNode(id, fields)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", location, err)
		}
		graph.Nodes = append(graph.Nodes, node)
	}
	if len(graph.Nodes) == 0 {
		return nil, i3s.Errorf(i3s.ErrMissingIndex, root, "no node folders in %s", layout.NodesFolder)
	}
	adoptLeaves(graph.Nodes, leaves)
	graph.Root = rootID(graph.Nodes, leaves)
	return graph, nil
}

// rootID returns the first parentless node loaded from a document
func rootID(nodes []*i3s.Node, leaves map[int]bool) int {
	for _, node := range nodes {
		if node.IsRoot() && !leaves[node.ID] {
			return node.ID
		}
	}
	if id, ok := i3s.FindRoot(nodes); ok {
		return id
	}
	return nodes[0].ID
}

// adoptLeaves sets the parent of leaves loaded without index document from their parents' child lists
func adoptLeaves(nodes []*i3s.Node, leaves map[int]bool) {
	if len(leaves) == 0 {
		return
	}
	parents := map[int]int{}
	for _, node := range nodes {
		for _, child := range node.ChildIDs {
			parents[child] = node.ID
		}
	}
	for _, node := range nodes {
		if !leaves[node.ID] {
			continue
		}
		if parent, ok := parents[node.ID]; ok {
			node.ParentID = i3s.IntPtr(parent)
		}
	}
}

func (f *Format) folders(root string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(root, layout.NodesFolder))
	if err != nil {
		return nil, i3s.Errorf(i3s.ErrMissingIndex, root, "%v", err)
	}
	var result []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, ok := i3s.ParseFolderID(entry.Name()); !ok {
			f.logger.Debug("skipping non node folder", "folder", entry.Name())
			continue
		}
		result = append(result, entry.Name())
	}
	sort.Slice(result, func(i, j int) bool {
		idI, _ := i3s.ParseFolderID(result[i])
		idJ, _ := i3s.ParseFolderID(result[j])
		if idI != idJ {
			return idI < idJ
		}
		return result[i] < result[j]
	})
	return result, nil
}

// Write persists one folder per node with its index document
func (f *Format) Write(ctx context.Context, graph *i3s.Graph, root string) error {
	for _, node := range graph.Nodes {
		location := filepath.Join(root, layout.NodesFolder, strconv.Itoa(node.ID), layout.IndexDocument)
		if err := f.codec.Write(ctx, location, EncodeNode(node)); err != nil {
			return err
		}
	}
	return nil
}

// RootReference sets store.rootNode to the root node folder
func (f *Format) RootReference(manifest *i3s.Manifest, graph *i3s.Graph) {
	manifest.SetRootNode("./" + layout.NodesFolder + "/" + strconv.Itoa(graph.Root))
}

// DecodeNode decodes an index document of node id
func DecodeNode(id int, fields i3s.Fields) (*i3s.Node, error) {
	node := &i3s.Node{ID: id}
	layout.Take(fields, "id")
	if raw, ok := layout.Take(fields, "parentNode"); ok && string(raw) != "null" {
		parentID, extra, err := decodeReference(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid parentNode: %w", err)
		}
		node.ParentID = &parentID
		node.ParentExtra = extra
	}
	if raw, ok := layout.Take(fields, "children"); ok {
		var children []json.RawMessage
		if err := json.Unmarshal(raw, &children); err != nil {
			return nil, fmt.Errorf("invalid children: %w", err)
		}
		node.ChildIDs = make([]int, 0, len(children))
		hasExtra := false
		extras := make([]i3s.Fields, 0, len(children))
		for _, child := range children {
			childID, extra, err := decodeReference(child)
			if err != nil {
				return nil, fmt.Errorf("invalid child: %w", err)
			}
			node.ChildIDs = append(node.ChildIDs, childID)
			extras = append(extras, extra)
			hasExtra = hasExtra || extra != nil
		}
		if hasExtra {
			node.ChildExtra = extras
		}
	}
	for _, item := range resourceMembers {
		if _, ok := fields[item.member]; !ok {
			continue
		}
		ref := &i3s.MeshRef{Resource: i3s.IntPtr(id)}
		switch item.category {
		case i3s.CategoryGeometry:
			node.Mesh.Geometry = ref
		case i3s.CategoryTexture:
			node.Mesh.Material = ref
		case i3s.CategoryAttribute:
			node.Mesh.Attribute = ref
		}
	}
	if len(fields) == 0 {
		fields = i3s.Fields{}
	}
	node.Extra = fields
	return node, nil
}

// decodeReference decodes a node reference given as "<id>[-<sub>]" or {"id": ..., "href": ...}
func decodeReference(raw json.RawMessage) (int, i3s.Fields, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		id, ok := i3s.ParseFolderID(text)
		if !ok {
			return 0, nil, fmt.Errorf("invalid node reference %q", text)
		}
		return id, nil, nil
	}
	var fields i3s.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return 0, nil, err
	}
	idRaw, ok := layout.Take(fields, "id")
	if !ok {
		return 0, nil, fmt.Errorf("node reference without id: %s", raw)
	}
	id, err := layout.Int(idRaw)
	if err != nil {
		return 0, nil, err
	}
	delete(fields, "href")
	if len(fields) == 0 {
		fields = nil
	}
	return id, fields, nil
}

// EncodeNode encodes an index document with references spelled as folder names
func EncodeNode(node *i3s.Node) i3s.Fields {
	fields := node.Extra.Clone()
	if fields == nil {
		fields = i3s.Fields{}
	}
	fields["id"] = i3s.Marshal(strconv.Itoa(node.ID))
	if node.ParentID != nil {
		fields["parentNode"] = encodeReference(*node.ParentID, node.ParentExtra)
	} else {
		delete(fields, "parentNode")
	}
	if len(node.ChildIDs) > 0 {
		children := make([]json.RawMessage, len(node.ChildIDs))
		for i, child := range node.ChildIDs {
			children[i] = encodeReference(child, node.ChildMeta(i))
		}
		fields["children"] = i3s.Marshal(children)
	}
	return fields
}

func encodeReference(id int, extra i3s.Fields) json.RawMessage {
	fields := extra.Clone()
	if fields == nil {
		fields = i3s.Fields{}
	}
	name := strconv.Itoa(id)
	fields["id"] = i3s.Marshal(name)
	fields["href"] = i3s.Marshal("../" + name)
	return i3s.Marshal(fields)
}
