// Package paged loads and writes PagedCompact packages: node records grouped into numbered page files.
package paged

import (
	"context"
	"encoding/json"
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

// DefaultNodesPerPage is the page size used when none is configured
const DefaultNodesPerPage = 1000

// Format handles PagedCompact packages
type Format struct {
	fs           afs.Service
	codec        *codec.Codec
	nodesPerPage int
}

// Option configures format
type Option func(f *Format)

// WithNodesPerPage sets the number of node records per written page
func WithNodesPerPage(nodesPerPage int) Option {
	return func(f *Format) {
		if nodesPerPage > 0 {
			f.nodesPerPage = nodesPerPage
		}
	}
}

// New creates a PagedCompact format
func New(fs afs.Service, options ...Option) *Format {
	if fs == nil {
		fs = afs.New()
	}
	result := &Format{fs: fs, codec: codec.New(fs), nodesPerPage: DefaultNodesPerPage}
	for _, option := range options {
		option(result)
	}
	return result
}

// Layout returns PagedCompact
func (f *Format) Layout() i3s.Layout {
	return i3s.PagedCompact
}

// NodesPerPage returns the configured page size
func (f *Format) NodesPerPage() int {
	return f.nodesPerPage
}

// Assets returns flat id named asset scheme
func (f *Format) Assets() asset.Scheme {
	return asset.NewFlat(f.fs)
}

type page struct {
	Nodes []json.RawMessage `json:"nodes"`
}

// Load concatenates node records of all pages in numeric page order
func (f *Format) Load(ctx context.Context, root string) (*i3s.Graph, error) {
	pages, err := f.pageLocations(root)
	if err != nil {
		return nil, err
	}
	graph := &i3s.Graph{Layout: i3s.PagedCompact}
	seen := map[int]bool{}
	for _, location := range pages {
		var aPage page
		if err = f.codec.Read(ctx, location, &aPage); err != nil {
			return nil, err
		}
		for i, raw := range aPage.Nodes {
			node, err := DecodeNode(raw)
			if err != nil {
				return nil, fmt.Errorf("failed to decode node %d of %s: %w", i, location, err)
			}
			if seen[node.ID] {
				return nil, i3s.Errorf(i3s.ErrIdentifierCollision, root, "duplicate node index %d in %s", node.ID, location)
			}
			seen[node.ID] = true
			graph.Nodes = append(graph.Nodes, node)
		}
	}
	if len(graph.Nodes) == 0 {
		return nil, i3s.Errorf(i3s.ErrMissingIndex, root, "no node records in %s", layout.PagesFolder)
	}
	if graph.Root, err = f.root(ctx, root, graph.Nodes); err != nil {
		return nil, err
	}
	return graph, nil
}

// root prefers a parentless node, then the manifest rootIndex, then the first record
func (f *Format) root(ctx context.Context, root string, nodes []*i3s.Node) (int, error) {
	if id, ok := i3s.FindRoot(nodes); ok {
		return id, nil
	}
	for _, name := range []string{"3dSceneLayer.json.gz", "3dSceneLayer.json"} {
		location := filepath.Join(root, name)
		if !f.codec.Exists(ctx, location) {
			continue
		}
		var fields i3s.Fields
		if err := f.codec.Read(ctx, location, &fields); err != nil {
			return 0, err
		}
		pages := i3s.NewManifest(fields).Object("nodePages")
		if raw, ok := pages["rootIndex"]; ok {
			return layout.Int(raw)
		}
	}
	return nodes[0].ID, nil
}

func (f *Format) pageLocations(root string) ([]string, error) {
	folder := filepath.Join(root, layout.PagesFolder)
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, i3s.Errorf(i3s.ErrMissingIndex, root, "%v", err)
	}
	type numbered struct {
		number   int
		location string
	}
	var pages []numbered
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		number, ok := layout.PageNumber(entry.Name())
		if !ok {
			continue
		}
		pages = append(pages, numbered{number: number, location: filepath.Join(folder, entry.Name())})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].number < pages[j].number })
	result := make([]string, len(pages))
	for i, item := range pages {
		result[i] = item.location
	}
	return result, nil
}

// Write splits nodes into ceil(N/nodesPerPage) pages numbered from 0
func (f *Format) Write(ctx context.Context, graph *i3s.Graph, root string) error {
	for number, start := 0, 0; start < len(graph.Nodes); number, start = number+1, start+f.nodesPerPage {
		end := start + f.nodesPerPage
		if end > len(graph.Nodes) {
			end = len(graph.Nodes)
		}
		aPage := page{Nodes: make([]json.RawMessage, 0, end-start)}
		for _, node := range graph.Nodes[start:end] {
			aPage.Nodes = append(aPage.Nodes, EncodeNode(node))
		}
		location := filepath.Join(root, layout.PagesFolder, strconv.Itoa(number)+".json.gz")
		if err := f.codec.Write(ctx, location, aPage); err != nil {
			return err
		}
	}
	return nil
}

// RootReference sets nodePages.rootIndex and nodesPerPage
func (f *Format) RootReference(manifest *i3s.Manifest, graph *i3s.Graph) {
	manifest.SetNodePages(f.nodesPerPage, graph.Root)
}

// DecodeNode decodes a paged node record
func DecodeNode(raw json.RawMessage) (*i3s.Node, error) {
	var fields i3s.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	node := &i3s.Node{}
	index, ok := layout.Take(fields, "index")
	if !ok {
		return nil, fmt.Errorf("node record without index")
	}
	var err error
	if node.ID, err = layout.Int(index); err != nil {
		return nil, err
	}
	if parent, ok := layout.Take(fields, "parentIndex"); ok && string(parent) != "null" {
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

// EncodeNode encodes a paged node record
func EncodeNode(node *i3s.Node) json.RawMessage {
	fields := node.Extra.Clone()
	if fields == nil {
		fields = i3s.Fields{}
	}
	fields["index"] = i3s.Marshal(node.ID)
	if node.ParentID != nil {
		fields["parentIndex"] = i3s.Marshal(*node.ParentID)
	}
	if len(node.ChildIDs) > 0 {
		fields["children"] = i3s.Marshal(node.ChildIDs)
	}
	if mesh := layout.EncodeMesh(&node.Mesh); mesh != nil {
		fields["mesh"] = mesh
	}
	return i3s.Marshal(fields)
}
