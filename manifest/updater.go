// Package manifest builds the scene layer descriptor of a merged package.
package manifest

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/i3smerge/codec"
	"github.com/viant/i3smerge/i3s"
)

const (
	// Document is the scene layer descriptor written at package top level
	Document = "3dSceneLayer.json.gz"
	// Metadata is the optional package metadata document
	Metadata = "metadata.json"
)

// Documents lists accepted scene layer descriptor names
var Documents = []string{Document, "3dSceneLayer.json"}

// RootReferencer points a manifest at a graph root in a layout specific way
type RootReferencer interface {
	RootReference(manifest *i3s.Manifest, graph *i3s.Graph)
}

// Updater loads, updates and writes manifests
type Updater struct {
	codec *codec.Codec
	newID func() string
}

// Option configures updater
type Option func(u *Updater)

// WithIDGenerator overrides uuid based identifiers
func WithIDGenerator(fn func() string) Option {
	return func(u *Updater) {
		u.newID = fn
	}
}

// New creates an updater
func New(fs afs.Service, options ...Option) *Updater {
	result := &Updater{codec: codec.New(fs), newID: func() string { return uuid.New().String() }}
	for _, option := range options {
		option(result)
	}
	return result
}

// Load reads the scene layer descriptor of the package at root
func (u *Updater) Load(ctx context.Context, root string) (*i3s.Manifest, error) {
	for _, name := range Documents {
		location := filepath.Join(root, name)
		if !u.codec.Exists(ctx, location) {
			continue
		}
		fields := i3s.Fields{}
		if err := u.codec.Read(ctx, location, &fields); err != nil {
			return nil, err
		}
		return i3s.NewManifest(fields), nil
	}
	return nil, i3s.Errorf(i3s.ErrMissingIndex, root, "no %s", Document)
}

// Update returns a copy of template with a fresh id and root pointers of graph; version stays verbatim
func (u *Updater) Update(template *i3s.Manifest, graph *i3s.Graph, referencer RootReferencer) *i3s.Manifest {
	result := template.Clone()
	result.SetID(u.newID())
	referencer.RootReference(result, graph)
	result.SetResourceRoots(graph.RootIDs())
	return result
}

// Write persists manifest at root
func (u *Updater) Write(ctx context.Context, manifest *i3s.Manifest, root string) error {
	return u.codec.Write(ctx, filepath.Join(root, Document), manifest.Fields)
}

// CopyMetadata copies metadata.json of src to dst with nodeCount updated; it is a no-op if src has none
func (u *Updater) CopyMetadata(ctx context.Context, src, dst string, nodeCount int) (bool, error) {
	location := filepath.Join(src, Metadata)
	if !u.codec.Exists(ctx, location) {
		return false, nil
	}
	fields := i3s.Fields{}
	if err := u.codec.Read(ctx, location, &fields); err != nil {
		return false, err
	}
	fields["nodeCount"] = i3s.Marshal(nodeCount)
	return true, u.codec.Write(ctx, filepath.Join(dst, Metadata), fields)
}
