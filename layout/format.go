// Package layout detects package layouts and selects the loader/writer pair for each of them.
package layout

import (
	"context"
	"fmt"

	"github.com/viant/i3smerge/asset"
	"github.com/viant/i3smerge/i3s"
)

// Format loads and persists a node graph in one on-disk layout
type Format interface {
	// Layout returns the handled layout
	Layout() i3s.Layout

	// Load reads the node graph of a package extracted at root
	Load(ctx context.Context, root string) (*i3s.Graph, error)

	// Write persists graph under root
	Write(ctx context.Context, graph *i3s.Graph, root string) error

	// Assets returns the resource addressing scheme
	Assets() asset.Scheme

	// RootReference points the manifest at the graph root
	RootReference(manifest *i3s.Manifest, graph *i3s.Graph)
}

// Factory selects format by layout
type Factory struct {
	formats map[i3s.Layout]Format
}

// NewFactory creates a factory with the supplied formats
func NewFactory(formats ...Format) *Factory {
	result := &Factory{formats: map[i3s.Layout]Format{}}
	for _, format := range formats {
		result.formats[format.Layout()] = format
	}
	return result
}

// Format returns format for the layout
func (f *Factory) Format(layout i3s.Layout) (Format, error) {
	format, ok := f.formats[layout]
	if !ok {
		return nil, fmt.Errorf("unsupported layout: %v", layout)
	}
	return format, nil
}
