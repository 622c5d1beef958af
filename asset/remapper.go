// Package asset copies resource payloads of a package under their rewritten resource ids.
package asset

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"github.com/viant/afs"
	"github.com/viant/i3smerge/i3s"
	"golang.org/x/sync/errgroup"
)

// Mapping records the result of remapping one input
type Mapping struct {
	Input  string
	Offset int
	// IDs maps native resource id to rewritten resource id
	IDs    map[int]int
	Assets []*i3s.Asset
	Copied int
}

// Index returns rewritten resource ids per category
func (m *Mapping) Index() Index {
	result := Index{}
	for _, asset := range m.Assets {
		result.Add(asset.Category, m.IDs[asset.ID])
	}
	return result
}

// Index tracks which resource ids have a payload in each category
type Index map[i3s.Category]map[int]bool

// Add registers resource id in category
func (i Index) Add(category i3s.Category, id int) {
	ids, ok := i[category]
	if !ok {
		ids = map[int]bool{}
		i[category] = ids
	}
	ids[id] = true
}

// Has returns true if category holds resource id
func (i Index) Has(category i3s.Category, id int) bool {
	return i[category][id]
}

// Merge adds all entries of other
func (i Index) Merge(other Index) {
	for category, ids := range other {
		for id := range ids {
			i.Add(category, id)
		}
	}
}

// Remapper copies assets to their rewritten ids
type Remapper struct {
	fs      afs.Service
	workers int
	logger  *slog.Logger
}

// Option configures a remapper
type Option func(r *Remapper)

// WithWorkers sets copy concurrency
func WithWorkers(workers int) Option {
	return func(r *Remapper) {
		r.workers = workers
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Remapper) {
		r.logger = logger
	}
}

// New creates a remapper
func New(fs afs.Service, options ...Option) *Remapper {
	if fs == nil {
		fs = afs.New()
	}
	result := &Remapper{fs: fs, workers: runtime.NumCPU(), logger: slog.Default()}
	for _, option := range options {
		option(result)
	}
	if result.workers < 1 {
		result.workers = 1
	}
	return result
}

// Plan discovers assets of an input and computes the id mapping without copying
func (r *Remapper) Plan(ctx context.Context, input string, scheme Scheme, src string, offset int) (*Mapping, error) {
	assets, err := scheme.Discover(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to discover assets in %s: %w", src, err)
	}
	mapping := &Mapping{Input: input, Offset: offset, IDs: map[int]int{}, Assets: assets}
	for _, asset := range assets {
		mapping.IDs[asset.ID] = asset.ID + offset
	}
	return mapping, nil
}

// Copy copies every planned asset into dst using the target scheme
func (r *Remapper) Copy(ctx context.Context, mapping *Mapping, scheme Scheme, dst string) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(r.workers)
	for _, asset := range mapping.Assets {
		asset := asset
		target := scheme.Target(dst, asset, mapping.IDs[asset.ID])
		group.Go(func() error {
			if err := r.fs.Copy(ctx, asset.Path, target); err != nil {
				return fmt.Errorf("failed to copy asset %s to %s: %w", asset.Path, target, err)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	mapping.Copied = len(mapping.Assets)
	r.logger.Debug("assets remapped", "input", mapping.Input, "offset", mapping.Offset, "count", mapping.Copied)
	return nil
}

// Remap discovers assets under src, and copies them under dst renamed by offset
func (r *Remapper) Remap(ctx context.Context, input string, scheme Scheme, src, dst string, offset int) (*Mapping, error) {
	mapping, err := r.Plan(ctx, input, scheme, src, offset)
	if err != nil {
		return nil, err
	}
	if err = r.Copy(ctx, mapping, scheme, dst); err != nil {
		return nil, err
	}
	return mapping, nil
}

// MaxID returns the largest native resource id, -1 when there are no assets
func (m *Mapping) MaxID() int {
	result := -1
	for id := range m.IDs {
		if id > result {
			result = id
		}
	}
	return result
}

func sortAssets(assets []*i3s.Asset) {
	sort.SliceStable(assets, func(i, j int) bool {
		a, b := assets[i], assets[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.Name < b.Name
	})
}
