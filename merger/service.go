// Package merger merges two scene layer packages into one.
package merger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/viant/afs"
	"github.com/viant/i3smerge/asset"
	"github.com/viant/i3smerge/config"
	"github.com/viant/i3smerge/graph"
	"github.com/viant/i3smerge/i3s"
	"github.com/viant/i3smerge/layout"
	"github.com/viant/i3smerge/layout/folder"
	"github.com/viant/i3smerge/layout/paged"
	"github.com/viant/i3smerge/layout/standard"
	"github.com/viant/i3smerge/manifest"
	"github.com/viant/i3smerge/namespace"
	"github.com/viant/i3smerge/slpk"
)

// Service merges packages
type Service struct {
	config    *config.Config
	fs        afs.Service
	logger    *slog.Logger
	newID     func() string
	detector  *layout.Detector
	factory   *layout.Factory
	allocator *namespace.Allocator
	remapper  *asset.Remapper
	updater   *manifest.Updater
	policy    graph.RootPolicy
}

// input tracks one package through the pipeline
type input struct {
	name     string
	root     string
	layout   i3s.Layout
	manifest *i3s.Manifest
	graph    *i3s.Graph
	mapping  *asset.Mapping
	offset   int
}

// New creates a merge service
func New(cfg *config.Config, options ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.Init()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := graph.ParseRootPolicy(cfg.RootPolicy)
	if err != nil {
		return nil, err
	}
	result := &Service{
		config:   cfg,
		detector: layout.NewDetector(),
		policy:   policy,
	}
	for _, option := range options {
		option(result)
	}
	if result.fs == nil {
		result.fs = afs.New()
	}
	if result.logger == nil {
		result.logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	var updaterOptions []manifest.Option
	if result.newID != nil {
		updaterOptions = append(updaterOptions, manifest.WithIDGenerator(result.newID))
	}
	result.updater = manifest.New(result.fs, updaterOptions...)
	result.allocator = namespace.NewAllocator(cfg.Offset, cfg.DynamicOffset)
	result.remapper = asset.New(result.fs, asset.WithWorkers(cfg.Workers), asset.WithLogger(result.logger))
	result.factory = layout.NewFactory(
		paged.New(result.fs, paged.WithNodesPerPage(cfg.NodesPerPage)),
		folder.New(result.fs, folder.WithLenient(cfg.Lenient), folder.WithLogger(result.logger)),
		standard.New(result.fs),
	)
	return result, nil
}

// Merge merges inputA and inputB archives into output; output is replaced only when the merge succeeds
func (s *Service) Merge(ctx context.Context, inputA, inputB, output string) (*Report, error) {
	scratch, err := s.scratch()
	if err != nil {
		return nil, err
	}
	report, err := s.merge(ctx, scratch, inputA, inputB, output)
	if err != nil {
		s.logger.Error("merge failed", "error", err, "scratch", scratch)
		return nil, err
	}
	if !s.config.KeepScratch {
		if err = os.RemoveAll(scratch); err != nil {
			s.logger.Warn("failed to remove scratch", "scratch", scratch, "error", err)
		}
	}
	return report, nil
}

func (s *Service) scratch() (string, error) {
	if s.config.ScratchDir == "" {
		return os.MkdirTemp("", "i3smerge-")
	}
	if err := os.MkdirAll(s.config.ScratchDir, 0755); err != nil {
		return "", err
	}
	return os.MkdirTemp(s.config.ScratchDir, "merge-")
}

func (s *Service) merge(ctx context.Context, scratch, inputA, inputB, output string) (*Report, error) {
	a := &input{name: inputA, root: filepath.Join(scratch, "a")}
	b := &input{name: inputB, root: filepath.Join(scratch, "b")}
	for _, item := range []*input{a, b} {
		if err := s.open(ctx, item); err != nil {
			return nil, err
		}
	}
	if a.layout != b.layout {
		return nil, i3s.Errorf(i3s.ErrLayoutMismatch, b.name, "%s (%s family) cannot merge into %s (%s family)", b.layout, b.layout.Family(), a.layout, a.layout.Family())
	}
	format, err := s.factory.Format(a.layout)
	if err != nil {
		return nil, err
	}
	forced, err := s.checkVersion(a, b)
	if err != nil {
		return nil, err
	}
	for _, item := range []*input{a, b} {
		if item.graph, err = format.Load(ctx, item.root); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", item.name, err)
		}
	}

	scheme := format.Assets()
	if a.mapping, err = s.remapper.Plan(ctx, a.name, scheme, a.root, 0); err != nil {
		return nil, err
	}
	offsets := s.allocator.Allocate(maxID(a.graph, a.mapping))
	a.offset, b.offset = offsets.A, offsets.B
	if b.mapping, err = s.remapper.Plan(ctx, b.name, scheme, b.root, b.offset); err != nil {
		return nil, err
	}
	for i, item := range []*input{a, b} {
		if err = s.allocator.Check(offsets, item.name, maxID(item.graph, item.mapping), i == 0); err != nil {
			return nil, err
		}
	}

	rewrittenA := namespace.RewriteGraph(a.graph, a.offset)
	rewrittenB := namespace.RewriteGraph(b.graph, b.offset)
	merged, err := graph.Merge(rewrittenA, rewrittenB, s.policy)
	if err != nil {
		return nil, err
	}
	if err = graph.Validate(merged); err != nil {
		return nil, err
	}
	index := a.mapping.Index()
	index.Merge(b.mapping.Index())
	if err = graph.ValidateAssets(rewrittenA, index, a.name); err != nil {
		return nil, err
	}
	if err = graph.ValidateAssets(rewrittenB, index, b.name); err != nil {
		return nil, err
	}

	staging := filepath.Join(scratch, "merged")
	if err = format.Write(ctx, merged, staging); err != nil {
		return nil, fmt.Errorf("failed to write merged graph: %w", err)
	}
	for _, item := range []*input{a, b} {
		if err = s.remapper.Copy(ctx, item.mapping, scheme, staging); err != nil {
			return nil, err
		}
	}
	descriptor := s.updater.Update(a.manifest, merged, format)
	if err = s.updater.Write(ctx, descriptor, staging); err != nil {
		return nil, err
	}
	if _, err = s.updater.CopyMetadata(ctx, a.root, staging, merged.Len()); err != nil {
		return nil, err
	}
	digest, err := slpk.Digest(ctx, staging, manifest.Document)
	if err != nil {
		return nil, err
	}
	if err = s.publish(ctx, staging, output); err != nil {
		return nil, err
	}

	report := &Report{
		Output:  output,
		ID:      descriptor.ID(),
		Layout:  merged.Layout,
		Version: descriptor.Version(),
		Nodes:   merged.Len(),
		Roots:   merged.RootIDs(),
		Forced:  forced,
		Digest:  strconv.FormatUint(digest, 16),
	}
	for _, item := range []*input{a, b} {
		report.Inputs = append(report.Inputs, &InputReport{
			Path:    item.name,
			Layout:  item.layout,
			Version: item.manifest.Version(),
			Offset:  item.offset,
			Nodes:   item.graph.Len(),
			Root:    item.graph.Root,
			Assets:  len(item.mapping.Assets),
			IDs:     item.mapping.IDs,
		})
	}
	s.logger.Info("packages merged", "output", output, "layout", merged.Layout.String(), "nodes", merged.Len())
	return report, nil
}

// open extracts and classifies an input
func (s *Service) open(ctx context.Context, item *input) error {
	if err := slpk.Extract(ctx, item.name, item.root); err != nil {
		return err
	}
	var err error
	if item.layout, err = s.detector.Detect(item.root); err != nil {
		return fmt.Errorf("failed to detect layout of %s: %w", item.name, err)
	}
	if item.manifest, err = s.updater.Load(ctx, item.root); err != nil {
		return fmt.Errorf("failed to load manifest of %s: %w", item.name, err)
	}
	return nil
}

// checkVersion fails on differing versions unless forced; it reports whether the check was overridden
func (s *Service) checkVersion(a, b *input) (bool, error) {
	versionA, versionB := a.manifest.Version(), b.manifest.Version()
	if versionA == versionB {
		return false, nil
	}
	if !s.config.Force {
		return false, i3s.Errorf(i3s.ErrVersionMismatch, b.name, "version %q differs from %q of %s", versionB, versionA, a.name)
	}
	s.logger.Warn("version mismatch ignored, using first input version", "first", versionA, "second", versionB)
	return true, nil
}

// publish archives staging next to output, then renames it over output
func (s *Service) publish(ctx context.Context, staging, output string) error {
	dir := filepath.Dir(output)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	temp, err := os.CreateTemp(dir, "."+filepath.Base(output)+".*.partial")
	if err != nil {
		return err
	}
	tempName := temp.Name()
	if err = temp.Close(); err != nil {
		return err
	}
	if err = slpk.Create(ctx, staging, tempName); err != nil {
		_ = os.Remove(tempName)
		return fmt.Errorf("failed to create archive: %w", err)
	}
	if err = os.Rename(tempName, output); err != nil {
		_ = os.Remove(tempName)
		return fmt.Errorf("failed to publish %s: %w", output, err)
	}
	return nil
}

func maxID(aGraph *i3s.Graph, mapping *asset.Mapping) int {
	result := aGraph.MaxID()
	if id := mapping.MaxID(); id > result {
		result = id
	}
	return result
}
