package merger_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/i3smerge/codec"
	"github.com/viant/i3smerge/config"
	"github.com/viant/i3smerge/i3s"
	"github.com/viant/i3smerge/i3s/i3stest"
	"github.com/viant/i3smerge/layout"
	"github.com/viant/i3smerge/layout/folder"
	"github.com/viant/i3smerge/layout/paged"
	"github.com/viant/i3smerge/layout/standard"
	"github.com/viant/i3smerge/merger"
	"github.com/viant/i3smerge/slpk"
)

func newService(t *testing.T, cfg *config.Config) *merger.Service {
	t.Helper()
	service, err := merger.New(cfg,
		merger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		merger.WithIDGenerator(func() string { return "merged-id" }),
	)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service
}

// extract unpacks archive into a fresh folder
func extract(t *testing.T, archive string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "out")
	if err := slpk.Extract(context.Background(), archive, dir); err != nil {
		t.Fatalf("failed to extract %s: %v", archive, err)
	}
	return dir
}

func readFile(t *testing.T, location string) string {
	t.Helper()
	data, err := os.ReadFile(location)
	if err != nil {
		return ""
	}
	return string(data)
}

func TestService_Merge(t *testing.T) {
	var testCases = []struct {
		description string
		layout      i3s.Layout
		format      layout.Format
		assets      map[string]string
	}{
		{
			description: "paged compact",
			layout:      i3s.PagedCompact,
			format:      paged.New(nil),
			assets: map[string]string{
				"geometries/1.bin":     "payload-1",
				"geometries/10001.bin": "payload-1",
				"textures/10002.jpg":   "payload-2",
			},
		},
		{
			description: "folder compact",
			layout:      i3s.FolderCompact,
			format:      folder.New(nil),
			assets: map[string]string{
				"nodes/10000/geometries/0.bin.gz": "payload-0",
				"nodes/10002/textures/0_0.jpg":    "payload-2",
			},
		},
		{
			description: "standard",
			layout:      i3s.Standard,
			format:      standard.New(nil),
			assets: map[string]string{
				"geometries/10000.bin": "payload-0",
				"textures/2.jpg":       "payload-2",
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			dir := t.TempDir()
			a := i3stest.Archive(t, dir, "a", i3stest.Package{Layout: testCase.layout, Nodes: i3stest.Tree(3), Metadata: true})
			b := i3stest.Archive(t, dir, "b", i3stest.Package{Layout: testCase.layout, Nodes: i3stest.Tree(3)})
			output := filepath.Join(dir, "merged.slpk")

			report, err := newService(t, nil).Merge(context.Background(), a, b, output)
			if !assert.Nil(t, err) {
				return
			}
			assert.Equal(t, "merged-id", report.ID)
			assert.Equal(t, testCase.layout, report.Layout)
			assert.Equal(t, 6, report.Nodes)
			assert.Equal(t, []int{0}, report.Roots)
			assert.Equal(t, 10000, report.Inputs[1].Offset)

			root := extract(t, output)
			actualLayout, err := layout.NewDetector().Detect(root)
			assert.Nil(t, err)
			assert.Equal(t, testCase.layout, actualLayout)

			merged, err := testCase.format.Load(context.Background(), root)
			if !assert.Nil(t, err) {
				return
			}
			assert.Equal(t, []int{0, 1, 2, 10000, 10001, 10002}, merged.IDs())
			assert.Equal(t, 0, merged.Root)
			assert.Contains(t, merged.Lookup(0).ChildIDs, 10000)
			assert.Equal(t, i3s.IntPtr(0), merged.Lookup(10000).ParentID)
			assert.Equal(t, i3s.IntPtr(10000), merged.Lookup(10001).ParentID)
			assert.Equal(t, []int{10001, 10002}, merged.Lookup(10000).ChildIDs)
			for location, expect := range testCase.assets {
				assert.Equal(t, expect, readFile(t, filepath.Join(root, filepath.FromSlash(location))), location)
			}

			fields := i3s.Fields{}
			assert.Nil(t, codec.New(nil).Read(context.Background(), filepath.Join(root, "3dSceneLayer.json.gz"), &fields))
			descriptor := i3s.NewManifest(fields)
			assert.Equal(t, "merged-id", descriptor.ID())
			assert.Equal(t, "1.7", descriptor.Version())

			metadata := map[string]interface{}{}
			assert.Nil(t, codec.New(nil).Read(context.Background(), filepath.Join(root, "metadata.json"), &metadata))
			assert.Equal(t, json.Number("6"), metadata["nodeCount"])
		})
	}
}

func TestService_Merge_Failures(t *testing.T) {
	var testCases = []struct {
		description string
		config      *config.Config
		a           i3stest.Package
		b           i3stest.Package
		expect      error
	}{
		{
			description: "version mismatch",
			a:           i3stest.Package{Layout: i3s.PagedCompact, Version: "1.6", Nodes: i3stest.Tree(3)},
			b:           i3stest.Package{Layout: i3s.PagedCompact, Version: "1.7", Nodes: i3stest.Tree(3)},
			expect:      i3s.ErrVersionMismatch,
		},
		{
			description: "layout mismatch",
			a:           i3stest.Package{Layout: i3s.FolderCompact, Nodes: i3stest.Tree(3)},
			b:           i3stest.Package{Layout: i3s.Standard, Nodes: i3stest.Tree(3)},
			expect:      i3s.ErrLayoutMismatch,
		},
		{
			description: "layout mismatch is not forced",
			config:      &config.Config{Force: true},
			a:           i3stest.Package{Layout: i3s.FolderCompact, Nodes: i3stest.Tree(3)},
			b:           i3stest.Package{Layout: i3s.Standard, Nodes: i3stest.Tree(3)},
			expect:      i3s.ErrLayoutMismatch,
		},
		{
			description: "dangling asset reference",
			a:           i3stest.Package{Layout: i3s.PagedCompact, Nodes: i3stest.Tree(3)},
			b:           i3stest.Package{Layout: i3s.PagedCompact, Nodes: i3stest.Tree(3), SkipAssets: true},
			expect:      i3s.ErrAssetReferenceDangling,
		},
		{
			description: "first input overflows fixed offset",
			config:      &config.Config{Offset: 2},
			a:           i3stest.Package{Layout: i3s.PagedCompact, Nodes: i3stest.Tree(3)},
			b:           i3stest.Package{Layout: i3s.PagedCompact, Nodes: i3stest.Tree(1)},
			expect:      i3s.ErrNamespaceOverflow,
		},
		{
			description: "second input overflows fixed offset",
			config:      &config.Config{Offset: 3},
			a:           i3stest.Package{Layout: i3s.PagedCompact, Nodes: i3stest.Tree(3)},
			b:           i3stest.Package{Layout: i3s.PagedCompact, Nodes: i3stest.Tree(5)},
			expect:      i3s.ErrNamespaceOverflow,
		},
		{
			description: "unrecognized layout",
			a:           i3stest.Package{Layout: i3s.PagedCompact, Nodes: i3stest.Tree(3)},
			b:           i3stest.Package{Layout: i3s.Unknown, Nodes: i3stest.Tree(3)},
			expect:      i3s.ErrUnrecognizedLayout,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			dir := t.TempDir()
			a := i3stest.Archive(t, dir, "a", testCase.a)
			b := i3stest.Archive(t, dir, "b", testCase.b)
			output := filepath.Join(dir, "merged.slpk")

			report, err := newService(t, testCase.config).Merge(context.Background(), a, b, output)
			assert.Nil(t, report)
			assert.True(t, errors.Is(err, testCase.expect), "%v", err)
			_, statErr := os.Stat(output)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestService_Merge_ForcedVersion(t *testing.T) {
	dir := t.TempDir()
	a := i3stest.Archive(t, dir, "a", i3stest.Package{Layout: i3s.PagedCompact, Version: "1.6", Nodes: i3stest.Tree(3)})
	b := i3stest.Archive(t, dir, "b", i3stest.Package{Layout: i3s.PagedCompact, Version: "1.7", Nodes: i3stest.Tree(3)})
	output := filepath.Join(dir, "merged.slpk")

	report, err := newService(t, &config.Config{Force: true}).Merge(context.Background(), a, b, output)
	if !assert.Nil(t, err) {
		return
	}
	assert.True(t, report.Forced)
	assert.Equal(t, "1.6", report.Version)
	fields := i3s.Fields{}
	assert.Nil(t, codec.New(nil).Read(context.Background(), filepath.Join(extract(t, output), "3dSceneLayer.json.gz"), &fields))
	assert.Equal(t, "1.6", i3s.NewManifest(fields).Version())
}

func TestService_Merge_UnreferencedAsset(t *testing.T) {
	dir := t.TempDir()
	a := i3stest.Archive(t, dir, "a", i3stest.Package{
		Layout: i3s.PagedCompact,
		Nodes:  i3stest.Tree(3),
		Files:  map[string][]byte{"geometries/7.bin": []byte("orphan")},
	})
	b := i3stest.Archive(t, dir, "b", i3stest.Package{Layout: i3s.PagedCompact, Nodes: i3stest.Tree(3)})
	output := filepath.Join(dir, "merged.slpk")

	report, err := newService(t, nil).Merge(context.Background(), a, b, output)
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, 7, report.Inputs[0].Assets)
	assert.Equal(t, "orphan", readFile(t, filepath.Join(extract(t, output), "geometries", "7.bin")))
}

func TestService_Merge_DynamicOffset(t *testing.T) {
	dir := t.TempDir()
	a := i3stest.Archive(t, dir, "a", i3stest.Package{Layout: i3s.Standard, Nodes: i3stest.Tree(3)})
	b := i3stest.Archive(t, dir, "b", i3stest.Package{Layout: i3s.Standard, Nodes: i3stest.Tree(2)})
	output := filepath.Join(dir, "merged.slpk")

	report, err := newService(t, &config.Config{DynamicOffset: true}).Merge(context.Background(), a, b, output)
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, 3, report.Inputs[1].Offset)
	merged, err := standard.New(nil).Load(context.Background(), extract(t, output))
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, merged.IDs())
	assert.Equal(t, []int{1, 2, 3}, merged.Lookup(0).ChildIDs)
}

func TestService_Merge_Forest(t *testing.T) {
	dir := t.TempDir()
	a := i3stest.Archive(t, dir, "a", i3stest.Package{Layout: i3s.PagedCompact, Nodes: i3stest.Tree(2)})
	b := i3stest.Archive(t, dir, "b", i3stest.Package{Layout: i3s.PagedCompact, Nodes: i3stest.Tree(2)})
	output := filepath.Join(dir, "merged.slpk")

	report, err := newService(t, &config.Config{RootPolicy: "forest"}).Merge(context.Background(), a, b, output)
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, []int{0, 10000}, report.Roots)
	root := extract(t, output)
	merged, err := paged.New(nil).Load(context.Background(), root)
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, []int{1}, merged.Lookup(0).ChildIDs)
	assert.Nil(t, merged.Lookup(10000).ParentID)

	fields := i3s.Fields{}
	assert.Nil(t, codec.New(nil).Read(context.Background(), filepath.Join(root, "3dSceneLayer.json.gz"), &fields))
	resource := i3s.NewManifest(fields).Object("resource")
	assert.JSONEq(t, `["0","10000"]`, string(resource["roots"]))
}

func TestService_Merge_Deterministic(t *testing.T) {
	dir := t.TempDir()
	a := i3stest.Archive(t, dir, "a", i3stest.Package{Layout: i3s.PagedCompact, Nodes: i3stest.Tree(5), NodesPerPage: 2})
	b := i3stest.Archive(t, dir, "b", i3stest.Package{Layout: i3s.PagedCompact, Nodes: i3stest.Tree(4), NodesPerPage: 3})
	service := newService(t, &config.Config{NodesPerPage: 4})

	first, err := service.Merge(context.Background(), a, b, filepath.Join(dir, "first.slpk"))
	if !assert.Nil(t, err) {
		return
	}
	second, err := service.Merge(context.Background(), a, b, filepath.Join(dir, "second.slpk"))
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, first.Digest, second.Digest)
	entries, err := os.ReadDir(filepath.Join(extract(t, filepath.Join(dir, "first.slpk")), "nodepages"))
	assert.Nil(t, err)
	assert.Equal(t, 3, len(entries))
}

func TestService_Merge_Scratch(t *testing.T) {
	for _, keep := range []bool{false, true} {
		dir := t.TempDir()
		scratch := filepath.Join(dir, "scratch")
		a := i3stest.Archive(t, dir, "a", i3stest.Package{Layout: i3s.Standard, Nodes: i3stest.Tree(2)})
		b := i3stest.Archive(t, dir, "b", i3stest.Package{Layout: i3s.Standard, Nodes: i3stest.Tree(2)})

		_, err := newService(t, &config.Config{ScratchDir: scratch, KeepScratch: keep}).Merge(context.Background(), a, b, filepath.Join(dir, "merged.slpk"))
		if !assert.Nil(t, err) {
			continue
		}
		entries, err := os.ReadDir(scratch)
		assert.Nil(t, err)
		if keep {
			assert.Equal(t, 1, len(entries))
		} else {
			assert.Equal(t, 0, len(entries))
		}
	}
}
