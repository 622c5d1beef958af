package asset_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/i3smerge/asset"
	"github.com/viant/i3smerge/i3s"
	"github.com/viant/i3smerge/i3s/i3stest"
)

func TestRemapper_Remap(t *testing.T) {
	var testCases = []struct {
		description string
		layout      i3s.Layout
		scheme      asset.Scheme
		offset      int
		expect      map[string]string
	}{
		{
			description: "flat",
			layout:      i3s.PagedCompact,
			scheme:      asset.NewFlat(nil),
			offset:      10000,
			expect: map[string]string{
				"geometries/10000.bin": "payload-0",
				"geometries/10002.bin": "payload-2",
				"textures/10001.jpg":   "payload-1",
			},
		},
		{
			description: "per node",
			layout:      i3s.FolderCompact,
			scheme:      asset.NewPerNode(nil),
			offset:      500,
			expect: map[string]string{
				"nodes/500/geometries/0.bin.gz": "payload-0",
				"nodes/502/textures/0_0.jpg":    "payload-2",
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			src := filepath.Join(t.TempDir(), "src")
			dst := filepath.Join(t.TempDir(), "dst")
			i3stest.Write(t, src, i3stest.Package{Layout: testCase.layout, Nodes: i3stest.Tree(3)})

			mapping, err := asset.New(nil, asset.WithWorkers(2)).Remap(context.Background(), "a.slpk", testCase.scheme, src, dst, testCase.offset)
			if !assert.Nil(t, err) {
				return
			}
			assert.Equal(t, 6, mapping.Copied)
			assert.Equal(t, 2, mapping.MaxID())
			assert.Equal(t, testCase.offset+1, mapping.IDs[1])
			index := mapping.Index()
			assert.True(t, index.Has(i3s.CategoryGeometry, testCase.offset+2))
			assert.True(t, index.Has(i3s.CategoryTexture, testCase.offset))
			assert.False(t, index.Has(i3s.CategoryGeometry, 2))
			for location, expect := range testCase.expect {
				data, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(location)))
				assert.Nil(t, err, location)
				assert.Equal(t, expect, string(data), location)
			}
		})
	}
}

func TestRemapper_Plan_Empty(t *testing.T) {
	mapping, err := asset.New(nil).Plan(context.Background(), "a.slpk", asset.NewFlat(nil), t.TempDir(), 10)
	assert.Nil(t, err)
	assert.Empty(t, mapping.Assets)
	assert.Equal(t, -1, mapping.MaxID())
}

func TestIndex_Merge(t *testing.T) {
	a := asset.Index{}
	a.Add(i3s.CategoryGeometry, 1)
	b := asset.Index{}
	b.Add(i3s.CategoryGeometry, 10001)
	b.Add(i3s.CategoryTexture, 10001)
	a.Merge(b)
	assert.True(t, a.Has(i3s.CategoryGeometry, 1))
	assert.True(t, a.Has(i3s.CategoryGeometry, 10001))
	assert.True(t, a.Has(i3s.CategoryTexture, 10001))
	assert.False(t, a.Has(i3s.CategoryAttribute, 1))
}
