package paged_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/i3smerge/i3s"
	"github.com/viant/i3smerge/i3s/i3stest"
	"github.com/viant/i3smerge/layout"
	"github.com/viant/i3smerge/layout/paged"
	"github.com/viant/i3smerge/slpk"
)

func chain(n int) *i3s.Graph {
	result := &i3s.Graph{Layout: i3s.PagedCompact}
	for i := 0; i < n; i++ {
		node := &i3s.Node{ID: i, Mesh: i3s.Mesh{Geometry: &i3s.MeshRef{Resource: i3s.IntPtr(i)}}}
		if i > 0 {
			node.ParentID = i3s.IntPtr(i - 1)
		}
		if i+1 < n {
			node.ChildIDs = []int{i + 1}
		}
		result.Nodes = append(result.Nodes, node)
	}
	return result
}

func TestFormat_Write(t *testing.T) {
	var testCases = []struct {
		nodes        int
		nodesPerPage int
		expectPages  int
	}{
		{nodes: 1, nodesPerPage: 1000, expectPages: 1},
		{nodes: 10, nodesPerPage: 3, expectPages: 4},
		{nodes: 9, nodesPerPage: 3, expectPages: 3},
		{nodes: 2500, nodesPerPage: 1000, expectPages: 3},
	}
	for _, testCase := range testCases {
		root := t.TempDir()
		format := paged.New(nil, paged.WithNodesPerPage(testCase.nodesPerPage))
		graph := chain(testCase.nodes)
		if !assert.Nil(t, format.Write(context.Background(), graph, root)) {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(root, layout.PagesFolder))
		assert.Nil(t, err)
		assert.Equal(t, testCase.expectPages, len(entries), "nodes %d per page %d", testCase.nodes, testCase.nodesPerPage)

		loaded, err := format.Load(context.Background(), root)
		if !assert.Nil(t, err) {
			continue
		}
		assert.Equal(t, graph.IDs(), loaded.IDs())
		assert.Equal(t, 0, loaded.Root)
		assert.Equal(t, graph.Nodes[testCase.nodes-1].ParentID, loaded.Nodes[testCase.nodes-1].ParentID)

		actual, err := layout.NewDetector().Detect(root)
		assert.Nil(t, err)
		assert.Equal(t, i3s.PagedCompact, actual)
	}
}

func TestFormat_Write_Deterministic(t *testing.T) {
	format := paged.New(nil, paged.WithNodesPerPage(4))
	graph := chain(11)
	var digests []uint64
	for i := 0; i < 2; i++ {
		root := t.TempDir()
		assert.Nil(t, format.Write(context.Background(), graph, root))
		digest, err := slpk.Digest(context.Background(), root)
		assert.Nil(t, err)
		digests = append(digests, digest)
	}
	assert.Equal(t, digests[0], digests[1])
}

func TestFormat_Load(t *testing.T) {
	root := t.TempDir()
	i3stest.Write(t, root, i3stest.Package{Layout: i3s.PagedCompact, Nodes: i3stest.Tree(5), NodesPerPage: 2})
	graph, err := paged.New(nil).Load(context.Background(), root)
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, graph.IDs())
	assert.Equal(t, []int{1, 2, 3, 4}, graph.Lookup(0).ChildIDs)
	assert.Equal(t, 3, *graph.Lookup(3).Mesh.Geometry.Resource)
	assert.Equal(t, 3, *graph.Lookup(3).Mesh.Material.Resource)
	assert.Contains(t, graph.Lookup(3).Extra, "obb")
}

func TestFormat_Load_Errors(t *testing.T) {
	var testCases = []struct {
		description string
		files       map[string][]byte
		expect      error
	}{
		{
			description: "duplicate index across pages",
			files: map[string][]byte{
				"nodepages/0.json": []byte(`{"nodes":[{"index":0,"children":[1]},{"index":1,"parentIndex":0}]}`),
				"nodepages/1.json": []byte(`{"nodes":[{"index":1,"parentIndex":0}]}`),
			},
			expect: i3s.ErrIdentifierCollision,
		},
		{
			description: "empty pages",
			files:       map[string][]byte{"nodepages/0.json": []byte(`{"nodes":[]}`)},
			expect:      i3s.ErrMissingIndex,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			root := t.TempDir()
			for location, content := range testCase.files {
				i3stest.WriteFile(t, filepath.Join(root, filepath.FromSlash(location)), content)
			}
			_, err := paged.New(nil).Load(context.Background(), root)
			assert.True(t, errors.Is(err, testCase.expect), "%v", err)
		})
	}
}

func TestFormat_Load_RootIndex(t *testing.T) {
	root := t.TempDir()
	i3stest.WriteFile(t, filepath.Join(root, "3dSceneLayer.json"), []byte(`{"nodePages":{"rootIndex":1}}`))
	i3stest.WriteFile(t, filepath.Join(root, "nodepages", "0.json"), []byte(`{"nodes":[{"index":0,"parentIndex":1},{"index":1,"parentIndex":0}]}`))
	graph, err := paged.New(nil).Load(context.Background(), root)
	assert.Nil(t, err)
	assert.Equal(t, 1, graph.Root)
}

func TestNodeCodec(t *testing.T) {
	raw := []byte(`{"index":4,"parentIndex":1,"children":[7,8],"lodThreshold":12.5,"mesh":{"geometry":{"definition":0,"resource":4,"vertexCount":9},"material":{"definition":1,"resource":4}}}`)
	node, err := paged.DecodeNode(raw)
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, 4, node.ID)
	assert.Equal(t, i3s.IntPtr(1), node.ParentID)
	assert.Equal(t, []int{7, 8}, node.ChildIDs)
	assert.Nil(t, node.Mesh.Attribute)
	assert.JSONEq(t, string(raw), string(paged.EncodeNode(node)))
}
