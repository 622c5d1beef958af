package standard_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/i3smerge/i3s"
	"github.com/viant/i3smerge/i3s/i3stest"
	"github.com/viant/i3smerge/layout"
	"github.com/viant/i3smerge/layout/standard"
)

func TestFormat_Load(t *testing.T) {
	root := t.TempDir()
	i3stest.Write(t, root, i3stest.Package{Layout: i3s.Standard, Nodes: i3stest.Tree(12)})
	graph, err := standard.New(nil).Load(context.Background(), root)
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, 12, graph.Len())
	assert.Equal(t, []int{0, 1, 2, 3}, graph.IDs()[:4])
	assert.Equal(t, 11, graph.IDs()[11])
	assert.Equal(t, 0, graph.Root)
	assert.Equal(t, i3s.IntPtr(0), graph.Lookup(10).ParentID)
}

func TestFormat_Load_IndexSpelling(t *testing.T) {
	root := t.TempDir()
	i3stest.WriteFile(t, filepath.Join(root, "nodes", "0.json"), []byte(`{"index":0,"children":[1]}`))
	i3stest.WriteFile(t, filepath.Join(root, "nodes", "1.json"), []byte(`{"index":1,"parentIndex":0,"mesh":{"geometry":{"resource":1}}}`))
	graph, err := standard.New(nil).Load(context.Background(), root)
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, []int{0, 1}, graph.IDs())
	assert.Equal(t, 1, *graph.Lookup(1).Mesh.Geometry.Resource)
}

func TestFormat_Write(t *testing.T) {
	graph := &i3s.Graph{Layout: i3s.Standard, Root: 0, Nodes: []*i3s.Node{
		{ID: 0, ChildIDs: []int{10000}},
		{ID: 10000, ParentID: i3s.IntPtr(0), Mesh: i3s.Mesh{Geometry: &i3s.MeshRef{Resource: i3s.IntPtr(10000)}}},
	}}
	root := t.TempDir()
	format := standard.New(nil)
	if !assert.Nil(t, format.Write(context.Background(), graph, root)) {
		return
	}
	actual, err := layout.NewDetector().Detect(root)
	assert.Nil(t, err)
	assert.Equal(t, i3s.Standard, actual)
	loaded, err := format.Load(context.Background(), root)
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, graph.IDs(), loaded.IDs())
	assert.Equal(t, 10000, *loaded.Lookup(10000).Mesh.Geometry.Resource)
}

func TestNodeCodec(t *testing.T) {
	fields := i3s.Fields{}
	assert.Nil(t, json.Unmarshal([]byte(`{"id":3,"parentId":1,"lodSelection":[{"maxError":2}]}`), &fields))
	node, err := standard.DecodeNode(fields)
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, 3, node.ID)
	data, err := json.Marshal(standard.EncodeNode(node))
	assert.Nil(t, err)
	assert.JSONEq(t, `{"id":3,"parentId":1,"lodSelection":[{"maxError":2}]}`, string(data))
}
