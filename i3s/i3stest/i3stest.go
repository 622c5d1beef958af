// Package i3stest builds small scene layer packages for tests.
package i3stest

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/viant/i3smerge/codec"
	"github.com/viant/i3smerge/i3s"
	"github.com/viant/i3smerge/slpk"
)

// Node describes a fixture node; Parent is -1 for the root
type Node struct {
	ID       int
	Parent   int
	Children []int
	// Geometry and Texture add a mesh reference with resource id = ID and its payload
	Geometry bool
	Texture  bool
}

// Package describes a fixture package
type Package struct {
	Layout       i3s.Layout
	Version      string
	Nodes        []Node
	NodesPerPage int
	// Files adds extra files, keyed by slash separated relative path
	Files map[string][]byte
	// SkipAssets omits payload files while keeping mesh references
	SkipAssets bool
	// Metadata adds metadata.json
	Metadata bool
}

// Tree returns root 0 with children 1..n-1, each with geometry and texture
func Tree(n int) []Node {
	result := make([]Node, n)
	for i := range result {
		result[i] = Node{ID: i, Parent: 0, Geometry: true, Texture: true}
	}
	result[0].Parent = -1
	for i := 1; i < n; i++ {
		result[0].Children = append(result[0].Children, i)
	}
	return result
}

// Write writes pkg extracted at root
func Write(t testing.TB, root string, pkg Package) {
	t.Helper()
	ctx := context.Background()
	c := codec.New(nil)
	write := func(location string, v interface{}) {
		if err := c.Write(ctx, filepath.Join(root, filepath.FromSlash(location)), v); err != nil {
			t.Fatalf("failed to write fixture %s: %v", location, err)
		}
	}
	if pkg.Version == "" {
		pkg.Version = "1.7"
	}
	if pkg.NodesPerPage <= 0 {
		pkg.NodesPerPage = 64
	}
	manifest := map[string]interface{}{
		"id":        0,
		"version":   pkg.Version,
		"layerType": "IntegratedMesh",
		"store":     map[string]interface{}{"version": pkg.Version, "profile": "meshes"},
	}
	if pkg.Layout == i3s.PagedCompact {
		manifest["nodePages"] = map[string]interface{}{"nodesPerPage": pkg.NodesPerPage, "lodSelectionMetricType": "maxScreenThresholdSQ"}
	}
	write("3dSceneLayer.json.gz", manifest)
	if pkg.Metadata {
		write("metadata.json", map[string]interface{}{"folderPattern": "basic", "nodeCount": len(pkg.Nodes), "I3SVersion": pkg.Version})
	}

	switch pkg.Layout {
	case i3s.PagedCompact:
		for number, start := 0, 0; start < len(pkg.Nodes); number, start = number+1, start+pkg.NodesPerPage {
			end := start + pkg.NodesPerPage
			if end > len(pkg.Nodes) {
				end = len(pkg.Nodes)
			}
			var records []interface{}
			for _, node := range pkg.Nodes[start:end] {
				record := flatRecord(node, "index", "parentIndex")
				record["obb"] = map[string]interface{}{"center": []float64{0, 0, 0}, "halfSize": []float64{1, 1, 1}}
				records = append(records, record)
			}
			write("nodepages/"+strconv.Itoa(number)+".json.gz", map[string]interface{}{"nodes": records})
		}
	case i3s.Standard:
		for _, node := range pkg.Nodes {
			write("nodes/"+strconv.Itoa(node.ID)+".json.gz", flatRecord(node, "id", "parentId"))
		}
	case i3s.FolderCompact:
		for _, node := range pkg.Nodes {
			id := strconv.Itoa(node.ID)
			doc := map[string]interface{}{"id": id, "level": 1}
			if node.Parent >= 0 {
				parent := strconv.Itoa(node.Parent)
				doc["parentNode"] = map[string]interface{}{"id": parent, "href": "../" + parent}
			}
			var children []interface{}
			for _, child := range node.Children {
				name := strconv.Itoa(child)
				children = append(children, map[string]interface{}{"id": name, "href": "../" + name, "mbs": []float64{0, 0, 0, 1}})
			}
			if len(children) > 0 {
				doc["children"] = children
			}
			if node.Geometry {
				doc["geometryData"] = []interface{}{map[string]interface{}{"href": "./geometries/0"}}
			}
			if node.Texture {
				doc["textureData"] = []interface{}{map[string]interface{}{"href": "./textures/0_0"}}
			}
			write("nodes/"+id+"/3dNodeIndexDocument.json.gz", doc)
		}
	}
	if !pkg.SkipAssets {
		for _, node := range pkg.Nodes {
			for location, content := range AssetFiles(pkg.Layout, node) {
				WriteFile(t, filepath.Join(root, filepath.FromSlash(location)), content)
			}
		}
	}
	for location, content := range pkg.Files {
		WriteFile(t, filepath.Join(root, filepath.FromSlash(location)), content)
	}
}

// AssetFiles returns payload files of node keyed by relative path
func AssetFiles(layout i3s.Layout, node Node) map[string][]byte {
	result := map[string][]byte{}
	id := strconv.Itoa(node.ID)
	payload := []byte("payload-" + id)
	switch layout {
	case i3s.FolderCompact:
		if node.Geometry {
			result["nodes/"+id+"/geometries/0.bin.gz"] = payload
		}
		if node.Texture {
			result["nodes/"+id+"/textures/0_0.jpg"] = payload
		}
	default:
		if node.Geometry {
			result["geometries/"+id+".bin"] = payload
		}
		if node.Texture {
			result["textures/"+id+".jpg"] = payload
		}
	}
	return result
}

func flatRecord(node Node, idKey, parentKey string) map[string]interface{} {
	record := map[string]interface{}{idKey: node.ID}
	if node.Parent >= 0 {
		record[parentKey] = node.Parent
	}
	if len(node.Children) > 0 {
		record["children"] = node.Children
	}
	mesh := map[string]interface{}{}
	if node.Geometry {
		mesh["geometry"] = map[string]interface{}{"definition": 0, "resource": node.ID}
	}
	if node.Texture {
		mesh["material"] = map[string]interface{}{"definition": 0, "resource": node.ID}
	}
	if len(mesh) > 0 {
		record["mesh"] = mesh
	}
	return record
}

// WriteFile writes content creating parent folders
func WriteFile(t testing.TB, location string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(location), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(location), err)
	}
	if err := os.WriteFile(location, content, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", location, err)
	}
}

// Archive writes pkg and packs it into an archive under dir, returning the archive path
func Archive(t testing.TB, dir, name string, pkg Package) string {
	t.Helper()
	root := filepath.Join(dir, name+"-src")
	Write(t, root, pkg)
	location := filepath.Join(dir, name+slpk.Extension)
	if err := slpk.Create(context.Background(), root, location); err != nil {
		t.Fatalf("failed to create archive %s: %v", location, err)
	}
	return location
}
