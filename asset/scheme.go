package asset

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/i3smerge/i3s"
)

// Scheme describes how a layout addresses resource payloads on disk
type Scheme interface {
	// Discover lists assets under package root in a stable order
	Discover(ctx context.Context, root string) ([]*i3s.Asset, error)
	// Target returns the destination of asset renamed to id under root
	Target(root string, asset *i3s.Asset, id int) string
}

// Flat addresses payloads as id named files inside per-category folders
type Flat struct {
	fs afs.Service
}

// NewFlat creates a flat scheme
func NewFlat(fs afs.Service) *Flat {
	if fs == nil {
		fs = afs.New()
	}
	return &Flat{fs: fs}
}

// Discover lists geometries/, textures/ and attributes/ files whose stem is an id
func (s *Flat) Discover(ctx context.Context, root string) ([]*i3s.Asset, error) {
	var result []*i3s.Asset
	for _, category := range i3s.AssetCategories {
		folder := filepath.Join(root, category.Folder())
		if ok, _ := s.fs.Exists(ctx, folder); !ok {
			continue
		}
		var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
			if info.IsDir() || strings.Trim(parent, "/") != "" {
				return true, nil
			}
			id, ext, ok := i3s.ParseAssetName(info.Name())
			if !ok {
				return true, nil
			}
			result = append(result, &i3s.Asset{
				ID:       id,
				Category: category,
				Ext:      ext,
				Name:     info.Name(),
				Path:     filepath.Join(folder, info.Name()),
			})
			return true, nil
		}
		if err := s.fs.Walk(ctx, folder, visitor); err != nil {
			return nil, err
		}
	}
	sortAssets(result)
	return result, nil
}

// Target returns <root>/<category folder>/<id><ext>
func (s *Flat) Target(root string, asset *i3s.Asset, id int) string {
	return filepath.Join(root, asset.Category.Folder(), asset.FileName(id))
}

// PerNode addresses payloads inside the owning node folder; the folder id is the resource id
type PerNode struct {
	fs afs.Service
}

// NewPerNode creates a per-node scheme
func NewPerNode(fs afs.Service) *PerNode {
	if fs == nil {
		fs = afs.New()
	}
	return &PerNode{fs: fs}
}

// Discover lists every file below nodes/<folder>/<sub>/; files at the node folder top level are graph documents
func (s *PerNode) Discover(ctx context.Context, root string) ([]*i3s.Asset, error) {
	nodes := filepath.Join(root, "nodes")
	entries, err := os.ReadDir(nodes)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var result []*i3s.Asset
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, ok := i3s.ParseFolderID(entry.Name())
		if !ok {
			continue
		}
		folder := filepath.Join(nodes, entry.Name())
		var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
			if info.IsDir() {
				return true, nil
			}
			parent = strings.Trim(filepath.ToSlash(parent), "/")
			if parent == "" {
				return true, nil
			}
			name := path.Join(parent, info.Name())
			sub := strings.SplitN(name, "/", 2)[0]
			ext, _ := i3s.AssetExtension(info.Name())
			result = append(result, &i3s.Asset{
				ID:       id,
				Category: i3s.CategoryByFolder(sub),
				Ext:      ext,
				Name:     name,
				Path:     filepath.Join(folder, filepath.FromSlash(name)),
			})
			return true, nil
		}
		if err = s.fs.Walk(ctx, folder, visitor); err != nil {
			return nil, err
		}
	}
	sortAssets(result)
	return result, nil
}

// Target returns <root>/nodes/<id>/<relative name>
func (s *PerNode) Target(root string, asset *i3s.Asset, id int) string {
	return filepath.Join(root, "nodes", strconv.Itoa(id), filepath.FromSlash(asset.Name))
}
