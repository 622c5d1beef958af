package layout

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/i3smerge/i3s"
)

const (
	// PagesFolder holds node page files of a PagedCompact package
	PagesFolder = "nodepages"
	// NodesFolder holds node folders or node descriptors
	NodesFolder = "nodes"
	// IndexDocument is the per-node document of a FolderCompact package
	IndexDocument = "3dNodeIndexDocument.json.gz"
)

// IndexDocuments lists accepted node index document names
var IndexDocuments = []string{IndexDocument, "3dNodeIndexDocument.json"}

// Detector classifies extracted package trees
type Detector struct {
	// rules are checked in order, first match wins
	rules []rule
}

type rule struct {
	layout i3s.Layout
	match  func(root string) bool
}

// NewDetector creates a layout detector
func NewDetector() *Detector {
	return &Detector{
		rules: []rule{
			{layout: i3s.PagedCompact, match: hasNodePages},
			{layout: i3s.FolderCompact, match: hasNodeFolders},
			{layout: i3s.Standard, match: hasNodeDescriptors},
		},
	}
}

// Detect returns the layout of the package extracted at root
func (d *Detector) Detect(root string) (i3s.Layout, error) {
	info, err := os.Stat(root)
	if err != nil {
		return i3s.Unknown, err
	}
	if !info.IsDir() {
		return i3s.Unknown, i3s.Errorf(i3s.ErrUnrecognizedLayout, root, "not a directory")
	}
	for _, candidate := range d.rules {
		if candidate.match(root) {
			return candidate.layout, nil
		}
	}
	return i3s.Unknown, i3s.Errorf(i3s.ErrUnrecognizedLayout, root, "no %s or %s folder with node documents", PagesFolder, NodesFolder)
}

func hasNodePages(root string) bool {
	entries, err := os.ReadDir(filepath.Join(root, PagesFolder))
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := PageNumber(entry.Name()); ok {
			return true
		}
	}
	return false
}

func hasNodeFolders(root string) bool {
	entries, err := os.ReadDir(filepath.Join(root, NodesFolder))
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, ok := IndexLocation(filepath.Join(root, NodesFolder, entry.Name())); ok {
			return true
		}
	}
	return false
}

func hasNodeDescriptors(root string) bool {
	entries, err := os.ReadDir(filepath.Join(root, NodesFolder))
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := DescriptorID(entry.Name()); ok {
			return true
		}
	}
	return false
}

// IndexLocation returns the index document of a node folder
func IndexLocation(folder string) (string, bool) {
	for _, name := range IndexDocuments {
		location := filepath.Join(folder, name)
		if _, err := os.Stat(location); err == nil {
			return location, true
		}
	}
	return "", false
}

// PageNumber parses a page file name like 12.json.gz
func PageNumber(name string) (int, bool) {
	return jsonStem(name)
}

// DescriptorID parses a flat node descriptor file name like 7.json.gz
func DescriptorID(name string) (int, bool) {
	return jsonStem(name)
}

func jsonStem(name string) (int, bool) {
	for _, ext := range []string{".json.gz", ".json"} {
		if strings.HasSuffix(name, ext) {
			return i3s.ParseID(strings.TrimSuffix(name, ext))
		}
	}
	return 0, false
}
