package i3s

import (
	"strconv"
	"strings"
)

// Category classifies a resource payload
type Category string

const (
	CategoryGeometry  Category = "geometry"
	CategoryTexture   Category = "texture"
	CategoryAttribute Category = "attribute"
	// CategoryAuxiliary marks files carried along with a node but never referenced by mesh
	CategoryAuxiliary Category = "auxiliary"
)

// Folder returns the asset folder name used by a category
func (c Category) Folder() string {
	switch c {
	case CategoryGeometry:
		return "geometries"
	case CategoryTexture:
		return "textures"
	case CategoryAttribute:
		return "attributes"
	}
	return ""
}

// CategoryByFolder returns category for an asset folder name
func CategoryByFolder(folder string) Category {
	for _, candidate := range AssetCategories {
		if candidate.Folder() == folder {
			return candidate
		}
	}
	return CategoryAuxiliary
}

// AssetCategories lists mesh addressable categories
var AssetCategories = []Category{CategoryGeometry, CategoryTexture, CategoryAttribute}

// AssetExtensions lists recognized payload extensions, longer suffixes first
var AssetExtensions = []string{".bin.gz", ".bin.dds", ".bin", ".jpg", ".jpeg", ".png", ".dds", ".ktx2", ".ktx"}

// Asset represents a binary payload owned by a package
type Asset struct {
	ID       int
	Category Category
	Ext      string
	// Name is the path relative to the owning node folder for per-node schemes
	Name string
	// Path is the source location
	Path string
}

// FileName returns the id based file name
func (a *Asset) FileName(id int) string {
	return strconv.Itoa(id) + a.Ext
}

// AssetExtension returns the recognized extension of name
func AssetExtension(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, ext := range AssetExtensions {
		if strings.HasSuffix(lower, ext) {
			return name[len(name)-len(ext):], true
		}
	}
	return "", false
}

// ParseAssetName extracts resource id and extension from an id based file name
func ParseAssetName(name string) (int, string, bool) {
	ext, ok := AssetExtension(name)
	if !ok {
		return 0, "", false
	}
	id, ok := ParseID(name[:len(name)-len(ext)])
	if !ok {
		return 0, "", false
	}
	return id, ext, true
}

// ParseID parses a non negative decimal id
func ParseID(text string) (int, bool) {
	if text == "" {
		return 0, false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.Atoi(text)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ParseFolderID returns the integer prefix before the first dash of a node folder name
func ParseFolderID(name string) (int, bool) {
	if index := strings.Index(name, "-"); index != -1 {
		name = name[:index]
	}
	return ParseID(name)
}
