package i3s

import "fmt"

// Layout identifies one of the supported on-disk package layouts
type Layout int

const (
	// Unknown is returned when no layout rule matched
	Unknown Layout = iota
	// PagedCompact groups nodes into numbered page files under nodepages/
	PagedCompact
	// FolderCompact stores each node in its own folder carrying an index document
	FolderCompact
	// Standard stores each node as one flat descriptor file under nodes/
	Standard
)

// Family groups layouts that share a reference encoding lineage
type Family string

const (
	FamilyCompact  Family = "compact"
	FamilyStandard Family = "standard"
)

// String returns layout name
func (l Layout) String() string {
	switch l {
	case PagedCompact:
		return "PagedCompact"
	case FolderCompact:
		return "FolderCompact"
	case Standard:
		return "Standard"
	}
	return "Unknown"
}

// Family returns the layout family
func (l Layout) Family() Family {
	switch l {
	case PagedCompact, FolderCompact:
		return FamilyCompact
	case Standard:
		return FamilyStandard
	}
	return ""
}

// MarshalText encodes layout as its name
func (l Layout) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ParseLayout parses a layout name
func ParseLayout(name string) (Layout, error) {
	for _, candidate := range []Layout{PagedCompact, FolderCompact, Standard} {
		if candidate.String() == name {
			return candidate, nil
		}
	}
	return Unknown, fmt.Errorf("unsupported layout: %q", name)
}
