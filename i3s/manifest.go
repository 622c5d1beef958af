package i3s

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Manifest represents a scene layer descriptor; members the engine does not touch are kept verbatim
type Manifest struct {
	Fields Fields
}

// NewManifest creates a manifest from raw fields
func NewManifest(fields Fields) *Manifest {
	if fields == nil {
		fields = Fields{}
	}
	return &Manifest{Fields: fields}
}

// Clone returns a manifest copy
func (m *Manifest) Clone() *Manifest {
	return &Manifest{Fields: m.Fields.Clone()}
}

// ID returns the layer identifier as text
func (m *Manifest) ID() string {
	return m.text(m.Fields["id"])
}

// SetID sets the layer identifier
func (m *Manifest) SetID(id string) {
	m.Fields["id"] = mustMarshal(id)
}

// Version returns the format version, falling back to store.version
func (m *Manifest) Version() string {
	if version := m.text(m.Fields["version"]); version != "" {
		return version
	}
	store := m.object("store")
	return m.text(store["version"])
}

// SetRootNode points store.rootNode at a node folder or descriptor
func (m *Manifest) SetRootNode(href string) {
	store := m.object("store")
	store["rootNode"] = mustMarshal(href)
	m.Fields["store"] = mustMarshal(store)
}

// SetNodePages sets node page directory pointers
func (m *Manifest) SetNodePages(nodesPerPage, rootIndex int) {
	pages := m.object("nodePages")
	pages["nodesPerPage"] = mustMarshal(nodesPerPage)
	pages["rootIndex"] = mustMarshal(rootIndex)
	m.Fields["nodePages"] = mustMarshal(pages)
}

// SetResourceRoots sets resource.rootNode and, for a forest, resource.roots
func (m *Manifest) SetResourceRoots(roots []int) {
	resource := m.object("resource")
	if len(roots) > 0 {
		resource["rootNode"] = mustMarshal(strconv.Itoa(roots[0]))
	}
	if len(roots) > 1 {
		ids := make([]string, len(roots))
		for i, root := range roots {
			ids[i] = strconv.Itoa(root)
		}
		resource["roots"] = mustMarshal(ids)
	} else {
		delete(resource, "roots")
	}
	m.Fields["resource"] = mustMarshal(resource)
}

// Object returns a nested object member, empty if absent or not an object
func (m *Manifest) Object(key string) Fields {
	return m.object(key)
}

func (m *Manifest) object(key string) Fields {
	result := Fields{}
	if raw, ok := m.Fields[key]; ok {
		_ = json.Unmarshal(raw, &result)
		if result == nil {
			result = Fields{}
		}
	}
	return result
}

func (m *Manifest) text(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		return number.String()
	}
	return ""
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal %T: %v", v, err))
	}
	return data
}

// Marshal encodes v into a raw message
func Marshal(v interface{}) json.RawMessage {
	return mustMarshal(v)
}
