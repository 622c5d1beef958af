package i3s

import "encoding/json"

// Fields holds document members that are carried through without interpretation
type Fields map[string]json.RawMessage

// Clone returns a copy of the field map; raw values are shared and never mutated
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	result := make(Fields, len(f))
	for k, v := range f {
		result[k] = v
	}
	return result
}

// MeshRef points at a resource payload of a node
type MeshRef struct {
	Resource *int
	Extra    Fields
}

// Clone returns a deep copy of the reference
func (r *MeshRef) Clone() *MeshRef {
	if r == nil {
		return nil
	}
	result := &MeshRef{Extra: r.Extra.Clone()}
	if r.Resource != nil {
		result.Resource = IntPtr(*r.Resource)
	}
	return result
}

// Mesh groups named resource pointers of a node
type Mesh struct {
	Geometry  *MeshRef
	Material  *MeshRef
	Attribute *MeshRef
}

// Refs returns populated references keyed by the asset category they address
func (m *Mesh) Refs() map[Category]*MeshRef {
	result := map[Category]*MeshRef{}
	if m.Geometry != nil && m.Geometry.Resource != nil {
		result[CategoryGeometry] = m.Geometry
	}
	if m.Material != nil && m.Material.Resource != nil {
		result[CategoryTexture] = m.Material
	}
	if m.Attribute != nil && m.Attribute.Resource != nil {
		result[CategoryAttribute] = m.Attribute
	}
	return result
}

// IsEmpty returns true if no reference is set
func (m *Mesh) IsEmpty() bool {
	return m.Geometry == nil && m.Material == nil && m.Attribute == nil
}

// Node represents a scene graph node in a layout agnostic form
type Node struct {
	ID       int
	ParentID *int
	ChildIDs []int
	Mesh     Mesh
	// Extra holds node document members other than id, parent, children and mesh
	Extra Fields
	// ParentExtra holds non-id members of the parent reference object
	ParentExtra Fields
	// ChildExtra runs parallel to ChildIDs; entries may be nil
	ChildExtra []Fields
}

// Clone returns a deep copy of the node
func (n *Node) Clone() *Node {
	result := &Node{
		ID:          n.ID,
		Extra:       n.Extra.Clone(),
		ParentExtra: n.ParentExtra.Clone(),
		Mesh: Mesh{
			Geometry:  n.Mesh.Geometry.Clone(),
			Material:  n.Mesh.Material.Clone(),
			Attribute: n.Mesh.Attribute.Clone(),
		},
	}
	if n.ParentID != nil {
		result.ParentID = IntPtr(*n.ParentID)
	}
	if n.ChildIDs != nil {
		result.ChildIDs = append([]int{}, n.ChildIDs...)
	}
	if n.ChildExtra != nil {
		result.ChildExtra = make([]Fields, len(n.ChildExtra))
		for i, extra := range n.ChildExtra {
			result.ChildExtra[i] = extra.Clone()
		}
	}
	return result
}

// AppendChild adds a child reference keeping ChildExtra aligned
func (n *Node) AppendChild(id int) {
	n.ChildIDs = append(n.ChildIDs, id)
	if n.ChildExtra == nil {
		return
	}
	for len(n.ChildExtra) < len(n.ChildIDs) {
		n.ChildExtra = append(n.ChildExtra, nil)
	}
}

// ChildMeta returns extra members of the i-th child reference
func (n *Node) ChildMeta(i int) Fields {
	if i < len(n.ChildExtra) {
		return n.ChildExtra[i]
	}
	return nil
}

// IsRoot returns true if node has no parent
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
