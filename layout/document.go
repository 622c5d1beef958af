package layout

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/viant/i3smerge/i3s"
)

// Int decodes an integer member; numeric text is accepted
func Int(raw json.RawMessage) (int, error) {
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		value, err := strconv.Atoi(number.String())
		if err != nil {
			return 0, fmt.Errorf("invalid integer %s: %w", raw, err)
		}
		return value, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, fmt.Errorf("invalid integer %s: %w", raw, err)
	}
	value, ok := i3s.ParseFolderID(text)
	if !ok {
		return 0, fmt.Errorf("invalid integer %q", text)
	}
	return value, nil
}

// Ints decodes an integer array member
func Ints(raw json.RawMessage) ([]int, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("invalid array %s: %w", raw, err)
	}
	result := make([]int, len(items))
	for i, item := range items {
		value, err := Int(item)
		if err != nil {
			return nil, err
		}
		result[i] = value
	}
	return result, nil
}

// Take removes and returns the first present member of keys
func Take(fields i3s.Fields, keys ...string) (json.RawMessage, bool) {
	var result json.RawMessage
	found := false
	for _, key := range keys {
		if raw, ok := fields[key]; ok {
			if !found {
				result, found = raw, true
			}
			delete(fields, key)
		}
	}
	return result, found
}

// DecodeMesh decodes a mesh object with geometry, material and attribute references
func DecodeMesh(raw json.RawMessage) (i3s.Mesh, error) {
	var mesh i3s.Mesh
	var fields i3s.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return mesh, fmt.Errorf("invalid mesh %s: %w", raw, err)
	}
	var err error
	if mesh.Geometry, err = decodeMeshRef(fields["geometry"]); err != nil {
		return mesh, err
	}
	if mesh.Material, err = decodeMeshRef(fields["material"]); err != nil {
		return mesh, err
	}
	if mesh.Attribute, err = decodeMeshRef(fields["attribute"]); err != nil {
		return mesh, err
	}
	return mesh, nil
}

func decodeMeshRef(raw json.RawMessage) (*i3s.MeshRef, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var fields i3s.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("invalid mesh reference %s: %w", raw, err)
	}
	result := &i3s.MeshRef{}
	if resource, ok := Take(fields, "resource"); ok {
		value, err := Int(resource)
		if err != nil {
			return nil, err
		}
		result.Resource = &value
	}
	if len(fields) > 0 {
		result.Extra = fields
	}
	return result, nil
}

// EncodeMesh encodes mesh references, nil when mesh is empty
func EncodeMesh(mesh *i3s.Mesh) json.RawMessage {
	if mesh.IsEmpty() {
		return nil
	}
	fields := i3s.Fields{}
	for key, ref := range map[string]*i3s.MeshRef{"geometry": mesh.Geometry, "material": mesh.Material, "attribute": mesh.Attribute} {
		if ref == nil {
			continue
		}
		item := ref.Extra.Clone()
		if item == nil {
			item = i3s.Fields{}
		}
		if ref.Resource != nil {
			item["resource"] = i3s.Marshal(*ref.Resource)
		}
		fields[key] = i3s.Marshal(item)
	}
	return i3s.Marshal(fields)
}
