package tuple

import (
	"fmt"
	"hash/fnv"
	"strings"

	"heapdb/pkg/primitives"
	"heapdb/pkg/types"
)

// TupleDescription describes the schema of a tuple: the types and optional
// names of its fields in order.
type TupleDescription struct {
	Types      []types.Type
	FieldNames []string
}

// NewTupleDesc creates a new TupleDescription given field types and optional
// field names. If fieldNames is nil, fields have no names.
func NewTupleDesc(fieldTypes []types.Type, fieldNames []string) (*TupleDescription, error) {
	if len(fieldTypes) < 1 {
		return nil, fmt.Errorf("must provide at least one field type")
	}

	typesCopy := make([]types.Type, len(fieldTypes))
	copy(typesCopy, fieldTypes)

	var namesCopy []string
	if fieldNames != nil {
		if len(fieldNames) != len(fieldTypes) {
			return nil, fmt.Errorf("field names length (%d) must match field types length (%d)",
				len(fieldNames), len(fieldTypes))
		}
		namesCopy = make([]string, len(fieldNames))
		copy(namesCopy, fieldNames)
	}

	return &TupleDescription{
		Types:      typesCopy,
		FieldNames: namesCopy,
	}, nil
}

// NumFields returns the number of fields in this schema.
func (td *TupleDescription) NumFields() int {
	return len(td.Types)
}

// TypeAtIndex returns the type of the ith field.
func (td *TupleDescription) TypeAtIndex(i int) (types.Type, error) {
	if i < 0 || i >= len(td.Types) {
		return 0, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(td.Types))
	}
	return td.Types[i], nil
}

// GetFieldName returns the name of the ith field, or the empty string when
// no names were provided.
func (td *TupleDescription) GetFieldName(i int) (string, error) {
	if i < 0 || i >= len(td.Types) {
		return "", fmt.Errorf("field index %d out of bounds [0, %d)", i, len(td.Types))
	}
	if td.FieldNames == nil {
		return "", nil
	}
	return td.FieldNames[i], nil
}

// IndexOfField returns the index of the field with the given name.
func (td *TupleDescription) IndexOfField(name string) (int, error) {
	if td.FieldNames == nil {
		return 0, fmt.Errorf("schema has no field names")
	}
	for i, n := range td.FieldNames {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("field %q not found", name)
}

// GetSize returns the number of bytes one tuple of this schema occupies.
func (td *TupleDescription) GetSize() uint32 {
	var size uint32
	for _, t := range td.Types {
		s, _ := t.Size()
		size += s
	}
	return size
}

// Equals reports whether two schemas have identical field types. Field
// names do not participate in equality.
func (td *TupleDescription) Equals(other *TupleDescription) bool {
	if other == nil || len(td.Types) != len(other.Types) {
		return false
	}
	for i, t := range td.Types {
		if t != other.Types[i] {
			return false
		}
	}
	return true
}

// HashCode returns a hash that is consistent with Equals: two schemas with
// the same field types hash to the same value regardless of field names.
func (td *TupleDescription) HashCode() primitives.HashCode {
	h := fnv.New64a()
	for _, t := range td.Types {
		h.Write([]byte{byte(t)})
	}
	return primitives.HashCode(h.Sum64())
}

// Combine merges two schemas into one with the fields of td1 followed by
// the fields of td2.
func Combine(td1, td2 *TupleDescription) *TupleDescription {
	combinedTypes := make([]types.Type, 0, len(td1.Types)+len(td2.Types))
	combinedTypes = append(combinedTypes, td1.Types...)
	combinedTypes = append(combinedTypes, td2.Types...)

	var combinedNames []string
	if td1.FieldNames != nil || td2.FieldNames != nil {
		combinedNames = make([]string, 0, len(combinedTypes))
		combinedNames = append(combinedNames, td1.names()...)
		combinedNames = append(combinedNames, td2.names()...)
	}

	return &TupleDescription{Types: combinedTypes, FieldNames: combinedNames}
}

func (td *TupleDescription) names() []string {
	if td.FieldNames != nil {
		return td.FieldNames
	}
	return make([]string, len(td.Types))
}

func (td *TupleDescription) String() string {
	parts := make([]string, len(td.Types))
	for i, t := range td.Types {
		name := ""
		if td.FieldNames != nil {
			name = td.FieldNames[i]
		}
		parts[i] = fmt.Sprintf("%s(%s)", t, name)
	}
	return strings.Join(parts, ", ")
}
