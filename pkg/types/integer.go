package types

import (
	"encoding/binary"
	"fmt"
	"io"

	"heapdb/pkg/primitives"
)

// IntField represents a 64-bit integer field value.
type IntField struct {
	Value int64
}

func NewIntField(value int64) *IntField {
	return &IntField{Value: value}
}

// Serialize writes the integer as 8 big-endian bytes.
func (f *IntField) Serialize(w io.Writer) error {
	return binary.Write(w, binary.BigEndian, f.Value)
}

// Compare performs a comparison operation between this field and another.
// The other field must also be an IntField.
func (f *IntField) Compare(op primitives.Predicate, other Field) (bool, error) {
	o, ok := other.(*IntField)
	if !ok {
		return false, fmt.Errorf("cannot compare IntField with %T", other)
	}

	switch op {
	case primitives.Equals:
		return f.Value == o.Value, nil
	case primitives.NotEqual:
		return f.Value != o.Value, nil
	case primitives.LessThan:
		return f.Value < o.Value, nil
	case primitives.LessThanOrEqual:
		return f.Value <= o.Value, nil
	case primitives.GreaterThan:
		return f.Value > o.Value, nil
	case primitives.GreaterThanOrEqual:
		return f.Value >= o.Value, nil
	case primitives.Like:
		return f.Value == o.Value, nil
	default:
		return false, fmt.Errorf("unsupported predicate for IntField: %v", op)
	}
}

func (f *IntField) Type() Type {
	return IntType
}

func (f *IntField) String() string {
	return fmt.Sprintf("%d", f.Value)
}

func (f *IntField) Hash() (primitives.HashCode, error) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(f.Value))
	return fnvHash(buf), nil
}
