package types

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"heapdb/pkg/primitives"
)

// StringField represents a string field value with a fixed on-disk size.
// Values longer than StringMaxSize are truncated when constructed.
type StringField struct {
	Value string
}

func NewStringField(value string) *StringField {
	if len(value) > StringMaxSize {
		value = value[:StringMaxSize]
	}
	return &StringField{Value: value}
}

// Serialize writes the string as a 4-byte length followed by the bytes,
// padded with zeroes to StringMaxSize.
func (f *StringField) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(f.Value))); err != nil {
		return err
	}

	padded := make([]byte, StringMaxSize)
	copy(padded, f.Value)
	_, err := w.Write(padded)
	return err
}

// Compare performs a comparison operation between this field and another.
// The other field must also be a StringField; ordering is lexicographic.
func (f *StringField) Compare(op primitives.Predicate, other Field) (bool, error) {
	o, ok := other.(*StringField)
	if !ok {
		return false, fmt.Errorf("cannot compare StringField with %T", other)
	}

	cmp := strings.Compare(f.Value, o.Value)
	switch op {
	case primitives.Equals:
		return cmp == 0, nil
	case primitives.NotEqual:
		return cmp != 0, nil
	case primitives.LessThan:
		return cmp < 0, nil
	case primitives.LessThanOrEqual:
		return cmp <= 0, nil
	case primitives.GreaterThan:
		return cmp > 0, nil
	case primitives.GreaterThanOrEqual:
		return cmp >= 0, nil
	case primitives.Like:
		return strings.Contains(f.Value, o.Value), nil
	default:
		return false, fmt.Errorf("unsupported predicate for StringField: %v", op)
	}
}

func (f *StringField) Type() Type {
	return StringType
}

func (f *StringField) String() string {
	return f.Value
}

func (f *StringField) Hash() (primitives.HashCode, error) {
	return fnvHash([]byte(f.Value)), nil
}
