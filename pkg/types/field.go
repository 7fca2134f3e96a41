package types

import (
	"io"

	"heapdb/pkg/primitives"
)

// Field is the capability shared by all field values stored in tuples.
// Concrete implementations are IntField and StringField; the choice is made
// by field type when tuples are parsed or built.
type Field interface {
	// Serialize writes the field to w in its fixed-size binary format.
	Serialize(w io.Writer) error

	// Compare applies the comparison op between this field and other.
	Compare(op primitives.Predicate, other Field) (bool, error)

	// Type returns the type identifier of this field.
	Type() Type

	// Hash returns a hash of the field value.
	Hash() (primitives.HashCode, error)

	String() string
}
