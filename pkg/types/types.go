package types

import "fmt"

// Type identifies the data type of a field.
type Type int

const (
	IntType Type = iota
	StringType
)

// StringMaxSize is the fixed on-disk capacity of a string field. Strings are
// serialized as a 4-byte length followed by StringMaxSize bytes of data, so
// every string field occupies the same number of bytes on a page.
const StringMaxSize = 128

// Size returns the number of bytes a field of this type occupies on disk.
func (t Type) Size() (uint32, error) {
	switch t {
	case IntType:
		return 8, nil
	case StringType:
		return StringMaxSize + 4, nil
	default:
		return 0, fmt.Errorf("unknown type: %d", int(t))
	}
}

func (t Type) String() string {
	switch t {
	case IntType:
		return "INT"
	case StringType:
		return "STRING"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}
