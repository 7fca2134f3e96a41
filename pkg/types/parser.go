package types

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"

	"heapdb/pkg/primitives"
)

// ParseField reads one field of the given type from r. The reader must be
// positioned at the start of the field's fixed-size binary representation.
func ParseField(r io.Reader, t Type) (Field, error) {
	switch t {
	case IntType:
		var v int64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return nil, fmt.Errorf("failed to read int field: %w", err)
		}
		return NewIntField(v), nil

	case StringType:
		var length uint32
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return nil, fmt.Errorf("failed to read string length: %w", err)
		}
		if length > StringMaxSize {
			return nil, fmt.Errorf("string length %d exceeds maximum %d", length, StringMaxSize)
		}

		padded := make([]byte, StringMaxSize)
		if _, err := io.ReadFull(r, padded); err != nil {
			return nil, fmt.Errorf("failed to read string bytes: %w", err)
		}
		return NewStringField(string(padded[:length])), nil

	default:
		return nil, fmt.Errorf("unknown type: %d", int(t))
	}
}

func fnvHash(b []byte) primitives.HashCode {
	h := fnv.New64a()
	h.Write(b)
	return primitives.HashCode(h.Sum64())
}
