package primitives

import (
	"hash/fnv"
)

type Filepath string

// Hash derives the table id for a heap file from its path using FNV-1a.
// The same path always produces the same id.
func (f Filepath) Hash() TableID {
	h := fnv.New64a()
	h.Write([]byte(f))
	return TableID(h.Sum64())
}
