package primitives

// HashCode represents a hash value (e.g., for page IDs or tuple descriptors).
// It is typically computed for fast comparisons or map lookups.
type HashCode uint64

// TableID uniquely identifies a table, derived from hashing the backing
// file's absolute path.
type TableID uint64

// PageNumber represents a page number within a table.
type PageNumber uint64

// SlotID represents a tuple slot number within a page.
type SlotID uint16

// ColumnID identifies a column within a table.
type ColumnID uint32
