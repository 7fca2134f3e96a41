package primitives

// PageID is the value identity of a page within a table. Implementations
// must be comparable value types so a PageID can serve as a map key; two
// PageIDs are equal iff their (table, page number) pairs are equal.
type PageID interface {
	// GetTableID returns the table this page belongs to
	GetTableID() TableID

	// PageNo returns the page number within the table
	PageNo() PageNumber

	// Serialize returns a byte representation of this page ID
	Serialize() []byte

	// Equals checks if two page IDs are equal
	Equals(other PageID) bool

	// String returns a string representation
	String() string

	// HashCode returns a hash code for this page ID
	HashCode() HashCode
}
