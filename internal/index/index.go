package index

// MediaIndex defines the interface for media indexing operations.
// Consumers should depend on this interface rather than the concrete
// *DB type to facilitate testing with mocks.
type MediaIndex interface {
	UpsertMedia(row MediaRow) error
	DeleteMedia(path string) error
	ReplaceAll(rows []MediaRow) error
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies MediaIndex at compile time.
var _ MediaIndex = (*DB)(nil)
