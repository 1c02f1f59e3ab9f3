package shared

// DocumentStore is whole-document-per-key storage. Each key holds one JSON
// blob; there are no partial or indexed updates. The sqlite service provides
// the durable implementation, tests use the in-memory one.
type DocumentStore interface {
	// Get returns nil with no error when the key has never been written.
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}
