package quota

import "context"

// RecordStore is the keyed persistence the meter writes through. The store
// has no transactional read-modify-write primitive; callers that increment
// must re-read immediately before writing.
type RecordStore interface {
	// Get returns the stored bytes for a key. found is false when the key
	// has never been written or was cleared.
	Get(ctx context.Context, key string) (data []byte, found bool, err error)

	// Set overwrites the stored bytes for a key.
	Set(ctx context.Context, key string, data []byte) error

	// Clear removes a key.
	Clear(ctx context.Context, key string) error
}
