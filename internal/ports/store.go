package ports

import (
	"github.com/mikey/fraudguard/internal/core"
)

// Store is a session store backend that owns resources
type Store interface {
	core.KVStore

	// Close releases the connection or file handle
	Close() error
}
