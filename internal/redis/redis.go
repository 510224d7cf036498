package redis

import (
	"KeyNavi-Wails/internal/connection"
	"KeyNavi-Wails/internal/keyspace"
)

// DBInfo represents information about one Redis logical database
type DBInfo struct {
	Index int   `json:"index"` // Database index (0-15)
	Keys  int64 `json:"keys"`  // Number of keys in this database
}

// Client defines the Redis operations the application consumes. It embeds
// the keyspace store-protocol boundary and adds connection management plus
// the basic write operations the value panel offers.
type Client interface {
	keyspace.Store

	// Connection management
	Connect(config connection.ConnectionConfig) error
	Close() error
	Ping() error

	// Server information
	GetDatabases() ([]DBInfo, error)
	CurrentDB() int

	// Basic editing
	SetString(key, value string, ttl int64) error
	SetTTL(key string, ttl int64) error
	RenameKey(oldKey, newKey string) error
}
