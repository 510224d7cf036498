package keyspace

import "time"

// CursorDone is the scan cursor sentinel: it is both the start value of a
// fresh scan and the terminal value meaning the scan cycle is complete.
const CursorDone = "0"

// DefaultPageSize is the COUNT hint passed to scan-style operations.
const DefaultPageSize = 100

// Key types as reported by the backing store.
const (
	TypeString = "string"
	TypeHash   = "hash"
	TypeList   = "list"
	TypeSet    = "set"
	TypeZSet   = "zset"
)

// KeyDescriptor is an immutable snapshot of one key's metadata. It is
// replaced wholesale on re-fetch, never partially mutated.
type KeyDescriptor struct {
	Name string `json:"name"`
	Type string `json:"type"`
	// TTL in seconds; -1 means no expiry, -2 means expired/unknown
	TTL       int64  `json:"ttl"`
	SizeBytes *int64 `json:"sizeBytes"` // approximate, nil when unknown
}

// KeyPage is one page of a keyspace scan.
type KeyPage struct {
	Cursor string          `json:"cursor"`
	Keys   []KeyDescriptor `json:"keys"`
}

// FieldValue is one hash field with its value.
type FieldValue struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// FieldPage is one page of a hash field scan.
type FieldPage struct {
	Cursor string       `json:"cursor"`
	Pairs  []FieldValue `json:"pairs"`
}

// MemberPage is one page of a set member scan.
type MemberPage struct {
	Cursor  string   `json:"cursor"`
	Members []string `json:"members"`
}

// ScoredMember is one sorted-set member with its score.
type ScoredMember struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

// ScoredPage is one page of a sorted-set member scan.
type ScoredPage struct {
	Cursor string         `json:"cursor"`
	Pairs  []ScoredMember `json:"pairs"`
}

// Store is the backing key-value store collaborator. Wire format is out of
// scope here; cursors are opaque strings where CursorDone means complete.
// Implementations must be safe for concurrent use.
type Store interface {
	ScanKeys(cursor, pattern string, count int64) (*KeyPage, error)
	KeyExists(name string) (bool, error)
	GetKeyDetails(names []string) ([]KeyDescriptor, error)
	GetString(name string) (string, error)
	ScanHashFields(name, cursor, pattern string, count int64) (*FieldPage, error)
	ScanSetMembers(name, cursor, pattern string, count int64) (*MemberPage, error)
	ScanSortedSetMembers(name, cursor, pattern string, count int64) (*ScoredPage, error)
	ListRange(name string, start, stop int64) ([]string, error)
	DeleteKey(name string) error
}

// Monitor receives one record per issued store command. Storage and display
// of the records is the console's concern, not this package's.
type Monitor interface {
	Record(command string, elapsed time.Duration, err error)
}
