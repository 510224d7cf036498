package keyspace

// ContextKey identifies one (connection, logical database) pair. All scan
// state is isolated per context; two contexts never share accumulated data.
type ContextKey struct {
	ConnectionID string `json:"connectionId"`
	Database     int    `json:"database"`
}

// KeyScanState drives the incremental key listing for one context.
//
// Lifecycle: created on first view of a context; reset whenever the
// connection, database or search pattern changes; appended to on each
// successful scan step; retained while the view is merely hidden.
type KeyScanState struct {
	Cursor      string          `json:"cursor"`
	Accumulated []KeyDescriptor `json:"accumulated"`
	HasMore     bool            `json:"hasMore"`
	LastPattern string          `json:"lastPattern"`
	Loading     bool            `json:"loading"`
	LastError   string          `json:"lastError"`
}

// NewKeyScanState returns the fresh default state.
func NewKeyScanState() *KeyScanState {
	return &KeyScanState{
		Cursor:      CursorDone,
		Accumulated: []KeyDescriptor{},
		HasMore:     true,
	}
}

// reset puts the state back to its initial shape, discarding accumulation.
func (s *KeyScanState) reset() {
	s.Cursor = CursorDone
	s.Accumulated = []KeyDescriptor{}
	s.HasMore = true
	s.LastPattern = ""
	s.LastError = ""
}

// ValueScanState drives the incremental loading of one selected key's
// contents. Discarded and reinitialized whenever the selected key changes;
// cursor and accumulation are reset on every filter change.
type ValueScanState struct {
	Key     string `json:"key"`
	Type    string `json:"type"`
	Cursor  string `json:"cursor"`
	HasMore bool   `json:"hasMore"`
	Filter  string `json:"filter"`
	// FilterExact switches the value filter to exact matching, resolved
	// client-side over one scanned batch
	FilterExact bool `json:"filterExact"`
	Loading     bool `json:"loading"`

	// exactly one of these carries data, selected by Type
	Scalar  string         `json:"scalar,omitempty"`
	Pairs   []FieldValue   `json:"pairs,omitempty"`   // hash
	Members []string       `json:"members,omitempty"` // set, list
	Scored  []ScoredMember `json:"scored,omitempty"`  // zset

	LastError string `json:"lastError"`
}

// NewValueScanState returns the fresh state for one selected key.
func NewValueScanState(key, keyType string) *ValueScanState {
	return &ValueScanState{
		Key:     key,
		Type:    keyType,
		Cursor:  CursorDone,
		HasMore: true,
	}
}

// resetData clears cursor and accumulation while keeping key identity and
// filter text. Used when a changed filter invalidates prior completeness.
func (s *ValueScanState) resetData() {
	s.Cursor = CursorDone
	s.HasMore = true
	s.Scalar = ""
	s.Pairs = nil
	s.Members = nil
	s.Scored = nil
	s.LastError = ""
}

// ViewPrefs are the per-context presentation preferences persisted alongside
// the scan state.
type ViewPrefs struct {
	SearchText  string `json:"searchText"`
	ExactMatch  bool   `json:"exactMatch"`
	Delimiter   string `json:"delimiter"`
	TreeView    bool   `json:"treeView"`
	SelectedKey string `json:"selectedKey"`
}
