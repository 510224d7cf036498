// Package keyspace implements the cursor-driven exploration engine for
// Redis-style keyspaces: incremental key scanning, per-type value loading,
// delimiter tree derivation and per-context state caching.
//
// The engine is an explicit reducer over a closed set of events — context
// changed, filter changed, key selected, scan-more requested, scan
// completed, scan failed — processed synchronously under one mutex. Store
// calls run asynchronously; every issued request captures a generation
// token, and completions whose generation no longer matches are discarded
// without touching state.
package keyspace

import (
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"

	"KeyNavi-Wails/internal/logger"
)

// FilterDebounce is the quiescence window for free-text filter changes.
// Explicit actions (Enter, key click, scan-more) bypass it.
const FilterDebounce = 500 * time.Millisecond

// listRangeLimit bounds the single-shot LRANGE fetch for list keys.
const listRangeLimit = 1000

// Explorer owns the scan state machines for the currently attached context.
// The UI only reads snapshots and dispatches intents; it never mutates state
// directly.
type Explorer struct {
	mu    sync.Mutex
	store Store
	cache *Cache
	ctx   ContextKey
	entry *ContextEntry

	// generation tokens; bumped on every context / filter / selection
	// change, compared at completion time
	keyGen uint64
	valGen uint64

	pageSize int64
	notify   func() // invoked after every applied event; must not re-enter

	keyFilterDebounce func(func())
	valFilterDebounce func(func())
}

// NewExplorer creates an explorer backed by cache. notify, when non-nil, is
// called after every state change (including discarded stale completions)
// and must not call back into the explorer.
func NewExplorer(cache *Cache, notify func()) *Explorer {
	if cache == nil {
		cache = NewCache()
	}
	return &Explorer{
		cache:             cache,
		notify:            notify,
		pageSize:          DefaultPageSize,
		keyFilterDebounce: debounce.New(FilterDebounce),
		valFilterDebounce: debounce.New(FilterDebounce),
	}
}

// SetPageSize overrides the scan COUNT hint.
func (e *Explorer) SetPageSize(n int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n > 0 {
		e.pageSize = n
	}
}

// attachLocked points the explorer at a context, invalidating any in-flight
// requests of the previous one.
func (e *Explorer) attachLocked(key ContextKey, store Store) {
	if e.entry != nil {
		// orphaned in-flight responses are discarded by generation; clear
		// the guard so the old context can be retried after resume
		e.entry.Keys.Loading = false
		if vs := e.selectedValueLocked(); vs != nil {
			vs.Loading = false
		}
	}
	e.keyGen++
	e.valGen++
	e.ctx = key
	e.store = store
	e.entry = e.cache.Entry(key)
}

// SwitchContext handles a connection or database identity change: the key
// scan is unconditionally restarted, regardless of cached state.
func (e *Explorer) SwitchContext(key ContextKey, store Store) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attachLocked(key, store)
	e.resetKeyScanLocked()
}

// ResumeContext handles a view remount for a context that may have been
// explored before: cached state is returned as-is with no network calls;
// only a never-scanned context triggers the initial scan.
func (e *Explorer) ResumeContext(key ContextKey, store Store) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attachLocked(key, store)

	st := e.entry.Keys
	if len(st.Accumulated) == 0 && st.LastPattern == "" && !st.Loading {
		e.resetKeyScanLocked()
	}
}

// SetSearch applies a key-search text / exact-toggle change. immediate
// bypasses the debounce (Enter key, search button); otherwise the reset scan
// is coalesced within the quiescence window.
func (e *Explorer) SetSearch(text string, exact bool, immediate bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.entry == nil {
		return
	}
	e.entry.Prefs.SearchText = text
	e.entry.Prefs.ExactMatch = exact

	if immediate {
		e.keyFilterDebounce(func() {}) // supersede any pending tick
		e.resetKeyScanLocked()
		return
	}

	ctx := e.ctx
	e.keyFilterDebounce(func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.ctx != ctx {
			return // context moved on while the timer was pending
		}
		e.resetKeyScanLocked()
	})
}

// ScanMore requests the next key page. No-op while a scan is in flight or
// the keyspace is exhausted; a filter changed since the last completed step
// invalidates the stored cursor and forces a reset instead.
func (e *Explorer) ScanMore() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.entry == nil {
		return
	}
	st := e.entry.Keys
	if st.Loading {
		return
	}

	query := ResolveSearch(e.entry.Prefs.SearchText, e.entry.Prefs.ExactMatch)
	if query.Mode == ModePattern && st.LastPattern != "" && st.LastPattern != query.Pattern {
		e.resetKeyScanLocked()
		return
	}
	if !st.HasMore {
		return
	}
	e.stepKeyScanLocked(false)
}

// resetKeyScanLocked discards accumulation and issues a fresh step. Always
// allowed: it represents a context or filter change, so the generation bump
// turns any outstanding response stale.
func (e *Explorer) resetKeyScanLocked() {
	e.keyGen++
	e.entry.Keys.reset()
	e.stepKeyScanLocked(true)
}

// stepKeyScanLocked issues one scan step. Callers hold the mutex and have
// already applied the guards.
func (e *Explorer) stepKeyScanLocked(reset bool) {
	st := e.entry.Keys
	st.Loading = true
	gen := e.keyGen
	store := e.store
	query := ResolveSearch(e.entry.Prefs.SearchText, e.entry.Prefs.ExactMatch)

	cursor := st.Cursor
	if reset {
		cursor = CursorDone
	}

	if query.Mode == ModeExact {
		go e.runExactLookup(gen, store, query.Pattern)
		return
	}
	go e.runKeyScan(gen, store, cursor, query.Pattern, reset)
}

// runKeyScan performs one pattern scan step and merges the page.
func (e *Explorer) runKeyScan(gen uint64, store Store, cursor, pattern string, reset bool) {
	page, err := store.ScanKeys(cursor, pattern, e.pageSize)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.keyGen {
		e.notifyLocked()
		return // stale: context or filter changed mid-flight
	}

	st := e.entry.Keys
	st.Loading = false
	if err != nil {
		// accumulated/cursor/hasMore stay untouched so retry keeps the
		// same semantics
		st.LastError = err.Error()
		logger.Error(err, "键扫描失败：pattern=%s cursor=%s", pattern, cursor)
		e.notifyLocked()
		return
	}

	if reset {
		st.Accumulated = append([]KeyDescriptor{}, page.Keys...)
	} else {
		st.Accumulated = append(st.Accumulated, page.Keys...)
	}
	st.Cursor = page.Cursor
	st.HasMore = page.Cursor != CursorDone
	st.LastPattern = pattern
	st.LastError = ""
	e.notifyLocked()
}

// runExactLookup resolves exact mode: a single existence check plus a detail
// fetch, bypassing the cursor entirely.
func (e *Explorer) runExactLookup(gen uint64, store Store, name string) {
	var descs []KeyDescriptor
	found, err := store.KeyExists(name)
	if err == nil && found {
		descs, err = store.GetKeyDetails([]string{name})
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.keyGen {
		e.notifyLocked()
		return
	}

	st := e.entry.Keys
	st.Loading = false
	if err != nil {
		st.LastError = err.Error()
		logger.Error(err, "精确查找失败：key=%s", name)
		e.notifyLocked()
		return
	}

	st.Accumulated = append([]KeyDescriptor{}, descs...)
	st.Cursor = CursorDone
	st.HasMore = false // exact lookup is single-shot, never paginated
	st.LastPattern = ""
	st.LastError = ""
	e.notifyLocked()
}

// SelectKey switches the value panel to key name: prior value state is
// discarded and a fresh fetch is issued immediately, no debounce.
func (e *Explorer) SelectKey(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.entry == nil {
		return
	}
	e.valGen++
	e.entry.Prefs.SelectedKey = name

	vs := NewValueScanState(name, e.keyTypeLocked(name))
	e.entry.Values[name] = vs
	e.resetValueFetchLocked(vs)
}

// SetValueFilter applies a value-filter change for the selected key. A
// changed filter invalidates the prior accumulation's completeness, so the
// fetch is always a reset, debounced unless immediate.
func (e *Explorer) SetValueFilter(text string, exact bool, immediate bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	vs := e.selectedValueLocked()
	if vs == nil {
		return
	}
	vs.Filter = text
	vs.FilterExact = exact

	if immediate {
		e.valFilterDebounce(func() {})
		e.valGen++
		e.resetValueFetchLocked(vs)
		return
	}

	ctx := e.ctx
	key := vs.Key
	e.valFilterDebounce(func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.ctx != ctx {
			return
		}
		cur := e.selectedValueLocked()
		if cur == nil || cur.Key != key {
			return // selection moved on while the timer was pending
		}
		e.valGen++
		e.resetValueFetchLocked(cur)
	})
}

// ScanMoreValues requests the next member/field page for the selected key.
func (e *Explorer) ScanMoreValues() {
	e.mu.Lock()
	defer e.mu.Unlock()
	vs := e.selectedValueLocked()
	if vs == nil || vs.Loading || !vs.HasMore {
		return
	}
	e.stepValueFetchLocked(vs, false)
}

// resetValueFetchLocked discards accumulated members and issues the fetch
// appropriate for the key's type.
func (e *Explorer) resetValueFetchLocked(vs *ValueScanState) {
	vs.resetData()
	e.stepValueFetchLocked(vs, true)
}

func (e *Explorer) stepValueFetchLocked(vs *ValueScanState, reset bool) {
	vs.Loading = true
	gen := e.valGen
	store := e.store

	cursor := vs.Cursor
	if reset {
		cursor = CursorDone
	}
	go e.runValueFetch(gen, store, vs.Key, vs.Type, cursor, vs.Filter, vs.FilterExact, reset)
}

// valuePattern derives the member glob from the value filter. Exact mode is
// matched client-side over one wildcard-wrapped batch: members are not
// individually existence-checkable the way keys are.
func valuePattern(filter string, exact bool) (pattern string, clientExact string) {
	query := ResolveSearch(filter, exact)
	if query.Mode == ModeExact {
		return "*" + query.Pattern + "*", query.Pattern
	}
	return query.Pattern, ""
}

// runValueFetch performs one value load step with the per-type strategy:
// single GET for strings, cursor scans for hash/set/zset, one offset range
// for lists.
func (e *Explorer) runValueFetch(gen uint64, store Store, key, keyType, cursor, filter string, filterExact, reset bool) {
	// unknown type (key not in the accumulated list): resolve it first
	if keyType == "" {
		descs, err := store.GetKeyDetails([]string{key})
		if err == nil && len(descs) > 0 {
			keyType = descs[0].Type
		}
		if err != nil || keyType == "" {
			e.applyValueError(gen, key, err)
			return
		}
		e.mu.Lock()
		if gen == e.valGen {
			if vs := e.entry.Values[key]; vs != nil {
				vs.Type = keyType
			}
		}
		e.mu.Unlock()
	}

	pattern, clientExact := valuePattern(filter, filterExact)

	switch keyType {
	case TypeString:
		val, err := store.GetString(key)
		e.applyValue(gen, key, err, func(vs *ValueScanState) {
			vs.Scalar = val
			vs.Cursor = CursorDone
			vs.HasMore = false
		})

	case TypeHash:
		page, err := store.ScanHashFields(key, cursor, pattern, e.pageSize)
		e.applyValue(gen, key, err, func(vs *ValueScanState) {
			pairs := page.Pairs
			if clientExact != "" {
				pairs = filterPairsExact(pairs, clientExact)
			}
			if reset {
				vs.Pairs = pairs
			} else {
				vs.Pairs = append(vs.Pairs, pairs...)
			}
			applyValueCursor(vs, page.Cursor, clientExact != "")
		})

	case TypeSet:
		page, err := store.ScanSetMembers(key, cursor, pattern, e.pageSize)
		e.applyValue(gen, key, err, func(vs *ValueScanState) {
			members := page.Members
			if clientExact != "" {
				members = filterMembersExact(members, clientExact)
			}
			if reset {
				vs.Members = members
			} else {
				vs.Members = append(vs.Members, members...)
			}
			applyValueCursor(vs, page.Cursor, clientExact != "")
		})

	case TypeZSet:
		page, err := store.ScanSortedSetMembers(key, cursor, pattern, e.pageSize)
		e.applyValue(gen, key, err, func(vs *ValueScanState) {
			pairs := page.Pairs
			if clientExact != "" {
				pairs = filterScoredExact(pairs, clientExact)
			}
			if reset {
				vs.Scored = pairs
			} else {
				vs.Scored = append(vs.Scored, pairs...)
			}
			applyValueCursor(vs, page.Cursor, clientExact != "")
		})

	case TypeList:
		// lists are not cursor-scanned; one explicit offset range
		items, err := store.ListRange(key, 0, listRangeLimit-1)
		e.applyValue(gen, key, err, func(vs *ValueScanState) {
			vs.Members = filterListItems(items, filter, clientExact)
			vs.Cursor = CursorDone
			vs.HasMore = false
		})

	default:
		e.applyValue(gen, key, nil, func(vs *ValueScanState) {
			vs.Cursor = CursorDone
			vs.HasMore = false
		})
	}
}

// applyValueCursor stores the returned cursor. Client-side exact filtering
// is bounded to one batch, so it forces exhaustion regardless of the cursor.
func applyValueCursor(vs *ValueScanState, cursor string, exact bool) {
	if exact {
		vs.Cursor = CursorDone
		vs.HasMore = false
		return
	}
	vs.Cursor = cursor
	vs.HasMore = cursor != CursorDone
}

func filterPairsExact(pairs []FieldValue, want string) []FieldValue {
	out := make([]FieldValue, 0, len(pairs))
	for _, p := range pairs {
		if p.Field == want {
			out = append(out, p)
		}
	}
	return out
}

func filterMembersExact(members []string, want string) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m == want {
			out = append(out, m)
		}
	}
	return out
}

func filterScoredExact(pairs []ScoredMember, want string) []ScoredMember {
	out := make([]ScoredMember, 0, len(pairs))
	for _, p := range pairs {
		if p.Member == want {
			out = append(out, p)
		}
	}
	return out
}

// filterListItems applies the value filter client-side: lists have no
// server-side pattern operation.
func filterListItems(items []string, filter, exact string) []string {
	text := strings.TrimSpace(filter)
	if text == "" {
		return items
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if exact != "" {
			if it == exact {
				out = append(out, it)
			}
		} else if strings.Contains(it, strings.Trim(text, "*")) {
			out = append(out, it)
		}
	}
	return out
}

// applyValue merges one value fetch completion, discarding it when the
// generation moved on (the selected key or context changed mid-flight).
func (e *Explorer) applyValue(gen uint64, key string, err error, merge func(*ValueScanState)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.valGen {
		e.notifyLocked()
		return
	}
	vs := e.entry.Values[key]
	if vs == nil {
		e.notifyLocked()
		return
	}

	vs.Loading = false
	if err != nil {
		vs.LastError = err.Error()
		logger.Error(err, "值加载失败：key=%s type=%s", key, vs.Type)
		e.notifyLocked()
		return
	}
	merge(vs)
	vs.LastError = ""
	e.notifyLocked()
}

func (e *Explorer) applyValueError(gen uint64, key string, err error) {
	e.applyValue(gen, key, err, func(*ValueScanState) {})
}

// DeleteKey removes the key from the store, the accumulated listing and the
// cached value states. Synchronous: deletion is a single round trip.
func (e *Explorer) DeleteKey(name string) error {
	e.mu.Lock()
	store := e.store
	e.mu.Unlock()
	if store == nil {
		return nil
	}

	if err := store.DeleteKey(name); err != nil {
		logger.Error(err, "删除键失败：key=%s", name)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.entry.Keys
	kept := st.Accumulated[:0:0]
	for _, d := range st.Accumulated {
		if d.Name != name {
			kept = append(kept, d)
		}
	}
	st.Accumulated = kept
	delete(e.entry.Values, name)
	if e.entry.Prefs.SelectedKey == name {
		e.entry.Prefs.SelectedKey = ""
		e.valGen++
	}
	e.notifyLocked()
	return nil
}

// SetDelimiter changes the tree grouping delimiter for the current context.
func (e *Explorer) SetDelimiter(delim string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.entry == nil {
		return
	}
	e.entry.Prefs.Delimiter = delim
	e.notifyLocked()
}

// SetTreeView toggles between tree and flat list presentation.
func (e *Explorer) SetTreeView(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.entry == nil {
		return
	}
	e.entry.Prefs.TreeView = enabled
	e.notifyLocked()
}

// Snapshot is the derived projection the UI renders. Tree is only populated
// when the tree view is active.
type Snapshot struct {
	Context ContextKey      `json:"context"`
	Keys    KeyScanState    `json:"keys"`
	Value   *ValueScanState `json:"value,omitempty"`
	Prefs   ViewPrefs       `json:"prefs"`
	Tree    *TreeNode       `json:"tree,omitempty"`
}

// Snapshot returns a copy of the current state; the UI never holds live
// references into the cache.
func (e *Explorer) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.entry == nil {
		return Snapshot{}
	}

	keys := *e.entry.Keys
	keys.Accumulated = append([]KeyDescriptor{}, e.entry.Keys.Accumulated...)

	snap := Snapshot{
		Context: e.ctx,
		Keys:    keys,
		Prefs:   e.entry.Prefs,
	}
	if vs := e.selectedValueLocked(); vs != nil {
		cp := *vs
		snap.Value = &cp
	}
	if e.entry.Prefs.TreeView {
		names := make([]string, len(keys.Accumulated))
		for i, d := range keys.Accumulated {
			names[i] = d.Name
		}
		snap.Tree = BuildTree(names, e.entry.Prefs.Delimiter)
	}
	return snap
}

func (e *Explorer) selectedValueLocked() *ValueScanState {
	if e.entry == nil || e.entry.Prefs.SelectedKey == "" {
		return nil
	}
	return e.entry.Values[e.entry.Prefs.SelectedKey]
}

// keyTypeLocked looks the key's type up in the accumulated listing; empty
// when the key is not listed (the fetch resolves it from the store).
func (e *Explorer) keyTypeLocked(name string) string {
	for _, d := range e.entry.Keys.Accumulated {
		if d.Name == name {
			return d.Type
		}
	}
	return ""
}

func (e *Explorer) notifyLocked() {
	if e.notify != nil {
		e.notify()
	}
}
