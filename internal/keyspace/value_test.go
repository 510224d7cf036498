package keyspace

import (
	"strings"
	"testing"
	"time"
)

// seedKeyList gives the explorer an accumulated listing so SelectKey can
// resolve the key type without a detail fetch.
func seedKeyList(t *testing.T, e *Explorer, fs *fakeStore, keys []KeyDescriptor) {
	t.Helper()
	fs.addKeyPage("*", CursorDone, &KeyPage{Cursor: CursorDone, Keys: keys})
	e.SwitchContext(testContext(0), fs)
	waitFor(t, e, "键列表加载完成", func(s Snapshot) bool {
		return !s.Keys.Loading && len(s.Keys.Accumulated) == len(keys)
	})
}

func valueSettled(s Snapshot) bool { return s.Value != nil && !s.Value.Loading }

func TestSelectStringKey_SingleFetch(t *testing.T) {
	fs := newFakeStore()
	fs.strVals["greeting"] = "hello"
	e := NewExplorer(nil, nil)
	seedKeyList(t, e, fs, []KeyDescriptor{{Name: "greeting", Type: TypeString, TTL: -1}})

	e.SelectKey("greeting")
	snap := waitFor(t, e, "字符串加载完成", valueSettled)
	if snap.Value.Scalar != "hello" {
		t.Fatalf("字符串值不符：%q", snap.Value.Scalar)
	}
	if snap.Value.HasMore {
		t.Fatalf("字符串取值后 hasMore 必须为 false")
	}
}

func TestSelectHashKey_ImmediateFetchThenDebouncedFilter(t *testing.T) {
	fs := newFakeStore()
	fs.addHashPage("user:1", "*", CursorDone, &FieldPage{Cursor: CursorDone, Pairs: []FieldValue{
		{Field: "name", Value: "ada"},
		{Field: "email", Value: "ada@example.com"},
		{Field: "phone", Value: "123"},
	}})
	fs.addHashPage("user:1", "*email*", CursorDone, &FieldPage{Cursor: CursorDone, Pairs: []FieldValue{
		{Field: "email", Value: "ada@example.com"},
	}})

	e := NewExplorer(nil, nil)
	seedKeyList(t, e, fs, []KeyDescriptor{{Name: "user:1", Type: TypeHash, TTL: 3600}})

	// selection fetches immediately with the full pattern
	e.SelectKey("user:1")
	snap := waitFor(t, e, "哈希加载完成", func(s Snapshot) bool {
		return valueSettled(s) && len(s.Value.Pairs) == 3
	})
	if fs.callCount("HSCAN user:1 0 *") != 1 {
		t.Fatalf("选中键应立即以 * 模式拉取一次")
	}

	// filter keystrokes are debounced; the eventual fetch is a reset with
	// the wrapped pattern, discarding the prior accumulation
	e.SetValueFilter("em", false, false)
	e.SetValueFilter("email", false, false)
	snap = waitFor(t, e, "过滤拉取完成", func(s Snapshot) bool {
		return valueSettled(s) && len(s.Value.Pairs) == 1
	})
	if snap.Value.Pairs[0].Field != "email" {
		t.Fatalf("过滤结果不符：%+v", snap.Value.Pairs)
	}
	if fs.callCount("HSCAN user:1 0 *em*") != 0 {
		t.Fatalf("中间击键不应触发拉取")
	}
}

func TestValueScanMore_AppendsUntilExhausted(t *testing.T) {
	fs := newFakeStore()
	fs.addHashPage("h", "*", CursorDone, &FieldPage{Cursor: "7", Pairs: []FieldValue{{Field: "f1", Value: "1"}}})
	fs.addHashPage("h", "*", "7", &FieldPage{Cursor: CursorDone, Pairs: []FieldValue{{Field: "f2", Value: "2"}}})

	e := NewExplorer(nil, nil)
	seedKeyList(t, e, fs, []KeyDescriptor{{Name: "h", Type: TypeHash, TTL: -1}})

	e.SelectKey("h")
	waitFor(t, e, "第一批字段加载完成", func(s Snapshot) bool {
		return valueSettled(s) && len(s.Value.Pairs) == 1
	})

	e.ScanMoreValues()
	snap := waitFor(t, e, "第二批字段加载完成", func(s Snapshot) bool {
		return valueSettled(s) && len(s.Value.Pairs) == 2
	})
	if snap.Value.HasMore {
		t.Fatalf("游标归零后 hasMore 应为 false")
	}

	before := fs.callCount("HSCAN")
	e.ScanMoreValues()
	time.Sleep(20 * time.Millisecond)
	if fs.callCount("HSCAN") != before {
		t.Fatalf("耗尽后不应再发起字段扫描")
	}
}

func TestValueExactFilter_OneBatchBound(t *testing.T) {
	fs := newFakeStore()
	fs.addSetPage("tags", "*", CursorDone, &MemberPage{Cursor: CursorDone, Members: []string{"alpha", "beta"}})
	// server would have more pages, but exact matching is bounded to the
	// first wildcard-wrapped batch
	fs.addSetPage("tags", "*beta*", CursorDone, &MemberPage{Cursor: "55", Members: []string{"beta", "beta-extra"}})

	e := NewExplorer(nil, nil)
	seedKeyList(t, e, fs, []KeyDescriptor{{Name: "tags", Type: TypeSet, TTL: -1}})

	e.SelectKey("tags")
	waitFor(t, e, "集合加载完成", valueSettled)

	e.SetValueFilter("beta", true, true)
	snap := waitFor(t, e, "精确过滤完成", func(s Snapshot) bool {
		return valueSettled(s) && len(s.Value.Members) == 1
	})
	if snap.Value.Members[0] != "beta" {
		t.Fatalf("客户端精确匹配结果不符：%+v", snap.Value.Members)
	}
	if snap.Value.HasMore {
		t.Fatalf("精确过滤后 hasMore 必须强制为 false，即使游标未归零")
	}
}

func TestSelectListKey_OffsetRangeSingleShot(t *testing.T) {
	fs := newFakeStore()
	fs.lists["queue"] = []string{"job-1", "job-2", "job-3"}

	e := NewExplorer(nil, nil)
	seedKeyList(t, e, fs, []KeyDescriptor{{Name: "queue", Type: TypeList, TTL: -1}})

	e.SelectKey("queue")
	snap := waitFor(t, e, "列表加载完成", func(s Snapshot) bool {
		return valueSettled(s) && len(s.Value.Members) == 3
	})
	if snap.Value.HasMore {
		t.Fatalf("列表一次取全后 hasMore 应为 false")
	}
	if fs.callCount("LRANGE queue 0 999") != 1 {
		t.Fatalf("列表应通过显式区间拉取：%v", fs.calls)
	}
	if fs.callCount("SSCAN") != 0 && fs.callCount("HSCAN") != 0 {
		t.Fatalf("列表不应走游标扫描")
	}
}

func TestSelectZSetKey_ScoredPairs(t *testing.T) {
	fs := newFakeStore()
	fs.zsetPages["board|*"] = map[string]*ScoredPage{
		CursorDone: {Cursor: CursorDone, Pairs: []ScoredMember{{Member: "p1", Score: 10.5}, {Member: "p2", Score: 7}}},
	}

	e := NewExplorer(nil, nil)
	seedKeyList(t, e, fs, []KeyDescriptor{{Name: "board", Type: TypeZSet, TTL: -1}})

	e.SelectKey("board")
	snap := waitFor(t, e, "有序集合加载完成", func(s Snapshot) bool {
		return valueSettled(s) && len(s.Value.Scored) == 2
	})
	if snap.Value.Scored[0].Member != "p1" || snap.Value.Scored[0].Score != 10.5 {
		t.Fatalf("有序集合结果不符：%+v", snap.Value.Scored)
	}
}

func TestStaleValueDiscarded_OnKeyChange(t *testing.T) {
	notifyCh := make(chan struct{}, 64)
	fs := newFakeStore()
	fs.hashGate = make(chan struct{})
	fs.addHashPage("slow", "*", CursorDone, &FieldPage{Cursor: CursorDone, Pairs: []FieldValue{{Field: "x", Value: "1"}}})
	fs.strVals["fast"] = "quick"

	e := NewExplorer(nil, func() { notifyCh <- struct{}{} })
	seedKeyList(t, e, fs, []KeyDescriptor{
		{Name: "slow", Type: TypeHash, TTL: -1},
		{Name: "fast", Type: TypeString, TTL: -1},
	})

	e.SelectKey("slow") // hash scan blocks on the gate
	e.SelectKey("fast")
	waitFor(t, e, "新键值加载完成", func(s Snapshot) bool {
		return valueSettled(s) && s.Value.Key == "fast"
	})

	close(fs.hashGate)
	deadline := time.After(2 * time.Second)
	for done := false; !done; {
		select {
		case <-notifyCh:
			if fs.callCount("HSCAN slow") == 1 {
				done = true
			}
		case <-deadline:
			t.Fatalf("等待过期响应处理超时")
		}
	}
	time.Sleep(10 * time.Millisecond)

	snap := e.Snapshot()
	if snap.Value.Key != "fast" || snap.Value.Scalar != "quick" {
		t.Fatalf("过期的哈希响应不得覆盖新选中键的状态：%+v", snap.Value)
	}
	if len(snap.Value.Pairs) != 0 {
		t.Fatalf("字符串键上出现了哈希数据：%+v", snap.Value)
	}
}

func TestValueFetch_UnknownTypeResolvedFromStore(t *testing.T) {
	fs := newFakeStore()
	fs.addKeyPage("*", CursorDone, &KeyPage{Cursor: CursorDone})
	fs.details["orphan"] = KeyDescriptor{Name: "orphan", Type: TypeString, TTL: -1}
	fs.strVals["orphan"] = "found"

	e := NewExplorer(nil, nil)
	e.SwitchContext(testContext(0), fs)
	waitFor(t, e, "初始扫描完成", scanSettled)

	// key not present in the accumulated listing (e.g. direct navigation)
	e.SelectKey("orphan")
	snap := waitFor(t, e, "类型解析并加载完成", func(s Snapshot) bool {
		return valueSettled(s) && s.Value.Scalar == "found"
	})
	if snap.Value.Type != TypeString {
		t.Fatalf("类型未从存储端解析：%+v", snap.Value)
	}
	if !strings.Contains(strings.Join(fs.calls, ";"), "DETAILS orphan") {
		t.Fatalf("应先发出详情查询：%v", fs.calls)
	}
}
