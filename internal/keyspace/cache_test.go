package keyspace

import (
	"testing"
	"time"
)

func TestCache_ContextIsolation(t *testing.T) {
	c := NewCache()
	a := c.Entry(ContextKey{ConnectionID: "conn-a", Database: 0})
	b := c.Entry(ContextKey{ConnectionID: "conn-a", Database: 1})

	a.Keys.Accumulated = makeKeys("a:", 5)
	a.Prefs.SearchText = "a:*"

	if len(b.Keys.Accumulated) != 0 || b.Prefs.SearchText != "" {
		t.Fatalf("不同上下文之间发生了状态泄漏：%+v", b)
	}
	if got := c.Entry(ContextKey{ConnectionID: "conn-a", Database: 0}); got != a {
		t.Fatalf("同一上下文应返回同一份状态")
	}
}

func TestCache_FreshEntryDefaults(t *testing.T) {
	c := NewCache()
	e := c.Entry(ContextKey{ConnectionID: "x", Database: 3})
	if e.Keys.Cursor != CursorDone || !e.Keys.HasMore || len(e.Keys.Accumulated) != 0 {
		t.Fatalf("新建状态默认值不符：%+v", e.Keys)
	}
	if e.Prefs.Delimiter != ":" {
		t.Fatalf("默认分隔符应为冒号：%q", e.Prefs.Delimiter)
	}
}

func TestCache_Evict(t *testing.T) {
	c := NewCache()
	key := ContextKey{ConnectionID: "x", Database: 0}
	c.Entry(key).Prefs.SearchText = "foo"
	c.Evict(key)
	if _, ok := c.Peek(key); ok {
		t.Fatalf("显式淘汰后不应再能查到条目")
	}
}

func TestResumeContext_ReturnsCachedStateWithoutNetwork(t *testing.T) {
	fs := newFakeStore()
	fs.addKeyPage("*", CursorDone, &KeyPage{Cursor: CursorDone, Keys: makeKeys("k", 6)})

	cache := NewCache()
	ctx := testContext(0)

	e := NewExplorer(cache, nil)
	e.ResumeContext(ctx, fs) // first view: triggers the initial scan
	waitFor(t, e, "初始扫描完成", func(s Snapshot) bool {
		return !s.Keys.Loading && len(s.Keys.Accumulated) == 6
	})
	before := fs.callCount("SCAN")

	// view closed and reopened: exact prior state, zero network calls
	e2 := NewExplorer(cache, nil)
	e2.ResumeContext(ctx, fs)
	time.Sleep(20 * time.Millisecond)

	snap := e2.Snapshot()
	if len(snap.Keys.Accumulated) != 6 {
		t.Fatalf("重开视图未返回缓存状态：%+v", snap.Keys)
	}
	if fs.callCount("SCAN") != before {
		t.Fatalf("重开视图不应产生网络请求")
	}
}

func TestSwitchContext_AlwaysRescans(t *testing.T) {
	fs := newFakeStore()
	fs.addKeyPage("*", CursorDone, &KeyPage{Cursor: CursorDone, Keys: makeKeys("k", 2)})

	cache := NewCache()
	ctx := testContext(0)

	e := NewExplorer(cache, nil)
	e.SwitchContext(ctx, fs)
	waitFor(t, e, "第一次扫描完成", scanSettled)
	before := fs.callCount("SCAN")

	// identity change is an unconditional reset step, cached or not
	e.SwitchContext(testContext(1), fs)
	waitFor(t, e, "新库扫描完成", scanSettled)
	e.SwitchContext(ctx, fs)
	waitFor(t, e, "回切扫描完成", scanSettled)

	if fs.callCount("SCAN") != before+2 {
		t.Fatalf("库切换应各触发一次重置扫描：before=%d now=%d", before, fs.callCount("SCAN"))
	}
}
