package keyspace

import "testing"

func TestResolveSearch_EmptyInputAlwaysFullScan(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t"} {
		for _, exact := range []bool{false, true} {
			q := ResolveSearch(raw, exact)
			if q.Mode != ModePattern || q.Pattern != "*" {
				t.Fatalf("空输入应退化为全量扫描：raw=%q exact=%v got=%+v", raw, exact, q)
			}
		}
	}
}

func TestResolveSearch_ExactUsesTrimmedInputVerbatim(t *testing.T) {
	q := ResolveSearch("  session:42  ", true)
	if q.Mode != ModeExact || q.Pattern != "session:42" {
		t.Fatalf("精确模式应原样使用去空白后的输入：%+v", q)
	}

	// no glob translation, even for inputs that look like patterns
	q = ResolveSearch("user:*", true)
	if q.Mode != ModeExact || q.Pattern != "user:*" {
		t.Fatalf("精确模式不应做通配转换：%+v", q)
	}
}

func TestResolveSearch_TrailingStarIsPrefixMatch(t *testing.T) {
	q := ResolveSearch("cache:*", false)
	if q.Mode != ModePattern || q.Pattern != "cache:*" {
		t.Fatalf("末尾通配应视为前缀匹配：%+v", q)
	}

	// bare "*" degrades to a full scan
	q = ResolveSearch("*", false)
	if q.Pattern != "*" {
		t.Fatalf("单个 * 应退化为全量扫描：%+v", q)
	}
}

func TestResolveSearch_PlainTextIsSubstringMatch(t *testing.T) {
	q := ResolveSearch("email", false)
	if q.Mode != ModePattern || q.Pattern != "*email*" {
		t.Fatalf("普通文本应两侧加通配：%+v", q)
	}
}
