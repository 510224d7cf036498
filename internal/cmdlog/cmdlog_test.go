package cmdlog

import (
	"fmt"
	"testing"
	"time"
)

func TestLog_RecordAndRecent(t *testing.T) {
	l := New()
	l.Record("SCAN 0 MATCH * COUNT 100", 12*time.Millisecond, nil)
	l.Record("GET foo", time.Millisecond, fmt.Errorf("连接被拒绝"))

	entries := l.Recent()
	if len(entries) != 2 {
		t.Fatalf("记录条数不符：%d", len(entries))
	}
	if !entries[0].Success || entries[0].Command != "SCAN 0 MATCH * COUNT 100" {
		t.Fatalf("首条记录不符：%+v", entries[0])
	}
	if entries[1].Success || entries[1].Error == "" {
		t.Fatalf("失败记录应携带错误：%+v", entries[1])
	}
}

func TestLog_RingDropsOldest(t *testing.T) {
	l := New()
	for i := 0; i < maxEntries+10; i++ {
		l.Record(fmt.Sprintf("CMD %d", i), 0, nil)
	}

	entries := l.Recent()
	if len(entries) != maxEntries {
		t.Fatalf("环形缓冲大小不符：%d", len(entries))
	}
	if entries[0].Command != "CMD 10" {
		t.Fatalf("最旧记录应被覆盖：%+v", entries[0])
	}
	if entries[len(entries)-1].Command != fmt.Sprintf("CMD %d", maxEntries+9) {
		t.Fatalf("最新记录不符：%+v", entries[len(entries)-1])
	}
}
