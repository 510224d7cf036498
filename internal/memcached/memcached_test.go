package memcached

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"io"
	"strings"
	"testing"
)

func newTestRW(payload string) *bufio.ReadWriter {
	return bufio.NewReadWriter(bufio.NewReader(strings.NewReader(payload)), bufio.NewWriter(io.Discard))
}

func TestReadSlabIDs(t *testing.T) {
	payload := "STAT items:1:number 3\r\n" +
		"STAT items:1:age 100\r\n" +
		"STAT items:5:number 1\r\n" +
		"STAT items:5:evicted 0\r\n" +
		"END\r\n"

	slabs, err := readSlabIDs(newTestRW(payload))
	if err != nil {
		t.Fatalf("解析 stats items 失败：%v", err)
	}
	if len(slabs) != 2 || slabs[0] != 1 || slabs[1] != 5 {
		t.Fatalf("slab 列表不符：%v", slabs)
	}
}

func TestReadCachedump(t *testing.T) {
	payload := "ITEM session:1 [58 b; 1700000000 s]\r\n" +
		"ITEM counter [4 b; 0 s]\r\n" +
		"END\r\n"

	keys, err := readCachedump(newTestRW(payload), 1)
	if err != nil {
		t.Fatalf("解析 cachedump 失败：%v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("键数量不符：%+v", keys)
	}
	if keys[0].Key != "session:1" || keys[0].SizeBytes != 58 || keys[0].Expiration != 1700000000 {
		t.Fatalf("首条键信息不符：%+v", keys[0])
	}
	if keys[1].Key != "counter" || keys[1].SizeBytes != 4 || keys[1].Expiration != 0 {
		t.Fatalf("次条键信息不符：%+v", keys[1])
	}
}

func TestReadCachedump_ServerRefused(t *testing.T) {
	payload := "CLIENT_ERROR stats cachedump not allowed\r\n"
	if _, err := readCachedump(newTestRW(payload), 1); err == nil {
		t.Fatalf("服务端拒绝时应报错")
	}
}

func TestParseItemLine_Malformed(t *testing.T) {
	if _, ok := parseItemLine("STAT uptime 10"); ok {
		t.Fatalf("非 ITEM 行不应解析")
	}
	if _, ok := parseItemLine("ITEM"); ok {
		t.Fatalf("缺少键名的行不应解析")
	}
	info, ok := parseItemLine("ITEM bare-key")
	if !ok || info.Key != "bare-key" || info.SizeBytes != 0 {
		t.Fatalf("仅含键名的行应解析为零值元数据：%+v", info)
	}
}

func TestMaybeInflate(t *testing.T) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write([]byte("hello memcached")); err != nil {
		t.Fatalf("压缩失败：%v", err)
	}
	w.Close()

	if got := string(maybeInflate(buf.Bytes())); got != "hello memcached" {
		t.Fatalf("解压结果不符：%q", got)
	}
	if got := string(maybeInflate([]byte("plain text"))); got != "plain text" {
		t.Fatalf("非压缩数据应原样返回：%q", got)
	}
}
