// Package memcached provides key browsing and basic editing for Memcached
// servers. The protocol has no key-listing command, so listing walks the
// slab classes over a raw TCP connection (stats items + stats cachedump).
package memcached

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"KeyNavi-Wails/internal/connection"
	"KeyNavi-Wails/internal/logger"

	"github.com/bradfitz/gomemcache/memcache"
)

// cachedumpLimit bounds how many keys a single slab dump returns.
const cachedumpLimit = 100

// KeyInfo describes one dumped key.
type KeyInfo struct {
	Key        string `json:"key"`
	SizeBytes  int64  `json:"sizeBytes"`
	Expiration int64  `json:"expiration"` // Unix timestamp, 0 = never
}

// Client wraps a Memcached server for browsing and editing.
type Client struct {
	mc      *memcache.Client
	addr    string
	timeout time.Duration
}

// NewClient connects to the server described by config and verifies it
// responds to a stats ping.
func NewClient(config connection.ConnectionConfig) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	mc := memcache.New(addr)
	mc.Timeout = timeout
	if err := mc.Ping(); err != nil {
		return nil, fmt.Errorf("连接 Memcached 失败：%w", err)
	}

	return &Client{mc: mc, addr: addr, timeout: timeout}, nil
}

// Close releases the client. gomemcache pools connections internally, so
// there is nothing to tear down beyond dropping the reference.
func (c *Client) Close() error {
	c.mc = nil
	return nil
}

// Ping verifies the server is reachable.
func (c *Client) Ping() error {
	if c.mc == nil {
		return fmt.Errorf("Memcached 客户端未连接")
	}
	return c.mc.Ping()
}

// ListKeys dumps up to cachedumpLimit keys per slab class and filters them
// by case-insensitive substring. An empty filter returns everything dumped.
func (c *Client) ListKeys(filter string) ([]KeyInfo, error) {
	if c.mc == nil {
		return nil, fmt.Errorf("Memcached 客户端未连接")
	}

	keys, err := c.dumpKeys()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(filter))
	out := make([]KeyInfo, 0, len(keys))
	for _, k := range keys {
		if needle == "" || strings.Contains(strings.ToLower(k.Key), needle) {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Get fetches a value. Values written by PHP clients are often
// zlib-compressed; if the payload inflates cleanly the inflated text is
// returned, otherwise the raw bytes are.
func (c *Client) Get(key string) (string, bool, error) {
	if c.mc == nil {
		return "", false, fmt.Errorf("Memcached 客户端未连接")
	}

	item, err := c.mc.Get(key)
	if err == memcache.ErrCacheMiss {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("读取键失败：%w", err)
	}

	return string(maybeInflate(item.Value)), true, nil
}

// Set writes a value with the given TTL in seconds (0 = no expiry).
func (c *Client) Set(key, value string, ttl int32) error {
	if c.mc == nil {
		return fmt.Errorf("Memcached 客户端未连接")
	}
	err := c.mc.Set(&memcache.Item{Key: key, Value: []byte(value), Expiration: ttl})
	if err != nil {
		return fmt.Errorf("写入键失败：%w", err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (c *Client) Delete(key string) error {
	if c.mc == nil {
		return fmt.Errorf("Memcached 客户端未连接")
	}
	err := c.mc.Delete(key)
	if err != nil && err != memcache.ErrCacheMiss {
		return fmt.Errorf("删除键失败：%w", err)
	}
	return nil
}

// dumpKeys walks slab classes over a raw TCP connection. cachedump is a
// legacy command, but it remains the only way to enumerate keys.
func (c *Client) dumpKeys() ([]KeyInfo, error) {
	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("连接 Memcached 失败：%w", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))

	slabs, err := readSlabIDs(rw)
	if err != nil {
		return nil, err
	}

	var keys []KeyInfo
	for _, slab := range slabs {
		dumped, err := readCachedump(rw, slab)
		if err != nil {
			logger.Warnf("slab %d cachedump 失败：%v", slab, err)
			continue
		}
		keys = append(keys, dumped...)
	}
	return keys, nil
}

func readSlabIDs(rw *bufio.ReadWriter) ([]int, error) {
	if _, err := rw.WriteString("stats items\r\n"); err != nil {
		return nil, err
	}
	if err := rw.Flush(); err != nil {
		return nil, err
	}

	seen := map[int]bool{}
	var slabs []int
	for {
		line, err := rw.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("读取 stats items 失败：%w", err)
		}
		line = strings.TrimSpace(line)
		if line == "END" {
			break
		}
		if line == "" {
			continue
		}
		// STAT items:1:number 1
		if !strings.HasPrefix(line, "STAT items:") {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) < 2 {
			continue
		}
		id, err := strconv.Atoi(parts[1])
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		slabs = append(slabs, id)
	}
	sort.Ints(slabs)
	return slabs, nil
}

func readCachedump(rw *bufio.ReadWriter, slab int) ([]KeyInfo, error) {
	if _, err := fmt.Fprintf(rw, "stats cachedump %d %d\r\n", slab, cachedumpLimit); err != nil {
		return nil, err
	}
	if err := rw.Flush(); err != nil {
		return nil, err
	}

	var keys []KeyInfo
	for {
		line, err := rw.ReadString('\n')
		if err != nil {
			return keys, fmt.Errorf("读取 cachedump 失败：%w", err)
		}
		line = strings.TrimSpace(line)
		if line == "END" {
			return keys, nil
		}
		if strings.HasPrefix(line, "ERROR") || strings.HasPrefix(line, "CLIENT_ERROR") {
			return keys, fmt.Errorf("服务端拒绝 cachedump：%s", line)
		}
		if info, ok := parseItemLine(line); ok {
			keys = append(keys, info)
		}
	}
}

// parseItemLine parses "ITEM key [123 b; 1700000000 s]".
func parseItemLine(line string) (KeyInfo, bool) {
	if !strings.HasPrefix(line, "ITEM ") {
		return KeyInfo{}, false
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return KeyInfo{}, false
	}

	info := KeyInfo{Key: fields[1]}
	// [123 b; 1700000000 s]
	if len(fields) >= 6 {
		if size, err := strconv.ParseInt(strings.TrimPrefix(fields[2], "["), 10, 64); err == nil {
			info.SizeBytes = size
		}
		if exp, err := strconv.ParseInt(fields[4], 10, 64); err == nil {
			info.Expiration = exp
		}
	}
	return info, true
}

// maybeInflate returns the zlib-inflated payload when b is a valid zlib
// stream, otherwise b unchanged.
func maybeInflate(b []byte) []byte {
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return b
	}
	defer r.Close()
	inflated, err := io.ReadAll(r)
	if err != nil {
		return b
	}
	return inflated
}
