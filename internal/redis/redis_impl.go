package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"KeyNavi-Wails/internal/connection"
	"KeyNavi-Wails/internal/keyspace"
	"KeyNavi-Wails/internal/logger"
	"KeyNavi-Wails/internal/ssh"

	"github.com/redis/go-redis/v9"
)

// clientImpl implements Client using go-redis
type clientImpl struct {
	client    *redis.Client
	config    connection.ConnectionConfig
	currentDB int
	forwarder *ssh.LocalForwarder
	monitor   keyspace.Monitor
}

// NewClient creates a new Redis client instance. monitor may be nil; when
// set it receives one record per issued command.
func NewClient(monitor keyspace.Monitor) Client {
	return &clientImpl{monitor: monitor}
}

// observe reports one finished command to the monitor.
func (r *clientImpl) observe(command string, started time.Time, err error) {
	if r.monitor != nil {
		r.monitor.Record(command, time.Since(started), err)
	}
}

// Connect establishes a connection to Redis
func (r *clientImpl) Connect(config connection.ConnectionConfig) error {
	r.config = config
	r.currentDB = config.RedisDB

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	// Handle SSH tunnel if enabled
	if config.UseSSH {
		forwarder, err := ssh.GetOrCreateLocalForwarder(config.SSH, config.Host, config.Port)
		if err != nil {
			return fmt.Errorf("创建 SSH 隧道失败：%w", err)
		}
		r.forwarder = forwarder
		addr = forwarder.LocalAddr
		logger.Infof("Redis 通过 SSH 隧道连接：%s -> %s:%d", addr, config.Host, config.Port)
	}

	opts := &redis.Options{
		Addr:         addr,
		Password:     config.Password,
		DB:           config.RedisDB,
		DialTimeout:  time.Duration(config.Timeout) * time.Second,
		ReadTimeout:  time.Duration(config.Timeout) * time.Second,
		WriteTimeout: time.Duration(config.Timeout) * time.Second,
	}

	if opts.DialTimeout == 0 {
		opts.DialTimeout = 30 * time.Second
		opts.ReadTimeout = 30 * time.Second
		opts.WriteTimeout = 30 * time.Second
	}

	r.client = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		r.client.Close()
		r.client = nil
		return fmt.Errorf("Redis 连接失败：%w", err)
	}

	logger.Infof("Redis 连接成功：%s DB=%d", addr, config.RedisDB)
	return nil
}

// Close closes the Redis connection
func (r *clientImpl) Close() error {
	if r.client != nil {
		err := r.client.Close()
		r.client = nil
		return err
	}
	return nil
}

// Ping tests the connection
func (r *clientImpl) Ping() error {
	if r.client == nil {
		return fmt.Errorf("Redis 客户端未连接")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

// CurrentDB returns the logical database this client is bound to.
func (r *clientImpl) CurrentDB() int {
	return r.currentDB
}

// parseCursor converts the opaque string cursor of the keyspace boundary to
// the integer form the wire protocol uses.
func parseCursor(cursor string) (uint64, error) {
	if cursor == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(cursor, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("无效的扫描游标：%q", cursor)
	}
	return n, nil
}

func formatCursor(cursor uint64) string {
	return strconv.FormatUint(cursor, 10)
}

// ScanKeys scans one page of keys matching pattern, enriching each key with
// type and TTL via a pipeline.
func (r *clientImpl) ScanKeys(cursor, pattern string, count int64) (*keyspace.KeyPage, error) {
	if r.client == nil {
		return nil, fmt.Errorf("Redis 客户端未连接")
	}

	cur, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		pattern = "*"
	}
	if count <= 0 {
		count = keyspace.DefaultPageSize
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	started := time.Now()
	keys, nextCursor, err := r.client.Scan(ctx, cur, pattern, count).Result()
	r.observe(fmt.Sprintf("SCAN %s MATCH %s COUNT %d", cursor, pattern, count), started, err)
	if err != nil {
		return nil, err
	}

	page := &keyspace.KeyPage{
		Cursor: formatCursor(nextCursor),
		Keys:   make([]keyspace.KeyDescriptor, 0, len(keys)),
	}

	// Get type and TTL for each key in one round trip
	pipe := r.client.Pipeline()
	typeResults := make([]*redis.StatusCmd, len(keys))
	ttlResults := make([]*redis.DurationCmd, len(keys))
	for i, key := range keys {
		typeResults[i] = pipe.Type(ctx, key)
		ttlResults[i] = pipe.TTL(ctx, key)
	}

	started = time.Now()
	_, err = pipe.Exec(ctx)
	r.observe(fmt.Sprintf("PIPELINE TYPE/TTL ×%d", len(keys)), started, err)
	if err != nil && err != redis.Nil {
		// Fallback: descriptors without metadata; the detail fetch on
		// selection fills them in
		for _, key := range keys {
			page.Keys = append(page.Keys, keyspace.KeyDescriptor{Name: key, TTL: -1})
		}
		return page, nil
	}

	for i, key := range keys {
		page.Keys = append(page.Keys, keyspace.KeyDescriptor{
			Name: key,
			Type: typeResults[i].Val(),
			TTL:  ttlSeconds(ttlResults[i].Val()),
		})
	}
	return page, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	if ttl == -1 {
		return -1 // No expiry
	}
	if ttl == -2 {
		return -2 // Key doesn't exist
	}
	return int64(ttl.Seconds())
}

// KeyExists checks if a key exists
func (r *clientImpl) KeyExists(name string) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("Redis 客户端未连接")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	started := time.Now()
	n, err := r.client.Exists(ctx, name).Result()
	r.observe("EXISTS "+name, started, err)
	return n > 0, err
}

// GetKeyDetails fetches full descriptors (type, TTL, approximate memory
// usage) for the given keys in one pipeline.
func (r *clientImpl) GetKeyDetails(names []string) ([]keyspace.KeyDescriptor, error) {
	if r.client == nil {
		return nil, fmt.Errorf("Redis 客户端未连接")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pipe := r.client.Pipeline()
	typeResults := make([]*redis.StatusCmd, len(names))
	ttlResults := make([]*redis.DurationCmd, len(names))
	memResults := make([]*redis.IntCmd, len(names))
	for i, name := range names {
		typeResults[i] = pipe.Type(ctx, name)
		ttlResults[i] = pipe.TTL(ctx, name)
		memResults[i] = pipe.MemoryUsage(ctx, name)
	}

	started := time.Now()
	_, err := pipe.Exec(ctx)
	r.observe(fmt.Sprintf("PIPELINE TYPE/TTL/MEMORY %s", strings.Join(names, ",")), started, err)
	if err != nil && err != redis.Nil {
		return nil, err
	}

	descs := make([]keyspace.KeyDescriptor, 0, len(names))
	for i, name := range names {
		desc := keyspace.KeyDescriptor{
			Name: name,
			Type: typeResults[i].Val(),
			TTL:  ttlSeconds(ttlResults[i].Val()),
		}
		if memResults[i].Err() == nil {
			size := memResults[i].Val()
			desc.SizeBytes = &size
		}
		descs = append(descs, desc)
	}
	return descs, nil
}

// GetString gets a string value
func (r *clientImpl) GetString(name string) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("Redis 客户端未连接")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	started := time.Now()
	val, err := r.client.Get(ctx, name).Result()
	r.observe("GET "+name, started, err)
	return val, err
}

// ScanHashFields scans one page of hash fields matching pattern
func (r *clientImpl) ScanHashFields(name, cursor, pattern string, count int64) (*keyspace.FieldPage, error) {
	if r.client == nil {
		return nil, fmt.Errorf("Redis 客户端未连接")
	}
	cur, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		pattern = "*"
	}
	if count <= 0 {
		count = keyspace.DefaultPageSize
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	started := time.Now()
	flat, nextCursor, err := r.client.HScan(ctx, name, cur, pattern, count).Result()
	r.observe(fmt.Sprintf("HSCAN %s %s MATCH %s COUNT %d", name, cursor, pattern, count), started, err)
	if err != nil {
		return nil, err
	}

	page := &keyspace.FieldPage{Cursor: formatCursor(nextCursor)}
	for i := 0; i+1 < len(flat); i += 2 {
		page.Pairs = append(page.Pairs, keyspace.FieldValue{Field: flat[i], Value: flat[i+1]})
	}
	return page, nil
}

// ScanSetMembers scans one page of set members matching pattern
func (r *clientImpl) ScanSetMembers(name, cursor, pattern string, count int64) (*keyspace.MemberPage, error) {
	if r.client == nil {
		return nil, fmt.Errorf("Redis 客户端未连接")
	}
	cur, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		pattern = "*"
	}
	if count <= 0 {
		count = keyspace.DefaultPageSize
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	started := time.Now()
	members, nextCursor, err := r.client.SScan(ctx, name, cur, pattern, count).Result()
	r.observe(fmt.Sprintf("SSCAN %s %s MATCH %s COUNT %d", name, cursor, pattern, count), started, err)
	if err != nil {
		return nil, err
	}

	return &keyspace.MemberPage{
		Cursor:  formatCursor(nextCursor),
		Members: members,
	}, nil
}

// ScanSortedSetMembers scans one page of sorted-set members matching
// pattern. ZSCAN returns members and scores alternating.
func (r *clientImpl) ScanSortedSetMembers(name, cursor, pattern string, count int64) (*keyspace.ScoredPage, error) {
	if r.client == nil {
		return nil, fmt.Errorf("Redis 客户端未连接")
	}
	cur, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		pattern = "*"
	}
	if count <= 0 {
		count = keyspace.DefaultPageSize
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	started := time.Now()
	flat, nextCursor, err := r.client.ZScan(ctx, name, cur, pattern, count).Result()
	r.observe(fmt.Sprintf("ZSCAN %s %s MATCH %s COUNT %d", name, cursor, pattern, count), started, err)
	if err != nil {
		return nil, err
	}

	page := &keyspace.ScoredPage{Cursor: formatCursor(nextCursor)}
	for i := 0; i+1 < len(flat); i += 2 {
		score, perr := strconv.ParseFloat(flat[i+1], 64)
		if perr != nil {
			return nil, fmt.Errorf("解析 zset 分数失败：%q：%w", flat[i+1], perr)
		}
		page.Pairs = append(page.Pairs, keyspace.ScoredMember{Member: flat[i], Score: score})
	}
	return page, nil
}

// ListRange gets a range of elements from a list
func (r *clientImpl) ListRange(name string, start, stop int64) ([]string, error) {
	if r.client == nil {
		return nil, fmt.Errorf("Redis 客户端未连接")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	started := time.Now()
	items, err := r.client.LRange(ctx, name, start, stop).Result()
	r.observe(fmt.Sprintf("LRANGE %s %d %d", name, start, stop), started, err)
	return items, err
}

// DeleteKey deletes one key
func (r *clientImpl) DeleteKey(name string) error {
	if r.client == nil {
		return fmt.Errorf("Redis 客户端未连接")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	started := time.Now()
	err := r.client.Del(ctx, name).Err()
	r.observe("DEL "+name, started, err)
	return err
}

// SetString sets a string value with optional TTL
func (r *clientImpl) SetString(key, value string, ttl int64) error {
	if r.client == nil {
		return fmt.Errorf("Redis 客户端未连接")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var expiration time.Duration
	if ttl > 0 {
		expiration = time.Duration(ttl) * time.Second
	}

	started := time.Now()
	err := r.client.Set(ctx, key, value, expiration).Err()
	r.observe("SET "+key, started, err)
	return err
}

// SetTTL sets the TTL of a key; a negative ttl removes the expiry
func (r *clientImpl) SetTTL(key string, ttl int64) error {
	if r.client == nil {
		return fmt.Errorf("Redis 客户端未连接")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	started := time.Now()
	var err error
	if ttl < 0 {
		err = r.client.Persist(ctx, key).Err()
		r.observe("PERSIST "+key, started, err)
	} else {
		err = r.client.Expire(ctx, key, time.Duration(ttl)*time.Second).Err()
		r.observe(fmt.Sprintf("EXPIRE %s %d", key, ttl), started, err)
	}
	return err
}

// RenameKey renames a key
func (r *clientImpl) RenameKey(oldKey, newKey string) error {
	if r.client == nil {
		return fmt.Errorf("Redis 客户端未连接")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	started := time.Now()
	err := r.client.Rename(ctx, oldKey, newKey).Err()
	r.observe(fmt.Sprintf("RENAME %s %s", oldKey, newKey), started, err)
	return err
}

// GetDatabases returns per-database key counts parsed from INFO keyspace
func (r *clientImpl) GetDatabases() ([]DBInfo, error) {
	if r.client == nil {
		return nil, fmt.Errorf("Redis 客户端未连接")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	started := time.Now()
	info, err := r.client.Info(ctx, "keyspace").Result()
	r.observe("INFO keyspace", started, err)
	if err != nil {
		return nil, err
	}

	dbMap := parseKeyspaceInfo(info)

	// Return all 16 databases (0-15)
	result := make([]DBInfo, 16)
	for i := 0; i < 16; i++ {
		result[i] = DBInfo{Index: i, Keys: dbMap[i]}
	}
	return result, nil
}

// parseKeyspaceInfo extracts key counts from INFO keyspace output.
// Format per line: db0:keys=123,expires=0,avg_ttl=0
func parseKeyspaceInfo(info string) map[int]int64 {
	dbMap := make(map[int]int64)
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "db") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		dbIndex, err := strconv.Atoi(strings.TrimPrefix(parts[0], "db"))
		if err != nil {
			continue
		}
		for _, kv := range strings.Split(parts[1], ",") {
			if strings.HasPrefix(kv, "keys=") {
				keys, _ := strconv.ParseInt(strings.TrimPrefix(kv, "keys="), 10, 64)
				dbMap[dbIndex] = keys
				break
			}
		}
	}
	return dbMap
}
