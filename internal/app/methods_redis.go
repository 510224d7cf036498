package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"KeyNavi-Wails/internal/connection"
	"KeyNavi-Wails/internal/keyspace"
	"KeyNavi-Wails/internal/logger"
	"KeyNavi-Wails/internal/redis"
)

// Redis client cache
var (
	redisCache   = make(map[string]redis.Client)
	redisCacheMu sync.Mutex
)

// getRedisClient gets or creates a Redis client from cache
func (a *App) getRedisClient(config connection.ConnectionConfig) (redis.Client, string, error) {
	key := getRedisClientCacheKey(config)
	shortKey := key
	if len(shortKey) > 12 {
		shortKey = shortKey[:12]
	}

	redisCacheMu.Lock()
	defer redisCacheMu.Unlock()

	if client, ok := redisCache[key]; ok {
		if err := client.Ping(); err == nil {
			return client, key, nil
		} else {
			logger.Error(err, "缓存 Redis 连接不可用，准备重建：缓存Key=%s", shortKey)
		}
		client.Close()
		delete(redisCache, key)
	}

	logger.Infof("创建 Redis 客户端实例：缓存Key=%s", shortKey)
	client := redis.NewClient(a.cmdLog)
	if err := client.Connect(config); err != nil {
		logger.Error(err, "Redis 连接失败：地址=%s:%d DB=%d 缓存Key=%s", config.Host, config.Port, config.RedisDB, shortKey)
		return nil, "", err
	}

	redisCache[key] = client
	logger.Infof("Redis 连接成功并写入缓存：缓存Key=%s", shortKey)
	return client, key, nil
}

func getRedisClientCacheKey(config connection.ConnectionConfig) string {
	if !config.UseSSH {
		config.SSH = connection.SSHConfig{}
	}
	// clients are pinned to one logical database, so RedisDB stays part of
	// the identity
	b, _ := json.Marshal(config)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// RedisConnect tests a Redis connection
func (a *App) RedisConnect(config connection.ConnectionConfig) connection.QueryResult {
	config.Type = "redis"
	_, _, err := a.getRedisClient(config)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}
	return connection.QueryResult{Success: true, Message: "连接成功"}
}

// RedisTestConnection tests a Redis connection (alias for RedisConnect)
func (a *App) RedisTestConnection(config connection.ConnectionConfig) connection.QueryResult {
	return a.RedisConnect(config)
}

// attachExplorer resolves the client and context key for config and hands
// them to the explorer. rescan decides between the identity-change path
// (unconditional rescan) and the remount path (cached state, no network).
func (a *App) attachExplorer(config connection.ConnectionConfig, rescan bool) connection.QueryResult {
	config.Type = "redis"
	client, cacheKey, err := a.getRedisClient(config)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	key := keyspace.ContextKey{ConnectionID: cacheKey, Database: config.RedisDB}
	if rescan {
		a.explorer.SwitchContext(key, client)
	} else {
		a.explorer.ResumeContext(key, client)
	}
	return connection.QueryResult{Success: true, Data: a.explorer.Snapshot()}
}

// RedisOpenView attaches the key browser to a connection/database identity.
// Always rescans, even when the context was explored before.
func (a *App) RedisOpenView(config connection.ConnectionConfig) connection.QueryResult {
	return a.attachExplorer(config, true)
}

// RedisResumeView reattaches after a view remount: previously explored
// contexts come back from cache without touching the server.
func (a *App) RedisResumeView(config connection.ConnectionConfig) connection.QueryResult {
	return a.attachExplorer(config, false)
}

// RedisSwitchDB switches the logical database within the same connection.
func (a *App) RedisSwitchDB(config connection.ConnectionConfig, dbIndex int) connection.QueryResult {
	config.RedisDB = dbIndex
	return a.attachExplorer(config, true)
}

// RedisSearch applies a key search text change. immediate bypasses the
// debounce (Enter key or explicit search action).
func (a *App) RedisSearch(text string, exact bool, immediate bool) connection.QueryResult {
	a.explorer.SetSearch(text, exact, immediate)
	return connection.QueryResult{Success: true}
}

// RedisScanMore loads the next page of keys.
func (a *App) RedisScanMore() connection.QueryResult {
	a.explorer.ScanMore()
	return connection.QueryResult{Success: true}
}

// RedisSelectKey loads the value panel for a key.
func (a *App) RedisSelectKey(key string) connection.QueryResult {
	a.explorer.SelectKey(key)
	return connection.QueryResult{Success: true}
}

// RedisValueFilter applies a member/field filter for the selected key.
func (a *App) RedisValueFilter(text string, exact bool, immediate bool) connection.QueryResult {
	a.explorer.SetValueFilter(text, exact, immediate)
	return connection.QueryResult{Success: true}
}

// RedisScanMoreValues loads the next member/field page for the selected key.
func (a *App) RedisScanMoreValues() connection.QueryResult {
	a.explorer.ScanMoreValues()
	return connection.QueryResult{Success: true}
}

// RedisSetDelimiter changes the tree grouping delimiter.
func (a *App) RedisSetDelimiter(delim string) connection.QueryResult {
	a.explorer.SetDelimiter(delim)
	return connection.QueryResult{Success: true}
}

// RedisSetTreeView toggles tree/flat key presentation.
func (a *App) RedisSetTreeView(enabled bool) connection.QueryResult {
	a.explorer.SetTreeView(enabled)
	return connection.QueryResult{Success: true}
}

// RedisGetSnapshot returns the current explorer state for rendering.
func (a *App) RedisGetSnapshot() connection.QueryResult {
	return connection.QueryResult{Success: true, Data: a.explorer.Snapshot()}
}

// RedisDeleteKey deletes a key and removes it from the listing.
func (a *App) RedisDeleteKey(key string) connection.QueryResult {
	if err := a.explorer.DeleteKey(key); err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}
	return connection.QueryResult{Success: true, Message: "删除成功"}
}

// RedisGetDatabases returns information about all databases
func (a *App) RedisGetDatabases(config connection.ConnectionConfig) connection.QueryResult {
	config.Type = "redis"
	client, _, err := a.getRedisClient(config)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	dbs, err := client.GetDatabases()
	if err != nil {
		logger.Error(err, "RedisGetDatabases 获取失败")
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	return connection.QueryResult{Success: true, Data: dbs}
}

// RedisSetString sets a string value
func (a *App) RedisSetString(config connection.ConnectionConfig, key, value string, ttl int64) connection.QueryResult {
	config.Type = "redis"
	client, _, err := a.getRedisClient(config)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	if err := client.SetString(key, value, ttl); err != nil {
		logger.Error(err, "RedisSetString 设置失败：key=%s", key)
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	return connection.QueryResult{Success: true, Message: "设置成功"}
}

// RedisSetTTL sets the TTL of a key
func (a *App) RedisSetTTL(config connection.ConnectionConfig, key string, ttl int64) connection.QueryResult {
	config.Type = "redis"
	client, _, err := a.getRedisClient(config)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	if err := client.SetTTL(key, ttl); err != nil {
		logger.Error(err, "RedisSetTTL 设置失败：key=%s ttl=%d", key, ttl)
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	return connection.QueryResult{Success: true, Message: "设置成功"}
}

// RedisRenameKey renames a key
func (a *App) RedisRenameKey(config connection.ConnectionConfig, oldKey, newKey string) connection.QueryResult {
	config.Type = "redis"
	client, _, err := a.getRedisClient(config)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	if err := client.RenameKey(oldKey, newKey); err != nil {
		logger.Error(err, "RedisRenameKey 重命名失败：%s -> %s", oldKey, newKey)
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	return connection.QueryResult{Success: true, Message: "重命名成功"}
}

// GetCommandLog returns the recent store command history.
func (a *App) GetCommandLog() connection.QueryResult {
	return connection.QueryResult{Success: true, Data: a.cmdLog.Recent()}
}

// CloseAllRedisClients closes all cached Redis clients (called on shutdown)
func CloseAllRedisClients() {
	redisCacheMu.Lock()
	defer redisCacheMu.Unlock()

	for key, client := range redisCache {
		if client != nil {
			client.Close()
			logger.Infof("已关闭 Redis 连接：%s", key[:12])
		}
	}
	redisCache = make(map[string]redis.Client)
}
