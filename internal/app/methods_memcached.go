package app

import (
	"sync"

	"KeyNavi-Wails/internal/connection"
	"KeyNavi-Wails/internal/logger"
	"KeyNavi-Wails/internal/memcached"
)

// Memcached client cache
var (
	memcachedCache   = make(map[string]*memcached.Client)
	memcachedCacheMu sync.Mutex
)

func (a *App) getMemcachedClient(config connection.ConnectionConfig) (*memcached.Client, error) {
	key := getCacheKey(config)

	memcachedCacheMu.Lock()
	defer memcachedCacheMu.Unlock()

	if client, ok := memcachedCache[key]; ok {
		if err := client.Ping(); err == nil {
			return client, nil
		}
		client.Close()
		delete(memcachedCache, key)
	}

	client, err := memcached.NewClient(config)
	if err != nil {
		return nil, err
	}
	memcachedCache[key] = client
	return client, nil
}

// MemcachedConnect tests a Memcached connection.
func (a *App) MemcachedConnect(config connection.ConnectionConfig) connection.QueryResult {
	config.Type = "memcached"
	if _, err := a.getMemcachedClient(config); err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}
	return connection.QueryResult{Success: true, Message: "连接成功"}
}

// MemcachedGetKeys dumps keys, filtered by case-insensitive substring.
func (a *App) MemcachedGetKeys(config connection.ConnectionConfig, filter string) connection.QueryResult {
	config.Type = "memcached"
	client, err := a.getMemcachedClient(config)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	keys, err := client.ListKeys(filter)
	if err != nil {
		logger.Error(err, "MemcachedGetKeys 获取失败：filter=%s", filter)
		return connection.QueryResult{Success: false, Message: err.Error()}
	}
	return connection.QueryResult{Success: true, Data: keys}
}

// MemcachedGetValue fetches one value, inflating zlib payloads.
func (a *App) MemcachedGetValue(config connection.ConnectionConfig, key string) connection.QueryResult {
	config.Type = "memcached"
	client, err := a.getMemcachedClient(config)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	value, found, err := client.Get(key)
	if err != nil {
		logger.Error(err, "MemcachedGetValue 获取失败：key=%s", key)
		return connection.QueryResult{Success: false, Message: err.Error()}
	}
	if !found {
		return connection.QueryResult{Success: true, Data: nil, Message: "键不存在"}
	}
	return connection.QueryResult{Success: true, Data: value}
}

// MemcachedSetValue writes a value with a TTL in seconds (0 = no expiry).
func (a *App) MemcachedSetValue(config connection.ConnectionConfig, key, value string, ttl int32) connection.QueryResult {
	config.Type = "memcached"
	client, err := a.getMemcachedClient(config)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	if err := client.Set(key, value, ttl); err != nil {
		logger.Error(err, "MemcachedSetValue 设置失败：key=%s", key)
		return connection.QueryResult{Success: false, Message: err.Error()}
	}
	return connection.QueryResult{Success: true, Message: "设置成功"}
}

// MemcachedDeleteKey removes a key.
func (a *App) MemcachedDeleteKey(config connection.ConnectionConfig, key string) connection.QueryResult {
	config.Type = "memcached"
	client, err := a.getMemcachedClient(config)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	if err := client.Delete(key); err != nil {
		logger.Error(err, "MemcachedDeleteKey 删除失败：key=%s", key)
		return connection.QueryResult{Success: false, Message: err.Error()}
	}
	return connection.QueryResult{Success: true, Message: "删除成功"}
}

func closeAllMemcachedClients() {
	memcachedCacheMu.Lock()
	defer memcachedCacheMu.Unlock()
	for _, client := range memcachedCache {
		client.Close()
	}
	memcachedCache = make(map[string]*memcached.Client)
}
