package app

import (
	"context"
	"fmt"
	"sync"

	"KeyNavi-Wails/internal/cmdlog"
	"KeyNavi-Wails/internal/connection"
	"KeyNavi-Wails/internal/connstore"
	"KeyNavi-Wails/internal/db"
	"KeyNavi-Wails/internal/keyspace"
	"KeyNavi-Wails/internal/logger"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// keyspaceUpdatedEvent is emitted to the frontend after every applied
// explorer event; the frontend answers by pulling a fresh snapshot.
const keyspaceUpdatedEvent = "keyspace:updated"

// App struct
type App struct {
	ctx     context.Context
	dbCache map[string]db.Database // Cache for DB connections
	mu      sync.Mutex             // Mutex for cache access

	connStore *connstore.Store
	cmdLog    *cmdlog.Log
	explorer  *keyspace.Explorer
}

// NewApp creates a new App application struct
func NewApp() *App {
	a := &App{
		dbCache: make(map[string]db.Database),
		cmdLog:  cmdlog.New(),
	}
	a.explorer = keyspace.NewExplorer(keyspace.NewCache(), a.emitKeyspaceUpdated)
	return a
}

// Startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	path, err := connstore.DefaultPath()
	if err == nil {
		a.connStore, err = connstore.Open(path)
	}
	if err != nil {
		logger.Error(err, "打开连接配置库失败，已保存的连接不可用")
	}
}

// Shutdown is called when the app terminates
func (a *App) Shutdown(ctx context.Context) {
	a.mu.Lock()
	for _, dbInst := range a.dbCache {
		dbInst.Close()
	}
	a.mu.Unlock()

	CloseAllRedisClients()
	closeAllMemcachedClients()

	if a.connStore != nil {
		a.connStore.Close()
	}
}

// emitKeyspaceUpdated signals the frontend that explorer state changed. It
// runs under the explorer mutex, so it must not call back into the explorer.
func (a *App) emitKeyspaceUpdated() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, keyspaceUpdatedEvent)
}

// Helper: Generate a unique key for the connection config
func getCacheKey(config connection.ConnectionConfig) string {
	return fmt.Sprintf("%s|%s|%s:%d|%s|%s|%v", config.Type, config.User, config.Host, config.Port, config.Database, config.SSH.Host, config.UseSSH)
}

// Helper: Get or create a database connection
func (a *App) getDatabase(config connection.ConnectionConfig) (db.Database, error) {
	key := getCacheKey(config)

	a.mu.Lock()
	defer a.mu.Unlock()

	if dbInst, ok := a.dbCache[key]; ok {
		if err := dbInst.Ping(); err == nil {
			return dbInst, nil
		}
		dbInst.Close()
		delete(a.dbCache, key)
	}

	dbInst, err := db.NewDatabase(config.Type)
	if err != nil {
		return nil, err
	}

	if err := dbInst.Connect(config); err != nil {
		return nil, err
	}

	a.dbCache[key] = dbInst
	return dbInst, nil
}
