package app

import (
	"fmt"

	"KeyNavi-Wails/internal/connection"
)

// Saved connection profiles (SQLite-backed)

func (a *App) requireConnStore() error {
	if a.connStore == nil {
		return fmt.Errorf("连接配置库不可用")
	}
	return nil
}

// ListConnections returns all saved connection profiles.
func (a *App) ListConnections() connection.QueryResult {
	if err := a.requireConnStore(); err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	list, err := a.connStore.List()
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}
	return connection.QueryResult{Success: true, Data: list}
}

// SaveConnection persists a new profile and returns it with its ID.
func (a *App) SaveConnection(c connection.StoredConnection) connection.QueryResult {
	if err := a.requireConnStore(); err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	saved, err := a.connStore.Save(c)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}
	return connection.QueryResult{Success: true, Message: "保存成功", Data: saved}
}

// GetConnection loads one saved profile by ID.
func (a *App) GetConnection(id int64) connection.QueryResult {
	if err := a.requireConnStore(); err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	c, err := a.connStore.Get(id)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}
	return connection.QueryResult{Success: true, Data: c}
}

// UpdateConnection rewrites an existing profile.
func (a *App) UpdateConnection(c connection.StoredConnection) connection.QueryResult {
	if err := a.requireConnStore(); err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	if err := a.connStore.Update(c); err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}
	return connection.QueryResult{Success: true, Message: "更新成功"}
}

// DeleteConnection removes a saved profile.
func (a *App) DeleteConnection(id int64) connection.QueryResult {
	if err := a.requireConnStore(); err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	if err := a.connStore.Delete(id); err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}
	return connection.QueryResult{Success: true, Message: "删除成功"}
}
