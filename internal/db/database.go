package db

import (
	"context"
	"fmt"

	"KeyNavi-Wails/internal/connection"
)

// Database is the relational-store boundary: connect, browse schema, run SQL.
type Database interface {
	Connect(config connection.ConnectionConfig) error
	Close() error
	Ping() error
	Query(query string) ([]map[string]interface{}, []string, error)
	QueryContext(ctx context.Context, query string) ([]map[string]interface{}, []string, error)
	Exec(query string) (int64, error)
	ExecContext(ctx context.Context, query string) (int64, error)
	GetDatabases() ([]string, error)
	GetTables(dbName string) ([]string, error)
	GetColumns(dbName, tableName string) ([]connection.ColumnDefinition, error)
}

// Factory
func NewDatabase(dbType string) (Database, error) {
	switch dbType {
	case "mysql", "":
		return &MySQLDB{}, nil
	case "sqlite":
		return &SQLiteDB{}, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}
