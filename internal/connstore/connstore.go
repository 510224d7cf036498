// Package connstore persists connection profiles in a local SQLite file so
// saved connections survive application restarts.
package connstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"KeyNavi-Wails/internal/connection"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS connections (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    db_type TEXT NOT NULL,
    host TEXT NOT NULL,
    port INTEGER NOT NULL,
    username TEXT,
    password TEXT,
    database_name TEXT,
    created_at TEXT NOT NULL
)`

// Store manages the saved-connections database.
type Store struct {
	conn *sql.DB
}

// DefaultPath returns the store location under the user config directory.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("获取配置目录失败：%w", err)
	}
	dir := filepath.Join(base, "KeyNavi")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("创建配置目录失败：%w", err)
	}
	return filepath.Join(dir, "connections.db"), nil
}

// Open opens (and if needed initializes) the store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开数据库连接失败：%w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化连接表失败：%w", err)
	}
	return &Store{conn: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Save inserts a new profile and returns it with the assigned ID.
func (s *Store) Save(c connection.StoredConnection) (connection.StoredConnection, error) {
	c.CreatedAt = time.Now().Format(time.RFC3339)
	res, err := s.conn.Exec(
		`INSERT INTO connections (name, db_type, host, port, username, password, database_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.DBType, c.Host, c.Port, c.Username, c.Password, c.Database, c.CreatedAt,
	)
	if err != nil {
		return c, fmt.Errorf("保存连接失败：%w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return c, fmt.Errorf("获取连接 ID 失败：%w", err)
	}
	c.ID = id
	return c, nil
}

// Update rewrites an existing profile in place.
func (s *Store) Update(c connection.StoredConnection) error {
	res, err := s.conn.Exec(
		`UPDATE connections SET name=?, db_type=?, host=?, port=?, username=?, password=?, database_name=? WHERE id=?`,
		c.Name, c.DBType, c.Host, c.Port, c.Username, c.Password, c.Database, c.ID,
	)
	if err != nil {
		return fmt.Errorf("更新连接失败：%w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("连接不存在：id=%d", c.ID)
	}
	return nil
}

// Delete removes a profile by ID.
func (s *Store) Delete(id int64) error {
	res, err := s.conn.Exec(`DELETE FROM connections WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("删除连接失败：%w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("连接不存在：id=%d", id)
	}
	return nil
}

// Get loads one profile by ID.
func (s *Store) Get(id int64) (connection.StoredConnection, error) {
	row := s.conn.QueryRow(
		`SELECT id, name, db_type, host, port, username, password, database_name, created_at
		 FROM connections WHERE id=?`, id)
	var c connection.StoredConnection
	err := row.Scan(&c.ID, &c.Name, &c.DBType, &c.Host, &c.Port, &c.Username, &c.Password, &c.Database, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, fmt.Errorf("连接不存在：id=%d", id)
	}
	if err != nil {
		return c, fmt.Errorf("读取连接失败：%w", err)
	}
	return c, nil
}

// List returns all saved profiles, newest first.
func (s *Store) List() ([]connection.StoredConnection, error) {
	rows, err := s.conn.Query(
		`SELECT id, name, db_type, host, port, username, password, database_name, created_at
		 FROM connections ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("读取连接列表失败：%w", err)
	}
	defer rows.Close()

	var out []connection.StoredConnection
	for rows.Next() {
		var c connection.StoredConnection
		if err := rows.Scan(&c.ID, &c.Name, &c.DBType, &c.Host, &c.Port, &c.Username, &c.Password, &c.Database, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("解析连接记录失败：%w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
