package db

import (
	"strings"
	"testing"

	"KeyNavi-Wails/internal/connection"
)

func TestMySQLDSN_DirectConnection(t *testing.T) {
	m := &MySQLDB{}
	cfg := connection.ConnectionConfig{
		Type:     "mysql",
		Host:     "127.0.0.1",
		Port:     3306,
		User:     "user",
		Password: "secret",
		Database: "app",
	}

	dsn := m.getDSN(cfg)
	if !strings.HasPrefix(dsn, "user:secret@tcp(127.0.0.1:3306)/app?") {
		t.Fatalf("dsn 前缀不符：%s", dsn)
	}
	if !strings.Contains(dsn, "charset=utf8mb4") || !strings.Contains(dsn, "parseTime=True") {
		t.Fatalf("dsn 缺少固定参数：%s", dsn)
	}
	if !strings.Contains(dsn, "timeout=30s") {
		t.Fatalf("dsn 缺少默认超时：%s", dsn)
	}
}

func TestMySQLDSN_CustomTimeout(t *testing.T) {
	m := &MySQLDB{}
	cfg := connection.ConnectionConfig{
		Type:    "mysql",
		Host:    "db.internal",
		Port:    3307,
		User:    "u",
		Timeout: 5,
	}

	dsn := m.getDSN(cfg)
	if !strings.Contains(dsn, "timeout=5s") {
		t.Fatalf("dsn 未采用自定义超时：%s", dsn)
	}
}
