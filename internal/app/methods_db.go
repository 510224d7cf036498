package app

import (
	"strings"

	"KeyNavi-Wails/internal/connection"
)

// Generic relational DB methods (MySQL / SQLite)

func (a *App) DBConnect(config connection.ConnectionConfig) connection.QueryResult {
	// getDatabase checks cache and Pings. If valid, reuses. If not, connects.
	_, err := a.getDatabase(config)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	return connection.QueryResult{Success: true, Message: "连接成功"}
}

func (a *App) TestConnection(config connection.ConnectionConfig) connection.QueryResult {
	return a.DBConnect(config)
}

// DBQuery routes read statements to Query and everything else to Exec.
func (a *App) DBQuery(config connection.ConnectionConfig, dbName string, query string) connection.QueryResult {
	runConfig := config
	if dbName != "" {
		runConfig.Database = dbName
	}

	dbInst, err := a.getDatabase(runConfig)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	lowerQuery := strings.TrimSpace(strings.ToLower(query))
	if strings.HasPrefix(lowerQuery, "select") || strings.HasPrefix(lowerQuery, "show") || strings.HasPrefix(lowerQuery, "describe") || strings.HasPrefix(lowerQuery, "explain") || strings.HasPrefix(lowerQuery, "pragma") {
		data, columns, err := dbInst.Query(query)
		if err != nil {
			return connection.QueryResult{Success: false, Message: err.Error()}
		}
		return connection.QueryResult{Success: true, Data: data, Fields: columns}
	}

	affected, err := dbInst.Exec(query)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}
	return connection.QueryResult{Success: true, Data: map[string]int64{"affectedRows": affected}}
}

func (a *App) DBGetDatabases(config connection.ConnectionConfig) connection.QueryResult {
	dbInst, err := a.getDatabase(config)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	dbs, err := dbInst.GetDatabases()
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}
	return connection.QueryResult{Success: true, Data: dbs}
}

func (a *App) DBGetTables(config connection.ConnectionConfig, dbName string) connection.QueryResult {
	dbInst, err := a.getDatabase(config)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	tables, err := dbInst.GetTables(dbName)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}
	return connection.QueryResult{Success: true, Data: tables}
}

func (a *App) DBGetColumns(config connection.ConnectionConfig, dbName, tableName string) connection.QueryResult {
	dbInst, err := a.getDatabase(config)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}

	cols, err := dbInst.GetColumns(dbName, tableName)
	if err != nil {
		return connection.QueryResult{Success: false, Message: err.Error()}
	}
	return connection.QueryResult{Success: true, Data: cols}
}

func (a *App) MySQLConnect(config connection.ConnectionConfig) connection.QueryResult {
	config.Type = "mysql"
	return a.DBConnect(config)
}

func (a *App) MySQLQuery(config connection.ConnectionConfig, dbName string, query string) connection.QueryResult {
	config.Type = "mysql"
	return a.DBQuery(config, dbName, query)
}

func (a *App) SQLiteConnect(config connection.ConnectionConfig) connection.QueryResult {
	config.Type = "sqlite"
	return a.DBConnect(config)
}

func (a *App) SQLiteQuery(config connection.ConnectionConfig, query string) connection.QueryResult {
	config.Type = "sqlite"
	return a.DBQuery(config, "", query)
}
