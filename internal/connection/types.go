package connection

// SSHConfig holds SSH tunnel details
type SSHConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	KeyPath  string `json:"keyPath"`
}

// ConnectionConfig holds store connection details including SSH
type ConnectionConfig struct {
	Type     string    `json:"type"` // mysql, sqlite, redis, memcached
	Host     string    `json:"host"`
	Port     int       `json:"port"`
	User     string    `json:"user"`
	Password string    `json:"password"`
	Database string    `json:"database"`
	RedisDB  int       `json:"redisDB"`
	Timeout  int       `json:"timeout"` // seconds, 0 = default
	UseSSH   bool      `json:"useSSH"`
	SSH      SSHConfig `json:"ssh"`
}

// ColumnDefinition describes one column of a relational table
type ColumnDefinition struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Nullable string  `json:"nullable"` // YES / NO
	Key      string  `json:"key"`      // PRI for primary key columns
	Default  *string `json:"default"`
}

// QueryResult is the standard response format for Wails methods
type QueryResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Fields  []string    `json:"fields,omitempty"`
}

// StoredConnection is a persisted connection profile
type StoredConnection struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	DBType    string `json:"dbType"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Database  string `json:"database"`
	CreatedAt string `json:"createdAt"`
}
