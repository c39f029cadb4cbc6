package ledgercfg

import (
	"fmt"
)

// MYSQL : database holding the run ledger. an empty host keeps the ledger in memory
type MYSQL struct {
	Host         string `yaml:"host"`
	UserName     string `yaml:"user_name"`
	Password     string `yaml:"password"`
	Port         int    `yaml:"port"`
	DB           string `yaml:"db"`
	QueryLogging bool   `yaml:"query_log"`
	MaxConns     int    `yaml:"max_conns"`
}

// Enabled : true when a database is configured
func (m *MYSQL) Enabled() bool {
	return m.Host != ""
}

func (m *MYSQL) GetDSN() string {
	return fmt.Sprintf(`%s:%s@tcp(%s:%d)/%s?parseTime=true&collation=utf8mb4_general_ci&autocommit=true`, m.UserName, m.Password, m.Host, m.Port, m.DB)
}
