package config

import (
	"net"
	"os"

	"github.com/go-sql-driver/mysql"
)

const defaultDSN = "wxinsight:wxinsight@tcp(localhost:3306)/wxinsight?parseTime=true"

// GetDatabaseDSN returns the MySQL connection string. A complete set of
// DB_USER, DB_PASSWORD, DB_HOST, DB_PORT and DB_NAME wins over
// DATABASE_DSN; with neither the local default is used.
func GetDatabaseDSN() string {
	if cfg, ok := dsnFromParts(); ok {
		return cfg.FormatDSN()
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		return dsn
	}
	return defaultDSN
}

func dsnFromParts() (*mysql.Config, bool) {
	parts := map[string]string{}
	for _, key := range []string{"DB_USER", "DB_PASSWORD", "DB_HOST", "DB_PORT", "DB_NAME"} {
		v := os.Getenv(key)
		if v == "" {
			return nil, false
		}
		parts[key] = v
	}

	cfg := mysql.NewConfig()
	cfg.User = parts["DB_USER"]
	cfg.Passwd = parts["DB_PASSWORD"]
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(parts["DB_HOST"], parts["DB_PORT"])
	cfg.DBName = parts["DB_NAME"]
	cfg.ParseTime = true
	return cfg, true
}
