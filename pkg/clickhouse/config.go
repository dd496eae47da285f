package clickhouse

import (
	"fmt"
	"regexp"
	"time"
)

// ClientConfig is the connection the bar store runs on.
type ClientConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string

	// UseHTTP talks to the HTTP interface (8123) instead of native (9000).
	UseHTTP bool
	// AsyncInsert lets the server buffer bar inserts. With WaitForAsync the
	// insert returns only after the buffer reached the table.
	AsyncInsert  bool
	WaitForAsync bool

	DialTimeout time.Duration
	ReadTimeout time.Duration
	MaxExecTime time.Duration

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// The database name is spliced into DDL and table names.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DefaultClientConfig returns a local native connection to the fxcloud database.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Host:            "localhost",
		Port:            9000,
		Database:        "fxcloud",
		User:            "default",
		DialTimeout:     5 * time.Second,
		ReadTimeout:     10 * time.Second,
		MaxExecTime:     30 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// Validate checks the fields NewClient depends on.
func (c ClientConfig) Validate() error {
	switch {
	case c.Host == "":
		return fmt.Errorf("host is required")
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid port %d", c.Port)
	case !identRe.MatchString(c.Database):
		return fmt.Errorf("invalid database name %q", c.Database)
	case c.WaitForAsync && !c.AsyncInsert:
		return fmt.Errorf("wait_for_async_insert requires async_insert")
	}
	return nil
}
