package util

import (
	"database/sql"
	"fmt"

	sf "github.com/snowflakedb/gosnowflake"

	"github.com/snowappify/snowappify/internal/logger"
)

// ConnectionConfig holds database connection parameters
type ConnectionConfig struct {
	Account         string
	User            string
	Password        string
	Role            string
	Warehouse       string
	Database        string
	ApplicationName string
}

// Connect establishes a database connection using the provided configuration
func Connect(config *ConnectionConfig) (*sql.DB, error) {
	log := logger.Get()

	log.Debug("Attempting database connection",
		"account", config.Account,
		"user", config.User,
		"role", config.Role,
		"warehouse", config.Warehouse,
		"database", config.Database,
		"application_name", config.ApplicationName,
	)

	dsn, err := sf.DSN(&sf.Config{
		Account:     config.Account,
		User:        config.User,
		Password:    config.Password,
		Role:        config.Role,
		Warehouse:   config.Warehouse,
		Database:    config.Database,
		Application: config.ApplicationName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	conn, err := sql.Open("snowflake", dsn)
	if err != nil {
		log.Debug("Database connection failed", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := conn.Ping(); err != nil {
		log.Debug("Database ping failed", "error", err)
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Debug("Database connection established successfully")
	return conn, nil
}
