package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/callmaker24/segmentation/config"
	_ "github.com/lib/pq" // PostgreSQL driver
)

const defaultConnMaxLifetime = 30 * time.Minute

// GetDSN returns the DSN of the segmentation database
func GetDSN(cfg *config.DatabaseConfig) string {
	return buildDSN(cfg, cfg.DBName)
}

// GetPostgresDSN returns the DSN of the server maintenance database
func GetPostgresDSN(cfg *config.DatabaseConfig) string {
	return buildDSN(cfg, "postgres")
}

func buildDSN(cfg *config.DatabaseConfig, dbName string) string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + dbName,
		RawQuery: "sslmode=" + url.QueryEscape(cfg.SSLMode),
	}
	return dsn.String()
}

// ConfigurePool applies the pool settings of cfg, falling back to defaults for unset values
func ConfigurePool(db *sql.DB, cfg *config.DatabaseConfig) {
	maxOpen, maxIdle, maxLifetime := cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime
	if maxOpen <= 0 {
		maxOpen = 25
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	if maxLifetime <= 0 {
		maxLifetime = defaultConnMaxLifetime
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)
	db.SetConnMaxIdleTime(maxLifetime / 2)
}

// EnsureDatabaseExists creates the database named dbName through the
// maintenance connection db when it is missing
func EnsureDatabaseExists(db *sql.DB, dbName string) error {
	var exists bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := db.Exec(fmt.Sprintf(`CREATE DATABASE "%s"`, strings.ReplaceAll(dbName, `"`, `""`))); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	return nil
}
