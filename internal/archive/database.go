package archive

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/go-sql-driver/mysql"
)

var databaseName = regexp.MustCompile(`^[A-Za-z0-9_$]{1,64}$`)

// isValidDatabaseName keeps database names to unquoted MySQL identifiers
func isValidDatabaseName(name string) bool {
	return databaseName.MatchString(name)
}

// serverDSN returns dsn without its database, for server-level statements
func serverDSN(dsn string) (string, string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", "", fmt.Errorf("invalid archive dsn: %w", err)
	}
	name := cfg.DBName
	cfg.DBName = ""
	return cfg.FormatDSN(), name, nil
}

// EnsureDatabase creates the database named in dsn if it does not exist
func EnsureDatabase(ctx context.Context, dsn string) error {
	server, name, err := serverDSN(dsn)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("archive dsn names no database")
	}
	if !isValidDatabaseName(name) {
		return fmt.Errorf("invalid database name: %s", name)
	}

	// Connect to MySQL server (without specifying database)
	db, err := sql.Open("mysql", server)
	if err != nil {
		return fmt.Errorf("failed to connect to database server: %w", err)
	}
	defer db.Close()

	exists, err := databaseExists(ctx, db, name)
	if err != nil {
		return fmt.Errorf("failed to check database %s: %w", name, err)
	}
	if exists {
		return nil
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name)); err != nil {
		return fmt.Errorf("failed to create database %s: %w", name, err)
	}
	return nil
}

func databaseExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	err := db.QueryRowContext(ctx, query, name).Scan(&exists)
	return exists, err
}
