// Package archive keeps uploaded case events in a MySQL table so results
// outlive the remote session.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"

	"tso/internal/domain"
)

// EnvDSN as the configured DSN builds it from the DB_* variables
const EnvDSN = "env"

// DefaultTable receives the events
const DefaultTable = "tso_case_events"

// MySQL is an uploader.Sink writing every batch in one INSERT
type MySQL struct {
	db    *sql.DB
	table string
	runID string
}

// ResolveDSN returns dsn unchanged, or builds one from DB_HOST, DB_PORT,
// DB_USERNAME, DB_PASSWORD and DB_DATABASE when dsn is "env".
func ResolveDSN(dsn string, getenv func(string) string) string {
	if dsn != EnvDSN {
		return dsn
	}

	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}
	cfg := mysql.NewConfig()
	cfg.User = get("DB_USERNAME", "root")
	cfg.Passwd = getenv("DB_PASSWORD")
	cfg.Net = "tcp"
	cfg.Addr = get("DB_HOST", "127.0.0.1") + ":" + get("DB_PORT", "3306")
	cfg.DBName = get("DB_DATABASE", "tso")
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// Open connects to the database and creates the database and the events
// table if needed
func Open(ctx context.Context, dsn, runID string) (*MySQL, error) {
	if err := EnsureDatabase(ctx, dsn); err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database server: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database server: %w", err)
	}

	a := &MySQL{db: db, table: DefaultTable, runID: runID}
	if _, err := db.ExecContext(ctx, createStatement(a.table)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", a.table, err)
	}
	return a, nil
}

// Upload inserts the batch
func (a *MySQL) Upload(ctx context.Context, events []*domain.CaseEvent) error {
	if len(events) == 0 {
		return nil
	}
	query, args := insertStatement(a.table, a.runID, events)
	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("archive %d events: %w", len(events), err)
	}
	return nil
}

// Close closes the connection pool
func (a *MySQL) Close() error {
	return a.db.Close()
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// isValidTableName keeps identifiers we splice into SQL to a safe alphabet
func isValidTableName(name string) bool {
	return tableName.MatchString(name)
}

func createStatement(table string) string {
	if !isValidTableName(table) {
		panic(fmt.Sprintf("archive: invalid table name %q", table))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` ("+
		"id BIGINT AUTO_INCREMENT PRIMARY KEY, "+
		"run_id VARCHAR(26) NOT NULL, "+
		"test_path VARCHAR(1024) NOT NULL, "+
		"status TINYINT NOT NULL, "+
		"duration_ms BIGINT NOT NULL, "+
		"stdout MEDIUMTEXT, "+
		"stderr MEDIUMTEXT, "+
		"created_at DATETIME(6) NOT NULL, "+
		"INDEX idx_run (run_id))", table)
}

func insertStatement(table, runID string, events []*domain.CaseEvent) (string, []any) {
	if !isValidTableName(table) {
		panic(fmt.Sprintf("archive: invalid table name %q", table))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO `%s` (run_id, test_path, status, duration_ms, stdout, stderr, created_at) VALUES ", table)

	args := make([]any, 0, 7*len(events))
	for i, ev := range events {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			runID,
			ev.TestPath().String(),
			int(ev.Status()),
			ev.Duration().Milliseconds(),
			ev.Stdout(),
			ev.Stderr(),
			ev.CreatedAt(),
		)
	}
	return b.String(), args
}
