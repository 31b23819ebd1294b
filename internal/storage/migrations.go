package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/martinsuchenak/circuits/internal/log"
	"github.com/martinsuchenak/circuits/internal/model"
)

// migration is one schema version, applied in a single transaction.
type migration struct {
	version    int
	name       string
	statements []string
}

// dialect holds the few column types that differ between backends.
type dialect struct {
	serial    string
	timestamp string
}

var (
	sqliteDialect   = dialect{serial: "INTEGER PRIMARY KEY AUTOINCREMENT", timestamp: "TIMESTAMP"}
	postgresDialect = dialect{serial: "BIGSERIAL PRIMARY KEY", timestamp: "TIMESTAMPTZ"}
)

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

const (
	queryCurrentVersion = "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"
	queryRecordVersion  = "INSERT INTO schema_migrations (version, name) VALUES (?, ?)"
)

func circuitColumnDefs() string {
	defs := make([]string, len(model.Fields))
	for i, f := range model.Fields {
		defs[i] = f + " TEXT NOT NULL DEFAULT ''"
	}
	return strings.Join(defs, ",\n\t\t\t")
}

func migrations(d dialect) []migration {
	return []migration{
		{
			version: 1,
			name:    "create circuits",
			statements: []string{
				fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS circuits (
			seq %s,
			id TEXT NOT NULL UNIQUE,
			%s,
			created_at %s NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at %s NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, d.serial, circuitColumnDefs(), d.timestamp, d.timestamp),
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_circuits_ckt_id ON circuits(ckt_id) WHERE ckt_id <> ''`,
				`CREATE INDEX IF NOT EXISTS idx_circuits_site_name ON circuits(site_name)`,
			},
		},
		{
			version: 2,
			name:    "create import_report",
			statements: []string{
				fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS import_report (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			message TEXT NOT NULL,
			file_name TEXT,
			seen BOOLEAN NOT NULL DEFAULT FALSE,
			created_at %s NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, d.timestamp),
				`CREATE INDEX IF NOT EXISTS idx_import_report_unseen ON import_report(type, seen)`,
			},
		},
		{
			version: 3,
			name:    "create users",
			statements: []string{
				`
		CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL
		)`,
			},
		},
	}
}

// Migrate brings the SQLite schema up to the latest version.
func (ss *SQLiteStorage) Migrate() error {
	if _, err := ss.db.Exec(createMigrationsTable); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	var version int
	err := ss.db.QueryRow(queryCurrentVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("checking migration version: %w", err)
	}

	for _, m := range migrations(sqliteDialect) {
		if m.version <= version {
			continue
		}
		if err := ss.applyMigration(m); err != nil {
			return err
		}
		log.Info("Applied migration", "version", m.version, "name", m.name)
	}
	return nil
}

func (ss *SQLiteStorage) applyMigration(m migration) error {
	tx, err := ss.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, stmt := range m.statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d (%s) statement %d: %w", m.version, m.name, i+1, err)
		}
	}
	if _, err := tx.Exec(queryRecordVersion, m.version, m.name); err != nil {
		return fmt.Errorf("recording migration %d: %w", m.version, err)
	}
	return tx.Commit()
}
