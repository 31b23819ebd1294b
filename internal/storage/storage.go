// Package storage persists circuits, import reports and users.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/martinsuchenak/circuits/internal/model"
)

var (
	ErrCircuitNotFound = errors.New("circuit not found")
	ErrReportNotFound  = errors.New("report not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateCktID  = errors.New("duplicate ckt_id")
	ErrInvalidID       = errors.New("invalid id")
	ErrUnknownDriver   = errors.New("unknown database driver")
)

// CircuitStorage stores circuit records.
type CircuitStorage interface {
	ListCircuits(ctx context.Context) ([]model.Circuit, error)
	GetCircuit(ctx context.Context, id string) (model.Circuit, error)
	// CreateCircuit assigns an id when c.ID is empty.
	CreateCircuit(ctx context.Context, c *model.Circuit) error
	UpdateCircuit(ctx context.Context, c model.Circuit) error
}

// ReportStorage stores import reports.
type ReportStorage interface {
	Report(ctx context.Context, r model.ImportReport) error
	FinishReport(ctx context.Context, id, message string) error
	AcknowledgeReport(ctx context.Context, id string) error
	ListReports(ctx context.Context) ([]model.ImportReport, error)
	// ListUnseenReports returns finished reports that have not been acknowledged.
	ListUnseenReports(ctx context.Context) ([]model.ImportReport, error)
}

// UserStorage stores login accounts.
type UserStorage interface {
	GetUser(ctx context.Context, username string) (model.User, error)
	PutUser(ctx context.Context, u model.User) error
}

// Storage is the full persistence interface used by the server.
type Storage interface {
	CircuitStorage
	ReportStorage
	UserStorage
	Close() error
}

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the backend for driver. For sqlite the dsn is a file path.
func Open(ctx context.Context, driver, dsn string) (Storage, error) {
	switch strings.ToLower(driver) {
	case "", DriverSQLite:
		return NewSQLiteStorage(dsn)
	case DriverPostgres, "pgx", "postgresql":
		return NewPostgresStorage(ctx, dsn)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
}

// NewID returns a UUIDv7 string.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// rowScanner is satisfied by *sql.Row, *sql.Rows, pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

var circuitColumns = strings.Join(model.AllFields, ", ")

func scanCircuit(row rowScanner) (model.Circuit, error) {
	var c model.Circuit
	err := row.Scan(c.FieldPointers(model.AllFields)...)
	return c, err
}

// circuitValues returns the field values of c in model.AllFields order.
func circuitValues(c model.Circuit) []any {
	args := make([]any, 0, len(model.AllFields))
	for _, f := range model.AllFields {
		v, _ := c.Get(f)
		args = append(args, v)
	}
	return args
}

func scanReport(row rowScanner) (model.ImportReport, error) {
	var r model.ImportReport
	err := row.Scan(&r.Type, &r.ID, &r.Message, &r.FileName)
	return r, err
}

// Queries are written with '?' placeholders; backends that number their
// parameters rebind them first.
var (
	queryListCircuits = "SELECT " + circuitColumns + " FROM circuits ORDER BY seq"
	queryGetCircuit   = "SELECT " + circuitColumns + " FROM circuits WHERE id = ?"
	queryInsert       = "INSERT INTO circuits (" + circuitColumns + ") VALUES (" + placeholders(len(model.AllFields)) + ")"
	queryUpdate       = "UPDATE circuits SET " + setClause(model.Fields) + ", updated_at = CURRENT_TIMESTAMP WHERE id = ?"
)

const (
	queryCircuitExists = "SELECT COUNT(*) FROM circuits WHERE id = ?"
	queryCktIDTaken    = "SELECT COUNT(*) FROM circuits WHERE ckt_id = ? AND id <> ?"

	queryInsertReport = "INSERT INTO import_report (type, id, message, file_name) VALUES (?, ?, ?, ?)"
	queryFinishReport = "UPDATE import_report SET message = ? WHERE id = ?"
	queryAckReport    = "UPDATE import_report SET seen = TRUE WHERE id = ?"
	queryListReports  = "SELECT type, id, message, file_name FROM import_report ORDER BY created_at, id"
	queryListUnseen   = "SELECT type, id, message, file_name FROM import_report WHERE type = 'finished' AND seen = FALSE ORDER BY created_at, id"

	queryGetUser = "SELECT username, password_hash, role FROM users WHERE username = ?"
	queryPutUser = `INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET password_hash = excluded.password_hash, role = excluded.role`
)

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func setClause(fields []string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + " = ?"
	}
	return strings.Join(parts, ", ")
}

// updateArgs returns the SET values of c followed by its id.
func updateArgs(c model.Circuit) []any {
	args := make([]any, 0, len(model.Fields)+1)
	for _, f := range model.Fields {
		v, _ := c.Get(f)
		args = append(args, v)
	}
	return append(args, c.ID)
}

// rebind rewrites '?' placeholders as $1, $2, ...
func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func validateCircuit(c model.Circuit) error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidID)
	}
	return nil
}
