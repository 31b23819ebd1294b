package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/martinsuchenak/circuits/internal/model"
)

// SQLiteStorage is the default backend, a single database file.
type SQLiteStorage struct {
	db *sql.DB
}

const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// NewSQLiteStorage opens (creating if needed) the database at path and migrates it.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: database path is required")
	}

	dsn := path
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: creating data directory: %w", err)
		}
	}
	if !strings.Contains(dsn, "?") {
		dsn += "?" + sqlitePragmas
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", path, err)
	}
	// One writer at a time; the import worker and request handlers share the handle.
	db.SetMaxOpenConns(1)

	ss := &SQLiteStorage{db: db}
	if err := ss.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return ss, nil
}

// Close closes the database.
func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}

func (ss *SQLiteStorage) ListCircuits(ctx context.Context) ([]model.Circuit, error) {
	rows, err := ss.db.QueryContext(ctx, queryListCircuits)
	if err != nil {
		return nil, fmt.Errorf("listing circuits: %w", err)
	}
	defer rows.Close()

	circuits := []model.Circuit{}
	for rows.Next() {
		c, err := scanCircuit(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning circuit: %w", err)
		}
		circuits = append(circuits, c)
	}
	return circuits, rows.Err()
}

func (ss *SQLiteStorage) GetCircuit(ctx context.Context, id string) (model.Circuit, error) {
	c, err := scanCircuit(ss.db.QueryRowContext(ctx, queryGetCircuit, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Circuit{}, ErrCircuitNotFound
	}
	if err != nil {
		return model.Circuit{}, fmt.Errorf("getting circuit %s: %w", id, err)
	}
	return c, nil
}

func (ss *SQLiteStorage) CreateCircuit(ctx context.Context, c *model.Circuit) error {
	if c.ID == "" {
		c.ID = NewID()
	}

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, queryCircuitExists, c.ID).Scan(&n); err != nil {
		return fmt.Errorf("checking circuit %s: %w", c.ID, err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %s already exists", ErrInvalidID, c.ID)
	}
	if err := sqliteCheckCktID(ctx, tx, *c); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, queryInsert, circuitValues(*c)...); err != nil {
		return fmt.Errorf("creating circuit: %w", err)
	}
	return tx.Commit()
}

func (ss *SQLiteStorage) UpdateCircuit(ctx context.Context, c model.Circuit) error {
	if err := validateCircuit(c); err != nil {
		return err
	}

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := sqliteCheckCktID(ctx, tx, c); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, queryUpdate, updateArgs(c)...)
	if err != nil {
		return fmt.Errorf("updating circuit %s: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCircuitNotFound
	}
	return tx.Commit()
}

func sqliteCheckCktID(ctx context.Context, tx *sql.Tx, c model.Circuit) error {
	if c.CktID == "" {
		return nil
	}
	var n int
	if err := tx.QueryRowContext(ctx, queryCktIDTaken, c.CktID, c.ID).Scan(&n); err != nil {
		return fmt.Errorf("checking ckt_id: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateCktID, c.CktID)
	}
	return nil
}

func (ss *SQLiteStorage) Report(ctx context.Context, r model.ImportReport) error {
	if r.ID == "" {
		return fmt.Errorf("%w: report id is required", ErrInvalidID)
	}
	if _, err := ss.db.ExecContext(ctx, queryInsertReport, r.Type, r.ID, r.Message, r.FileName); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func (ss *SQLiteStorage) FinishReport(ctx context.Context, id, message string) error {
	return ss.execReport(ctx, queryFinishReport, message, id)
}

func (ss *SQLiteStorage) AcknowledgeReport(ctx context.Context, id string) error {
	return ss.execReport(ctx, queryAckReport, id)
}

func (ss *SQLiteStorage) execReport(ctx context.Context, query string, args ...any) error {
	res, err := ss.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (ss *SQLiteStorage) ListReports(ctx context.Context) ([]model.ImportReport, error) {
	return ss.listReports(ctx, queryListReports)
}

func (ss *SQLiteStorage) ListUnseenReports(ctx context.Context) ([]model.ImportReport, error) {
	return ss.listReports(ctx, queryListUnseen)
}

func (ss *SQLiteStorage) listReports(ctx context.Context, query string) ([]model.ImportReport, error) {
	rows, err := ss.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	reports := []model.ImportReport{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (ss *SQLiteStorage) GetUser(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := ss.db.QueryRowContext(ctx, queryGetUser, username).Scan(&u.Username, &u.PasswordHash, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("getting user %s: %w", username, err)
	}
	return u, nil
}

func (ss *SQLiteStorage) PutUser(ctx context.Context, u model.User) error {
	if _, err := ss.db.ExecContext(ctx, queryPutUser, u.Username, u.PasswordHash, u.Role); err != nil {
		return fmt.Errorf("saving user %s: %w", u.Username, err)
	}
	return nil
}
