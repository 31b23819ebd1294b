package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/martinsuchenak/circuits/internal/log"
	"github.com/martinsuchenak/circuits/internal/model"
)

const pgUniqueViolation = "23505"

// PostgresStorage keeps the same schema as SQLiteStorage in PostgreSQL.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage connects to dsn (a postgres:// URL or key=value string) and migrates the schema.
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: connection string is required")
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to initialize pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	ps := &PostgresStorage{pool: pool}
	if err := ps.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("Connected to PostgreSQL",
		"host", poolConfig.ConnConfig.Host,
		"database", poolConfig.ConnConfig.Database,
		"max_conns", poolConfig.MaxConns)
	return ps, nil
}

// Close releases the pool.
func (ps *PostgresStorage) Close() error {
	ps.pool.Close()
	return nil
}

// Migrate brings the schema up to the latest version.
func (ps *PostgresStorage) Migrate(ctx context.Context) error {
	if _, err := ps.pool.Exec(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	var version int
	if err := ps.pool.QueryRow(ctx, queryCurrentVersion).Scan(&version); err != nil {
		return fmt.Errorf("checking migration version: %w", err)
	}

	for _, m := range migrations(postgresDialect) {
		if m.version <= version {
			continue
		}
		err := pgx.BeginFunc(ctx, ps.pool, func(tx pgx.Tx) error {
			for i, stmt := range m.statements {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("migration %d (%s) statement %d: %w", m.version, m.name, i+1, err)
				}
			}
			_, err := tx.Exec(ctx, rebind(queryRecordVersion), m.version, m.name)
			return err
		})
		if err != nil {
			return err
		}
		log.Info("Applied migration", "version", m.version, "name", m.name)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (ps *PostgresStorage) ListCircuits(ctx context.Context) ([]model.Circuit, error) {
	rows, err := ps.pool.Query(ctx, queryListCircuits)
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

func (ps *PostgresStorage) GetCircuit(ctx context.Context, id string) (model.Circuit, error) {
	c, err := scanCircuit(ps.pool.QueryRow(ctx, rebind(queryGetCircuit), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Circuit{}, ErrCircuitNotFound
	}
	if err != nil {
		return model.Circuit{}, fmt.Errorf("getting circuit %s: %w", id, err)
	}
	return c, nil
}

func (ps *PostgresStorage) CreateCircuit(ctx context.Context, c *model.Circuit) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return pgx.BeginFunc(ctx, ps.pool, func(tx pgx.Tx) error {
		var n int
		if err := tx.QueryRow(ctx, rebind(queryCircuitExists), c.ID).Scan(&n); err != nil {
			return fmt.Errorf("checking circuit %s: %w", c.ID, err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %s already exists", ErrInvalidID, c.ID)
		}
		if err := pgCheckCktID(ctx, tx, *c); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, rebind(queryInsert), circuitValues(*c)...); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrDuplicateCktID, c.CktID)
			}
			return fmt.Errorf("creating circuit: %w", err)
		}
		return nil
	})
}

func (ps *PostgresStorage) UpdateCircuit(ctx context.Context, c model.Circuit) error {
	if err := validateCircuit(c); err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, ps.pool, func(tx pgx.Tx) error {
		if err := pgCheckCktID(ctx, tx, c); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, rebind(queryUpdate), updateArgs(c)...)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrDuplicateCktID, c.CktID)
			}
			return fmt.Errorf("updating circuit %s: %w", c.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrCircuitNotFound
		}
		return nil
	})
}

func pgCheckCktID(ctx context.Context, tx pgx.Tx, c model.Circuit) error {
	if c.CktID == "" {
		return nil
	}
	var n int
	if err := tx.QueryRow(ctx, rebind(queryCktIDTaken), c.CktID, c.ID).Scan(&n); err != nil {
		return fmt.Errorf("checking ckt_id: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateCktID, c.CktID)
	}
	return nil
}

func (ps *PostgresStorage) Report(ctx context.Context, r model.ImportReport) error {
	if r.ID == "" {
		return fmt.Errorf("%w: report id is required", ErrInvalidID)
	}
	if _, err := ps.pool.Exec(ctx, rebind(queryInsertReport), r.Type, r.ID, r.Message, r.FileName); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func (ps *PostgresStorage) FinishReport(ctx context.Context, id, message string) error {
	return ps.execReport(ctx, queryFinishReport, message, id)
}

func (ps *PostgresStorage) AcknowledgeReport(ctx context.Context, id string) error {
	return ps.execReport(ctx, queryAckReport, id)
}

func (ps *PostgresStorage) execReport(ctx context.Context, query string, args ...any) error {
	tag, err := ps.pool.Exec(ctx, rebind(query), args...)
	if err != nil {
		return fmt.Errorf("updating report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (ps *PostgresStorage) ListReports(ctx context.Context) ([]model.ImportReport, error) {
	return ps.listReports(ctx, queryListReports)
}

func (ps *PostgresStorage) ListUnseenReports(ctx context.Context) ([]model.ImportReport, error) {
	return ps.listReports(ctx, queryListUnseen)
}

func (ps *PostgresStorage) listReports(ctx context.Context, query string) ([]model.ImportReport, error) {
	rows, err := ps.pool.Query(ctx, query)
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

func (ps *PostgresStorage) GetUser(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := ps.pool.QueryRow(ctx, rebind(queryGetUser), username).Scan(&u.Username, &u.PasswordHash, &u.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("getting user %s: %w", username, err)
	}
	return u, nil
}

func (ps *PostgresStorage) PutUser(ctx context.Context, u model.User) error {
	if _, err := ps.pool.Exec(ctx, rebind(queryPutUser), u.Username, u.PasswordHash, u.Role); err != nil {
		return fmt.Errorf("saving user %s: %w", u.Username, err)
	}
	return nil
}
