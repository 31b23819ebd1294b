package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinsuchenak/circuits/internal/model"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	ss, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "data", "circuits.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })
	return ss
}

func TestSQLite_CreateGetList(t *testing.T) {
	ctx := context.Background()
	ss := newTestStorage(t)

	first := model.Circuit{SiteName: "Main Office", CktID: "A1"}
	require.NoError(t, ss.CreateCircuit(ctx, &first))
	assert.NotEmpty(t, first.ID)

	second := model.Circuit{ID: "fixed", SiteName: "Branch Office", CktID: "B7", RouterIP: "10.0.0.1"}
	require.NoError(t, ss.CreateCircuit(ctx, &second))

	got, err := ss.GetCircuit(ctx, "fixed")
	require.NoError(t, err)
	assert.Equal(t, second, got)

	all, err := ss.ListCircuits(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Circuit{first, second}, all)

	_, err = ss.GetCircuit(ctx, "missing")
	assert.ErrorIs(t, err, ErrCircuitNotFound)
}

func TestSQLite_CreateRejectsExistingID(t *testing.T) {
	ctx := context.Background()
	ss := newTestStorage(t)

	c := model.Circuit{ID: "x"}
	require.NoError(t, ss.CreateCircuit(ctx, &c))
	assert.ErrorIs(t, ss.CreateCircuit(ctx, &c), ErrInvalidID)
}

func TestSQLite_UpdateCircuit(t *testing.T) {
	ctx := context.Background()
	ss := newTestStorage(t)

	c := model.Circuit{ID: "1", SiteName: "Main Office", CktID: "A1"}
	require.NoError(t, ss.CreateCircuit(ctx, &c))

	c.Provider = "Acme"
	require.NoError(t, ss.UpdateCircuit(ctx, c))
	got, err := ss.GetCircuit(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, c, got)

	assert.ErrorIs(t, ss.UpdateCircuit(ctx, model.Circuit{ID: "nope"}), ErrCircuitNotFound)
	assert.ErrorIs(t, ss.UpdateCircuit(ctx, model.Circuit{}), ErrInvalidID)
}

func TestSQLite_DuplicateCktID(t *testing.T) {
	ctx := context.Background()
	ss := newTestStorage(t)

	a := model.Circuit{ID: "1", CktID: "A1"}
	b := model.Circuit{ID: "2", CktID: "B7"}
	require.NoError(t, ss.CreateCircuit(ctx, &a))
	require.NoError(t, ss.CreateCircuit(ctx, &b))

	b.CktID = "A1"
	err := ss.UpdateCircuit(ctx, b)
	assert.ErrorIs(t, err, ErrDuplicateCktID)
	assert.Contains(t, err.Error(), "duplicate ckt_id")

	dup := model.Circuit{CktID: "A1"}
	assert.ErrorIs(t, ss.CreateCircuit(ctx, &dup), ErrDuplicateCktID)

	// Keeping its own ckt_id and blank ckt_ids are fine.
	require.NoError(t, ss.UpdateCircuit(ctx, a))
	e1, e2 := model.Circuit{}, model.Circuit{}
	require.NoError(t, ss.CreateCircuit(ctx, &e1))
	require.NoError(t, ss.CreateCircuit(ctx, &e2))
}

func TestSQLite_Reports(t *testing.T) {
	ctx := context.Background()
	ss := newTestStorage(t)
	name := "in.csv"

	require.NoError(t, ss.Report(ctx, model.ImportReport{Type: model.ReportFinished, ID: "r1", Message: "In progress", FileName: &name}))
	require.NoError(t, ss.Report(ctx, model.ImportReport{Type: model.ReportError, ID: "r2", Message: "bad row"}))
	require.NoError(t, ss.FinishReport(ctx, "r1", "Finished import with 1 errors"))

	all, err := ss.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	unseen, err := ss.ListUnseenReports(ctx)
	require.NoError(t, err)
	require.Len(t, unseen, 1)
	assert.Equal(t, "r1", unseen[0].ID)
	assert.Equal(t, "Finished import with 1 errors", unseen[0].Message)
	require.NotNil(t, unseen[0].FileName)
	assert.Equal(t, "in.csv", *unseen[0].FileName)

	require.NoError(t, ss.AcknowledgeReport(ctx, "r1"))
	unseen, err = ss.ListUnseenReports(ctx)
	require.NoError(t, err)
	assert.Empty(t, unseen)

	assert.ErrorIs(t, ss.AcknowledgeReport(ctx, "missing"), ErrReportNotFound)
	assert.ErrorIs(t, ss.FinishReport(ctx, "missing", "x"), ErrReportNotFound)
	assert.Nil(t, all[1].FileName)
}

func TestSQLite_Users(t *testing.T) {
	ctx := context.Background()
	ss := newTestStorage(t)

	_, err := ss.GetUser(ctx, "alice")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, ss.PutUser(ctx, model.User{Username: "alice", PasswordHash: "h1", Role: model.RoleUser}))
	require.NoError(t, ss.PutUser(ctx, model.User{Username: "alice", PasswordHash: "h2", Role: model.RoleAdmin}))

	u, err := ss.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.User{Username: "alice", PasswordHash: "h2", Role: model.RoleAdmin}, u)
}

func TestSQLite_MigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.db")
	ss, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, ss.Close())

	ss, err = NewSQLiteStorage(path)
	require.NoError(t, err)
	defer ss.Close()

	var version int
	require.NoError(t, ss.db.QueryRow(queryCurrentVersion).Scan(&version))
	assert.Equal(t, len(migrations(sqliteDialect)), version)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y <> $2", rebind("SELECT a FROM t WHERE x = ? AND y <> ?"))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
