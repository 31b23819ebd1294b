package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinsuchenak/circuits/internal/auth"
	"github.com/martinsuchenak/circuits/internal/model"
	"github.com/martinsuchenak/circuits/internal/storage"
)

var testSecret = []byte("api-test-secret")

type testServer struct {
	handler *Handler
	store   storage.Storage
	mux     http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, testSecret, time.Hour)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return &testServer{handler: h, store: store, mux: SecurityHeadersMiddleware(LoggingMiddleware(mux))}
}

func (ts *testServer) token(t *testing.T, role string) string {
	t.Helper()
	tok, err := auth.Generate(testSecret, "tester", role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope[T any](t *testing.T, rec *httptest.ResponseRecorder) model.Result[T] {
	t.Helper()
	var res model.Result[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func jsonReader(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	hash, err := auth.HashPassword("pw")
	require.NoError(t, err)
	require.NoError(t, ts.store.PutUser(context.Background(), model.User{Username: "alice", PasswordHash: hash, Role: model.RoleAdmin}))

	rec := ts.do(t, http.MethodPost, "/auth/login", "",
		jsonReader(t, loginRequest{Username: "alice", Password: "pw", RequestedRole: "admin"}), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	resp, ok := decodeEnvelope[loginResponse](t, rec).Get()
	require.True(t, ok)

	claims, err := auth.Parse(testSecret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "admin", claims.Role)

	for _, bad := range []loginRequest{
		{Username: "alice", Password: "wrong", RequestedRole: "admin"},
		{Username: "alice", Password: "pw", RequestedRole: "user"},
		{Username: "bob", Password: "pw", RequestedRole: "admin"},
	} {
		rec = ts.do(t, http.MethodPost, "/auth/login", "", jsonReader(t, bad), "application/json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f, failed := decodeEnvelope[loginResponse](t, rec).Failure()
		require.True(t, failed)
		assert.Equal(t, "Invalid user", f.Message)
	}

	rec = ts.do(t, http.MethodPost, "/auth/login", "", strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthAndRoles(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/circuits/all", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	f, _ := decodeEnvelope[any](t, rec).Failure()
	assert.Equal(t, "Invalid auth", f.Message)

	rec = ts.do(t, http.MethodGet, "/api/circuits/all", "garbage", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	userTok := ts.token(t, model.RoleUser)
	rec = ts.do(t, http.MethodGet, "/api/circuits/all", userTok, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = ts.do(t, http.MethodPost, "/api/circuits/create", userTok, jsonReader(t, model.CircuitDTO{}), "application/json")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/circuits/reports/get/all", userTok, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCircuitCRUD(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(t, model.RoleAdmin)

	site, ckt := "Main Office", "A1"
	rec := ts.do(t, http.MethodPost, "/api/circuits/create", tok,
		jsonReader(t, model.CircuitDTO{SiteName: &site, CktID: &ckt}), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)
	created, ok := decodeEnvelope[model.Circuit](t, rec).Get()
	require.True(t, ok)
	require.NotEmpty(t, created.ID)

	rec = ts.do(t, http.MethodGet, "/api/circuits/"+created.ID, tok, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got, _ := decodeEnvelope[model.Circuit](t, rec).Get()
	assert.Equal(t, created, got)

	got.Provider = "Acme"
	rec = ts.do(t, http.MethodPut, "/api/circuits/update", tok, jsonReader(t, got), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeEnvelope[any](t, rec).OK())

	rec = ts.do(t, http.MethodGet, "/api/circuits/all", tok, nil, "")
	all, _ := decodeEnvelope[[]model.Circuit](t, rec).Get()
	assert.Equal(t, []model.Circuit{got}, all)

	rec = ts.do(t, http.MethodGet, "/api/circuits/missing", tok, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	f, _ := decodeEnvelope[any](t, rec).Failure()
	assert.Equal(t, "Resource not found", f.Message)

	rec = ts.do(t, http.MethodPut, "/api/circuits/update", tok, jsonReader(t, model.Circuit{ID: "missing"}), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/circuits/update", tok, strings.NewReader("not json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateDuplicateCktID(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(t, model.RoleAdmin)
	ctx := context.Background()

	a := model.Circuit{ID: "1", CktID: "A1"}
	b := model.Circuit{ID: "2", CktID: "B7"}
	require.NoError(t, ts.store.CreateCircuit(ctx, &a))
	require.NoError(t, ts.store.CreateCircuit(ctx, &b))

	b.CktID = "A1"
	rec := ts.do(t, http.MethodPut, "/api/circuits/update", tok, jsonReader(t, b), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f, failed := decodeEnvelope[any](t, rec).Failure()
	require.True(t, failed)
	assert.Contains(t, f.Message, "duplicate ckt_id")
}

func TestExport(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(t, model.RoleUser)
	c := model.Circuit{ID: "1", SiteName: "Main Office"}
	require.NoError(t, ts.store.CreateCircuit(context.Background(), &c))

	rec := ts.do(t, http.MethodGet, "/api/circuits/export", tok, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="circuits.csv"`, rec.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,state,site_name,"))
	assert.True(t, strings.HasPrefix(lines[1], "1,,Main Office,"))
}

func multipartBody(t *testing.T, contentType, name, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestImport(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(t, model.RoleAdmin)
	ctx := context.Background()

	existing := model.Circuit{ID: "keep", CktID: "A1", SiteName: "Old"}
	require.NoError(t, ts.store.CreateCircuit(ctx, &existing))

	csvData := "id,site_name,ckt_id\n" +
		",Main Office,N1\n" +
		"keep,Renamed,A1\n" +
		"missing,Nowhere,M1\n" +
		",Dup,A1\n"
	body, ct := multipartBody(t, "text/csv", "in.csv", csvData)

	rec := ts.do(t, http.MethodPost, "/api/circuits/import", tok, body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	msg, _ := decodeEnvelope[string](t, rec).Get()
	assert.Equal(t, "Successfully started report", msg)

	ts.handler.Wait()

	all, err := ts.store.ListCircuits(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Renamed", all[0].SiteName)
	assert.Equal(t, "Main Office", all[1].SiteName)
	assert.NotEmpty(t, all[1].ID)

	unseen, err := ts.store.ListUnseenReports(ctx)
	require.NoError(t, err)
	require.Len(t, unseen, 1)
	assert.Equal(t, "Finished import with 2 errors", unseen[0].Message)
	require.NotNil(t, unseen[0].FileName)
	assert.Equal(t, "in.csv", *unseen[0].FileName)

	reports, err := ts.store.ListReports(ctx)
	require.NoError(t, err)
	errorsSeen := 0
	for _, r := range reports {
		if r.Type == model.ReportError {
			errorsSeen++
		}
	}
	assert.Equal(t, 2, errorsSeen)

	rec = ts.do(t, http.MethodGet, "/api/circuits/reports/get/unseen", tok, nil, "")
	got, _ := decodeEnvelope[[]model.ImportReport](t, rec).Get()
	require.Len(t, got, 1)

	rec = ts.do(t, http.MethodPost, "/api/circuits/reports/acknowledge", tok, jsonReader(t, map[string]string{"id": got[0].ID}), "application/json")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/circuits/reports/get/unseen", tok, nil, "")
	got, _ = decodeEnvelope[[]model.ImportReport](t, rec).Get()
	assert.Empty(t, got)

	rec = ts.do(t, http.MethodPost, "/api/circuits/reports/acknowledge", tok, jsonReader(t, map[string]string{"id": "nope"}), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImport_RejectsNonCSVPart(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(t, model.RoleAdmin)

	body, ct := multipartBody(t, "application/json", "in.json", "{}")
	rec := ts.do(t, http.MethodPost, "/api/circuits/import", tok, body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f, _ := decodeEnvelope[any](t, rec).Failure()
	assert.Equal(t, "No data field", f.Message)

	rec = ts.do(t, http.MethodPost, "/api/circuits/import", tok, strings.NewReader("x"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
