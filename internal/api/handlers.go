package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sync"
	"time"

	"github.com/martinsuchenak/circuits/internal/auth"
	"github.com/martinsuchenak/circuits/internal/csvio"
	"github.com/martinsuchenak/circuits/internal/log"
	"github.com/martinsuchenak/circuits/internal/model"
	"github.com/martinsuchenak/circuits/internal/storage"
)

const (
	msgInvalidBody    = "Invalid request body"
	msgNotFound       = "Resource not found"
	msgInvalidAuth    = "Invalid auth"
	msgForbidden      = "Insufficient role"
	msgInvalidUser    = "Invalid user"
	msgNoDataField    = "No data field"
	msgMalformed      = "Malformed request"
	msgImportStarted  = "Successfully started report"
	msgImportProgress = "In progress"

	maxJSONBody   = 1 << 20
	maxImportBody = 32 << 20

	// DefaultTokenTTL matches the one-day tokens the web client expects.
	DefaultTokenTTL = 24 * time.Hour
)

// Handler handles HTTP requests
type Handler struct {
	storage  storage.Storage
	secret   []byte
	tokenTTL time.Duration

	imports sync.WaitGroup
}

// NewHandler creates a new API handler. Tokens are signed with secret.
func NewHandler(s storage.Storage, secret []byte, tokenTTL time.Duration) *Handler {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Handler{storage: s, secret: secret, tokenTTL: tokenTTL}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	read := h.requireRole(model.RoleAdmin, model.RoleUser)
	admin := h.requireRole(model.RoleAdmin)

	mux.HandleFunc("POST /auth/login", h.login)

	// Circuits
	mux.Handle("GET /api/circuits/all", read(h.listCircuits))
	mux.Handle("GET /api/circuits/export", read(h.exportCircuits))
	mux.Handle("GET /api/circuits/{id}", read(h.getCircuit))
	mux.Handle("POST /api/circuits/create", admin(h.createCircuit))
	mux.Handle("PUT /api/circuits/update", admin(h.updateCircuit))
	mux.Handle("POST /api/circuits/import", admin(h.importCircuits))

	// Import reports
	mux.Handle("GET /api/circuits/reports/get/unseen", admin(h.listUnseenReports))
	mux.Handle("GET /api/circuits/reports/get/all", admin(h.listReports))
	mux.Handle("POST /api/circuits/reports/acknowledge", admin(h.acknowledgeReport))
}

// Wait blocks until background imports have finished.
func (h *Handler) Wait() {
	h.imports.Wait()
}

type loginRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	RequestedRole string `json:"requested_role"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// login handles POST /auth/login
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Username == "" || !model.ValidRole(req.RequestedRole) {
		log.Warn("Invalid login request body", "error", err)
		h.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, err := h.storage.GetUser(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("Login failed - unknown user", "username", req.Username)
			h.writeError(w, http.StatusBadRequest, msgInvalidUser)
			return
		}
		h.internalError(w, err)
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil || user.Role != req.RequestedRole {
		log.Warn("Login failed - bad credentials", "username", req.Username, "requested_role", req.RequestedRole)
		h.writeError(w, http.StatusBadRequest, msgInvalidUser)
		return
	}

	token, err := auth.Generate(h.secret, user.Username, user.Role, h.tokenTTL)
	if err != nil {
		h.internalError(w, err)
		return
	}

	log.Info("User logged in", "username", user.Username, "role", user.Role)
	h.writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// listCircuits handles GET /api/circuits/all
func (h *Handler) listCircuits(w http.ResponseWriter, r *http.Request) {
	circuits, err := h.storage.ListCircuits(r.Context())
	if err != nil {
		log.Error("Failed to list circuits", "error", err)
		h.internalError(w, err)
		return
	}

	log.Debug("Listed circuits", "count", len(circuits))
	h.writeJSON(w, http.StatusOK, circuits)
}

// getCircuit handles GET /api/circuits/{id}
func (h *Handler) getCircuit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "circuit ID required")
		return
	}

	circuit, err := h.storage.GetCircuit(r.Context(), id)
	if err != nil {
		h.storageError(w, err, "get", id)
		return
	}

	log.Debug("Retrieved circuit", "id", id, "ckt_id", circuit.CktID)
	h.writeJSON(w, http.StatusOK, circuit)
}

// createCircuit handles POST /api/circuits/create
func (h *Handler) createCircuit(w http.ResponseWriter, r *http.Request) {
	var dto model.CircuitDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		log.Warn("Invalid circuit creation request body", "error", err)
		h.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	circuit := dto.Circuit("")
	if err := h.storage.CreateCircuit(r.Context(), &circuit); err != nil {
		h.storageError(w, err, "create", circuit.ID)
		return
	}

	log.Info("Circuit created successfully", "id", circuit.ID, "ckt_id", circuit.CktID)
	h.writeJSON(w, http.StatusCreated, circuit)
}

// updateCircuit handles PUT /api/circuits/update
func (h *Handler) updateCircuit(w http.ResponseWriter, r *http.Request) {
	var circuit model.Circuit
	if err := decodeJSON(w, r, &circuit); err != nil {
		log.Warn("Invalid circuit update request body", "error", err)
		h.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := h.storage.UpdateCircuit(r.Context(), circuit); err != nil {
		h.storageError(w, err, "update", circuit.ID)
		return
	}

	log.Info("Circuit updated successfully", "id", circuit.ID, "ckt_id", circuit.CktID)
	h.writeJSON(w, http.StatusOK, nil)
}

// exportCircuits handles GET /api/circuits/export
func (h *Handler) exportCircuits(w http.ResponseWriter, r *http.Request) {
	circuits, err := h.storage.ListCircuits(r.Context())
	if err != nil {
		log.Error("Error exporting csv", "error", err)
		h.internalError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := csvio.Encode(&buf, circuits); err != nil {
		log.Error("Error exporting csv", "error", err)
		h.internalError(w, err)
		return
	}

	log.Info("Exported circuits", "count", len(circuits))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="circuits.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// importCircuits handles POST /api/circuits/import. The first multipart
// part must be a text/csv file; rows are applied in the background.
func (h *Handler) importCircuits(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBody)
	reader, err := r.MultipartReader()
	if err != nil {
		log.Warn("Import request is not multipart", "error", err)
		h.writeError(w, http.StatusBadRequest, msgMalformed)
		return
	}
	part, err := reader.NextPart()
	if err != nil {
		log.Warn("Import request has no parts", "error", err)
		h.writeError(w, http.StatusBadRequest, msgMalformed)
		return
	}
	defer part.Close()

	mediaType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/csv" {
		log.Warn("Import part is not CSV", "content_type", part.Header.Get("Content-Type"))
		h.writeError(w, http.StatusBadRequest, msgNoDataField)
		return
	}

	data, err := io.ReadAll(part)
	if err != nil {
		log.Error("Failed to read csv file", "error", err)
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var fileName *string
	if name := part.FileName(); name != "" {
		fileName = &name
	}

	reportID := storage.NewID()
	err = h.storage.Report(r.Context(), model.ImportReport{
		Type:     model.ReportFinished,
		ID:       reportID,
		Message:  msgImportProgress,
		FileName: fileName,
	})
	if err != nil {
		log.Error("Failed to begin report", "error", err)
		h.internalError(w, err)
		return
	}

	log.Info("Beginning import", "report_id", reportID, "bytes", len(data))
	h.imports.Add(1)
	go func() {
		defer h.imports.Done()
		h.runImport(context.WithoutCancel(r.Context()), reportID, fileName, data)
	}()

	h.writeJSON(w, http.StatusOK, msgImportStarted)
}

// runImport creates rows without an id and updates the rest, recording an
// error report for every row that fails.
func (h *Handler) runImport(ctx context.Context, reportID string, fileName *string, data []byte) {
	numErrors := 0
	fail := func(err error) {
		numErrors++
		rerr := h.storage.Report(ctx, model.ImportReport{
			Type:     model.ReportError,
			ID:       storage.NewID(),
			Message:  err.Error(),
			FileName: fileName,
		})
		if rerr != nil {
			log.Error("Failed to report error to db", "error", rerr)
		}
	}

	circuits, rowErrs, err := csvio.DecodeAll(bytes.NewReader(data))
	for _, rowErr := range rowErrs {
		log.Warn("Failed reading record from imported csv", "error", rowErr)
		fail(rowErr)
	}
	if err != nil {
		log.Error("Failed to read imported csv", "error", err)
		fail(err)
	}

	for _, c := range circuits {
		if c.ID == "" {
			if err := h.storage.CreateCircuit(ctx, &c); err != nil {
				log.Error("Failed to create circuit", "error", err)
				fail(err)
				continue
			}
			log.Debug("Created circuit from import", "id", c.ID)
			continue
		}
		if err := h.storage.UpdateCircuit(ctx, c); err != nil {
			log.Error("Failed to update imported circuit", "error", err, "id", c.ID)
			fail(fmt.Errorf("circuit %s: %w", c.ID, err))
			continue
		}
		log.Debug("Updated circuit from import", "id", c.ID)
	}

	msg := fmt.Sprintf("Finished import with %d errors", numErrors)
	if err := h.storage.FinishReport(ctx, reportID, msg); err != nil {
		log.Error("Failed to finish reporting import", "error", err)
		return
	}
	log.Info("Import finished", "report_id", reportID, "rows", len(circuits), "errors", numErrors)
}

// listUnseenReports handles GET /api/circuits/reports/get/unseen
func (h *Handler) listUnseenReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.storage.ListUnseenReports(r.Context())
	if err != nil {
		h.internalError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, reports)
}

// listReports handles GET /api/circuits/reports/get/all
func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.storage.ListReports(r.Context())
	if err != nil {
		h.internalError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, reports)
}

type acknowledgement struct {
	ID string `json:"id"`
}

// acknowledgeReport handles POST /api/circuits/reports/acknowledge
func (h *Handler) acknowledgeReport(w http.ResponseWriter, r *http.Request) {
	var ack acknowledgement
	if err := decodeJSON(w, r, &ack); err != nil || ack.ID == "" {
		h.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := h.storage.AcknowledgeReport(r.Context(), ack.ID); err != nil {
		h.storageError(w, err, "acknowledge", ack.ID)
		return
	}

	log.Info("Report acknowledged", "id", ack.ID)
	h.writeJSON(w, http.StatusOK, nil)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "" && mediaType != "application/json" {
		return fmt.Errorf("unsupported content type %q", mediaType)
	}
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v)
}

// storageError maps storage errors onto responses
func (h *Handler) storageError(w http.ResponseWriter, err error, op, id string) {
	switch {
	case errors.Is(err, storage.ErrCircuitNotFound), errors.Is(err, storage.ErrReportNotFound):
		log.Warn("Resource not found", "op", op, "id", id)
		h.writeError(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, storage.ErrDuplicateCktID), errors.Is(err, storage.ErrInvalidID):
		log.Warn("Rejected circuit", "op", op, "id", id, "error", err)
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error("Storage failure", "op", op, "id", id, "error", err)
		h.internalError(w, err)
	}
}

// writeJSON writes a success envelope
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.Success(data))
}

// writeError writes an error envelope
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.Fail[any](model.FailureServer, message))
}

// internalError logs the error and writes a generic 500 response
func (h *Handler) internalError(w http.ResponseWriter, err error) {
	log.Error("Internal server error", "error", err)
	h.writeError(w, http.StatusInternalServerError, "Internal Server Error")
}
