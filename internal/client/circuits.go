package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/martinsuchenak/circuits/internal/model"
)

// CSVContentType is the only content type accepted for import.
const CSVContentType = "text/csv"

// ListCircuits fetches every circuit.
func (c *Client) ListCircuits(ctx context.Context) model.Result[[]model.Circuit] {
	return call[[]model.Circuit](ctx, c, request{method: http.MethodGet, path: "/api/circuits/all"})
}

// GetCircuit fetches one circuit by id.
func (c *Client) GetCircuit(ctx context.Context, id string) model.Result[model.Circuit] {
	if strings.TrimSpace(id) == "" {
		return model.Fail[model.Circuit](model.FailureValidation, "circuit id is required")
	}
	return call[model.Circuit](ctx, c, request{method: http.MethodGet, path: "/api/circuits/" + url.PathEscape(id)})
}

// CreateCircuit creates a circuit and returns it with its new id.
func (c *Client) CreateCircuit(ctx context.Context, dto model.CircuitDTO) model.Result[model.Circuit] {
	body, err := jsonBody(dto)
	if err != nil {
		return model.Failf[model.Circuit](model.FailureValidation, "invalid circuit: %v", err)
	}
	return call[model.Circuit](ctx, c, request{
		method:      http.MethodPost,
		path:        "/api/circuits/create",
		body:        body,
		contentType: "application/json",
	})
}

// UpdateCircuit replaces the stored circuit with the same id.
func (c *Client) UpdateCircuit(ctx context.Context, circuit model.Circuit) model.Result[model.Circuit] {
	body, err := jsonBody(circuit)
	if err != nil {
		return model.Failf[model.Circuit](model.FailureValidation, "invalid circuit: %v", err)
	}
	return call[model.Circuit](ctx, c, request{
		method:      http.MethodPut,
		path:        "/api/circuits/update",
		body:        body,
		contentType: "application/json",
	})
}

// ExportCircuits downloads every circuit as CSV.
func (c *Client) ExportCircuits(ctx context.Context) model.Result[[]byte] {
	data, f := c.send(ctx, request{method: http.MethodGet, path: "/api/circuits/export"})
	if f != nil {
		return model.Fail[[]byte](f.Kind, "Failed to fetch CSV: "+f.Message)
	}
	return model.Success(data)
}

// Upload is a file offered for import.
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// OpenUpload opens path and declares its content type from the extension.
// The caller closes the returned file.
func OpenUpload(path string) (Upload, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return Upload{}, nil, err
	}
	return Upload{
		Name:        filepath.Base(path),
		ContentType: ContentTypeFor(path),
		Body:        f,
	}, f, nil
}

// ContentTypeFor guesses a content type from the file extension.
func ContentTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".csv" {
		return CSVContentType
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// ValidateUpload checks the declared content type is CSV.
func ValidateUpload(u Upload) error {
	mediaType, _, err := mime.ParseMediaType(u.ContentType)
	if err != nil || mediaType != CSVContentType {
		return fmt.Errorf("please select a valid CSV file (got %q)", u.ContentType)
	}
	if u.Body == nil {
		return fmt.Errorf("no file data")
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// ImportCircuits uploads a CSV file. Non-CSV uploads are rejected without a network call.
func (c *Client) ImportCircuits(ctx context.Context, u Upload) model.Result[string] {
	if err := ValidateUpload(u); err != nil {
		return model.Fail[string](model.FailureValidation, err.Error())
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(u.Name)))
	h.Set("Content-Type", CSVContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return model.Failf[string](model.FailureValidation, "building upload: %v", err)
	}
	if _, err := io.Copy(part, u.Body); err != nil {
		return model.Failf[string](model.FailureValidation, "reading %s: %v", u.Name, err)
	}
	if err := mw.Close(); err != nil {
		return model.Failf[string](model.FailureValidation, "building upload: %v", err)
	}

	return call[string](ctx, c, request{
		method:      http.MethodPost,
		path:        "/api/circuits/import",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	})
}

// UnseenReports lists finished imports that have not been acknowledged.
func (c *Client) UnseenReports(ctx context.Context) model.Result[[]model.ImportReport] {
	return call[[]model.ImportReport](ctx, c, request{method: http.MethodGet, path: "/api/circuits/reports/get/unseen"})
}

// AllReports lists every import report.
func (c *Client) AllReports(ctx context.Context) model.Result[[]model.ImportReport] {
	return call[[]model.ImportReport](ctx, c, request{method: http.MethodGet, path: "/api/circuits/reports/get/all"})
}

// AcknowledgeReport marks a report as seen.
func (c *Client) AcknowledgeReport(ctx context.Context, id string) model.Result[struct{}] {
	body, err := jsonBody(map[string]string{"id": id})
	if err != nil {
		return model.Failf[struct{}](model.FailureValidation, "invalid acknowledgement: %v", err)
	}
	return call[struct{}](ctx, c, request{
		method:      http.MethodPost,
		path:        "/api/circuits/reports/acknowledge",
		body:        body,
		contentType: "application/json",
	})
}

// ExportFilename names an export captured at t: circuits_ followed by the
// UTC ISO-8601 timestamp with '-', ':' and '.' removed.
func ExportFilename(t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer("-", "", ":", "", ".", "").Replace(ts)
	return "circuits_" + ts + ".csv"
}

// SaveExport writes data into dir under ExportFilename(now) and returns the path.
func SaveExport(dir string, data []byte, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, ExportFilename(now))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("saving export: %w", err)
	}
	return path, nil
}
