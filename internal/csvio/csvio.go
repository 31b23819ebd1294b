// Package csvio reads and writes circuits as CSV. The header row carries the
// field names; columns are matched by name, so order does not matter and
// unknown columns are ignored.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/martinsuchenak/circuits/internal/model"
)

var (
	// ErrNoHeader is returned for an empty input.
	ErrNoHeader = errors.New("csv has no header row")
	// ErrNoKnownColumns is returned when no header names a circuit field.
	ErrNoKnownColumns = errors.New("csv header has no circuit columns")
)

// Encode writes a header row followed by one row per circuit, columns in model.AllFields order.
func Encode(w io.Writer, circuits []model.Circuit) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.AllFields); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	row := make([]string, len(model.AllFields))
	for _, c := range circuits {
		for i, f := range model.AllFields {
			row[i], _ = c.Get(f)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing circuit %s: %w", c.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// RowError describes a row that could not be read. Decoding may continue after it.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Decoder reads circuits from CSV.
type Decoder struct {
	r       *csv.Reader
	columns []string
}

// NewDecoder reads the header row from r.
func NewDecoder(r io.Reader) (*Decoder, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := make([]string, len(header))
	known := 0
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if model.IsField(name) {
			columns[i] = name
			known++
		}
	}
	if known == 0 {
		return nil, ErrNoKnownColumns
	}
	return &Decoder{r: cr, columns: columns}, nil
}

// Next returns the next circuit, io.EOF at the end of input, or a *RowError
// for a malformed row.
func (d *Decoder) Next() (model.Circuit, error) {
	record, err := d.r.Read()
	if errors.Is(err, io.EOF) {
		return model.Circuit{}, io.EOF
	}
	if err != nil {
		line := 0
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			line = pe.Line
		}
		return model.Circuit{}, &RowError{Line: line, Err: err}
	}

	var c model.Circuit
	for i, v := range record {
		if i >= len(d.columns) || d.columns[i] == "" {
			continue
		}
		_ = c.Set(d.columns[i], v)
	}
	return c, nil
}

// DecodeAll reads every row. Malformed rows are collected rather than stopping the read.
func DecodeAll(r io.Reader) ([]model.Circuit, []error, error) {
	d, err := NewDecoder(r)
	if err != nil {
		return nil, nil, err
	}
	var (
		circuits []model.Circuit
		rowErrs  []error
	)
	for {
		c, err := d.Next()
		if errors.Is(err, io.EOF) {
			return circuits, rowErrs, nil
		}
		var re *RowError
		if errors.As(err, &re) {
			rowErrs = append(rowErrs, err)
			if errors.Is(re.Err, csv.ErrFieldCount) {
				continue
			}
			// Quote errors leave the reader unable to resynchronise.
			return circuits, rowErrs, nil
		}
		if err != nil {
			return circuits, rowErrs, err
		}
		circuits = append(circuits, c)
	}
}
