package output

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/reqsift/reqsift/internal/model"
)

// Header is the summary column set, in output order.
var Header = []string{"datetime", "datacenter", "request", "filename", "status", "seconds"}

// Writer receives completed-request records, in emission order.
type Writer interface {
	Write(rec *model.Record) error
	Close() error
}

// ---------------------------------------------------------------------------
// CSV Writer (the default summary format)
// ---------------------------------------------------------------------------

// CSVWriter writes records as comma-separated rows under a fixed header.
// Field quoting follows RFC 4180 via encoding/csv.
type CSVWriter struct {
	cw *csv.Writer
}

// NewCSVWriter writes the header row immediately so an input with zero
// completed requests still produces a well-formed summary.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return nil, err
	}
	return &CSVWriter{cw: cw}, nil
}

func (w *CSVWriter) Write(rec *model.Record) error {
	return w.cw.Write(rec.Fields())
}

func (w *CSVWriter) Close() error {
	w.cw.Flush()
	return w.cw.Error()
}

// ---------------------------------------------------------------------------
// JSON Writer (one object per line, for piping)
// ---------------------------------------------------------------------------

// JSONWriter writes each record as a single JSON object per line.
type JSONWriter struct {
	enc *json.Encoder
}

func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{enc: json.NewEncoder(w)}
}

func (w *JSONWriter) Write(rec *model.Record) error {
	return w.enc.Encode(rec)
}

func (w *JSONWriter) Close() error { return nil }
