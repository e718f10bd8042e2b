package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the layout completed requests carry in summary output.
// The service log itself uses slashes; summaries use dashes.
const TimeLayout = "2006-01-02 15:04:05"

// Record represents one completed retrieval request reconstructed from the
// debug log: the start marker's identifiers, the last file announced before
// completion (empty when none was), and the status/elapsed pair from the
// completion marker. Seconds may be negative if the log is out of order.
type Record struct {
	StartTime  time.Time `json:"-"`
	Datacenter string    `json:"datacenter"`
	Request    string    `json:"request"`
	Filename   string    `json:"filename"`
	Status     string    `json:"status"`
	Seconds    float64   `json:"seconds"`
}

// StartText returns the request start time in summary form.
func (r *Record) StartText() string {
	return r.StartTime.Format(TimeLayout)
}

// SecondsText renders the elapsed seconds the way the original summaries
// did: shortest decimal form, always with a fractional part ("5.0", "2.5").
func (r *Record) SecondsText() string {
	s := strconv.FormatFloat(r.Seconds, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Fields returns the record as summary-row fields, in column order:
// datetime, datacenter, request, filename, status, seconds.
func (r *Record) Fields() []string {
	return []string{
		r.StartText(),
		r.Datacenter,
		r.Request,
		r.Filename,
		r.Status,
		r.SecondsText(),
	}
}

// MarshalJSON emits the start time in summary form rather than RFC 3339 so
// the JSON and CSV outputs agree on the datetime column.
func (r *Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		Datetime string `json:"datetime"`
		*plain
	}{
		Datetime: r.StartText(),
		plain:    (*plain)(r),
	})
}
