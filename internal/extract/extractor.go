package extract

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/reqsift/reqsift/internal/model"
	"github.com/reqsift/reqsift/internal/reader"
)

// Marker prefixes written by the retrieval service.
const (
	startPrefix      = "Running getData"
	filePrefix       = "Retrieving file "
	completionPrefix = "Returning status"
)

// Field positions within whitespace-tokenized marker messages.
const (
	startDatacenterIndex  = 3
	startRequestIndex     = 8
	completionStatusIndex = 2
	statusLen             = 4
)

// ErrMalformedMarker reports a recognized marker line with too few tokens to
// carry its fields. The service is not supposed to emit these; by default
// extraction stops rather than guessing.
var ErrMalformedMarker = errors.New("malformed marker line")

// MarkerError carries the detail behind an ErrMalformedMarker.
type MarkerError struct {
	Marker string // "start" or "completion"
	Line   string // the offending line, verbatim
	Tokens int    // tokens found in the message
	Need   int    // tokens required
}

func (e *MarkerError) Error() string {
	return fmt.Sprintf("malformed %s marker: %d token(s), need %d: %q", e.Marker, e.Tokens, e.Need, e.Line)
}

func (e *MarkerError) Unwrap() error { return ErrMalformedMarker }

// Counts is a snapshot of what an Extractor has seen so far.
type Counts struct {
	Lines     int64 `json:"lines"`     // lines fed in
	Skipped   int64 `json:"skipped"`   // non-log lines silently dropped
	Records   int64 `json:"records"`   // completed requests emitted
	Abandoned int64 `json:"abandoned"` // pending requests overwritten by a new start
	Dropped   int64 `json:"dropped"`   // completion markers with nothing pending
	Malformed int64 `json:"malformed"` // marker lines skipped in lenient mode
}

// Extractor correlates start, file, and completion markers from a
// line-oriented retrieval-service debug log into one record per completed
// request. It holds at most one pending request at a time and must be fed
// lines in input order: ordering decides which start a completion attaches
// to. Not safe for concurrent use.
type Extractor struct {
	lenient bool
	log     *zap.SugaredLogger

	// Pending request. active gates emission; a completion marker that
	// arrives while inactive is dropped.
	active     bool
	start      time.Time
	datacenter string
	request    string
	filename   string

	counts Counts
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLenient makes malformed marker lines a skip instead of an error.
// Skipped marker lines leave the pending request untouched.
func WithLenient() Option {
	return func(e *Extractor) { e.lenient = true }
}

// WithLogger attaches a logger for skip/abandon diagnostics, emitted at
// debug level so the default surface stays silent.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Extractor) { e.log = log }
}

// New returns an Extractor with empty pending state.
func New(opts ...Option) *Extractor {
	e := &Extractor{log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Counts returns a snapshot of the extractor's line accounting.
func (e *Extractor) Counts() Counts { return e.counts }

// Line feeds one raw log line through the state machine. It returns a
// record when the line is a completion marker that closes a pending
// request, nil otherwise. Lines that do not look like log records — too few
// tokens, unparseable timestamp — are skipped silently and leave state
// unchanged. A recognized marker line with too few tokens returns a
// *MarkerError unless the extractor is lenient.
func (e *Extractor) Line(raw string) (*model.Record, error) {
	e.counts.Lines++

	parts := splitLine(raw)
	if len(parts) < 3 {
		e.counts.Skipped++
		return nil, nil
	}
	logtime, err := time.Parse(timeLayout, parts[0]+" "+parts[1])
	if err != nil {
		e.counts.Skipped++
		e.log.Debugw("skipping line with unparseable timestamp", "date", parts[0], "time", parts[1])
		return nil, nil
	}
	message := parts[2]

	switch {
	case strings.HasPrefix(message, startPrefix):
		return nil, e.startMarker(raw, message, logtime)
	case strings.HasPrefix(message, filePrefix):
		e.filename = strings.TrimSpace(message[len(filePrefix):])
		return nil, nil
	case strings.HasPrefix(message, completionPrefix):
		return e.completionMarker(raw, message, logtime)
	}
	return nil, nil
}

// startMarker begins a new pending request, abandoning any unfinished one.
func (e *Extractor) startMarker(raw, message string, logtime time.Time) error {
	fields := strings.Fields(message)
	if len(fields) <= startRequestIndex {
		return e.malformed("start", raw, len(fields), startRequestIndex+1)
	}
	if e.active {
		e.counts.Abandoned++
		e.log.Debugw("abandoning unfinished request", "request", e.request, "datacenter", e.datacenter)
	}
	e.active = true
	e.start = logtime
	e.datacenter = fields[startDatacenterIndex]
	e.request = fields[startRequestIndex]
	e.filename = ""
	return nil
}

// completionMarker closes the pending request, if any. Token extraction
// happens before the pending check: a malformed completion line is an error
// even when nothing is pending.
func (e *Extractor) completionMarker(raw, message string, logtime time.Time) (*model.Record, error) {
	fields := strings.Fields(message)
	if len(fields) <= completionStatusIndex {
		return nil, e.malformed("completion", raw, len(fields), completionStatusIndex+1)
	}
	status := fields[completionStatusIndex]
	if len(status) > statusLen {
		status = status[:statusLen]
	}
	if !e.active {
		e.counts.Dropped++
		e.log.Debugw("dropping completion with no pending request", "status", status)
		return nil, nil
	}
	rec := &model.Record{
		StartTime:  e.start,
		Datacenter: e.datacenter,
		Request:    e.request,
		Filename:   e.filename,
		Status:     status,
		Seconds:    logtime.Sub(e.start).Seconds(),
	}
	e.active = false
	e.datacenter = ""
	e.filename = ""
	e.counts.Records++
	return rec, nil
}

func (e *Extractor) malformed(marker, raw string, tokens, need int) error {
	if e.lenient {
		e.counts.Malformed++
		e.log.Debugw("skipping malformed marker line", "marker", marker, "tokens", tokens)
		return nil
	}
	return &MarkerError{Marker: marker, Line: raw, Tokens: tokens, Need: need}
}

// Run drains a line channel through the extractor, calling emit for every
// completed record, in emission order. Marker and reader errors are wrapped
// with the 1-based line number. A single pass: the channel is consumed to
// exhaustion or first error.
func (e *Extractor) Run(lines <-chan reader.Line, emit func(*model.Record) error) error {
	for line := range lines {
		if line.Err != nil {
			return fmt.Errorf("line %d: %w", line.Number, line.Err)
		}
		rec, err := e.Line(line.Text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line.Number, err)
		}
		if rec == nil {
			continue
		}
		if err := emit(rec); err != nil {
			return err
		}
	}
	return nil
}
