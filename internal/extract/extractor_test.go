package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/reqsift/reqsift/internal/model"
	"github.com/reqsift/reqsift/internal/reader"
)

// feed pushes lines through the extractor and collects emitted records,
// failing the test on any marker error.
func feed(t *testing.T, e *Extractor, lines ...string) []*model.Record {
	t.Helper()
	var records []*model.Record
	for _, line := range lines {
		rec, err := e.Line(line)
		if err != nil {
			t.Fatalf("unexpected error on %q: %v", line, err)
		}
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records
}

func TestCompletedRequest(t *testing.T) {
	e := New()

	records := feed(t, e,
		"2024/01/15 10:00:00 Running getData request DC1 node n3 handler h2 REQ123",
		"2024/01/15 10:00:02 Retrieving file /data/abc.dat",
		"2024/01/15 10:00:05 Returning status 2000 OK",
	)

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.StartText() != "2024-01-15 10:00:00" {
		t.Errorf("expected start '2024-01-15 10:00:00', got %q", rec.StartText())
	}
	if rec.Datacenter != "DC1" {
		t.Errorf("expected datacenter DC1, got %q", rec.Datacenter)
	}
	if rec.Request != "REQ123" {
		t.Errorf("expected request REQ123, got %q", rec.Request)
	}
	if rec.Filename != "/data/abc.dat" {
		t.Errorf("expected filename /data/abc.dat, got %q", rec.Filename)
	}
	if rec.Status != "2000" {
		t.Errorf("expected status 2000, got %q", rec.Status)
	}
	if rec.SecondsText() != "5.0" {
		t.Errorf("expected seconds '5.0', got %q", rec.SecondsText())
	}
}

func TestStatusTruncation(t *testing.T) {
	e := New()

	records := feed(t, e,
		"2024/01/15 10:00:00 Running getData request DC1 node n3 handler h2 REQ123",
		"2024/01/15 10:00:01 Returning status 50031 upstream timeout",
	)

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Status != "5003" {
		t.Errorf("expected status truncated to 5003, got %q", records[0].Status)
	}

	// A status token shorter than 4 characters passes through unchanged.
	records = feed(t, e,
		"2024/01/15 10:01:00 Running getData request DC1 node n3 handler h2 REQ124",
		"2024/01/15 10:01:01 Returning status OK done",
	)
	if records[0].Status != "OK" {
		t.Errorf("expected status OK, got %q", records[0].Status)
	}
}

func TestCompletionWithoutStart(t *testing.T) {
	e := New()

	records := feed(t, e,
		"2024/01/15 10:00:05 Returning status 2000 OK",
		// Processing continues normally afterwards.
		"2024/01/15 10:01:00 Running getData request DC2 node n1 handler h1 REQ200",
		"2024/01/15 10:01:03 Returning status 2000 OK",
	)

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Request != "REQ200" {
		t.Errorf("expected request REQ200, got %q", records[0].Request)
	}
	if got := e.Counts().Dropped; got != 1 {
		t.Errorf("expected 1 dropped completion, got %d", got)
	}
}

func TestSecondStartAbandonsFirst(t *testing.T) {
	e := New()

	records := feed(t, e,
		"2024/01/15 10:00:00 Running getData request DC1 node n3 handler h2 REQ_A",
		"2024/01/15 10:00:01 Running getData request DC2 node n4 handler h1 REQ_B",
		"2024/01/15 10:00:04 Returning status 2000 OK",
	)

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Request != "REQ_B" {
		t.Errorf("expected completion attributed to REQ_B, got %q", rec.Request)
	}
	if rec.Datacenter != "DC2" {
		t.Errorf("expected datacenter DC2, got %q", rec.Datacenter)
	}
	if rec.SecondsText() != "3.0" {
		t.Errorf("expected seconds measured from the second start, got %q", rec.SecondsText())
	}
	if got := e.Counts().Abandoned; got != 1 {
		t.Errorf("expected 1 abandoned request, got %d", got)
	}
}

func TestMalformedLinesSkipped(t *testing.T) {
	noise := []string{
		"",
		"justoneword",
		"two words",
		"not/a/date 10:00:00 Returning status 9999 nope",
		"2024/01/15 99:99:99 Returning status 9999 nope",
		"2024-01-15 10:00:00 Returning status 9999 dashes not slashes",
	}

	e := New()
	feed(t, e, "2024/01/15 10:00:00 Running getData request DC1 node n3 handler h2 REQ123")
	records := feed(t, e, noise...)
	if len(records) != 0 {
		t.Fatalf("expected no records from noise, got %d", len(records))
	}
	if got := e.Counts().Skipped; got != int64(len(noise)) {
		t.Errorf("expected %d skipped lines, got %d", len(noise), got)
	}

	// Pending state survived the noise.
	records = feed(t, e, "2024/01/15 10:00:07 Returning status 2000 OK")
	if len(records) != 1 || records[0].Request != "REQ123" {
		t.Fatalf("expected pending request to survive noise, got %v", records)
	}
}

func TestFilenameResetOnStart(t *testing.T) {
	e := New()

	// A file marker with nothing pending is stored, but a later start
	// marker resets it before it can leak into the new request.
	records := feed(t, e,
		"2024/01/15 09:59:00 Retrieving file /data/stale.dat",
		"2024/01/15 10:00:00 Running getData request DC1 node n3 handler h2 REQ123",
		"2024/01/15 10:00:05 Returning status 2000 OK",
	)

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Filename != "" {
		t.Errorf("expected empty filename, got %q", records[0].Filename)
	}
}

func TestFilenameResetAfterEmit(t *testing.T) {
	e := New()

	records := feed(t, e,
		"2024/01/15 10:00:00 Running getData request DC1 node n3 handler h2 REQ123",
		"2024/01/15 10:00:02 Retrieving file /data/abc.dat",
		"2024/01/15 10:00:05 Returning status 2000 OK",
		"2024/01/15 10:01:00 Running getData request DC1 node n3 handler h2 REQ124",
		"2024/01/15 10:01:05 Returning status 2000 OK",
	)

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].Filename != "" {
		t.Errorf("expected second record to have empty filename, got %q", records[1].Filename)
	}
}

func TestLastFileMarkerWins(t *testing.T) {
	e := New()

	records := feed(t, e,
		"2024/01/15 10:00:00 Running getData request DC1 node n3 handler h2 REQ123",
		"2024/01/15 10:00:01 Retrieving file /data/first.dat",
		"2024/01/15 10:00:02 Retrieving file /data/second.dat",
		"2024/01/15 10:00:05 Returning status 2000 OK",
	)

	if records[0].Filename != "/data/second.dat" {
		t.Errorf("expected most recent file marker to win, got %q", records[0].Filename)
	}
}

func TestNegativeElapsed(t *testing.T) {
	e := New()

	records := feed(t, e,
		"2024/01/15 10:00:05 Running getData request DC1 node n3 handler h2 REQ123",
		"2024/01/15 10:00:02 Returning status 2000 OK",
	)

	if records[0].SecondsText() != "-3.0" {
		t.Errorf("expected seconds '-3.0' for out-of-order log, got %q", records[0].SecondsText())
	}
}

func TestMalformedStartMarker(t *testing.T) {
	e := New()

	_, err := e.Line("2024/01/15 10:00:00 Running getData oops")
	if err == nil {
		t.Fatal("expected error for malformed start marker")
	}
	if !errors.Is(err, ErrMalformedMarker) {
		t.Errorf("expected ErrMalformedMarker, got %v", err)
	}
	var markerErr *MarkerError
	if !errors.As(err, &markerErr) {
		t.Fatalf("expected *MarkerError, got %T", err)
	}
	if markerErr.Marker != "start" {
		t.Errorf("expected start marker error, got %q", markerErr.Marker)
	}
	if markerErr.Need != 9 {
		t.Errorf("expected 9 tokens required, got %d", markerErr.Need)
	}
}

func TestMalformedCompletionMarkerWithoutPending(t *testing.T) {
	e := New()

	// Token extraction precedes the pending check: this errors even
	// though no request is pending.
	_, err := e.Line("2024/01/15 10:00:05 Returning status")
	if !errors.Is(err, ErrMalformedMarker) {
		t.Fatalf("expected ErrMalformedMarker, got %v", err)
	}
}

func TestLenientSkipsMalformedMarkers(t *testing.T) {
	e := New(WithLenient())

	records := feed(t, e,
		"2024/01/15 10:00:00 Running getData request DC1 node n3 handler h2 REQ123",
		"2024/01/15 10:00:01 Running getData oops",
		"2024/01/15 10:00:02 Returning status",
		"2024/01/15 10:00:05 Returning status 2000 OK",
	)

	// The malformed start must not have disturbed the pending request.
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Request != "REQ123" {
		t.Errorf("expected request REQ123, got %q", records[0].Request)
	}
	if got := e.Counts().Malformed; got != 2 {
		t.Errorf("expected 2 malformed markers counted, got %d", got)
	}
}

func TestRecordBounds(t *testing.T) {
	// Emitted records never exceed either marker count.
	e := New()
	records := feed(t, e,
		"2024/01/15 10:00:00 Running getData request DC1 node n3 handler h2 REQ1",
		"2024/01/15 10:00:01 Running getData request DC1 node n3 handler h2 REQ2",
		"2024/01/15 10:00:02 Returning status 2000 OK",
		"2024/01/15 10:00:03 Returning status 2000 OK",
		"2024/01/15 10:00:04 Returning status 2000 OK",
	)
	if len(records) != 1 {
		t.Errorf("expected exactly 1 record from 2 starts and 3 completions, got %d", len(records))
	}
}

func TestRun(t *testing.T) {
	input := strings.Join([]string{
		"2024/01/15 10:00:00 Running getData request DC1 node n3 handler h2 REQ123",
		"garbage line",
		"2024/01/15 10:00:02 Retrieving file /data/abc.dat",
		"2024/01/15 10:00:05 Returning status 2000 OK",
	}, "\n")

	e := New()
	var records []*model.Record
	err := e.Run(reader.New(strings.NewReader(input)).Lines(), func(rec *model.Record) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestRunWrapsLineNumber(t *testing.T) {
	input := strings.Join([]string{
		"2024/01/15 10:00:00 Running getData request DC1 node n3 handler h2 REQ123",
		"2024/01/15 10:00:01 Running getData oops",
	}, "\n")

	e := New()
	err := e.Run(reader.New(strings.NewReader(input)).Lines(), func(*model.Record) error { return nil })
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrMalformedMarker) {
		t.Errorf("expected ErrMalformedMarker, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected error to name line 2, got %q", err.Error())
	}
}

func TestRunStopsOnEmitError(t *testing.T) {
	input := strings.Join([]string{
		"2024/01/15 10:00:00 Running getData request DC1 node n3 handler h2 REQ123",
		"2024/01/15 10:00:05 Returning status 2000 OK",
	}, "\n")

	wantErr := errors.New("sink full")
	e := New()
	err := e.Run(reader.New(strings.NewReader(input)).Lines(), func(*model.Record) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("expected emit error to propagate, got %v", err)
	}
}
