// Package reader provides line-by-line reading from an input source.
// Encoding and line splitting live here so the extractor only ever sees
// whole lines.
package reader

import (
	"bufio"
	"io"
)

const (
	// DefaultMaxLineSize caps a single log line at 1MB.
	DefaultMaxLineSize = 1024 * 1024
	// DefaultBufferSize is the scanner's initial buffer.
	DefaultBufferSize = 64 * 1024
)

// Line is a single line of input.
type Line struct {
	Text   string // line content, without the trailing newline
	Number int    // 1-based position in the input
	Err    error  // set on the final value when the scanner failed
}

// LineReader reads newline-separated lines from an io.Reader.
type LineReader struct {
	scanner    *bufio.Scanner
	lineNumber int
	maxSize    int
}

// Option configures a LineReader.
type Option func(*LineReader)

// WithMaxLineSize overrides the maximum accepted line length.
func WithMaxLineSize(size int) Option {
	return func(r *LineReader) { r.maxSize = size }
}

// New wraps an io.Reader in a LineReader.
func New(input io.Reader, opts ...Option) *LineReader {
	r := &LineReader{maxSize: DefaultMaxLineSize}
	for _, opt := range opts {
		opt(r)
	}
	// The scanner takes the larger of cap(buf) and max, so the initial
	// buffer must not exceed the configured cap.
	bufSize := DefaultBufferSize
	if r.maxSize < bufSize {
		bufSize = r.maxSize
	}
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, bufSize), r.maxSize)
	r.scanner = scanner
	return r
}

// Lines yields the input one line at a time, closing the channel at EOF.
// A scanner failure is delivered as a final Line with Err set. Call once
// per reader.
func (r *LineReader) Lines() <-chan Line {
	lines := make(chan Line)

	go func() {
		defer close(lines)

		for r.scanner.Scan() {
			r.lineNumber++
			lines <- Line{Text: r.scanner.Text(), Number: r.lineNumber}
		}
		if err := r.scanner.Err(); err != nil {
			lines <- Line{Number: r.lineNumber + 1, Err: err}
		}
	}()

	return lines
}

// ReadAll reads the whole input synchronously. Mostly for tests.
func (r *LineReader) ReadAll() ([]Line, error) {
	var lines []Line
	for r.scanner.Scan() {
		r.lineNumber++
		lines = append(lines, Line{Text: r.scanner.Text(), Number: r.lineNumber})
	}
	return lines, r.scanner.Err()
}
