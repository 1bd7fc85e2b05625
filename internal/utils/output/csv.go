// Package output provides the append-only sinks a harvest run writes to.
package output

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

var (
	// ErrHeaderWritten is returned when a header is written twice.
	ErrHeaderWritten = errors.New("header already written")
	// ErrNoHeader is returned when a row is written before the header.
	ErrNoHeader = errors.New("row written before header")
	// ErrClosed is returned when writing to a closed sink.
	ErrClosed = errors.New("sink is closed")
)

// Sink is the durable destination for normalized records.
//
// WriteHeader must be called exactly once before any WriteRow. Close is
// idempotent and must be called on every exit path of a run.
type Sink interface {
	WriteHeader(schema []string) error
	WriteRow(fields []string) error
	Flush() error
	Close() error
}

// CSVSink streams records to a CSV file as they are produced.
type CSVSink struct {
	path   string
	file   *os.File
	w      *bufio.Writer
	header bool
	closed bool
	mu     sync.Mutex
	once   sync.Once
	err    error
}

// NewCSVSink creates (or truncates) the file at path.
func NewCSVSink(path string) (*CSVSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &CSVSink{
		path: path,
		file: file,
		w:    bufio.NewWriter(file),
	}, nil
}

// Path returns the output file path
func (s *CSVSink) Path() string {
	return s.path
}

// WriteHeader writes the schema record.
func (s *CSVSink) WriteHeader(schema []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.header {
		return ErrHeaderWritten
	}
	s.header = true
	return s.writeRecord(schema)
}

// WriteRow appends one data record.
func (s *CSVSink) WriteRow(fields []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if !s.header {
		return ErrNoHeader
	}
	return s.writeRecord(fields)
}

func (s *CSVSink) writeRecord(fields []string) error {
	if _, err := s.w.WriteString(FormatRecord(fields)); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Flush pushes buffered records to the file and syncs it to disk.
func (s *CSVSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return s.file.Sync()
}

// Close flushes remaining records and closes the file. Only the first call
// does any work; later calls return the same result.
func (s *CSVSink) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.closed = true
		flushErr := s.w.Flush()
		closeErr := s.file.Close()
		s.err = errors.Join(flushErr, closeErr)
	})
	return s.err
}

// FormatRecord renders one newline-terminated CSV record.
func FormatRecord(fields []string) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(EscapeField(f))
	}
	b.WriteByte('\n')
	return b.String()
}

// EscapeField applies the record quoting rules to a single field.
//
// Newlines are collapsed to a single space first, so a field never contains a
// literal line break. The field is then quoted, with inner quotes doubled, if
// and only if it contains a comma or a double quote.
func EscapeField(field string) string {
	field = collapseNewlines(field)
	if !strings.ContainsAny(field, ",\"") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// collapseNewlines replaces each run of line break characters that holds at
// least one LF with a single space. CRLF counts as one newline; a bare CR is
// not a newline and is kept.
func collapseNewlines(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '\r' && s[i] != '\n' {
			b.WriteByte(s[i])
			i++
			continue
		}
		j := i
		for j < len(s) && (s[j] == '\r' || s[j] == '\n') {
			j++
		}
		if strings.IndexByte(s[i:j], '\n') >= 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(s[i:j])
		}
		i = j
	}
	return b.String()
}
