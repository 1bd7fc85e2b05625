package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/law-makers/payout-harvest/pkg/models"
)

// JSONLSink writes one JSON object per record, keyed by the schema columns.
type JSONLSink struct {
	path   string
	file   *os.File
	w      *bufio.Writer
	enc    *json.Encoder
	schema []string
	closed bool
	mu     sync.Mutex
	once   sync.Once
	err    error
}

// NewJSONLSink creates (or truncates) the file at path.
func NewJSONLSink(path string) (*JSONLSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLSink{path: path, file: file, w: w, enc: enc}, nil
}

// WriteHeader records the schema; JSON Lines has no header line of its own.
func (s *JSONLSink) WriteHeader(schema []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.schema != nil {
		return ErrHeaderWritten
	}
	s.schema = append([]string{}, schema...)
	return nil
}

// WriteRow encodes fields as an ordered object.
func (s *JSONLSink) WriteRow(fields []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.schema == nil {
		return ErrNoHeader
	}
	if err := s.enc.Encode(record{keys: s.schema, values: fields}); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Flush pushes buffered records to the file and syncs it to disk.
func (s *JSONLSink) Flush() error {
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

// Close flushes and closes the file; repeated calls are no-ops.
func (s *JSONLSink) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.closed = true
		s.err = errors.Join(s.w.Flush(), s.file.Close())
	})
	return s.err
}

// record marshals as a JSON object preserving column order.
type record struct {
	keys   []string
	values []string
}

func (r record) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range r.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := marshalString(k)
		if err != nil {
			return nil, err
		}
		v := ""
		if i < len(r.values) {
			v = r.values[i]
		}
		val, err := marshalString(v)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

// marshalString encodes s without HTML escaping.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Open creates the sink for the requested format. An empty format means CSV.
func Open(format models.OutputFormat, path string) (Sink, error) {
	switch format {
	case "", models.FormatCSV:
		return NewCSVSink(path)
	case models.FormatJSONL:
		return NewJSONLSink(path)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
