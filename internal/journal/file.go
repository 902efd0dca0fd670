package journal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("journal: closed")

// File appends records to a CBOR file.
// It is safe for concurrent use from multiple goroutines.
type File struct {
	file    *os.File
	encoder *cbor.Encoder
	mu      sync.Mutex
	closed  bool
}

// Open opens path for appending, creating it with permissions 0644 if needed.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &File{
		file:    f,
		encoder: newEncoder(f),
	}, nil
}

// Append writes one record.
func (j *File) Append(r Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrClosed
	}
	if err := j.encoder.Encode(r); err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	return nil
}

// Close closes the file. It is safe to call Close multiple times.
func (j *File) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	return j.file.Close()
}

// Reader streams records from a journal file.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
}

// NewReader opens a journal for reading.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Reader{file: f, decoder: newDecoder(f)}, nil
}

// Next returns the next record, or io.EOF at the end of the journal.
// A record cut short by a crash mid-write reads as io.ErrUnexpectedEOF.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.decoder.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, err
	}
	return rec, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Dump writes every record in the journal at path to w, one per line, and
// returns the number written.
func Dump(path string, w io.Writer) (int, error) {
	r, err := NewReader(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n := 0
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("record %d: %w", n+1, err)
		}
		if _, err := fmt.Fprintln(w, rec.String()); err != nil {
			return n, err
		}
		n++
	}
}
