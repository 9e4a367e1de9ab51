package recorder

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v5"
)

// record file formats
const (
	FormatJSONL   = "jsonl"
	FormatMsgpack = "msgpack"
)

var ErrUnknownFormat = errors.New("unknown record format")

// Sink appends records to durable storage.
type Sink interface {
	Write(rec SimulationRecord) error
	Close() error
}

// OpenSink opens path for appending in the given format. msgpack files are
// snappy framed, so a file may hold the output of several runs.
func OpenSink(path, format string) (Sink, error) {
	if format != FormatJSONL && format != FormatMsgpack {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open record file: %w", err)
	}
	return newStreamSink(f, format), nil
}

// streamSink flushes after every record, so a crash loses at most the
// record being written.
type streamSink struct {
	mu     sync.Mutex
	closer io.Closer
	flush  func() error
	encode func(rec SimulationRecord) error
}

func newStreamSink(w io.WriteCloser, format string) *streamSink {
	s := &streamSink{closer: w}
	switch format {
	case FormatMsgpack:
		sw := snappy.NewBufferedWriter(w)
		enc := msgpack.NewEncoder(sw)
		enc.UseCompactInts(true)
		s.flush = sw.Flush
		s.encode = func(rec SimulationRecord) error { return enc.Encode(&rec) }
		s.closer = closerFunc(func() error {
			return errors.Join(sw.Close(), w.Close())
		})
	default:
		bw := bufio.NewWriter(w)
		enc := json.NewEncoder(bw)
		s.flush = bw.Flush
		s.encode = func(rec SimulationRecord) error { return enc.Encode(&rec) }
	}
	return s
}

func (s *streamSink) Write(rec SimulationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.encode == nil {
		return os.ErrClosed
	}
	if err := s.encode(rec); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return s.flush()
}

func (s *streamSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.encode == nil {
		return nil
	}
	s.encode = nil
	err := s.flush()
	return errors.Join(err, s.closer.Close())
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// ReadRecords decodes every record in r, written in format, and calls fn
// for each.
func ReadRecords(r io.Reader, format string, fn func(SimulationRecord) error) error {
	switch format {
	case FormatJSONL:
		dec := json.NewDecoder(r)
		for {
			var rec SimulationRecord
			if err := dec.Decode(&rec); err == io.EOF {
				return nil
			} else if err != nil {
				return fmt.Errorf("decode record: %w", err)
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
	case FormatMsgpack:
		dec := msgpack.NewDecoder(snappy.NewReader(r))
		for {
			var rec SimulationRecord
			if err := dec.Decode(&rec); err == io.EOF {
				return nil
			} else if err != nil {
				return fmt.Errorf("decode record: %w", err)
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
