// Package binary implements the pull-based binary-data stream reader used
// both as map input and as an HTTP request body (spec.md section 4.2): a
// single shared cursor over a buffered prefix plus an underlying source,
// supporting peek, read, chunked iteration and a one-shot stream handoff.
package binary

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
)

// state tracks the lifecycle required by spec.md: operations before Init or
// after Destroy must fail distinguishably from EOF.
type state int

const (
	stateUninitialized state = iota
	stateReady
	stateDestroyed
)

// DefaultChunkSize is the chunk size GetAllData uses when none is given.
const DefaultChunkSize = 16 * 1024

// Error reports a binary-data failure distinguishable from a short read.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

var (
	// ErrNotInitialized is returned by any operation performed before Init.
	ErrNotInitialized = &Error{Code: "binary.not-initialized", Message: "stream has not been initialized"}
	// ErrDestroyed is returned by any operation performed after Destroy.
	ErrDestroyed = &Error{Code: "binary.destroyed", Message: "stream has already been destroyed"}
	// ErrAlreadyStreamed is returned by a second call to ToStream.
	ErrAlreadyStreamed = &Error{Code: "binary.already-streamed", Message: "ToStream has already been called"}
	// ErrConcurrentAccess is returned when two callers drive the same cursor
	// at once; the interpreter must never do this (spec.md section 5), but
	// the stream defends itself regardless.
	ErrConcurrentAccess = &Error{Code: "binary.concurrent-access", Message: "concurrent use of a single binary stream cursor"}
)

// Metadata describes optional display information carried alongside the
// bytes (used by multipart file parts and debug output).
type Metadata struct {
	// Name defaults to the basename of the source path when backed by a
	// file.
	Name string
	// MimeType is the content type to report for this stream, if known.
	MimeType string
}

// Stream is a single-cursor, pull-based reader over either a file or an
// arbitrary io.Reader source. The zero value must not be used; construct
// one with NewFile or NewReader.
type Stream struct {
	meta    Metadata
	source  io.Reader
	closer  io.Closer
	buf     []byte
	eof     bool
	st      state
	streamd bool
	inUse   bool
}

// NewReader wraps an arbitrary byte source. The source is not closed by
// Destroy unless it implements io.Closer.
func NewReader(source io.Reader, meta Metadata) *Stream {
	closer, _ := source.(io.Closer)
	return &Stream{source: source, closer: closer, meta: meta, st: stateUninitialized}
}

// NewFile wraps an already-opened file handle, defaulting the display name
// to the basename of path when meta.Name is empty.
func NewFile(f io.ReadCloser, path string, meta Metadata) *Stream {
	if meta.Name == "" {
		meta.Name = filepath.Base(path)
	}
	return &Stream{source: f, closer: f, meta: meta, st: stateUninitialized}
}

// Init transitions the stream into the ready state. It is idempotent.
func (s *Stream) Init() error {
	if s.st == stateDestroyed {
		return ErrDestroyed
	}
	s.st = stateReady
	return nil
}

// Destroy releases the underlying source and marks the stream unusable.
func (s *Stream) Destroy() error {
	if s.st == stateDestroyed {
		return nil
	}
	s.st = stateDestroyed
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Name returns the display name, implementing value.BinaryHandle.
func (s *Stream) Name() string { return s.meta.Name }

// MimeType returns the configured mimetype, implementing value.BinaryHandle.
func (s *Stream) MimeType() string { return s.meta.MimeType }

func (s *Stream) checkUsable() error {
	switch s.st {
	case stateUninitialized:
		return ErrNotInitialized
	case stateDestroyed:
		return ErrDestroyed
	}
	if s.inUse {
		return ErrConcurrentAccess
	}
	return nil
}

func (s *Stream) lock() error {
	if err := s.checkUsable(); err != nil {
		return err
	}
	s.inUse = true
	return nil
}

func (s *Stream) unlock() { s.inUse = false }

// fill ensures the buffer holds at least n bytes, short of EOF.
func (s *Stream) fill(n int) error {
	for len(s.buf) < n && !s.eof {
		chunk := make([]byte, 4096)
		read, err := s.source.Read(chunk)
		if read > 0 {
			s.buf = append(s.buf, chunk[:read]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.eof = true
				break
			}
			return &Error{Code: "binary.read", Message: err.Error()}
		}
	}
	return nil
}

// Peek fills the buffer to at least n bytes and returns that prefix without
// consuming it. Past EOF it returns whatever is available, possibly empty,
// and never raises for that reason.
func (s *Stream) Peek(n int) ([]byte, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.unlock()

	if err := s.fill(n); err != nil {
		return nil, err
	}
	if n > len(s.buf) {
		n = len(s.buf)
	}
	out := make([]byte, n)
	copy(out, s.buf[:n])
	return out, nil
}

// Read fills the buffer to at least n bytes and consumes that prefix.
func (s *Stream) Read(n int) ([]byte, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.unlock()

	if err := s.fill(n); err != nil {
		return nil, err
	}
	if n > len(s.buf) {
		n = len(s.buf)
	}
	out := make([]byte, n)
	copy(out, s.buf[:n])
	s.buf = s.buf[n:]
	return out, nil
}

// GetAllData drains the entire stream in chunks of the given size (default
// DefaultChunkSize when chunkSize <= 0), returning the concatenated bytes.
func (s *Stream) GetAllData(chunkSize int) ([]byte, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	it, err := s.ChunkBy(chunkSize)
	if err != nil {
		return nil, err
	}
	var out []byte
	for {
		chunk, done, err := it.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		if done {
			return out, nil
		}
	}
}

// ChunkIterator lazily yields fixed-size chunks of a Stream, the last of
// which may be shorter.
type ChunkIterator struct {
	s    *Stream
	size int
}

// ChunkBy returns a lazy iterator yielding Buffer values of exactly n bytes
// except the last, terminating once both buffer and source are drained.
// n must be a finite, positive size.
func (s *Stream) ChunkBy(n int) (*ChunkIterator, error) {
	if n <= 0 {
		return nil, &Error{Code: "binary.invalid-chunk-size", Message: "chunk size must be > 0"}
	}
	if err := s.checkUsable(); err != nil {
		return nil, err
	}
	return &ChunkIterator{s: s, size: n}, nil
}

// Next returns the next chunk. done is true once the stream is fully
// drained; the final non-empty chunk is returned together with done=false
// on the call that reads it, and a subsequent call yields ("", true).
func (it *ChunkIterator) Next() (chunk []byte, done bool, err error) {
	data, rerr := it.s.Read(it.size)
	if rerr != nil {
		return nil, false, rerr
	}
	if len(data) == 0 {
		return nil, true, nil
	}
	return data, false, nil
}

// ToStream yields the buffered prefix followed by the remaining source as a
// single io.Reader. It is one-shot: calling it twice fails.
func (s *Stream) ToStream() (io.Reader, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.unlock()
	if s.streamd {
		return nil, ErrAlreadyStreamed
	}
	s.streamd = true

	prefix := s.buf
	s.buf = nil
	if s.eof {
		return bytes.NewReader(prefix), nil
	}
	return io.MultiReader(bytes.NewReader(prefix), s.source), nil
}
