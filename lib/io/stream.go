package iolib

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

var (
	ErrDetached    = errors.New("stream is detached")
	ErrNotWritable = errors.New("stream is not writable")
	ErrNotSeekable = errors.New("stream is not seekable")
	ErrNegativePos = errors.New("negative position")
)

// Stream is a message body.
// Once detached or closed, every operation on it fails with [ErrDetached].
type Stream interface {
	io.ReadWriteSeeker
	io.Closer

	// Size returns the total size, if it's known.
	Size() (size int64, known bool)
	// Contents reads the rest of the stream.
	Contents() (string, error)
	// Detach separates the underlying source from the stream and returns it.
	Detach() io.Reader

	IsReadable() bool
	IsWritable() bool
	IsSeekable() bool
}

// NewBufferStream creates an in-memory stream which is readable, writable and seekable.
// b is copied.
func NewBufferStream(b []byte) Stream {
	return &bufferStream{buf: bytes.Clone(b)}
}

type bufferStream struct {
	buf      []byte
	off      int64
	detached bool
}

var _ Stream = (*bufferStream)(nil)

func (s *bufferStream) Read(p []byte) (n int, err error) {
	if s.detached {
		return 0, ErrDetached
	}
	if s.off >= int64(len(s.buf)) {
		return 0, io.EOF
	}

	n = copy(p, s.buf[s.off:])
	s.off += int64(n)
	return n, nil
}

// Write writes at the current position, growing the buffer when needed.
func (s *bufferStream) Write(p []byte) (n int, err error) {
	if s.detached {
		return 0, ErrDetached
	}

	end := s.off + int64(len(p))
	if end > int64(len(s.buf)) {
		s.buf = append(s.buf, make([]byte, end-int64(len(s.buf)))...)
	}

	n = copy(s.buf[s.off:end], p)
	s.off = end
	return n, nil
}

func (s *bufferStream) Seek(offset int64, whence int) (int64, error) {
	if s.detached {
		return 0, ErrDetached
	}

	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = s.off + offset
	case io.SeekEnd:
		pos = int64(len(s.buf)) + offset
	default:
		return 0, errors.Errorf("invalid whence: %d", whence)
	}

	if pos < 0 {
		return 0, ErrNegativePos
	}

	s.off = pos
	return pos, nil
}

func (s *bufferStream) Close() error {
	s.Detach()
	return nil
}

func (s *bufferStream) Size() (int64, bool) {
	if s.detached {
		return 0, false
	}
	return int64(len(s.buf)), true
}

func (s *bufferStream) Contents() (string, error) {
	if s.detached {
		return "", ErrDetached
	}
	if s.off >= int64(len(s.buf)) {
		return "", nil
	}

	rest := string(s.buf[s.off:])
	s.off = int64(len(s.buf))
	return rest, nil
}

func (s *bufferStream) Detach() io.Reader {
	if s.detached {
		return nil
	}

	r := bytes.NewReader(s.buf)
	s.buf, s.off, s.detached = nil, 0, true
	return r
}

func (s *bufferStream) IsReadable() bool { return !s.detached }
func (s *bufferStream) IsWritable() bool { return !s.detached }
func (s *bufferStream) IsSeekable() bool { return !s.detached }

// NewReaderStream wraps a read-only source.
// It is seekable only if r is an [io.Seeker], and its size is known only if r reports Len().
func NewReaderStream(r io.Reader) Stream {
	if s, ok := r.(Stream); ok {
		return s
	}
	return &readerStream{r: r}
}

type readerStream struct {
	r        io.Reader
	detached bool
}

var _ Stream = (*readerStream)(nil)

type lener interface{ Len() int }

func (s *readerStream) Read(p []byte) (n int, err error) {
	if s.detached {
		return 0, ErrDetached
	}
	return s.r.Read(p)
}

func (s *readerStream) Write(p []byte) (n int, err error) {
	if s.detached {
		return 0, ErrDetached
	}
	return 0, ErrNotWritable
}

func (s *readerStream) Seek(offset int64, whence int) (int64, error) {
	if s.detached {
		return 0, ErrDetached
	}

	seeker, ok := s.r.(io.Seeker)
	if !ok {
		return 0, ErrNotSeekable
	}
	return seeker.Seek(offset, whence)
}

func (s *readerStream) Close() error {
	r := s.Detach()
	if c, ok := r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *readerStream) Size() (int64, bool) {
	if s.detached {
		return 0, false
	}
	if l, ok := s.r.(lener); ok {
		return int64(l.Len()), true
	}
	return 0, false
}

func (s *readerStream) Contents() (string, error) {
	if s.detached {
		return "", ErrDetached
	}

	b, err := io.ReadAll(s.r)
	if err != nil {
		return string(b), errors.Wrap(err, "reading stream")
	}
	return string(b), nil
}

func (s *readerStream) Detach() io.Reader {
	if s.detached {
		return nil
	}

	r := s.r
	s.r, s.detached = nil, true
	return r
}

func (s *readerStream) IsReadable() bool { return !s.detached }
func (s *readerStream) IsWritable() bool { return false }

func (s *readerStream) IsSeekable() bool {
	if s.detached {
		return false
	}
	_, ok := s.r.(io.Seeker)
	return ok
}
