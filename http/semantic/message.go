package semantic

import (
	"io"
	"strconv"
	"strings"

	iolib "http-toolkit/lib/io"

	"github.com/pkg/errors"
)

// message is the part shared by requests and responses.
// Methods named with* return a modified copy and leave the receiver untouched.
type message struct {
	headers Headers
	body    iolib.Stream
}

func newMessage(headers Headers, body io.Reader) message {
	if body == nil {
		return message{headers: headers, body: iolib.NewBufferStream(nil)}
	}
	return message{headers: headers, body: iolib.NewReaderStream(body)}
}

// Headers returns a copy of the headers.
func (m message) Headers() Headers { return m.headers.Clone() }

// Header returns the field as a single line, or "" if it's absent.
func (m message) Header(key string) string { return m.headers.Line(key) }

func (m message) HasHeader(key string) bool { return m.headers.Has(key) }

// Body is shared between copies, as streams can't be copied.
func (m message) Body() iolib.Stream { return m.body }

// ContentLength extracts Content-Length from the headers.
func (m message) ContentLength() (length uint, ok bool, err error) {
	v, ok := m.headers.Get("Content-Length")
	if !ok {
		return 0, false, nil
	}

	// Any value greater than or equal to 0 is valid.
	// But let's restrict it to 64bit uint.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.6-10
	len64, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to parse Content-Length")
	}

	return uint(len64), true, nil
}

func (m message) clone() message {
	return message{headers: m.headers.Clone(), body: m.body}
}

func (m message) withHeader(key, value string) message {
	c := m.clone()
	c.headers.Set(key, value)
	return c
}

func (m message) withAddedHeader(key, value string) message {
	c := m.clone()
	c.headers.Add(key, value)
	return c
}

func (m message) withoutHeader(key string) message {
	c := m.clone()
	c.headers.Del(key)
	return c
}

func (m message) withBody(body io.Reader) message {
	return newMessage(m.headers.Clone(), body)
}

// limitBody caps body to Content-Length, when it's given.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.6
func limitBody(headers Headers, body io.Reader) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}

	m := message{headers: headers}
	length, ok, err := m.ContentLength()
	if err != nil {
		return nil, errors.Wrap(err, "extracting content length")
	}
	if !ok {
		return body, nil
	}

	return iolib.LimitReader(body, length), nil
}
