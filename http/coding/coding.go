package coding

import (
	"compress/flate"
	"compress/gzip"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Coding is a content coding.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.4.1
type Coding string

const (
	CodingGzip     Coding = "gzip"
	CodingDeflate  Coding = "deflate"
	CodingIdentity Coding = "identity"
)

type Coder interface {
	Coding() Coding
	NewReader(r io.Reader) (io.ReadCloser, error)
	NewWriter(w io.WriteCloser) io.WriteCloser
}

// Applier keeps the set of supported codings, in the order of preference.
type Applier struct {
	order  []Coding
	coders map[Coding]Coder
}

// NewApplier creates an applier supporting gzip and deflate, plus extra.
// An extra coder replaces a default one with the same coding.
func NewApplier(extra []Coder) *Applier {
	a := &Applier{coders: make(map[Coding]Coder)}

	for _, coder := range append([]Coder{gzipCoder{}, deflateCoder{}}, extra...) {
		if _, ok := a.coders[coder.Coding()]; !ok {
			a.order = append(a.order, coder.Coding())
		}
		a.coders[coder.Coding()] = coder
	}

	return a
}

var ErrUnsupportedCoding = errors.New("coding is unsupported")

// Supported renders the supported codings as a header value, identity last.
func (a *Applier) Supported() string {
	values := make([]string, 0, len(a.order)+1)
	for _, coding := range a.order {
		values = append(values, string(coding))
	}
	values = append(values, string(CodingIdentity))

	return strings.Join(values, ", ")
}

func (a *Applier) IsSupported(coding Coding) bool {
	if coding == CodingIdentity {
		return true
	}
	_, ok := a.coders[coding]
	return ok
}

// Decode undoes codings, which are listed in the order they were applied.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.4-5
func (a *Applier) Decode(r io.Reader, codings []Coding) (io.Reader, error) {
	for idx := len(codings) - 1; idx >= 0; idx-- {
		coding := normalize(codings[idx])
		if coding == CodingIdentity {
			continue
		}

		coder, ok := a.coders[coding]
		if !ok {
			return nil, errors.Wrapf(ErrUnsupportedCoding, "decoding %q", coding)
		}

		decoded, err := coder.NewReader(r)
		if err != nil {
			return nil, errors.Wrapf(err, "creating %s reader", coding)
		}
		r = decoded
	}

	return r, nil
}

// Encode applies codings in the order they are listed.
// Closing the returned writer flushes every coding, and closes w.
func (a *Applier) Encode(w io.WriteCloser, codings []Coding) (io.WriteCloser, error) {
	for idx := len(codings) - 1; idx >= 0; idx-- {
		coding := normalize(codings[idx])
		if coding == CodingIdentity {
			continue
		}

		coder, ok := a.coders[coding]
		if !ok {
			return nil, errors.Wrapf(ErrUnsupportedCoding, "encoding %q", coding)
		}

		w = coder.NewWriter(w)
	}

	return w, nil
}

// Coding names are case-insensitive.
func normalize(c Coding) Coding { return Coding(strings.ToLower(strings.TrimSpace(string(c)))) }

// chainedWriteCloser closes the coder first, then the writer beneath it.
type chainedWriteCloser struct {
	io.WriteCloser
	next io.Closer
}

func (c chainedWriteCloser) Close() error {
	if err := c.WriteCloser.Close(); err != nil {
		return err
	}
	return c.next.Close()
}

type gzipCoder struct{}

func (gzipCoder) Coding() Coding { return CodingGzip }

func (gzipCoder) NewReader(r io.Reader) (io.ReadCloser, error) { return gzip.NewReader(r) }

func (gzipCoder) NewWriter(w io.WriteCloser) io.WriteCloser {
	return chainedWriteCloser{WriteCloser: gzip.NewWriter(w), next: w}
}

type deflateCoder struct{}

func (deflateCoder) Coding() Coding { return CodingDeflate }

func (deflateCoder) NewReader(r io.Reader) (io.ReadCloser, error) { return flate.NewReader(r), nil }

func (deflateCoder) NewWriter(w io.WriteCloser) io.WriteCloser {
	// Error is only returned on invalid level.
	fw, _ := flate.NewWriter(w, flate.DefaultCompression)
	return chainedWriteCloser{WriteCloser: fw, next: w}
}
