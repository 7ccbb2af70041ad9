package semantic

import (
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"http-toolkit/http/semantic/status"
	iolib "http-toolkit/lib/io"
	"http-toolkit/negotiation"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/vfaronov/httpheader"
)

// Response is an immutable HTTP response.
type Response struct {
	message

	status status.Status
	date   time.Time
}

// NewResponse creates a response with an empty body.
func NewResponse(st status.Status) *Response {
	return &Response{
		message: newMessage(Headers{}, nil),
		status:  st,
	}
}

// ResponseFrom converts a response received by net/http.
// body replaces res.Body, so the caller can decode or buffer it first.
func ResponseFrom(res *http.Response, body io.Reader) (*Response, error) {
	st, ok := status.FromCode(uint(res.StatusCode))
	if !ok {
		// Keep whatever the server sent for unknown codes.
		st.ReasonPhrase = strings.TrimSpace(strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)))
	}

	headers := HeadersFrom(res.Header)

	body, err := limitBody(headers, body)
	if err != nil {
		return nil, err
	}

	response := &Response{
		message: newMessage(headers, body),
		status:  st,
	}

	if v, ok := headers.Get("Date"); ok {
		response.date, err = ParseDate(v)
		if err != nil {
			return nil, errors.Wrap(err, "extracting date")
		}
	}

	return response, nil
}

// ResponseFromError answers err with a plain text response.
// A [status.Error] keeps its status, anything else is 500.
func ResponseFromError(err error) *Response {
	st := status.InternalServerError
	if statusErr := new(status.Error); errors.As(err, statusErr) {
		st = statusErr.Status
	}

	return NewResponse(st).
		WithHeader("Content-Type", "text/plain; charset=utf-8").
		WithBody(strings.NewReader(st.String() + "\n"))
}

func (r *Response) Status() status.Status { return r.status }

// Date returns the origination date. It's zero unless set.
func (r *Response) Date() time.Time { return r.date }

func (r *Response) Clone() *Response {
	clone := *r
	clone.message = r.message.clone()
	return &clone
}

func (r *Response) WithStatus(st status.Status) *Response {
	clone := r.Clone()
	clone.status = st
	return clone
}

func (r *Response) WithHeader(key, value string) *Response {
	clone := *r
	clone.message = r.withHeader(key, value)
	return &clone
}

func (r *Response) WithAddedHeader(key, value string) *Response {
	clone := *r
	clone.message = r.withAddedHeader(key, value)
	return &clone
}

func (r *Response) WithoutHeader(key string) *Response {
	clone := *r
	clone.message = r.withoutHeader(key)
	return &clone
}

func (r *Response) WithBody(body io.Reader) *Response {
	clone := *r
	clone.message = r.withBody(body)
	return &clone
}

// Stamp sets the origination date from clk.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-6.6.1
func (r *Response) Stamp(clk clock.Clock) *Response {
	now := clk.Now().UTC().Truncate(time.Second)

	clone := r.WithHeader("Date", FormatDate(now))
	clone.date = now
	return clone
}

// WithNegotiated describes the representation chosen by negotiation.
// Denied tokens leave the response as it is.
func (r *Response) WithNegotiated(kind negotiation.Kind, token negotiation.Token) *Response {
	if token.IsDenied() {
		return r
	}

	clone := r.Clone()
	switch kind {
	case negotiation.KindMediaType:
		clone.setContentType(token.Value(), "")
	case negotiation.KindCharset:
		clone.setContentType("", token.Value())
	case negotiation.KindLanguage:
		clone.headers.Set("Content-Language", token.Value())
	case negotiation.KindEncoding:
		if token.Value() == "identity" {
			return r
		}
		clone.headers.Set("Content-Encoding", token.Value())
	default:
		return r
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-12.5.5
	if vary, _ := clone.headers.Values("Vary"); !slices.Contains(vary, kind.Header()) {
		clone.headers.Add("Vary", kind.Header())
	}

	return clone
}

// setContentType replaces the media type or the charset, keeping the other one.
func (r *Response) setContentType(mediaType, charset string) {
	h := http.Header{}
	if v, ok := r.headers.Get("Content-Type"); ok {
		h.Set("Content-Type", v)
	}

	current, params := httpheader.ContentType(h)
	if params == nil {
		params = make(map[string]string)
	}

	if mediaType == "" {
		mediaType = current
	}
	if mediaType == "" {
		mediaType = "text/plain"
	}
	if charset != "" {
		params["charset"] = charset
	}

	httpheader.SetContentType(h, mediaType, params)
	r.headers.Set("Content-Type", h.Get("Content-Type"))
}

// Write sends the response through w.
func (r *Response) Write(w http.ResponseWriter) error {
	dst := w.Header()
	for key, values := range r.headers.ToHTTP() {
		dst[key] = values
	}

	w.WriteHeader(int(r.status.Code))

	if _, err := io.Copy(w, r.body); err != nil && !errors.Is(err, iolib.ErrDetached) {
		return errors.Wrap(err, "writing body")
	}

	return nil
}
