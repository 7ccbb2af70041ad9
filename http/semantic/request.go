package semantic

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"http-toolkit/http/semantic/status"
	"http-toolkit/negotiation"

	"github.com/pkg/errors"
)

// Request is an immutable HTTP request.
type Request struct {
	message

	method Method
	url    *url.URL
}

// NewRequest creates a request. A nil body is an empty body.
func NewRequest(method Method, target string, body io.Reader) (*Request, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse target")
	}

	return &Request{
		message: newMessage(Headers{}, body),
		method:  method,
		url:     u,
	}, nil
}

// RequestFrom converts a request received by net/http.
func RequestFrom(r *http.Request) (*Request, error) {
	headers := HeadersFrom(r.Header)
	if r.Host != "" {
		// net/http moves Host out of the header map.
		headers.Set("Host", r.Host)
	}

	body, err := limitBody(headers, r.Body)
	if err != nil {
		return nil, err
	}

	u := *r.URL
	return &Request{
		message: newMessage(headers, body),
		method:  Method(r.Method),
		url:     &u,
	}, nil
}

func (r *Request) Method() Method { return r.method }

// URL returns a copy of the request target.
func (r *Request) URL() *url.URL {
	u := *r.url
	return &u
}

func (r *Request) Clone() *Request {
	clone := *r
	clone.message = r.message.clone()
	return &clone
}

func (r *Request) WithMethod(method Method) *Request {
	clone := r.Clone()
	clone.method = method
	return clone
}

func (r *Request) WithURL(u *url.URL) *Request {
	clone := r.Clone()
	copied := *u
	clone.url = &copied
	return clone
}

func (r *Request) WithHeader(key, value string) *Request {
	clone := *r
	clone.message = r.withHeader(key, value)
	return &clone
}

func (r *Request) WithAddedHeader(key, value string) *Request {
	clone := *r
	clone.message = r.withAddedHeader(key, value)
	return &clone
}

func (r *Request) WithoutHeader(key string) *Request {
	clone := *r
	clone.message = r.withoutHeader(key)
	return &clone
}

func (r *Request) WithBody(body io.Reader) *Request {
	clone := *r
	clone.message = r.withBody(body)
	return &clone
}

// Negotiate picks the best of supported for the request's Accept header of the given kind.
// A missing header means anything is acceptable.
// Check [negotiation.Token.IsDenied] on the result; a malformed header fails with a 406 [status.Error].
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-12.5.1-11
func (r *Request) Negotiate(kind negotiation.Kind, supported string) (negotiation.Token, error) {
	best, err := negotiation.MatchBest(supported, r.Accepted(kind))
	if err != nil {
		return negotiation.Token{}, status.NewError(
			errors.Wrapf(err, "negotiating %s", kind.Header()),
			status.NotAcceptable,
		)
	}

	return best, nil
}

// Accepted returns the Accept header of the given kind as a single line.
// A missing header accepts anything, so it's reported as "*".
func (r *Request) Accepted(kind negotiation.Kind) string {
	if accepted := r.Header(kind.Header()); accepted != "" {
		return accepted
	}
	return "*"
}

// ToHTTP converts the request for net/http clients.
func (r *Request) ToHTTP(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, string(r.method), r.url.String(), r.body)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}

	req.Header = r.headers.ToHTTP()
	if host, ok := r.headers.Get("Host"); ok {
		req.Host = host
		req.Header.Del("Host")
	}
	req.ContentLength = -1
	if length, ok, err := r.ContentLength(); err == nil && ok {
		req.ContentLength = int64(length)
	} else if size, known := r.body.Size(); known {
		req.ContentLength = size
	}
	if req.ContentLength == 0 {
		req.Body = http.NoBody
	}

	return req, nil
}
