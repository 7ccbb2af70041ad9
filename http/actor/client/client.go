package client

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"http-toolkit/http/coding"
	"http-toolkit/http/semantic"
	"http-toolkit/http/semantic/status"
	"http-toolkit/negotiation"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/vfaronov/httpheader"
)

// Doer sends a single request. [*http.Client] satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type DoerFunc func(req *http.Request) (*http.Response, error)

func (f DoerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

var ErrUnacceptableResponse = errors.New("response is not acceptable")

type Client struct {
	doer Doer

	opts Options

	logger *slog.Logger
	clock  clock.Clock

	applier *coding.Applier
}

func New(
	d Doer,
	logger *slog.Logger,
	clock clock.Clock,
	opts Options,
) *Client {
	return &Client{
		doer:    d,
		opts:    opts,
		logger:  logger,
		clock:   clock,
		applier: coding.NewApplier(opts.ExtraCoders),
	}
}

// Send sends request and reads the whole response, decoding its content codings.
func (c *Client) Send(ctx context.Context, request *semantic.Request) (*semantic.Response, error) {
	if c.opts.Timeout.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = c.clock.WithTimeout(ctx, c.opts.Timeout.RequestTimeout)
		defer cancel()
	}

	request = c.withAccept(request)

	raw, err := request.ToHTTP(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "converting request")
	}

	res, err := c.doer.Do(raw)
	if err != nil {
		return nil, errors.Wrap(err, "sending request")
	}
	defer res.Body.Close()

	c.logger.Debug(
		"received response",
		"method", raw.Method,
		"url", raw.URL.String(),
		"status", res.StatusCode,
	)

	// Error responses may come in any media type.
	if c.opts.Receive.StrictContentType && res.StatusCode < http.StatusBadRequest {
		if err := c.verifyContentType(request, res.Header); err != nil {
			return nil, err
		}
	}

	body, err := c.readBody(res)
	if err != nil {
		return nil, errors.Wrap(err, "reading body")
	}

	response, err := semantic.ResponseFrom(res, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "converting response")
	}

	return response, nil
}

type acceptValue struct {
	kind  negotiation.Kind
	value string
}

func (c *Client) withAccept(request *semantic.Request) *semantic.Request {
	accept := []acceptValue{
		{negotiation.KindMediaType, c.opts.Accept.MediaTypes},
		{negotiation.KindLanguage, c.opts.Accept.Languages},
		{negotiation.KindCharset, c.opts.Accept.Charsets},
	}
	if c.opts.Accept.Encoding {
		accept = append(accept, acceptValue{negotiation.KindEncoding, c.applier.Supported()})
	}

	for _, a := range accept {
		if a.value == "" || request.HasHeader(a.kind.Header()) {
			continue
		}
		request = request.WithHeader(a.kind.Header(), a.value)
	}

	return request
}

// verifyContentType negotiates the received media type against what the request accepted.
// A response without Content-Type is left to the caller.
func (c *Client) verifyContentType(request *semantic.Request, h http.Header) error {
	mediaType, _ := httpheader.ContentType(h)
	if mediaType == "" {
		return nil
	}

	n := negotiation.New(negotiation.KindMediaType, mediaType, c.logger)
	best, err := n.Best(request.Accepted(negotiation.KindMediaType))
	if err != nil {
		return errors.Wrap(err, "verifying content type")
	}

	if best.IsDenied() {
		return status.NewError(
			errors.Wrapf(ErrUnacceptableResponse, "content type %q", mediaType),
			status.NotAcceptable,
		)
	}

	return nil
}

// readBody reads the body, undoing content codings.
// Headers are updated to describe the decoded content.
func (c *Client) readBody(res *http.Response) ([]byte, error) {
	var codings []coding.Coding
	if !res.Uncompressed {
		values, _ := semantic.HeadersFrom(res.Header).Values("Content-Encoding")
		for _, v := range values {
			codings = append(codings, coding.Coding(v))
		}
	}

	r, err := c.applier.Decode(res.Body, codings)
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if len(codings) > 0 {
		res.Header.Del("Content-Encoding")
		res.Header.Set("Content-Length", strconv.Itoa(len(body)))
	}

	return body, nil
}
