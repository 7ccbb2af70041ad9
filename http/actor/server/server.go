package server

import (
	"log/slog"
	"net/http"

	"http-toolkit/http/coding"
	"http-toolkit/http/semantic"
	"http-toolkit/http/semantic/status"
	"http-toolkit/negotiation"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

var ErrNotAcceptable = errors.New("no acceptable representation")

// Middleware negotiates the representation of every response before the handler runs.
// Requests with no acceptable representation are answered with 406.
type Middleware struct {
	negotiators []*negotiation.Negotiator
	applier     *coding.Applier

	logger *slog.Logger
	clock  clock.Clock
}

func New(logger *slog.Logger, clock clock.Clock, opts Options) *Middleware {
	m := &Middleware{
		applier: coding.NewApplier(opts.ExtraCoders),
		logger:  logger,
		clock:   clock,
	}

	supported := []kindValues{
		{negotiation.KindMediaType, opts.Negotiate.MediaTypes},
		{negotiation.KindLanguage, opts.Negotiate.Languages},
		{negotiation.KindCharset, opts.Negotiate.Charsets},
	}
	if opts.Negotiate.Encoding {
		supported = append(supported, kindValues{negotiation.KindEncoding, m.applier.Supported()})
	}

	for _, s := range supported {
		if s.values == "" {
			continue
		}
		m.negotiators = append(m.negotiators, negotiation.New(s.kind, s.values, logger))
	}

	return m
}

type kindValues struct {
	kind   negotiation.Kind
	values string
}

// Negotiate is a shorthand for wrapping handlers with a [Middleware] running on the wall clock.
func Negotiate(opts Options, logger *slog.Logger) func(http.Handler) http.Handler {
	return New(logger, clock.New(), opts).Wrap
}

func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := semantic.RequestFrom(r)
		if err != nil {
			m.reject(w, r, status.NewError(err, status.BadRequest))
			return
		}

		result, template, err := m.negotiate(req)
		if err != nil {
			m.reject(w, r, status.NewError(err, status.NotAcceptable))
			return
		}

		dst := w.Header()
		for key, values := range template.Headers().ToHTTP() {
			dst[key] = values
		}

		if token, ok := result.Token(negotiation.KindEncoding); ok && token.Value() != string(coding.CodingIdentity) {
			ew := newEncodingWriter(w, m.applier, coding.Coding(token.Value()))
			defer func() {
				if err := ew.Close(); err != nil {
					m.logger.Error("failed to finish content coding", "coding", token.Value(), "error", err.Error())
				}
			}()
			w = ew
		}

		next.ServeHTTP(w, r.WithContext(withResult(r.Context(), result)))
	})
}

// negotiate runs every negotiator, collecting the headers describing the outcome in a response.
func (m *Middleware) negotiate(req *semantic.Request) (Result, *semantic.Response, error) {
	result := Result{tokens: make(map[negotiation.Kind]negotiation.Token, len(m.negotiators))}
	template := semantic.NewResponse(status.OK)

	for _, n := range m.negotiators {
		best, err := n.Best(req.Accepted(n.Kind()))
		if err != nil {
			return Result{}, nil, err
		}

		if best.IsDenied() {
			if n.Kind() != negotiation.KindEncoding {
				return Result{}, nil, errors.Wrapf(ErrNotAcceptable, "negotiating %s", n.Kind().Header())
			}
			// Not coding at all is always possible.
			// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-12.5.3-11
			best = identity
		}

		result.tokens[n.Kind()] = best
		template = template.WithNegotiated(n.Kind(), best)
	}

	return result, template, nil
}

var identity, _ = negotiation.ParseToken(string(coding.CodingIdentity))

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, err error) {
	m.logger.Warn(
		"rejecting request",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err.Error(),
	)

	res := semantic.ResponseFromError(err).Stamp(m.clock)
	if err := res.Write(w); err != nil {
		m.logger.Error("failed to write response", "error", err.Error())
	}
}
