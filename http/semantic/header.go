package semantic

import (
	"bytes"
	"maps"
	"net/http"
	"slices"
	"strings"

	"http-toolkit/util/rule"
)

// Headers is a case-insensitive multi-value header map.
// Keys are stored in their canonical form (e.g. "accept-language" -> "Accept-Language").
type Headers struct{ underlying map[string][]string }

func NewHeaders(initial map[string][]string) Headers {
	clone := make(map[string][]string, len(initial))
	for k, v := range initial {
		k = canonical(k)
		clone[k] = append(clone[k], v...)
	}

	return Headers{underlying: clone}
}

// HeadersFrom creates semantic header from net/http header.
// Values of list-based fields are split into their elements.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.1
func HeadersFrom(h http.Header) Headers {
	clone := make(map[string][]string, len(h))
	for k, lines := range h {
		key := canonical(k)
		for _, line := range lines {
			if isSingletonField(key) {
				clone[key] = append(clone[key], line)
				continue
			}
			// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.3-1
			clone[key] = append(clone[key], tokenizeFieldValues([]byte(line))...)
		}
	}

	return Headers{underlying: clone}
}

// Fields returns all the key-values in the header.
func (h Headers) Fields() map[string][]string {
	clone := make(map[string][]string, len(h.underlying))
	for k, v := range h.underlying {
		sliceClone := make([]string, len(v))
		copy(sliceClone, v)

		clone[k] = sliceClone
	}

	return clone
}

func (h Headers) Clone() Headers { return Headers{underlying: h.Fields()} }

// ToHTTP converts headers into net/http header.
// List-based fields are written as a single line.
func (h Headers) ToHTTP() http.Header {
	out := make(http.Header, len(h.underlying))
	for _, k := range h.Keys() {
		if isSingletonField(k) {
			out[k] = slices.Clone(h.underlying[k])
			continue
		}
		out[k] = []string{h.Line(k)}
	}
	return out
}

// Keys returns the canonical field names, sorted.
func (h Headers) Keys() []string { return slices.Sorted(maps.Keys(h.underlying)) }

// Get assumes the field is a singleton field.
// Even if key has multiple values, it will only return the first element of values.
// For list-based field, use [Headers.Values] or [Headers.Line].
func (h Headers) Get(key string) (value string, ok bool) {
	v, ok := h.underlying[canonical(key)]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

func (h Headers) Values(key string) (values []string, ok bool) {
	values, ok = h.underlying[canonical(key)]
	return
}

func (h Headers) Has(key string) bool {
	_, ok := h.underlying[canonical(key)]
	return ok
}

// Line joins every value of the field back into a single field line.
func (h Headers) Line(key string) string {
	values := h.underlying[canonical(key)]

	quoted := make([]string, len(values))
	for idx, v := range values {
		if shouldQuote(v) && !isSingletonField(canonical(key)) {
			v = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
		}
		quoted[idx] = v
	}

	return strings.Join(quoted, ", ")
}

// Set assumes the field is a singleton field.
// It overwrites existing value instead of appending to it.
// For list-based field, use [Headers.Add].
func (h *Headers) Set(key, value string) {
	h.init()
	h.underlying[canonical(key)] = []string{value}
}

func (h *Headers) Add(key, value string) {
	h.init()
	key = canonical(key)
	h.underlying[key] = append(h.underlying[key], value)
}

func (h *Headers) Del(key string) {
	delete(h.underlying, canonical(key))
}

func (h *Headers) init() {
	if h.underlying == nil {
		h.underlying = make(map[string][]string)
	}
}

func canonical(s string) string {
	if rule.IsValidToken(s) {
		s = toCanonicalFieldName(s)
	}
	return s
}

// This only works for valid token.
func toCanonicalFieldName(s string) string {
	const capitalDiff = 'a' - 'A'
	b := []byte(s)
	upper := true
	for i, c := range b {
		if upper && 'a' <= c && c <= 'z' {
			c -= capitalDiff
		} else if !upper && 'A' <= c && c <= 'Z' {
			c += capitalDiff
		}
		b[i] = c
		upper = c == '-'
	}
	return string(b)
}

// Fields whose values may contain commas that don't separate list elements.
var singletonFields = map[string]struct{}{
	"Date":                {},
	"Expires":             {},
	"Last-Modified":       {},
	"If-Modified-Since":   {},
	"If-Unmodified-Since": {},
	"Retry-After":         {},
	"Set-Cookie":          {},
	"User-Agent":          {},
	"Authorization":       {},
}

func isSingletonField(key string) bool {
	_, ok := singletonFields[key]
	return ok
}

// Values already carrying quotes keep their own quoting.
func shouldQuote(s string) bool { return strings.ContainsRune(s, ',') && !strings.ContainsRune(s, '"') }

func tokenizeFieldValues(fieldValue []byte) []string {
	tokens := make([]string, 0)
	buf := bytes.NewBuffer(nil)

	parts := bytes.Split(fieldValue, []byte{','})

	// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.4-1
	quoted := false

	for _, part := range parts {
		if quoted {
			// Comma inside quote, let's write it again.
			buf.WriteByte(',')
		}

		for idx := 0; idx < len(part); idx++ {
			c := part[idx]
			if c == '"' && (idx == 0 || part[idx-1] != '\\') {
				quoted = !quoted
			}

			buf.WriteByte(c)
		}

		if !quoted {
			tokens = addToken(tokens, buf.Bytes())
			buf.Reset()
		}
	}

	if buf.Len() > 0 {
		// Quote didn't end properly.
		// At least write the raw token.
		tokens = addToken(tokens, buf.Bytes())
	}

	return tokens
}

func addToken(tokens []string, token []byte) []string {
	token = bytes.TrimFunc(token, rule.IsWhitespace)
	token = rule.Unquote(token)
	if len(token) == 0 {
		// Don't append if it's empty.
		return tokens
	}
	return append(tokens, string(token))
}
