package negotiation

import (
	"maps"
	"math"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"http-toolkit/util/rule"
)

const (
	wildcard         = "*"
	defaultSeparator = "/"
	defaultQuality   = 1.0

	qualityParam = "q"
)

// type, separator, subtype. Every group is optional.
var typeSpecRegexp = regexp.MustCompile(`^(\*|[a-zA-Z0-9._]+)?([/\-_])?(\*|[a-zA-Z0-9.\-_+]+)?$`)

// Token is a single alternative of an Accept family header.
// e.g. "text/html;level=1;q=0.7", "en-US;q=0.8", "gzip".
//
// Tokens are values. A parsed token is never modified,
// matching always produces a new one.
type Token struct {
	typ       string
	subtype   string
	separator string

	quality float64
	// weight is only set on tokens produced by matching.
	weight float64

	catchAll bool
	params   map[string]string
}

// ParseToken parses one comma-separated segment of an Accept family header.
//
// Vendor media types using the structured syntax suffix ("vnd.api-v1+json")
// are reduced to their suffix ("json").
// Reference: https://datatracker.ietf.org/doc/html/rfc6838#section-4.2.8
func ParseToken(raw string) (Token, error) {
	spec, rawParams, _ := strings.Cut(rule.StripWhitespace(raw), ";")

	separator := defaultSeparator
	if spec != "" {
		match := typeSpecRegexp.FindStringSubmatch(spec)
		if match == nil {
			return Token{}, invalidHeaderValue(raw)
		}
		if match[2] != "" {
			separator = match[2]
		}
	}

	typ, subtype, _ := strings.Cut(spec, separator)
	if subtype == "" {
		subtype = wildcard
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc7231#section-5.3.2
	if typ == wildcard && subtype != wildcard {
		return Token{}, invalidHeaderValue(raw)
	}

	if idx := strings.LastIndexByte(subtype, '+'); idx >= 0 {
		subtype = subtype[idx+1:]
	}

	t := Token{
		typ:       strings.ToLower(strings.TrimSpace(typ)),
		subtype:   strings.ToLower(strings.TrimSpace(subtype)),
		separator: separator,
		quality:   defaultQuality,
		params:    parseParams(rawParams),
	}
	if t.subtype == "" {
		t.subtype = wildcard
	}
	t.catchAll = t.typ == wildcard && t.subtype == wildcard

	if q, ok := t.params[qualityParam]; ok {
		t.quality = parseQuality(q)
		delete(t.params, qualityParam)
	}

	return t, nil
}

// ParseHeader parses every segment of the header.
// A single invalid segment fails the whole header.
func ParseHeader(header string) ([]Token, error) {
	segments := strings.Split(header, ",")

	tokens := make([]Token, 0, len(segments))
	for _, segment := range segments {
		t, err := ParseToken(segment)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}

	return tokens, nil
}

// DeniedToken is the catch-all token with quality 0, i.e. "*;q=0".
// It stands for "nothing is acceptable".
func DeniedToken() Token {
	return Token{
		typ:       wildcard,
		subtype:   wildcard,
		separator: defaultSeparator,
		quality:   0,
		catchAll:  true,
		params:    map[string]string{},
	}
}

// Params are parsed as a query string, where ';' joins the pairs.
// Parameter names are case-insensitive.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.6
func parseParams(raw string) map[string]string {
	params := make(map[string]string)
	if raw == "" {
		return params
	}

	// Malformed pairs are dropped, the rest are kept.
	values, _ := url.ParseQuery(strings.ReplaceAll(raw, ";", "&"))
	for key, v := range values {
		if key == "" || len(v) == 0 {
			continue
		}
		params[strings.ToLower(key)] = string(rule.Unquote([]byte(v[0])))
	}

	return params
}

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-12.4.2
func parseQuality(raw string) float64 {
	q, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(q) {
		return defaultQuality
	}

	return min(max(q, 0), 1)
}

// Value renders the token as it would appear in a Content-* header.
// Rejected tokens (quality 0) render as an empty string.
func (t Token) Value() string {
	if t.quality == 0 {
		return ""
	}
	if t.subtype == wildcard {
		return t.typ
	}
	return t.typ + t.separator + t.subtype
}

func (t Token) Type() string      { return t.typ }
func (t Token) Subtype() string   { return t.subtype }
func (t Token) Separator() string { return t.separator }
func (t Token) Quality() float64  { return t.quality }
func (t Token) Weight() float64   { return t.weight }
func (t Token) IsCatchAll() bool  { return t.catchAll }

// IsDenied reports whether the token explicitly rejects its value.
func (t Token) IsDenied() bool { return t.quality == 0 }

func (t Token) Params() map[string]string { return maps.Clone(t.params) }

func (t Token) Param(key string) (value string, ok bool) {
	value, ok = t.params[strings.ToLower(key)]
	return
}

// String renders the token back into header syntax, including parameters and quality.
func (t Token) String() string {
	var sb strings.Builder

	sb.WriteString(t.typ)
	if t.subtype != wildcard || t.typ == wildcard {
		sb.WriteString(t.separator)
		sb.WriteString(t.subtype)
	}

	for _, key := range slices.Sorted(maps.Keys(t.params)) {
		sb.WriteByte(';')
		sb.WriteString(key)
		sb.WriteByte('=')
		sb.WriteString(t.params[key])
	}

	if t.quality != defaultQuality {
		sb.WriteString(";q=")
		sb.WriteString(strconv.FormatFloat(t.quality, 'f', -1, 64))
	}

	return sb.String()
}

func (t Token) clone() Token {
	t.params = maps.Clone(t.params)
	return t
}
