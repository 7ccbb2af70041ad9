package negotiation

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMatchBest(t *testing.T) {
	testcases := []struct {
		desc      string
		supported string
		accepted  string
		value     string
		quality   float64
	}{
		{
			desc:      "params break ties between equal media types",
			supported: "text/*;q=0.3, text/html;q=0.7, text/html;level=1, text/html;level=2;q=0.4, */*;q=0.5",
			accepted:  "text/html;level=1",
			value:     "text/html",
			quality:   1.0,
		},
		{
			desc:      "no type overlap",
			supported: "application/json",
			accepted:  "image/jpeg",
			value:     "",
			quality:   0,
		},
		{
			desc:      "vendor media type",
			supported: "application/vnd.api-v1+json",
			accepted:  "application/vnd.api-v1+json",
			value:     "application/json",
			quality:   1.0,
		},
		{
			desc:      "languages with catch-all",
			supported: "de,fr,en",
			accepted:  "fr;q=0.7, en;q=0.8, de;q=0.9, *;q=0.5",
			value:     "de",
			quality:   0.9,
		},
		{
			desc:      "catch-all picks the first supported",
			supported: "gzip, compress, deflate",
			accepted:  "*",
			value:     "gzip",
			quality:   1.0,
		},
		{
			desc:      "supported side denies",
			supported: "text/html;q=0",
			accepted:  "text/html",
			value:     "",
			quality:   0,
		},
		{
			desc:      "accepted side denies",
			supported: "text/html",
			accepted:  "text/html;q=0",
			value:     "",
			quality:   0,
		},
		{
			desc:      "accept inherits supported quality",
			supported: "application/json;q=0.8, text/html;q=0.2",
			accepted:  "text/html, application/json",
			value:     "application/json",
			quality:   0.8,
		},
		{
			desc:      "region adopted from supported",
			supported: "en-US, de-DE",
			accepted:  "en",
			value:     "en-us",
			quality:   1.0,
		},
		{
			desc:      "charsets",
			supported: "utf-8, iso-8859-1;q=0.5",
			accepted:  "iso-8859-1, utf-8;q=0.7",
			value:     "utf-8",
			quality:   0.7,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			best, err := MatchBest(tc.supported, tc.accepted)
			require.NoError(t, err)

			assert.Equal(t, tc.value, best.Value())
			assert.Equal(t, tc.quality, best.Quality())
		})
	}
}

func TestMatchOrdering(t *testing.T) {
	matches, err := Match(
		"text/*;q=0.3, text/html;q=0.7, text/html;level=1, text/html;level=2;q=0.4, */*;q=0.5",
		"text/html;level=1",
	)
	require.NoError(t, err)
	require.Len(t, matches, 5)

	expected := []struct {
		weight  float64
		quality float64
	}{
		{weight: 103, quality: 1},
		{weight: 101.4, quality: 0.7},
		{weight: 99.8, quality: 0.4},
		{weight: 0.6, quality: 0.3},
		{weight: 0.5, quality: 0.5},
	}
	for idx, e := range expected {
		assert.Equal(t, "text/html", matches[idx].Value())
		assert.InDelta(t, e.weight, matches[idx].Weight(), 1e-9)
		assert.Equal(t, e.quality, matches[idx].Quality())
	}
}

func TestMatchDeterministic(t *testing.T) {
	supported := "gzip, compress, deflate, br;q=0.9"
	accepted := "*, deflate;q=0.5, identity;q=0"

	first, err := Match(supported, accepted)
	require.NoError(t, err)
	second, err := Match(supported, accepted)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMatchDenialIsKept(t *testing.T) {
	matches, err := Match("text/html, application/json", "application/json;q=0, text/html")
	require.NoError(t, err)

	// A denial is emitted for every supported value, before types are compared.
	require.Len(t, matches, 3)

	assert.Equal(t, "text/html", matches[0].Value())
	for _, denied := range matches[1:] {
		assert.True(t, denied.IsDenied())
		assert.Equal(t, "", denied.Value())
		assert.Zero(t, denied.Weight())
	}
}

func TestMatchEmptyFallsBackToDenied(t *testing.T) {
	matches, err := Match("application/json, application/xml", "image/png, text/*")
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, DeniedToken(), matches[0])
	assert.Equal(t, 0.0, matches[0].Quality())
}

func TestMatchInvalid(t *testing.T) {
	testcases := []struct {
		desc      string
		supported string
		accepted  string
		header    string
	}{
		{
			desc:      "accepted",
			supported: "text/html",
			accepted:  "text/html, */json",
			header:    " */json",
		},
		{
			desc:      "supported",
			supported: "text/html,*/xml",
			accepted:  "text/html",
			header:    "*/xml",
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			matches, err := Match(tc.supported, tc.accepted)
			require.Error(t, err)
			assert.Nil(t, matches)

			var invalid *InvalidHeaderValueError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tc.header, invalid.Header)
			assert.Contains(t, err.Error(), tc.desc)
		})
	}
}

func TestPairwiseMatch(t *testing.T) {
	testcases := []struct {
		desc     string
		support  string
		accept   string
		matched  bool
		value    string
		quality  float64
		weight   float64
		catchAll bool
	}{
		{
			desc:    "catch-all keeps its own quality",
			support: "gzip;q=0.8",
			accept:  "*;q=0.5",
			matched: true,
			value:   "gzip",
			quality: 0.5,
		},
		{
			desc:    "catch-all inherits quality",
			support: "en-US;q=0.8",
			accept:  "*",
			matched: true,
			value:   "en-us",
			quality: 0.8,
		},
		{
			desc:     "catch-all against catch-all",
			support:  "*/*",
			accept:   "*/*",
			matched:  true,
			value:    "*",
			quality:  1,
			catchAll: true,
		},
		{
			desc:    "type mismatch",
			support: "text/html",
			accept:  "image/png",
			matched: false,
		},
		{
			desc:    "subtype mismatch",
			support: "text/html",
			accept:  "text/plain",
			matched: false,
		},
		{
			desc:    "accept subtype wildcard",
			support: "text/html",
			accept:  "text/*",
			matched: true,
			value:   "text/html",
			quality: 1,
			weight:  102,
		},
		{
			desc:    "supported catch-all scores quality once",
			support: "*/*",
			accept:  "image/png;q=0.5",
			matched: true,
			value:   "image/png",
			quality: 0.5,
			weight:  0.5,
		},
		{
			desc:    "supported type wildcard",
			support: "text/*;q=0.5",
			accept:  "text/html",
			matched: true,
			value:   "text/html",
			quality: 0.5,
			weight:  1,
		},
		{
			desc:    "params score",
			support: "text/html;level=1;charset=utf-8",
			accept:  "text/html;level=1",
			matched: true,
			value:   "text/html",
			quality: 1,
			weight:  102,
		},
		{
			desc:    "accepted params are not scored",
			support: "text/html",
			accept:  "text/html;level=1",
			matched: true,
			value:   "text/html",
			quality: 1,
			weight:  102,
		},
		{
			desc:    "denial wins over type mismatch",
			support: "text/html;q=0",
			accept:  "image/png",
			matched: true,
			value:   "",
			quality: 0,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			support, err := ParseToken(tc.support)
			require.NoError(t, err)
			accept, err := ParseToken(tc.accept)
			require.NoError(t, err)

			result, ok := pairwiseMatch(support, accept)
			require.Equal(t, tc.matched, ok)
			if !ok {
				return
			}

			assert.Equal(t, tc.value, result.Value())
			assert.Equal(t, tc.quality, result.Quality())
			assert.InDelta(t, tc.weight, result.Weight(), 1e-9)
			assert.Equal(t, tc.catchAll, result.IsCatchAll())
		})
	}
}

func TestPairwiseMatchLeavesInputsUntouched(t *testing.T) {
	support, err := ParseToken("text/html;level=1;q=0.5")
	require.NoError(t, err)
	accept, err := ParseToken("text/*;foo=bar")
	require.NoError(t, err)

	supportCopy, acceptCopy := support.clone(), accept.clone()

	result, ok := pairwiseMatch(support, accept)
	require.True(t, ok)
	assert.Equal(t, "html", result.Subtype())

	assert.Equal(t, supportCopy, support)
	assert.Equal(t, acceptCopy, accept)
	assert.Equal(t, "*", accept.Subtype())
	assert.Equal(t, 1.0, accept.Quality())
}

func TestMatchConcurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	const (
		supported = "text/*;q=0.3, text/html;q=0.7, text/html;level=1, */*;q=0.5"
		accepted  = "text/html;level=1, application/json;q=0.2"
	)

	expected, err := Match(supported, accepted)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]Token, 16)
	for idx := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				matches, err := Match(supported, accepted)
				if err != nil {
					return
				}
				results[idx] = matches
			}
		}()
	}
	wg.Wait()

	for _, result := range results {
		assert.Equal(t, expected, result)
	}
}

func TestNegotiator(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	n := New(KindLanguage, "de,fr,en", logger)
	assert.Equal(t, KindLanguage, n.Kind())
	assert.Equal(t, "de,fr,en", n.Supported())

	best, err := n.Best("fr;q=0.7, en;q=0.8, de;q=0.9, *;q=0.5")
	require.NoError(t, err)
	assert.Equal(t, "de", best.Value())
	assert.Equal(t, 0.9, best.Quality())

	assert.Contains(t, buf.String(), "negotiated")
	assert.Contains(t, buf.String(), "kind=language")

	_, err = n.Best("*-en")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidHeaderValue)
	assert.Contains(t, err.Error(), "negotiating Accept-Language")
}

func TestNegotiatorWithoutLogger(t *testing.T) {
	n := New(KindEncoding, "gzip, deflate", nil)

	matches, err := n.Match("deflate, gzip;q=0.5")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "deflate", matches[0].Value())
	assert.Equal(t, "gzip", matches[1].Value())
}

func TestKindHeaders(t *testing.T) {
	testcases := []struct {
		kind    Kind
		header  string
		content string
	}{
		{kind: KindMediaType, header: "Accept", content: "Content-Type"},
		{kind: KindLanguage, header: "Accept-Language", content: "Content-Language"},
		{kind: KindCharset, header: "Accept-Charset", content: "Content-Type"},
		{kind: KindEncoding, header: "Accept-Encoding", content: "Content-Encoding"},
	}
	for _, tc := range testcases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			assert.Equal(t, tc.header, tc.kind.Header())
			assert.Equal(t, tc.content, tc.kind.ContentHeader())
		})
	}
}
