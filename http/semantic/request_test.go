package semantic

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"http-toolkit/http/semantic/status"
	"http-toolkit/negotiation"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	req, err := NewRequest(MethodGet, "http://example.com/articles?id=1", nil)
	require.NoError(t, err)

	assert.Equal(t, MethodGet, req.Method())
	assert.Equal(t, "example.com", req.URL().Host)
	assert.Equal(t, "/articles", req.URL().Path)

	contents, err := req.Body().Contents()
	require.NoError(t, err)
	assert.Empty(t, contents)

	_, err = NewRequest(MethodGet, "http://[::1", nil)
	assert.Error(t, err)
}

func TestRequestIsImmutable(t *testing.T) {
	original, err := NewRequest(MethodGet, "http://example.com/", nil)
	require.NoError(t, err)
	original = original.WithHeader("Accept", "text/html")

	modified := original.
		WithMethod(MethodPost).
		WithAddedHeader("accept", "application/json").
		WithHeader("Accept-Language", "de").
		WithBody(strings.NewReader("payload"))

	assert.Equal(t, MethodGet, original.Method())
	assert.Equal(t, "text/html", original.Header("Accept"))
	assert.False(t, original.HasHeader("Accept-Language"))

	assert.Equal(t, MethodPost, modified.Method())
	assert.Equal(t, "text/html, application/json", modified.Header("Accept"))
	assert.Equal(t, "de", modified.Header("Accept-Language"))

	withoutAccept := modified.WithoutHeader("ACCEPT")
	assert.False(t, withoutAccept.HasHeader("Accept"))
	assert.True(t, modified.HasHeader("Accept"))

	u := original.URL()
	u.Path = "/changed"
	assert.Equal(t, "/", original.URL().Path)

	moved := original.WithURL(&url.URL{Scheme: "https", Host: "example.org", Path: "/x"})
	assert.Equal(t, "example.org", moved.URL().Host)
	assert.Equal(t, "example.com", original.URL().Host)

	headers := original.Headers()
	headers.Set("Accept", "*/*")
	assert.Equal(t, "text/html", original.Header("Accept"))
}

func TestRequestNegotiate(t *testing.T) {
	testcases := []struct {
		desc      string
		headers   map[string]string
		kind      negotiation.Kind
		supported string
		value     string
		denied    bool
		wantErr   bool
	}{
		{
			desc:      "media type",
			headers:   map[string]string{"Accept": "application/json, text/html;q=0.5"},
			kind:      negotiation.KindMediaType,
			supported: "text/html, application/json",
			value:     "application/json",
		},
		{
			desc:      "missing header accepts anything",
			kind:      negotiation.KindLanguage,
			supported: "en-US, de",
			value:     "en-us",
		},
		{
			desc:      "not acceptable",
			headers:   map[string]string{"Accept-Charset": "iso-8859-1"},
			kind:      negotiation.KindCharset,
			supported: "utf-8",
			denied:    true,
		},
		{
			desc:      "malformed header",
			headers:   map[string]string{"Accept": "*/json"},
			kind:      negotiation.KindMediaType,
			supported: "application/json",
			wantErr:   true,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			req, err := NewRequest(MethodGet, "http://example.com/", nil)
			require.NoError(t, err)
			for k, v := range tc.headers {
				req = req.WithHeader(k, v)
			}

			best, err := req.Negotiate(tc.kind, tc.supported)
			if tc.wantErr {
				require.Error(t, err)

				var statusErr status.Error
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, status.NotAcceptable, statusErr.Status)
				assert.ErrorIs(t, err, negotiation.ErrInvalidHeaderValue)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.denied, best.IsDenied())
			assert.Equal(t, tc.value, best.Value())
		})
	}
}

func TestRequestFrom(t *testing.T) {
	raw := httptest.NewRequest(http.MethodPost, "http://example.com/upload", strings.NewReader("Hello, World!"))
	raw.Header.Set("Accept", "text/html, application/json;q=0.9")
	raw.Header.Set("Content-Length", "5")

	req, err := RequestFrom(raw)
	require.NoError(t, err)

	assert.Equal(t, MethodPost, req.Method())
	assert.Equal(t, "example.com", req.Header("Host"))
	assert.Equal(t, "text/html, application/json;q=0.9", req.Header("Accept"))

	size, known := req.Body().Size()
	assert.True(t, known)
	assert.Equal(t, int64(5), size)

	contents, err := req.Body().Contents()
	require.NoError(t, err)
	assert.Equal(t, "Hello", contents)

	raw.Header.Set("Content-Length", "five")
	_, err = RequestFrom(raw)
	assert.Error(t, err)
}

func TestRequestToHTTP(t *testing.T) {
	req, err := NewRequest(MethodPut, "http://example.com/items/1", strings.NewReader("item"))
	require.NoError(t, err)
	req = req.
		WithHeader("Accept", "application/json").
		WithAddedHeader("Accept", "text/plain;q=0.1").
		WithHeader("Host", "api.example.com").
		WithHeader("Content-Length", "4")

	raw, err := req.ToHTTP(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, raw.Method)
	assert.Equal(t, "api.example.com", raw.Host)
	assert.Empty(t, raw.Header.Get("Host"))
	assert.Equal(t, "application/json, text/plain;q=0.1", raw.Header.Get("Accept"))
	assert.Equal(t, int64(4), raw.ContentLength)

	b, err := io.ReadAll(raw.Body)
	require.NoError(t, err)
	assert.Equal(t, "item", string(b))

	empty, err := NewRequest(MethodGet, "http://example.com/", nil)
	require.NoError(t, err)
	rawEmpty, err := empty.ToHTTP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.NoBody, rawEmpty.Body)
	assert.Zero(t, rawEmpty.ContentLength)
}

func TestRequestAccepted(t *testing.T) {
	req, err := NewRequest(MethodGet, "http://example.com/", nil)
	require.NoError(t, err)

	assert.Equal(t, "*", req.Accepted(negotiation.KindCharset))

	req = req.WithHeader("Accept-Charset", "utf-8").WithAddedHeader("Accept-Charset", "iso-8859-1;q=0.5")
	assert.Equal(t, "utf-8, iso-8859-1;q=0.5", req.Accepted(negotiation.KindCharset))
}
