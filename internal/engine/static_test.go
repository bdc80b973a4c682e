package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHTML(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.UserAgent(), "Chrome/125")
		assert.Equal(t, "en-US,en;q=0.9", r.Header.Get("Accept-Language"))
		assert.NotContains(t, r.Header.Get("Accept-Encoding"), "br")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStaticEngineParsesCards(t *testing.T) {
	srv := serveHTML(t, http.StatusOK, listingHTML)

	res, err := NewStaticEngine(5*time.Second, false, quietLogger()).
		Acquire(context.Background(), StaticOptions{URL: srv.URL + "/Attractions-g294213-Activities-oa0-Chongqing.html"})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Empty(t, res.Diagnostics)

	assert.Equal(t, "Hongyadong", res.Items[0].Name)
	assert.Equal(t, srv.URL+"/Attraction_Review-g294213-d1-Reviews-Hongyadong.html", res.Items[0].CanonicalURL)
	assert.Equal(t, []string{"https://media.example.com/b.jpg"}, res.Items[0].ImageURLs)

	assert.Equal(t, "Ciqikou Ancient Town", res.Items[1].Name)
	assert.Empty(t, res.Items[1].ImageURLs)
}

func TestStaticEngineExplainsEmptyResults(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantDiag string
	}{
		{"client rendered shell", http.StatusOK, `<html><body><div id="root"></div><script src="/app.js"></script></body></html>`, "empty application root"},
		{"captcha wall", http.StatusOK, `<html><body><iframe title="Verification puzzle" src="https://geo.captcha-delivery.com/x"></iframe></body></html>`, "stealth"},
		{"forbidden", http.StatusForbidden, `<html><body>Access Denied</body></html>`, "HTTP 403"},
		{"rate limited", http.StatusTooManyRequests, ``, "rate limited"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveHTML(t, tt.status, tt.body)
			res, err := NewStaticEngine(5*time.Second, false, quietLogger()).Acquire(context.Background(), StaticOptions{URL: srv.URL})
			require.NoError(t, err)
			assert.Zero(t, res.Count())
			require.Len(t, res.Diagnostics, 1)
			assert.Contains(t, res.Diagnostics[0], tt.wantDiag)
		})
	}
}

func TestStaticEngineUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	res, err := NewStaticEngine(time.Second, false, quietLogger()).Acquire(context.Background(), StaticOptions{URL: addr})
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], "request failed")
}

func TestStaticEngineBypassLeavesDefaultTransportAlone(t *testing.T) {
	srv := serveHTML(t, http.StatusOK, listingHTML)
	def := http.DefaultTransport.(*http.Transport)
	before := def.TLSClientConfig

	res, err := NewStaticEngine(5*time.Second, true, quietLogger()).
		Acquire(context.Background(), StaticOptions{URL: srv.URL + "/Attractions-g294213-Activities-oa0-Chongqing.html"})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Same(t, before, def.TLSClientConfig, "shared transport TLS config was replaced")
}
