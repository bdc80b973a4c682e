package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiOptions() APIOptions {
	return APIOptions{APIKey: "secret", LatLong: "29.5630,106.5516", Category: "attractions", Language: "en"}
}

func TestAPIEngineAcquire(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantNames []string
		wantURLs  []string
		wantDiag  string
	}{
		{
			name:      "numeric and string ids",
			status:    http.StatusOK,
			body:      `{"data":[{"location_id":"311207","name":"Hongyadong","address_obj":{"address_string":"Jiefangbei"}},{"location_id":1234,"name":"Ciqikou"}]}`,
			wantNames: []string{"Hongyadong", "Ciqikou"},
			wantURLs: []string{
				"https://www.tripadvisor.com/Attraction_Review-g311207",
				"https://www.tripadvisor.com/Attraction_Review-g1234",
			},
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			body:     `{"error":"boom"}`,
			wantDiag: "HTTP 500",
		},
		{
			name:     "missing data envelope",
			status:   http.StatusOK,
			body:     `{"results":[]}`,
			wantDiag: "invalid response envelope",
		},
		{
			name:     "location without name",
			status:   http.StatusOK,
			body:     `{"data":[{"location_id":"1"}]}`,
			wantDiag: "invalid response envelope",
		},
		{
			name:     "empty data",
			status:   http.StatusOK,
			body:     `{"data":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery atomic.Value
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/location/nearby_search", r.URL.Path)
				gotQuery.Store(r.URL.Query())
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			e := NewAPIEngine(srv.URL, 5*time.Second, quietLogger())
			res, err := e.Acquire(context.Background(), apiOptions())
			require.NoError(t, err)

			q, _ := gotQuery.Load().(url.Values)
			require.NotNil(t, q)
			assert.Equal(t, []string{"secret"}, q["key"])
			assert.Equal(t, []string{"29.5630,106.5516"}, q["latLong"])
			assert.Equal(t, []string{"attractions"}, q["category"])
			assert.Equal(t, []string{"en"}, q["language"])

			var names, urls []string
			for _, it := range res.Items {
				names = append(names, it.Name)
				urls = append(urls, it.CanonicalURL)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantURLs, urls)
			if tt.wantDiag == "" {
				assert.Empty(t, res.Diagnostics)
			} else {
				require.Len(t, res.Diagnostics, 1)
				assert.Contains(t, res.Diagnostics[0], tt.wantDiag)
			}
		})
	}
}

func TestAPIEngineMissingKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	opts := apiOptions()
	opts.APIKey = ""
	res, err := NewAPIEngine(srv.URL, time.Second, quietLogger()).Acquire(context.Background(), opts)
	require.NoError(t, err)
	assert.Zero(t, res.Count())
	assert.Zero(t, calls.Load())
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], "TRIPADVISOR_API_KEY")
}

func TestAPIEngineNoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	res, err := NewAPIEngine(srv.URL, time.Second, quietLogger()).Acquire(context.Background(), apiOptions())
	require.NoError(t, err)
	assert.Zero(t, res.Count())
	assert.EqualValues(t, 1, calls.Load())
}

func TestAPIEngineUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	res, err := NewAPIEngine(addr, time.Second, quietLogger()).Acquire(context.Background(), apiOptions())
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], "request failed")
}
