package artifact

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xsolare/trip-scheduler-scraper/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSlugAndPath(t *testing.T) {
	s := NewStore("out", nil, quietLogger())
	assert.Equal(t, "chongqing", Slug("Chongqing"))
	assert.Equal(t, "ho-chi-minh-city", Slug("  Ho Chi  Minh City "))
	assert.Equal(t, filepath.Join("out", "chongqing-attractions-list.json"), s.Path("Chongqing", KindList))
	assert.Equal(t, filepath.Join("out", "chongqing-attractions-details.json"), s.Path("Chongqing", KindDetails))
}

func TestWriteOverwritesInsteadOfAppending(t *testing.T) {
	ctx := context.Background()
	s := NewStore(t.TempDir(), nil, quietLogger())

	first := []models.ListItem{
		{Name: "A", CanonicalURL: "https://www.tripadvisor.com/a"},
		{Name: "B", CanonicalURL: "https://www.tripadvisor.com/b"},
		{Name: "C", CanonicalURL: "https://www.tripadvisor.com/c"},
	}
	second := []models.ListItem{
		{Name: "Z", CanonicalURL: "https://www.tripadvisor.com/z"},
	}

	_, err := s.Write(ctx, "Chongqing", KindList, first)
	require.NoError(t, err)
	path, err := s.Write(ctx, "Chongqing", KindList, second)
	require.NoError(t, err)

	var got []models.ListItem
	require.NoError(t, s.Read("Chongqing", KindList, &got))
	if diff := cmp.Diff(second, got); diff != "" {
		t.Fatalf("artifact after second write (-want +got):\n%s", diff)
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "[\n  {\n    \"name\": \"Z\""), "expected two-space indentation, got %q", raw)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteLeavesArtifactWorldReadable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	s := NewStore(t.TempDir(), nil, quietLogger())
	path, err := s.Write(context.Background(), "Chongqing", KindList, []models.ListItem{{Name: "A", CanonicalURL: "https://www.tripadvisor.com/a"}})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestReadMissingArtifact(t *testing.T) {
	s := NewStore(t.TempDir(), nil, quietLogger())
	var got []models.ListItem
	err := s.Read("Chongqing", KindList, &got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil, quietLogger())
	require.NoError(t, os.WriteFile(s.Path("Chongqing", KindList), []byte("[{"), 0o644))

	var got []models.ListItem
	err := s.Read("Chongqing", KindList, &got)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

type recordingMirror struct {
	keys []string
	err  error
}

func (m *recordingMirror) Upload(_ context.Context, key string, _ []byte) error {
	m.keys = append(m.keys, key)
	return m.err
}

func TestWriteMirrorsAndToleratesMirrorFailure(t *testing.T) {
	m := &recordingMirror{err: errors.New("bucket offline")}
	s := NewStore(t.TempDir(), m, quietLogger())

	path, err := s.Write(context.Background(), "Chongqing", KindDetails, []models.DetailItem{{Name: "X"}})
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, []string{"chongqing-attractions-details.json"}, m.keys)
}

func TestS3MirrorUpload(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		target string
		body   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, target, body = r.Method, r.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx := context.Background()
	m, err := NewS3Mirror(ctx, S3Config{
		Endpoint:  srv.URL,
		Region:    "auto",
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "scrapes",
	}, quietLogger())
	require.NoError(t, err)

	require.NoError(t, m.Upload(ctx, "chongqing-attractions-list.json", []byte(`[{"name":"A"}]`)))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/scrapes/attractions/chongqing-attractions-list.json", target)
	assert.Contains(t, body, `[{"name":"A"}]`)
}
