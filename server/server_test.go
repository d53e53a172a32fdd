package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keepfile/config"
	"keepfile/handlers"
	"keepfile/models"
)

type stubRecords struct{}

func (stubRecords) List(context.Context) ([]models.Keepfile, error) { return nil, nil }
func (stubRecords) Find(context.Context, uint) (models.Keepfile, error) {
	return models.Keepfile{}, models.ErrNotFound
}
func (stubRecords) Create(context.Context, *models.Keepfile) error { return nil }
func (stubRecords) Update(_ context.Context, k models.Keepfile) (models.Keepfile, error) {
	return k, nil
}
func (stubRecords) Delete(context.Context, uint) error { return nil }

type stubBlobs struct{}

func (stubBlobs) Put(context.Context, string, io.Reader, string) error { return nil }
func (stubBlobs) Exists(context.Context, string) (bool, error) { return false, nil }
func (stubBlobs) Delete(context.Context, string) error { return nil }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newTestRouter(t *testing.T, db handlers.Pinger, publicDir string) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{GinMode: "test", CORSOrigins: []string{"*"}}

	return NewRouter(cfg, logger, Deps{
		Keepfiles: handlers.NewKeepfileHandler(stubRecords{}, stubBlobs{}, logger),
		DB:        db,
		PublicDir: publicDir,
	})
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestRouterMountsKeepfilesTwice(t *testing.T) {
	r := newTestRouter(t, pinger{}, "")

	assert.Equal(t, http.StatusOK, get(r, "/keepfiles").Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/keepfiles").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/api/keepfiles/1").Code)
}

func TestRouterHealth(t *testing.T) {
	assert.Equal(t, http.StatusOK, get(newTestRouter(t, pinger{}, ""), "/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable,
		get(newTestRouter(t, pinger{err: errors.New("down")}, ""), "/health").Code)
}

func TestRouterMetrics(t *testing.T) {
	r := newTestRouter(t, pinger{}, "")
	get(r, "/keepfiles")

	w := get(r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "keepfile_http_requests_total")
}

func TestRouterServesStoredImages(t *testing.T) {
	dir := t.TempDir()
	imageDir := filepath.Join(dir, "keepfile", "image")
	require.NoError(t, os.MkdirAll(imageDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(imageDir, "a.png"), []byte("png"), 0644))

	w := get(newTestRouter(t, pinger{}, dir), "/storage/keepfile/image/a.png")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())
}

func TestAllowsAll(t *testing.T) {
	assert.True(t, allowsAll([]string{"*"}))
	assert.False(t, allowsAll([]string{"http://a.test"}))
}
