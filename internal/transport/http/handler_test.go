package httptransport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"downloader-api/internal/engine"
	"downloader-api/internal/entity"
	"downloader-api/internal/repository/memory"
	"downloader-api/internal/service"
	httptransport "downloader-api/internal/transport/http"
	"downloader-api/internal/worker"
)

// ---- fakes ----

type engineStub struct {
	meta *engine.Metadata
	err  error
}

func (e *engineStub) Extract(ctx context.Context, url string, cfg engine.Config) (*engine.Metadata, error) {
	return e.meta, e.err
}

func (e *engineStub) Download(ctx context.Context, url string, cfg engine.Config, on engine.ProgressFunc) (*engine.Metadata, error) {
	on(engine.ProgressEvent{Status: "downloading", Percent: 50})
	return e.meta, e.err
}

// launcherStub records async jobs without running them, so they stay starting.
type launcherStub struct {
	ids []string
	err error
}

func (l *launcherStub) Go(job entity.Job) error {
	l.ids = append(l.ids, job.ID)
	return l.err
}

// ---- helpers ----

type testEnv struct {
	router   http.Handler
	store    *memory.JobRepository
	launcher *launcherStub
}

func newTestEnv(t *testing.T, eng engine.Engine, dir string) testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewJobRepository()
	launcher := &launcherStub{}
	defaults := worker.Defaults{DownloadDir: dir, PlaylistMaxItems: 10}

	runner := worker.NewRunner(worker.RunnerDeps{Engine: eng, Repo: store, Logger: logger, Defaults: defaults})
	svc := service.NewJobService(service.Deps{
		Store:    store,
		Runner:   runner,
		Launcher: launcher,
		Engine:   eng,
		Logger:   logger,
		Defaults: defaults,
	})
	h := httptransport.NewHandler(svc, logger, "test")
	return testEnv{router: httptransport.Routes(h, logger), store: store, launcher: launcher}
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid json response: %v, body=%s", err, rr.Body.String())
	}
	return v
}

// ---- tests ----

func TestHTTP_Download_Async_202_ThenStatus(t *testing.T) {
	env := newTestEnv(t, &engineStub{}, "/data")

	rr := do(t, env.router, http.MethodPost, "/api/download", `{"url":"https://example.com/v","format_type":"specific_quality","quality":"720p"}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d, body=%s", rr.Code, rr.Body.String())
	}

	resp := decode[map[string]string](t, rr)
	id := resp["download_id"]
	if id == "" || resp["status_url"] != "/api/status/"+id || resp["message"] != "Download started" {
		t.Fatalf("unexpected accepted body: %#v", resp)
	}
	if len(env.launcher.ids) != 1 || env.launcher.ids[0] != id {
		t.Fatalf("expected launch of %s, got %#v", id, env.launcher.ids)
	}

	rr = do(t, env.router, http.MethodGet, "/api/status/"+id, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", rr.Code, rr.Body.String())
	}
	job := decode[entity.Job](t, rr)
	if job.Status != entity.StatusStarting || job.Kind != entity.KindSpecificQuality {
		t.Fatalf("unexpected record: %#v", job)
	}
	if job.Options.QualityCeiling != 720 {
		t.Fatalf("expected quality 720, got %d", job.Options.QualityCeiling)
	}
	if job.Progress.Percent != "0%" || job.Progress.Speed != "N/A" {
		t.Fatalf("expected initial progress, got %#v", job.Progress)
	}
}

func TestHTTP_Download_Sync_200_Terminal(t *testing.T) {
	env := newTestEnv(t, &engineStub{meta: &engine.Metadata{Title: "Clip", Filename: "/data/Clip.mp4"}}, "/data")

	rr := do(t, env.router, http.MethodPost, "/api/download", `{"url":"https://example.com/v","format_type":"audio","async":false}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", rr.Code, rr.Body.String())
	}
	job := decode[entity.Job](t, rr)
	if job.Status != entity.StatusCompleted || job.Result == nil || job.Result.Title != "Clip" {
		t.Fatalf("unexpected record: %#v", job)
	}
	if len(env.launcher.ids) != 0 {
		t.Fatalf("sync download must not be launched in background")
	}
}

func TestHTTP_Download_Sync_EngineFailure_200_ErrorRecord(t *testing.T) {
	env := newTestEnv(t, &engineStub{err: &entity.EngineError{Op: "download", Err: errors.New("Video unavailable")}}, "/data")

	rr := do(t, env.router, http.MethodPost, "/api/download", `{"url":"https://example.com/v","async":false}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", rr.Code, rr.Body.String())
	}
	job := decode[entity.Job](t, rr)
	if job.Status != entity.StatusError || !strings.Contains(job.ErrorDetail, "Video unavailable") {
		t.Fatalf("unexpected record: %#v", job)
	}
}

func TestHTTP_Download_400(t *testing.T) {
	env := newTestEnv(t, &engineStub{}, "/data")

	cases := map[string]string{
		"missing url":      `{"format_type":"best"}`,
		"blank url":        `{"url":"   "}`,
		"invalid json":     `{"url":`,
		"empty body":       ``,
		"unknown format":   `{"url":"u","format_type":"8k"}`,
		"bad quality":      `{"url":"u","format_type":"specific_quality","quality":"high"}`,
		"quality required": `{"url":"u","format_type":"specific_quality"}`,
		"negative size":    `{"url":"u","size_limit_mb":-1}`,
		"size overflows":   `{"url":"u","size_limit_mb":8796093022208}`,
		"size wraps to 0":  `{"url":"u","size_limit_mb":17592186044416}`,
	}
	for name, body := range cases {
		rr := do(t, env.router, http.MethodPost, "/api/download", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d, body=%s", name, rr.Code, rr.Body.String())
		}
		if decode[map[string]string](t, rr)["error"] == "" {
			t.Fatalf("%s: expected error message, body=%s", name, rr.Body.String())
		}
	}
	if n := len(env.store.List()); n != 0 {
		t.Fatalf("rejected requests must not create records, got %d", n)
	}
}

func TestHTTP_Download_503_WhenShuttingDown(t *testing.T) {
	env := newTestEnv(t, &engineStub{}, "/data")
	env.launcher.err = worker.ErrPoolClosed

	rr := do(t, env.router, http.MethodPost, "/api/download", `{"url":"https://example.com/v"}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d, body=%s", rr.Code, rr.Body.String())
	}
}

func TestHTTP_Playlist_202_AndClamp(t *testing.T) {
	env := newTestEnv(t, &engineStub{}, "/data")

	rr := do(t, env.router, http.MethodPost, "/api/download/playlist", `{"url":"https://example.com/playlist?list=PL","format_type":"audio","max_downloads":100}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d, body=%s", rr.Code, rr.Body.String())
	}
	id := decode[map[string]string](t, rr)["download_id"]

	job, err := env.store.Get(id)
	if err != nil {
		t.Fatalf("record missing: %v", err)
	}
	if job.Kind != entity.KindPlaylist || job.Options.MaxItems != 10 || !job.Options.AudioOnly {
		t.Fatalf("unexpected playlist record: %#v", job)
	}

	rr = do(t, env.router, http.MethodPost, "/api/download/playlist", `{"url":"u","format_type":"video_audio"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown playlist format, got %d", rr.Code)
	}
}

func TestHTTP_Status_404(t *testing.T) {
	env := newTestEnv(t, &engineStub{}, "/data")

	rr := do(t, env.router, http.MethodGet, "/api/status/does-not-exist", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if got := decode[map[string]string](t, rr)["error"]; got != "Download ID not found" {
		t.Fatalf("unexpected error message %q", got)
	}
}

func TestHTTP_Downloads_MapByID(t *testing.T) {
	env := newTestEnv(t, &engineStub{}, "/data")
	do(t, env.router, http.MethodPost, "/api/download", `{"url":"https://example.com/a"}`)
	do(t, env.router, http.MethodPost, "/api/download", `{"url":"https://example.com/b"}`)

	rr := do(t, env.router, http.MethodGet, "/api/downloads", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	all := decode[map[string]entity.Job](t, rr)
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	for id, j := range all {
		if j.ID != id {
			t.Fatalf("key %s maps to record %s", id, j.ID)
		}
	}
}

func TestHTTP_Info(t *testing.T) {
	env := newTestEnv(t, &engineStub{meta: &engine.Metadata{Title: "T", ViewCount: 5, AgeLimit: 18}}, "/data")

	rr := do(t, env.router, http.MethodPost, "/api/info", `{"url":"https://example.com/v"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", rr.Code, rr.Body.String())
	}
	got := decode[map[string]any](t, rr)
	if got["title"] != "T" || got["views"] != float64(5) || got["age_limited"] != true {
		t.Fatalf("unexpected info: %#v", got)
	}
	if formats, ok := got["formats"].([]any); !ok || len(formats) != 0 {
		t.Fatalf("expected empty formats array, got %#v", got["formats"])
	}

	rr = do(t, env.router, http.MethodPost, "/api/info", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHTTP_Info_502_OnEngineFailure(t *testing.T) {
	env := newTestEnv(t, &engineStub{err: &entity.EngineError{Op: "extract", Err: errors.New("Unsupported URL")}}, "/data")

	rr := do(t, env.router, http.MethodPost, "/api/formats", `{"url":"https://example.com/v"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d, body=%s", rr.Code, rr.Body.String())
	}
}

func TestHTTP_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Clip.mp4")
	if err := os.WriteFile(path, []byte("media-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	env := newTestEnv(t, &engineStub{}, dir)

	now := time.Now().UTC()
	if err := env.store.Create(entity.NewJob("done", entity.KindSingle, "u", entity.Options{}, now)); err != nil {
		t.Fatal(err)
	}
	if _, err := env.store.Update("done", entity.CompletedPatch(entity.Result{Filename: path}, entity.InitialProgress())); err != nil {
		t.Fatal(err)
	}
	if err := env.store.Create(entity.NewJob("running", entity.KindSingle, "u", entity.Options{}, now)); err != nil {
		t.Fatal(err)
	}

	rr := do(t, env.router, http.MethodGet, "/api/files/done", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "media-bytes" {
		t.Fatalf("expected file body, got %d %q", rr.Code, rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != "attachment; filename=Clip.mp4" {
		t.Fatalf("unexpected Content-Disposition %q", cd)
	}

	if rr := do(t, env.router, http.MethodGet, "/api/files/running", ""); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if rr := do(t, env.router, http.MethodGet, "/api/files/unknown", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestHTTP_File_NonASCIIName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Café Clip.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	env := newTestEnv(t, &engineStub{}, dir)

	if err := env.store.Create(entity.NewJob("song", entity.KindAudioOnly, "u", entity.Options{}, time.Now().UTC())); err != nil {
		t.Fatal(err)
	}
	if _, err := env.store.Update("song", entity.CompletedPatch(entity.Result{Filename: path}, entity.InitialProgress())); err != nil {
		t.Fatal(err)
	}

	rr := do(t, env.router, http.MethodGet, "/api/files/song", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	want := "attachment; filename*=utf-8''Caf%C3%A9%20Clip.mp3"
	if cd := rr.Header().Get("Content-Disposition"); cd != want {
		t.Fatalf("expected %q, got %q", want, cd)
	}
}

func TestHTTP_History_501_WithoutArchive(t *testing.T) {
	env := newTestEnv(t, &engineStub{}, "/data")

	if rr := do(t, env.router, http.MethodGet, "/api/history", ""); rr.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rr.Code)
	}
	if rr := do(t, env.router, http.MethodGet, "/api/history?limit=abc", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHTTP_Health(t *testing.T) {
	env := newTestEnv(t, &engineStub{}, "/srv/media")
	do(t, env.router, http.MethodPost, "/api/download", `{"url":"https://example.com/a"}`)

	rr := do(t, env.router, http.MethodGet, "/api/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	got := decode[map[string]any](t, rr)
	if got["status"] != "healthy" || got["active_downloads"] != float64(1) || got["storage_path"] != "/srv/media" {
		t.Fatalf("unexpected health: %#v", got)
	}

	rr = do(t, env.router, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("expected plain ok, got %d %q", rr.Code, rr.Body.String())
	}
}

func TestHTTP_Index(t *testing.T) {
	env := newTestEnv(t, &engineStub{}, "/data")

	rr := do(t, env.router, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	got := decode[map[string]any](t, rr)
	if got["service"] != "downloader-api" {
		t.Fatalf("unexpected index: %#v", got)
	}
}

func TestHTTP_SwaggerDocumentsEveryRoute(t *testing.T) {
	env := newTestEnv(t, &engineStub{}, "/data")

	rr := do(t, env.router, http.MethodGet, "/swagger/doc.json", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid swagger document: %v", err)
	}

	routes, ok := env.router.(chi.Routes)
	if !ok {
		t.Fatalf("router is %T, not a chi router", env.router)
	}
	err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if route != "/" && !strings.HasPrefix(route, "/api/") {
			return nil
		}
		if _, ok := doc.Paths[route][strings.ToLower(method)]; !ok {
			t.Errorf("route %s %s missing from swagger document", method, route)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
