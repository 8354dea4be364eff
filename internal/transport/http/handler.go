package httptransport

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"downloader-api/internal/engine"
	"downloader-api/internal/entity"
	"downloader-api/internal/service"
)

const serviceName = "downloader-api"

// largest size_limit_mb whose byte count fits in an int64
const maxSizeLimitMB = math.MaxInt64 >> 20

type Handler struct {
	jobSvc  *service.JobService
	logger  *slog.Logger
	version string
}

func NewHandler(jobSvc *service.JobService, logger *slog.Logger, version string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{jobSvc: jobSvc, logger: logger.With("component", "http"), version: version}
}

type urlRequest struct {
	URL string `json:"url"`
}

type downloadRequest struct {
	URL         string       `json:"url"`
	FormatType  string       `json:"format_type"` // best|video_audio|audio|specific_quality
	Quality     qualityValue `json:"quality" swaggertype:"string" example:"720"`
	SizeLimitMB int64        `json:"size_limit_mb,omitempty"`
	Async       *bool        `json:"async,omitempty"` // nil => true
}

type playlistRequest struct {
	URL          string `json:"url"`
	FormatType   string `json:"format_type"` // best|audio
	MaxDownloads int    `json:"max_downloads,omitempty"`
}

type acceptedResp struct {
	DownloadID string `json:"download_id"`
	Message    string `json:"message"`
	StatusURL  string `json:"status_url"`
}

type healthResp struct {
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	ActiveDownloads int       `json:"active_downloads"`
	StoragePath     string    `json:"storage_path"`
}

type infoResp struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Duration    float64         `json:"duration"`
	Views       int64           `json:"views"`
	Likes       int64           `json:"likes,omitempty"`
	Uploader    string          `json:"uploader,omitempty"`
	UploadDate  string          `json:"upload_date,omitempty"`
	Thumbnail   string          `json:"thumbnail,omitempty"`
	AgeLimited  bool            `json:"age_limited"`
	IsLive      bool            `json:"is_live"`
	Formats     []engine.Format `json:"formats"`
	Categories  []string        `json:"categories"`
	Tags        []string        `json:"tags"`
}

type formatsResp struct {
	Title   string          `json:"title"`
	Formats []engine.Format `json:"formats"`
}

type historyResp struct {
	Jobs []entity.Job `json:"jobs"`
}

// qualityValue accepts "720", "720p", 720 or "best" (no ceiling).
type qualityValue int

func (q *qualityValue) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	s = strings.TrimSuffix(strings.ToLower(s), "p")
	if s == "" || s == "null" || s == "best" {
		*q = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return entity.Invalid("quality", "%q is not a numeric height", string(b))
	}
	*q = qualityValue(n)
	return nil
}

// Index godoc
// @Summary Service information
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": serviceName,
		"version": h.version,
		"endpoints": map[string]string{
			"health":           "GET /api/health",
			"info":             "POST /api/info",
			"formats":          "POST /api/formats",
			"playlist_preview": "POST /api/playlist/preview",
			"download":         "POST /api/download",
			"playlist":         "POST /api/download/playlist",
			"status":           "GET /api/status/{id}",
			"downloads":        "GET /api/downloads",
			"file":             "GET /api/files/{id}",
			"history":          "GET /api/history",
		},
	})
}

// Health godoc
// @Summary Health and load
// @Tags meta
// @Produce json
// @Success 200 {object} healthResp
// @Router /api/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResp{
		Status:          "healthy",
		Timestamp:       time.Now().UTC(),
		ActiveDownloads: h.jobSvc.ActiveCount(),
		StoragePath:     h.jobSvc.DownloadDir(),
	})
}

// Info godoc
// @Summary Video metadata without downloading
// @Tags media
// @Accept json
// @Produce json
// @Param request body urlRequest true "source url"
// @Success 200 {object} infoResp
// @Failure 400 {object} apiError
// @Failure 502 {object} apiError
// @Router /api/info [post]
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decodeBody(w, r, &req) {
		return
	}

	meta, err := h.jobSvc.GetInfo(r.Context(), req.URL)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}

	resp := infoResp{
		Title:       meta.Title,
		Description: meta.Description,
		Duration:    meta.Duration,
		Views:       meta.ViewCount,
		Likes:       meta.LikeCount,
		Uploader:    meta.Uploader,
		UploadDate:  meta.UploadDate,
		Thumbnail:   meta.Thumbnail,
		AgeLimited:  meta.AgeLimit > 0,
		IsLive:      meta.IsLive,
		Formats:     nonNil(meta.Formats),
		Categories:  nonNil(meta.Categories),
		Tags:        nonNil(meta.Tags),
	}
	writeJSON(w, http.StatusOK, resp)
}

// Formats godoc
// @Summary Available formats
// @Tags media
// @Accept json
// @Produce json
// @Param request body urlRequest true "source url"
// @Success 200 {object} formatsResp
// @Failure 400 {object} apiError
// @Failure 502 {object} apiError
// @Router /api/formats [post]
func (h *Handler) Formats(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decodeBody(w, r, &req) {
		return
	}

	title, formats, err := h.jobSvc.GetFormats(r.Context(), req.URL)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formatsResp{Title: title, Formats: nonNil(formats)})
}

// PlaylistPreview godoc
// @Summary List playlist entries without downloading
// @Tags media
// @Accept json
// @Produce json
// @Param request body urlRequest true "playlist url"
// @Success 200 {object} engine.PlaylistPreview
// @Failure 400 {object} apiError
// @Failure 502 {object} apiError
// @Router /api/playlist/preview [post]
func (h *Handler) PlaylistPreview(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decodeBody(w, r, &req) {
		return
	}

	preview, err := h.jobSvc.PreviewPlaylist(r.Context(), req.URL)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// Download godoc
// @Summary Start a download
// @Description Async (default) returns 202 with a status url; async=false blocks and returns the finished record.
// @Tags downloads
// @Accept json
// @Produce json
// @Param request body downloadRequest true "format_type: best|video_audio|audio|specific_quality"
// @Success 200 {object} entity.Job
// @Success 202 {object} acceptedResp
// @Failure 400 {object} apiError
// @Failure 503 {object} apiError
// @Router /api/download [post]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	var dto downloadRequest
	if !decodeBody(w, r, &dto) {
		return
	}

	req, err := dto.toRequest()
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}

	job, err := h.jobSvc.SubmitDownload(r.Context(), req)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}

	if req.Synchronous {
		writeJSON(w, http.StatusOK, job)
		return
	}
	writeJSON(w, http.StatusAccepted, accepted(job.ID, "Download started"))
}

// DownloadPlaylist godoc
// @Summary Start a playlist download
// @Tags downloads
// @Accept json
// @Produce json
// @Param request body playlistRequest true "format_type: best|audio"
// @Success 202 {object} acceptedResp
// @Failure 400 {object} apiError
// @Failure 503 {object} apiError
// @Router /api/download/playlist [post]
func (h *Handler) DownloadPlaylist(w http.ResponseWriter, r *http.Request) {
	var dto playlistRequest
	if !decodeBody(w, r, &dto) {
		return
	}

	var audio bool
	switch dto.FormatType {
	case "", "best":
	case "audio":
		audio = true
	default:
		writeErr(w, http.StatusBadRequest, fmt.Sprintf("format_type: unknown playlist format %q", dto.FormatType))
		return
	}

	job, err := h.jobSvc.SubmitPlaylist(r.Context(), entity.Request{
		SourceURL: dto.URL,
		Kind:      entity.KindPlaylist,
		Options:   entity.Options{MaxItems: dto.MaxDownloads, AudioOnly: audio},
	})
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, accepted(job.ID, "Playlist download started"))
}

// Status godoc
// @Summary Get download status
// @Tags downloads
// @Produce json
// @Param id path string true "download id"
// @Success 200 {object} entity.Job
// @Failure 404 {object} apiError
// @Router /api/status/{id} [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobSvc.GetStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// List godoc
// @Summary All downloads known to this process
// @Tags downloads
// @Produce json
// @Success 200 {object} map[string]entity.Job
// @Router /api/downloads [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobSvc.ListJobs()
	out := make(map[string]entity.Job, len(jobs))
	for _, j := range jobs {
		out[j.ID] = j
	}
	writeJSON(w, http.StatusOK, out)
}

// File godoc
// @Summary Fetch the downloaded file
// @Tags downloads
// @Produce octet-stream
// @Param id path string true "download id"
// @Success 200 {file} file
// @Failure 404 {object} apiError
// @Failure 409 {object} apiError
// @Router /api/files/{id} [get]
func (h *Handler) File(w http.ResponseWriter, r *http.Request) {
	path, err := h.jobSvc.FilePath(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(path)}))
	http.ServeFile(w, r, path)
}

// History godoc
// @Summary Recently finished downloads from the archive
// @Tags downloads
// @Produce json
// @Param limit query int false "max records (default 50)"
// @Success 200 {object} historyResp
// @Failure 400 {object} apiError
// @Failure 501 {object} apiError
// @Router /api/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeErr(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	jobs, err := h.jobSvc.History(r.Context(), limit)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResp{Jobs: nonNil(jobs)})
}

func (d downloadRequest) toRequest() (entity.Request, error) {
	switch {
	case d.SizeLimitMB < 0:
		return entity.Request{}, entity.Invalid("size_limit_mb", "must not be negative")
	case d.SizeLimitMB > maxSizeLimitMB:
		return entity.Request{}, entity.Invalid("size_limit_mb", "must not exceed %d", int64(maxSizeLimitMB))
	}

	req := entity.Request{
		SourceURL: d.URL,
		Options: entity.Options{
			QualityCeiling: int(d.Quality),
			SizeLimitBytes: d.SizeLimitMB << 20,
		},
		Synchronous: d.Async != nil && !*d.Async,
	}

	switch d.FormatType {
	case "", "best":
		req.Kind = entity.KindSingle
	case "video_audio":
		req.Kind = entity.KindSingle
		req.Options.MergeVideoAudio = true
	case "audio":
		req.Kind = entity.KindAudioOnly
	case "specific_quality":
		req.Kind = entity.KindSpecificQuality
	default:
		return req, entity.Invalid("format_type", "unknown format %q", d.FormatType)
	}
	return req, nil
}

func accepted(id, msg string) acceptedResp {
	return acceptedResp{DownloadID: id, Message: msg, StatusURL: "/api/status/" + id}
}

func (h *Handler) writeServiceErr(w http.ResponseWriter, err error) {
	var ve *entity.ValidationError
	var ee *entity.EngineError
	switch {
	case errors.As(err, &ve):
		writeErr(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, entity.ErrNotFound):
		writeErr(w, http.StatusNotFound, "Download ID not found")
	case errors.Is(err, entity.ErrFileMissing):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, entity.ErrNotReady):
		writeErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, entity.ErrHistoryDisabled):
		writeErr(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, entity.ErrShuttingDown):
		writeErr(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &ee):
		writeErr(w, http.StatusBadGateway, ee.Error())
	default:
		h.logger.Error("request failed", "error", err)
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
