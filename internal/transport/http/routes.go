package httptransport

import (
	"expvar"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "downloader-api/docs"
)

func Routes(h *Handler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))

	r.Get("/", h.Index)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/debug/vars", expvar.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Post("/info", h.Info)
		r.Post("/formats", h.Formats)
		r.Post("/playlist/preview", h.PlaylistPreview)
		r.Post("/download", h.Download)
		r.Post("/download/playlist", h.DownloadPlaylist)
		r.Get("/status/{id}", h.Status)
		r.Get("/downloads", h.List)
		r.Get("/files/{id}", h.File)
		r.Get("/history", h.History)
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return r
}
