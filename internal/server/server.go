package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/akolanti/extractview/internal/adapter/utils"
	"github.com/akolanti/extractview/internal/config"
	"github.com/akolanti/extractview/internal/handlers"
	"github.com/akolanti/extractview/internal/middleware"
	"github.com/akolanti/extractview/pkg/logger_i"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

var (
	server  *http.Server
	_logger = logger_i.NewLogger("Server")
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	// StopScheduler is nil when the scheduler is disabled.
	StopScheduler func()
	// WaitJobs blocks until running extractions have been recorded.
	WaitJobs      func()
	CloseServices context.CancelFunc
}

// Routes builds the full HTTP surface: the JSON API, the static uploads
// mount, swagger and /metrics.
func Routes(h *handlers.Handler, mw *middleware.Middleware, uploadsDir string) http.Handler {
	r := utils.NewRouter(chimiddleware.RealIP, chimiddleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Get("/config", mw.Wrap(h.Config))
		api.Post("/upload", mw.WrapLimited(h.Upload))
		api.Get("/history", mw.Wrap(h.History))
		api.Get("/extractions", mw.Wrap(h.Extractions))
		api.Get("/extraction/{id}", mw.Wrap(h.GetExtraction))
		api.Delete("/extraction/{id}", mw.Wrap(h.DeleteExtraction))
		api.Post("/process/{id}", mw.Wrap(h.Process))
		api.Post("/rescan/{id}", mw.Wrap(h.Rescan))

		api.Get("/render-table/{id}/*", mw.Wrap(h.RenderTable))
		api.Get("/excel-render/{id}/*", mw.Wrap(h.RenderTable))
		api.Get("/file/{id}/*", mw.Wrap(h.GetFile))
		api.Post("/save-text", mw.Wrap(h.SaveText))
		api.Post("/overwrite-file", mw.WrapLimited(h.OverwriteFile))
		api.Post("/delete-file", mw.Wrap(h.DeleteFile))
		api.Post("/delete-folder", mw.Wrap(h.DeleteFolder))
		api.Get("/download-folder", mw.Wrap(h.DownloadFolder))

		api.Post("/save-groups", mw.Wrap(h.SaveGroups))
		api.Get("/tags", mw.Wrap(h.GetTags))
		api.Post("/save-tags", mw.Wrap(h.SaveTags))

		api.Post("/open-onedrive", mw.Wrap(h.OpenOneDrive))
	})

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(uploadsFileSystem{root: http.Dir(uploadsDir)})))
	return r
}

// uploadsFileSystem serves artifacts inside extraction folders only. Files at
// the uploads root (history.json) and directory listings are not exposed.
type uploadsFileSystem struct {
	root http.Dir
}

func (u uploadsFileSystem) Open(name string) (http.File, error) {
	clean := path.Clean("/" + name)
	if strings.Count(clean, "/") < 2 {
		return nil, os.ErrNotExist
	}
	f, err := u.root.Open(clean)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}

func CreateServer(listenAddr string, handler http.Handler) {
	server = &http.Server{
		Addr:         listenAddr,
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err.Error(), "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		if server != nil {
			server.SetKeepAlivesEnabled(false)
			if err := server.Shutdown(ctx); err != nil {
				_logger.Error("Could not shutdown gracefully", "err", err)
			}
		}

		//no new runs, then let the running ones record their outcome
		if shutdownParams.StopScheduler != nil {
			shutdownParams.StopScheduler()
		}
		if shutdownParams.WaitJobs != nil {
			shutdownParams.WaitJobs()
		}
		shutdownParams.CloseServices()
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully shut down")
	case <-ctx.Done():
		_logger.Warn("Force shut down, running extractions keep their lock until the stale timeout")
	}
	close(shutdownParams.StopExecution)
}
