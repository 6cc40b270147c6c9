package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vidpipe/internal/logging"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(s.requestLog)

	r.Get("/", s.handleIndex)
	r.Post("/upload", s.handleUpload)
	r.Get("/process", s.handleProcessPage)
	r.Post("/process", s.handleProcessStart)
	r.Get("/select_title", s.handleSelectTitlePage)
	r.Post("/select_title", s.handleSelectTitle)
	r.Get("/edit_description", s.handleEditDescriptionPage)
	r.Post("/edit_description", s.handleEditDescription)
	r.Get("/confirm", s.handleConfirmPage)
	r.Post("/confirm", s.handleConfirm)
	r.Get("/download", s.handleDownloadPage)
	r.Get("/download/{sessionID}/{filename}", s.handleDownloadFile)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleAPIStatus)
		r.Get("/status/{sessionID}", s.handleAPISessionStatus)
		r.Get("/sessions", s.handleAPISessions)
		r.Get("/sessions/{sessionID}", s.handleAPISession)
		r.Get("/summary", s.handleAPISummary)
	})

	return r
}

// requestLog emits one structured line per request. The UI polls status
// endpoints every few seconds, so those log at debug and everything else
// at info.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		logger := s.log()
		attrs := []logging.Attr{
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Int("bytes", ww.BytesWritten()),
			logging.Duration("elapsed", time.Since(start)),
		}
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			attrs = append(attrs, logging.String("request_id", reqID))
		}
		if r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/status") {
			logger.Debug("http request", logging.Args(attrs...)...)
			return
		}
		logger.Info("http request", logging.Args(attrs...)...)
	})
}
