package router

import (
	"context"
	"net/http"
	"time"

	notesHandler "annotations/internal/notes"
	"annotations/internal/notes/service"
	"annotations/internal/pagetitle"
	"annotations/middleware"
	"annotations/pkg/respond"
	"annotations/store"
)

func Setup(st store.Store, fetcher *pagetitle.Fetcher, metrics *middleware.Metrics, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	notesService := service.NewNotesService(st)
	notes := notesHandler.NewNotesHandler(notesService)
	titles := pagetitle.NewHandler(fetcher)

	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, metrics.Instrument(pattern, h))
	}

	route("/api/notes", notes.GetNotes)
	route("/api/notes/update", notes.UpdateNotes)
	route("/api/notes/save", notes.SaveNotes)
	route("/api/all-notes", notes.GetAllNotes)
	route("/api/notes/delete", notes.DeleteNote)
	route("/api/context/delete", notes.DeleteContext)
	route("/api/page-title", titles.GetPageTitle)
	route("/healthz", healthz(st))
	mux.Handle("/metrics", metrics.Handler())

	return middleware.RequestLogger(middleware.CORSMiddleware(allowedOrigins)(mux))
}

func healthz(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
