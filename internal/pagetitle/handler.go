package pagetitle

import (
	"net/http"

	"annotations/pkg/respond"
)

type titleResponse struct {
	Title string `json:"title"`
}

type Handler struct {
	Fetcher *Fetcher
}

func NewHandler(f *Fetcher) *Handler {
	return &Handler{Fetcher: f}
}

// GetPageTitle serves GET /api/page-title. The URL is read from the context
// query parameter, as the browser extension sends it, or from url.
func (h *Handler) GetPageTitle(w http.ResponseWriter, r *http.Request) {
	if !respond.AllowMethod(w, r, http.MethodGet) {
		return
	}

	target := r.URL.Query().Get("context")
	if target == "" {
		target = r.URL.Query().Get("url")
	}

	title, err := h.Fetcher.FetchTitle(r.Context(), target)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, titleResponse{Title: title})
}
