package handlers

import (
	"net/http"
)

// GetArticle enriches the article identified by the url query parameter.
// The response status field is "pending" until every artifact is generated;
// clients re-request (or hit the poll route) until it settles.
func (h *Handlers) GetArticle(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		http.Error(w, "url query parameter is required", http.StatusBadRequest)
		return
	}

	result, err := h.service.Enrich(r.Context(), rawURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// PollArticle re-checks enrichment progress. It is the same operation as
// GetArticle; the distinct route exists so clients and logs can tell initial
// requests from polls.
func (h *Handlers) PollArticle(w http.ResponseWriter, r *http.Request) {
	h.GetArticle(w, r)
}

// GetArticleMetadata returns the aggregate bundle for an already-enriched
// article, or 404 while it is incomplete.
func (h *Handlers) GetArticleMetadata(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		http.Error(w, "url query parameter is required", http.StatusBadRequest)
		return
	}

	meta, err := h.service.GetMetadata(r.Context(), rawURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// InvalidateArticle evicts every cached artifact for the article so the next
// request regenerates from scratch.
func (h *Handlers) InvalidateArticle(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		http.Error(w, "url query parameter is required", http.StatusBadRequest)
		return
	}

	if err := h.service.Invalidate(r.Context(), rawURL); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}
