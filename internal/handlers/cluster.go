package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"news-enricher/internal/dedup"
	"news-enricher/internal/fingerprint"
)

type clusterRequest struct {
	Articles []clusterArticle `json:"articles"`
}

type clusterArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

type clusterResponse struct {
	Clusters []clusterView `json:"clusters"`
	Featured int           `json:"featured"`
}

type clusterView struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Sources     []string `json:"sources"`
	SourceCount int      `json:"source_count"`
	Featured    bool     `json:"featured"`
	Duplicates  []string `json:"duplicates,omitempty"`
}

// ClusterArticles groups the posted articles into stories and flags the ones
// covered by multiple sources as featured. Clustering runs per request over
// the posted batch; nothing is persisted.
func (h *Handlers) ClusterArticles(w http.ResponseWriter, r *http.Request) {
	var req clusterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Articles) == 0 {
		http.Error(w, "articles list is empty", http.StatusBadRequest)
		return
	}

	detector := dedup.NewDetector(dedup.Options{Threshold: h.threshold})
	for _, a := range req.Articles {
		fp, err := fingerprint.New(a.URL)
		if err != nil {
			writeError(w, err)
			return
		}
		detector.Add(dedup.Article{
			Fingerprint: fp,
			Title:       a.Title,
			Description: a.Description,
			Source:      a.Source,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
		})
	}

	resp := clusterResponse{Clusters: []clusterView{}}
	for _, c := range detector.Clusters() {
		view := clusterView{
			Title:       c.Representative.Title,
			URL:         c.Representative.URL,
			SourceCount: c.SourceCount(),
			Featured:    c.Featured,
		}
		for source := range c.Sources {
			view.Sources = append(view.Sources, source)
		}
		for _, m := range c.Members {
			view.Duplicates = append(view.Duplicates, m.URL)
		}
		if view.Featured {
			resp.Featured++
		}
		resp.Clusters = append(resp.Clusters, view)
	}

	writeJSON(w, http.StatusOK, resp)
}
