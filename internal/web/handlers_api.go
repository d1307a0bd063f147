package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/shipsort/internal/core"
	"github.com/JonMunkholm/shipsort/internal/logging"
	"github.com/go-chi/chi/v5"
)

// maxHistoryLimit caps the ?limit= parameter on /api/history.
const maxHistoryLimit = 500

// InputResponse describes a loaded file.
type InputResponse struct {
	FileName string   `json:"fileName"`
	Rows     int      `json:"rows"`
	Columns  []string `json:"columns"`
}

// DownloadLink points at one category's xlsx.
type DownloadLink struct {
	Category core.Category `json:"category"`
	Label    string        `json:"label"`
	FileName string        `json:"fileName"`
	Count    int           `json:"count"`
	URL      string        `json:"url"`
}

// RunResponse is the JSON view of a classification run.
type RunResponse struct {
	ID            string         `json:"id"`
	FileName      string         `json:"fileName"`
	AddressColumn string         `json:"addressColumn"`
	Summary       core.Summary   `json:"summary"`
	Downloads     []DownloadLink `json:"downloads"`
	CreatedAt     time.Time      `json:"createdAt"`
}

func newRunResponse(run *core.Run, urlFor func(string, core.Category) string) RunResponse {
	resp := RunResponse{
		ID:            run.ID,
		FileName:      run.FileName,
		AddressColumn: run.AddressColumn,
		Summary:       run.Summary,
		CreatedAt:     run.CreatedAt,
	}
	for _, c := range core.Categories {
		resp.Downloads = append(resp.Downloads, DownloadLink{
			Category: c,
			Label:    c.Label(),
			FileName: c.FileName(),
			Count:    run.Summary.Count(c),
			URL:      urlFor(run.ID, c),
		})
	}
	return resp
}

// handleAPIClassify is the one-shot path: upload a file, get the summary
// and download links back.
func (s *Server) handleAPIClassify(w http.ResponseWriter, r *http.Request) {
	file, name, err := s.formFile(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(WithRequestMetadata(r.Context(), r), s.cfg.Upload.Timeout)
	defer cancel()

	run, err := s.service.ClassifyFile(ctx, name, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.WithFields(r.Context(),
		"run_id", run.ID,
		"file", name,
		"total", run.Summary.Total,
	).Info("classified via api")

	writeJSON(w, r, http.StatusCreated, newRunResponse(run, apiDownloadURL))
}

// handleAPIRun returns a cached run's summary.
func (s *Server) handleAPIRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.Run(chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newRunResponse(run, apiDownloadURL))
}

// handleAPIHistory lists recent run records, newest first.
func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", s.cfg.History.PageSize)
	limit = min(limit, maxHistoryLimit)

	records, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if records == nil {
		records = []core.RunRecord{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"runs": records})
}

// handleAPIRules returns the active rule set.
func (s *Server) handleAPIRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.Rules())
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
