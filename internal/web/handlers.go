package web

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/shipsort/internal/core"
	"github.com/JonMunkholm/shipsort/internal/logging"
	"github.com/JonMunkholm/shipsort/internal/sheet"
	"github.com/JonMunkholm/shipsort/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

const (
	// previewRows is how many rows of each bucket the page shows.
	previewRows = 20

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// handlePage renders the upload page for the caller's session.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, nil)
}

// renderPage renders the page with the session's current input and result.
// A non-nil msg adds an error alert above them.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, msg *core.UserMessage) {
	view := s.service.Current(s.peekSessionID(r))

	data := templates.PageData{
		Error:     msg,
		Accept:    strings.Join(sheet.Extensions(), ","),
		MaxFileMB: s.cfg.Upload.MaxFileSize >> 20,
	}
	if in := view.Input; in != nil {
		data.Input = &templates.InputView{
			FileName: in.FileName,
			Rows:     in.Table.Len(),
			Columns:  in.Table.Header,
			LoadedAt: in.LoadedAt,
		}
	}
	if run := view.Run; run != nil {
		data.Run = runView(run)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Page(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page failed", logging.Err(err))
	}
}

// handleUpload loads a spreadsheet into the session. Any earlier result
// is discarded; a failed load leaves the session as it was.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)

	file, name, err := s.formFile(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(WithRequestMetadata(r.Context(), r), s.cfg.Upload.Timeout)
	defer cancel()

	in, err := s.service.LoadInput(ctx, id, name, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "file", name, "rows", in.Table.Len()).Info("input loaded")

	if wantsJSON(r) {
		writeJSON(w, r, http.StatusOK, InputResponse{
			FileName: in.FileName,
			Rows:     in.Table.Len(),
			Columns:  in.Table.Header,
		})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleClassify classifies the session's loaded table.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	id := s.peekSessionID(r)
	if id == "" {
		s.respondError(w, r, core.ErrNoInput)
		return
	}

	ctx, cancel := context.WithTimeout(WithRequestMetadata(r.Context(), r), s.cfg.Upload.Timeout)
	defer cancel()

	run, err := s.service.Classify(ctx, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.WithFields(r.Context(),
		"run_id", run.ID,
		"address_column", run.AddressColumn,
		"total", run.Summary.Total,
	).Info("classified")

	if wantsJSON(r) {
		writeJSON(w, r, http.StatusOK, newRunResponse(run, pageDownloadURL))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleDownload streams one category of a cached run as xlsx.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	slug := chi.URLParam(r, "category")

	c, ok := core.ParseCategory(slug)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: %q", core.ErrUnknownCategory, slug))
		return
	}

	data, err := s.service.Export(r.Context(), runID, c)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", contentDisposition(c.FileName(), c.Slug()+".xlsx"))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		logging.FromContext(r.Context()).Warn("download write failed", "run_id", runID, logging.Err(err))
	}
}

// handleHealth reports liveness and classify capacity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":   "ok",
		"classify": s.service.LimiterStatus(),
	})
}

// formFile enforces the upload size limit and returns the "file" part.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, string, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) || strings.Contains(err.Error(), "request body too large") {
			return nil, "", fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxSize)
		}
		return nil, "", fmt.Errorf("%w: %v", errNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", errNoFile
	}
	return file, header.Filename, nil
}

// contentDisposition builds an attachment header with an ASCII fallback
// and the UTF-8 name in RFC 5987 form.
func contentDisposition(name, fallback string) string {
	return fmt.Sprintf(`attachment; filename=%q; filename*=UTF-8''%s`, fallback, url.PathEscape(name))
}

func pageDownloadURL(runID string, c core.Category) string {
	return "/runs/" + url.PathEscape(runID) + "/" + c.Slug()
}

func apiDownloadURL(runID string, c core.Category) string {
	return "/api/runs/" + url.PathEscape(runID) + "/download/" + c.Slug()
}

// runView builds the result section of the page.
func runView(run *core.Run) *templates.RunView {
	v := &templates.RunView{
		ID:            run.ID,
		AddressColumn: run.AddressColumn,
		Summary:       run.Summary,
	}
	for _, c := range core.Categories {
		v.Buckets = append(v.Buckets, templates.BucketView{
			Category: c,
			Label:    c.Label(),
			FileName: c.FileName(),
			URL:      pageDownloadURL(run.ID, c),
			Count:    run.Summary.Count(c),
			Preview:  preview(run.Partitions[c], previewRows),
		})
	}
	return v
}

// preview returns the first n rows of t without the category column.
func preview(t *core.Table, n int) *core.Table {
	if t == nil {
		return nil
	}
	drop := t.ColumnIndex(core.CategoryColumn)
	keep := func(row []string) []string {
		if drop < 0 {
			return row
		}
		out := make([]string, 0, len(row)-1)
		out = append(out, row[:drop]...)
		return append(out, row[drop+1:]...)
	}

	rows := t.Rows[:min(n, len(t.Rows))]
	p := &core.Table{Header: keep(t.Header), Rows: make([][]string, len(rows))}
	for i, row := range rows {
		p.Rows[i] = keep(row)
	}
	return p
}
