package web

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sustainix/sustainix/internal/convert"
	"github.com/sustainix/sustainix/internal/excel"
	"github.com/sustainix/sustainix/internal/logging"
	"github.com/sustainix/sustainix/internal/render"
	"github.com/sustainix/sustainix/internal/report"
	"github.com/sustainix/sustainix/internal/store"
	"github.com/sustainix/sustainix/internal/xbrl"
)

// handleIndex renders the landing page: upload form plus recent runs.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var runs []store.Run
	if s.runs != nil {
		var err error
		runs, err = s.runs.List(r.Context(), 20)
		if err != nil {
			logging.FromContext(r.Context()).Error("list runs", "error", err)
			// Page is still useful without history.
			runs = nil
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage(s.tax, runs).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render index", "error", err)
	}
}

// handleUpload accepts a multipart workbook upload and starts an
// asynchronous conversion job. Responds 202 with the job for polling.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(s.cfg.Upload.MaxFileSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "workbook exceeds the upload size limit")
		return
	}
	file, header, err := r.FormFile("workbook")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing workbook file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read uploaded workbook")
		return
	}

	job := s.jobs.Start(context.Background(), header.Filename, func(j *Job) {
		s.convertWorkbook(j, data)
	})

	logging.FromContext(r.Context()).Info("upload accepted",
		"job_id", job.ID,
		"file", job.FileName,
		"size", len(data),
	)

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, job.view())
}

// convertWorkbook runs the full pipeline for one uploaded workbook and
// records the outcome. Runs on the job goroutine.
func (s *Server) convertWorkbook(job *Job, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Upload.Timeout)
	defer cancel()

	values, err := excel.Extract(bytes.NewReader(data))
	if err != nil {
		s.jobs.Fail(job, "reading workbook: "+err.Error())
		return
	}

	cfg := convert.Config{
		Currency: s.cfg.Report.DefaultCurrency,
		Strict:   s.cfg.Report.Strict,
	}
	result := convert.Convert(s.tax, cfg, s.defaults, values)
	s.jobs.SetResult(job, result)

	// A conversion that recorded errors produced an incomplete or
	// contradictory fact set; withhold the report and let the client
	// read the diagnostics instead.
	if result.Facts.Len() > 0 && !result.HasErrors() {
		model, _ := report.Organize(s.tax, result.Entity, result.Facts)
		var buf bytes.Buffer
		if err := render.Document(s.tax, model).Render(ctx, &buf); err != nil {
			s.jobs.Fail(job, "rendering report: "+err.Error())
			return
		}
		s.jobs.SetHTML(job, buf.Bytes())
	}

	if s.runs == nil {
		return
	}
	run := store.Run{
		ID:          result.ID,
		FileName:    job.FileName,
		Entity:      result.Entity,
		PeriodEnd:   latestPeriodEnd(result.Contexts),
		Taxonomy:    s.tax.EntryPoint(),
		FactCount:   result.Facts.Len(),
		Success:     !result.HasErrors(),
		Diagnostics: result.AtLeast(convert.SeverityWarning),
		CreatedAt:   time.Now(),
	}
	if err := s.runs.Record(ctx, run); err != nil {
		// The conversion itself succeeded; history is best effort.
		logging.FromContext(ctx).Error("record run", "run_id", run.ID, "error", err)
	}
}

// latestPeriodEnd picks the most recent period end across contexts.
func latestPeriodEnd(contexts []*xbrl.Context) time.Time {
	var latest time.Time
	for _, c := range contexts {
		if end := c.Period.End(); end.After(latest) {
			latest = end
		}
	}
	return latest
}

// handleJobStatus returns the polling view of a conversion job.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, job.view())
}

// handleJobReport serves the rendered report document.
func (s *Server) handleJobReport(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobFromRequest(w, r)
	if !ok {
		return
	}
	if job.Status != StatusDone || len(job.HTML) == 0 {
		writeError(w, http.StatusConflict, "report is not ready")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="report.html"`)
	w.Write(job.HTML)
}

// handleJobMessages serves the conversion diagnostics as an HTML fragment.
func (s *Server) handleJobMessages(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobFromRequest(w, r)
	if !ok {
		return
	}
	if job.Result == nil {
		writeError(w, http.StatusConflict, "conversion has not finished")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.Messages(job.Result.Messages).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render messages", "error", err)
	}
}

// handleJobDelete removes a finished job and its report from memory.
func (s *Server) handleJobDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "jobID")
	if !ok {
		return
	}
	if !s.jobs.Delete(id) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListRuns returns recent conversion runs from the history store.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.historyEnabled(w) {
		return
	}
	runs, err := s.runs.List(r.Context(), 0)
	if err != nil {
		logging.FromContext(r.Context()).Error("list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list conversion history")
		return
	}
	writeJSON(w, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if !s.historyEnabled(w) {
		return
	}
	id, ok := parseID(w, r, "runID")
	if !ok {
		return
	}
	run, err := s.runs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		logging.FromContext(r.Context()).Error("get run", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load conversion run")
		return
	}
	writeJSON(w, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if !s.historyEnabled(w) {
		return
	}
	id, ok := parseID(w, r, "runID")
	if !ok {
		return
	}
	if err := s.runs.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		logging.FromContext(r.Context()).Error("delete run", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not delete conversion run")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) historyEnabled(w http.ResponseWriter) bool {
	if s.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "conversion history is disabled")
		return false
	}
	return true
}

func (s *Server) jobFromRequest(w http.ResponseWriter, r *http.Request) (Job, bool) {
	id, ok := parseID(w, r, "jobID")
	if !ok {
		return Job{}, false
	}
	job, found := s.jobs.Get(id)
	if !found {
		writeError(w, http.StatusNotFound, "job not found")
		return Job{}, false
	}
	return job, true
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return uuid.UUID{}, false
	}
	return id, true
}
