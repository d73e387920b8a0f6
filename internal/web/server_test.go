package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/sustainix/sustainix/internal/config"
	"github.com/sustainix/sustainix/internal/convert"
	"github.com/sustainix/sustainix/internal/taxonomy"
)

const testTaxonomy = `{
	"entryPoint": "https://example.org/taxonomy/test/2026",
	"version": "2026-01",
	"namespaces": {"t": "https://example.org/taxonomy/test"},
	"concepts": {
		"t:RevenueFromSales": {
			"label": "Revenue from sales",
			"dataType": "monetary",
			"periodType": "duration"
		},
		"t:TotalEmployees": {
			"label": "Total employees",
			"dataType": "decimal",
			"unitType": "headcount",
			"periodType": "duration"
		}
	},
	"presentation": [
		{
			"role": "https://example.org/roles/general",
			"label": "General information",
			"rows": [[0, "t:RevenueFromSales"], [0, "t:TotalEmployees"]]
		}
	],
	"dimensions": {},
	"units": {
		"units": [
			{"id": "EUR", "measure": "iso4217:EUR", "symbol": "€"},
			{"id": "employees", "measure": "t:employees", "symbol": "employees"}
		],
		"forType": {"monetary": ["EUR"], "headcount": ["employees"]},
		"defaults": {"headcount": "employees"},
		"currencies": ["EUR"]
	}
}`

func testServer(t *testing.T) *Server {
	t.Helper()
	return testServerWith(t, nil)
}

func testServerWith(t *testing.T, defaults *convert.Defaults) *Server {
	t.Helper()
	tax, err := taxonomy.Load(strings.NewReader(testTaxonomy))
	if err != nil {
		t.Fatalf("load taxonomy: %v", err)
	}
	cfg := &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			Timeout:       10 * time.Second,
			RetainJobs:    time.Hour,
		},
		Report: config.ReportConfig{DefaultCurrency: "EUR"},
	}
	return NewServer(cfg, tax, defaults, nil)
}

func testWorkbook(t *testing.T, names map[string]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	row := 1
	for name, value := range names {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetCellValue("Sheet1", cell, value); err != nil {
			t.Fatalf("set cell: %v", err)
		}
		if err := f.SetDefinedName(&excelize.DefinedName{
			Name:     name,
			RefersTo: "Sheet1!$A$" + cell[1:],
		}); err != nil {
			t.Fatalf("define name %s: %v", name, err)
		}
		row++
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("workbook", "report.xlsx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func awaitJob(t *testing.T, s *Server, id uuid.UUID) Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := s.jobs.Get(id)
		if !ok {
			t.Fatalf("job %s disappeared", id)
		}
		if job.Status == StatusDone || job.Status == StatusFailed {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return Job{}
}

func TestUploadConvertAndDownload(t *testing.T) {
	s := testServer(t)
	data := testWorkbook(t, map[string]string{
		"ReportingEntityName": "Acme GmbH",
		"PeriodStartDate":     "2024-01-01",
		"PeriodEndDate":       "2024-12-31",
		"RevenueFromSales":    "125000",
		"TotalEmployees":      "42",
	})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, uploadRequest(t, data))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	var view struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}

	job := awaitJob(t, s, view.ID)
	if job.Status != StatusDone {
		t.Fatalf("job status = %s, err %q", job.Status, job.Err)
	}
	if got := job.Result.Facts.Len(); got != 2 {
		t.Fatalf("fact count = %d, want 2", got)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/conversions/"+view.ID.String()+"/report", nil)
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("report status = %d", rec.Code)
	}
	html := rec.Body.String()
	if !strings.Contains(html, "Acme GmbH") {
		t.Errorf("report missing entity name: %s", html)
	}
	if !strings.Contains(html, "Revenue from sales") {
		t.Errorf("report missing concept label")
	}
}

func TestUploadInvalidWorkbook(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, uploadRequest(t, []byte("not a workbook")))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("upload status = %d", rec.Code)
	}
	var view struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}

	job := awaitJob(t, s, view.ID)
	if job.Status != StatusFailed {
		t.Fatalf("job status = %s, want failed", job.Status)
	}
	if !strings.Contains(job.Err, "reading workbook") {
		t.Errorf("job error = %q", job.Err)
	}
}

func TestUploadMissingEntityReportsErrors(t *testing.T) {
	s := testServer(t)
	data := testWorkbook(t, map[string]string{
		"PeriodStartDate":  "2024-01-01",
		"PeriodEndDate":    "2024-12-31",
		"RevenueFromSales": "125000",
	})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, uploadRequest(t, data))
	var view struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}

	job := awaitJob(t, s, view.ID)
	if job.Status != StatusDone {
		t.Fatalf("job status = %s", job.Status)
	}
	if !job.Result.HasErrors() {
		t.Error("expected conversion errors without an entity name")
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/conversions/"+view.ID.String()+"/report", nil)
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("report status = %d, want 409", rec.Code)
	}
}

func TestUploadConflictingFactWithholdsReport(t *testing.T) {
	s := testServerWith(t, &convert.Defaults{
		Aliases: map[string]string{"Turnover": "RevenueFromSales"},
	})
	data := testWorkbook(t, map[string]string{
		"ReportingEntityName": "Acme GmbH",
		"PeriodStartDate":     "2024-01-01",
		"PeriodEndDate":       "2024-12-31",
		"RevenueFromSales":    "125000",
		"Turnover":            "130000",
	})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, uploadRequest(t, data))
	var view struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}

	job := awaitJob(t, s, view.ID)
	if job.Status != StatusDone {
		t.Fatalf("job status = %s", job.Status)
	}
	if !job.Result.HasErrors() {
		t.Fatal("expected a conflicting fact value to be reported as an error")
	}
	if len(job.HTML) != 0 {
		t.Error("report rendered despite conversion errors")
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/conversions/"+view.ID.String()+"/report", nil)
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("report status = %d, want 409", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "125,000") {
		t.Error("response leaked the conflicting fact value")
	}
}

func TestJobStatusEndpoint(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/conversions/"+uuid.NewString(), nil)
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown job status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/conversions/not-a-uuid", nil)
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
}

func TestJobDelete(t *testing.T) {
	s := testServer(t)
	data := testWorkbook(t, map[string]string{
		"ReportingEntityName": "Acme GmbH",
		"PeriodStartDate":     "2024-01-01",
		"PeriodEndDate":       "2024-12-31",
		"RevenueFromSales":    "125000",
	})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, uploadRequest(t, data))
	var view struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	awaitJob(t, s, view.ID)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/conversions/"+view.ID.String(), nil)
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if _, ok := s.jobs.Get(view.ID); ok {
		t.Error("job still present after delete")
	}
}

func TestHistoryDisabled(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("runs status = %d, want 503", rec.Code)
	}

	// The index page still renders without a history store.
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("index status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Upload workbook") {
		t.Error("index page missing upload form")
	}
}

func TestJobManagerPrune(t *testing.T) {
	m := NewJobManager(1, time.Millisecond)
	job := m.Start(context.Background(), "a.xlsx", func(j *Job) {})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if j, _ := m.Get(job.ID); j.Status == StatusDone {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(5 * time.Millisecond)
	if removed := m.Prune(); removed != 1 {
		t.Fatalf("pruned %d jobs, want 1", removed)
	}
	if _, ok := m.Get(job.ID); ok {
		t.Error("job survived prune")
	}
}
