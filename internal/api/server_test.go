package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/epiclist/internal/config"
	"github.com/dgallion1/epiclist/internal/pipeline"
	"github.com/dgallion1/epiclist/internal/stats"
)

const apiKey = "test-key"

const catalogMD = "# Awesome X\n## Tools\n- [Foo](https://github.com/o/foo) - does foo\n- [Bar](https://bar.example) - does bar\n"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		APIKey:               apiKey,
		WorkerCount:          1,
		MaxQueueSize:         4,
		MaxConcurrentExtract: 2,
		MaxUploadBytes:       1024,
		JobTTL:               time.Hour,
		Tables:               true,
		Strikethrough:        true,
		FrontMatter:          true,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, stats.NewRecorder(time.Hour), log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, log, cfg)
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("expected ok status, got %s", rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)

	for name, header := range map[string]string{
		"missing": "",
		"wrong":   "Bearer nope",
		"scheme":  "Basic " + apiKey,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader(catalogMD))
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", name, rec.Code)
		}
	}
}

func TestExtract(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/extract", strings.NewReader(catalogMD), "text/markdown")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Count   int `json:"count"`
		Entries []struct {
			URL         string   `json:"url"`
			Title       string   `json:"title"`
			Breadcrumbs []string `json:"breadcrumbs"`
			Description string   `json:"description"`
			LinkType    string   `json:"link_type"`
		} `json:"entries"`
		Repositories []string `json:"repositories"`
	}
	decode(t, rec, &resp)
	if resp.Count != 2 || len(resp.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", resp.Count)
	}
	first := resp.Entries[0]
	if first.Title != "Foo" || first.LinkType != "Repo" || first.Description != "does foo" {
		t.Errorf("unexpected first entry: %+v", first)
	}
	if strings.Join(first.Breadcrumbs, "/") != "Awesome X/Tools" {
		t.Errorf("expected breadcrumbs Awesome X/Tools, got %v", first.Breadcrumbs)
	}
	if len(resp.Repositories) != 1 || resp.Repositories[0] != "o/foo" {
		t.Errorf("expected repositories [o/foo], got %v", resp.Repositories)
	}
}

func TestExtract_Multipart(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "../../README.md")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(catalogMD))
	mw.Close()

	rec := do(t, s, http.MethodPost, "/api/extract", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	decode(t, rec, &resp)
	if resp.Name != "README.md" {
		t.Errorf("expected sanitized name README.md, got %q", resp.Name)
	}
	if resp.Count != 2 {
		t.Errorf("expected 2 entries, got %d", resp.Count)
	}
}

func TestExtract_TooLarge(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/extract", strings.NewReader(strings.Repeat("a", 2048)), "text/markdown")
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestParse(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/parse", strings.NewReader("# Hi\n\n- [a](https://a.example)\n"), "text/markdown")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Text        string `json:"text"`
		LineCount   int    `json:"line_count"`
		Annotations []struct {
			Kind string `json:"kind"`
		} `json:"annotations"`
	}
	decode(t, rec, &resp)
	if !strings.HasPrefix(resp.Text, "Hi\n") {
		t.Errorf("expected flat text to start with the heading, got %q", resp.Text)
	}
	if resp.LineCount != 3 {
		t.Errorf("expected 3 lines, got %d", resp.LineCount)
	}
	kinds := map[string]bool{}
	for _, a := range resp.Annotations {
		kinds[a.Kind] = true
	}
	for _, k := range []string{"heading", "heading_section", "list", "list_item", "link"} {
		if !kinds[k] {
			t.Errorf("expected a %s annotation, got %v", k, kinds)
		}
	}
}

func TestBatchExtract(t *testing.T) {
	s := newTestServer(t)
	body := `{"documents":[{"name":"a.md","markdown":` + jsonString(catalogMD) + `},{"markdown":"- [b](https://b.example)\n"}]}`
	rec := do(t, s, http.MethodPost, "/api/extract/batch", strings.NewReader(body), "application/json")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	decode(t, rec, &accepted)
	if accepted.PollURL != "/api/jobs/"+accepted.JobID {
		t.Fatalf("unexpected poll url %q", accepted.PollURL)
	}

	var snap pipeline.JobSnapshot
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec = do(t, s, http.MethodGet, accepted.PollURL, nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		snap = pipeline.JobSnapshot{}
		decode(t, rec, &snap)
		if snap.Status.Done() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish, status %q", snap.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %q: %v", snap.Status, snap.Progress.Errors)
	}
	if len(snap.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(snap.Results))
	}
	if snap.Results[1].Name != "document-2.md" {
		t.Errorf("expected default name document-2.md, got %q", snap.Results[1].Name)
	}
	if snap.Progress.EntriesExtracted != 3 {
		t.Errorf("expected 3 entries, got %d", snap.Progress.EntriesExtracted)
	}
	if snap.Results[0].Entries[0].URL.Host != "github.com" {
		t.Errorf("expected entry urls to round-trip, got %v", snap.Results[0].Entries[0].URL)
	}
}

func TestBatchExtract_BadRequests(t *testing.T) {
	s := newTestServer(t)
	cases := map[string]struct {
		body string
		code int
	}{
		"not json":  {"{", http.StatusBadRequest},
		"empty":     {`{"documents":[]}`, http.StatusBadRequest},
		"too large": {`{"documents":[{"markdown":"` + strings.Repeat("a", 2048) + `"}]}`, http.StatusRequestEntityTooLarge},
	}
	for name, c := range cases {
		rec := do(t, s, http.MethodPost, "/api/extract/batch", strings.NewReader(c.body), "application/json")
		if rec.Code != c.code {
			t.Errorf("%s: expected %d, got %d", name, c.code, rec.Code)
		}
	}
}

func TestJobStatus_NotFound(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/jobs/missing", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestExtractStats(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/api/extract", strings.NewReader(catalogMD), "text/markdown")
	do(t, s, http.MethodPost, "/api/parse", strings.NewReader(catalogMD), "text/markdown")

	rec := do(t, s, http.MethodGet, "/api/stats/extract", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Stats stats.Snapshot `json:"stats"`
	}
	decode(t, rec, &resp)
	if resp.Stats.Count != 1 {
		t.Errorf("expected 1 sample from the extract call only, got %d", resp.Stats.Count)
	}
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/api/extract", strings.NewReader(catalogMD), "text/markdown")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	for _, want := range []string{"epiclist_documents_parsed_total", "epiclist_entries_extracted_total", "epiclist_extract_duration_seconds"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("expected %s in metrics output", want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"README.md":        "README.md",
		"../../etc/passwd": "passwd",
		"":                 "unnamed",
		"a\\..\\b.md":      "a___b.md",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
