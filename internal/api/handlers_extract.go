package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/epiclist/internal/awesome"
	"github.com/dgallion1/epiclist/internal/mdparse"
)

// errTooLarge is returned by readMarkdown when the document exceeds the
// upload limit.
var errTooLarge = errors.New("document too large")

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	md, name, err := s.readMarkdown(w, r)
	if err != nil {
		s.readError(w, err)
		return
	}

	doc, err := s.orchestrator.Worker().Parse(md)
	if err != nil {
		s.parseError(w, name, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":         name,
		"text":         doc.Text,
		"annotations":  doc.Annotations,
		"line_count":   doc.LineCount,
		"front_matter": doc.FrontMatter,
	})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	md, name, err := s.readMarkdown(w, r)
	if err != nil {
		s.readError(w, err)
		return
	}

	c, err := s.orchestrator.Worker().Extract(md)
	if err != nil {
		s.parseError(w, name, err)
		return
	}

	repos := awesome.FollowableRepositories(c.Entries)
	if repos == nil {
		repos = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":         name,
		"entries":      c.Entries,
		"count":        len(c.Entries),
		"line_count":   c.LineCount,
		"repositories": repos,
	})
}

// readMarkdown reads one document from either a multipart "file" upload or
// the raw request body.
func (s *Server) readMarkdown(w http.ResponseWriter, r *http.Request) (string, string, error) {
	// extra 1MB for form overhead
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	body := io.Reader(r.Body)
	name := "document.md"
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			if tooLarge(err) {
				return "", "", errTooLarge
			}
			return "", "", fmt.Errorf("invalid multipart form: %w", err)
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			return "", "", fmt.Errorf("file is required: %w", err)
		}
		defer file.Close()
		body = file
		name = sanitizeFilename(header.Filename)
	}

	data, err := io.ReadAll(io.LimitReader(body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		if tooLarge(err) {
			return "", "", errTooLarge
		}
		return "", "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return "", "", errTooLarge
	}
	return string(data), name, nil
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func (s *Server) readError(w http.ResponseWriter, err error) {
	if errors.Is(err, errTooLarge) {
		jsonError(w, fmt.Sprintf("document exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	jsonError(w, err.Error(), http.StatusBadRequest)
}

// parseError maps structural markdown errors to 422 and anything else
// to 500.
func (s *Server) parseError(w http.ResponseWriter, name string, err error) {
	var se *mdparse.StructuralError
	if errors.As(err, &se) {
		s.log.Warn("rejected document", "name", name, "error", err)
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.log.Error("parse failed", "name", name, "error", err)
	jsonError(w, "parse failed: "+err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
