package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/courierops/manifest2csv/internal/fetch"
	"github.com/courierops/manifest2csv/internal/manifest"
)

// urlRequest is the body of POST /process/url.
type urlRequest struct {
	FileURL string `json:"file_url"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleProcessFile accepts a multipart upload under the "file" field and
// streams back the converted CSV.
func (s *Server) handleProcessFile(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	// Cap the whole request body; multipart overhead rides on top of the
	// PDF itself.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize+1024*1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("missing file upload: %v", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxFileSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if int64(len(data)) > s.cfg.MaxFileSize {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	s.logger.Info("processing upload",
		"request_id", requestID, "filename", header.Filename, "bytes", len(data))
	s.convertAndRespond(w, requestID, csvFilename(header.Filename), data)
}

// handleProcessURL downloads the PDF named in the JSON body and streams back
// the converted CSV.
func (s *Server) handleProcessURL(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	var req urlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.FileURL == "" {
		writeError(w, http.StatusBadRequest, "file_url is required")
		return
	}

	data, err := s.fetcher.Fetch(r.Context(), req.FileURL)
	if err != nil {
		if errors.Is(err, fetch.ErrTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("download_error: %v", err))
		return
	}

	s.logger.Info("processing url",
		"request_id", requestID, "url", req.FileURL, "bytes", len(data))
	s.convertAndRespond(w, requestID, csvFilename(req.FileURL), data)
}

// convertAndRespond runs the parse under the global admission lock and writes
// the CSV response. A document-level parse failure maps to 422; there is no
// partial output.
func (s *Server) convertAndRespond(w http.ResponseWriter, requestID, filename string, data []byte) {
	s.parseMu.Lock()
	defer s.parseMu.Unlock()

	records, err := s.parser.Parse(data)
	if err != nil {
		s.logger.Warn("parse failed", "request_id", requestID, "error", err)
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("parse_error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	cw := manifest.NewWriter(w)
	if err := cw.WriteHeader(); err != nil {
		s.logger.Error("csv write failed", "request_id", requestID, "error", err)
		return
	}
	if err := cw.WriteAll(records); err != nil {
		s.logger.Error("csv write failed", "request_id", requestID, "error", err)
		return
	}
	if err := cw.Flush(); err != nil {
		s.logger.Error("csv flush failed", "request_id", requestID, "error", err)
		return
	}

	s.logger.Info("conversion complete", "request_id", requestID, "records", len(records))
}

// csvFilename derives the attachment filename from an upload name or URL.
func csvFilename(source string) string {
	base := filepath.Base(source)
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "output"
	}
	return base + ".csv"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
