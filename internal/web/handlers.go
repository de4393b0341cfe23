package web

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"padronizador/internal"
	"padronizador/internal/pipeline"
	"padronizador/internal/util"
)

var (
	errNoFile     = errors.New("no file uploaded")
	errBadPayload = errors.New("invalid file payload")
	errTooLarge   = errors.New("file exceeds upload limit")
)

type indexPage struct {
	HelpHTML    template.HTML
	MaxUploadMB int64
	Rules       []string
}

type previewPage struct {
	FileName   string
	Sheet      string
	Payload    string
	Rows       int
	Columns    []string
	Suggested  string
	FewColumns bool
	Preview    [][]string
}

type resultPage struct {
	FileName       string
	Sheet          string
	Payload        string
	Column         string
	Summary        internal.RunSummary
	ExportFileName string
}

type errorPage struct {
	Message string
}

type columnsResponse struct {
	FileName   string   `json:"file_name"`
	Rows       int      `json:"rows"`
	Columns    []string `json:"columns"`
	Suggested  string   `json:"suggested"`
	FewColumns bool     `json:"few_columns"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index.html", indexPage{
		HelpHTML:    s.helpHTML,
		MaxUploadMB: s.cfg.MaxUploadBytes / (1024 * 1024),
		Rules:       pipeline.DefaultRules().Names(),
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	req, err := s.readRequest(w, r)
	if err != nil {
		s.renderError(w, err)
		return
	}
	table, err := s.svc.Load(r.Context(), req)
	if err != nil {
		s.renderError(w, err)
		return
	}

	suggestion := pipeline.SuggestColumn(table.Columns)
	s.render(w, http.StatusOK, "preview.html", previewPage{
		FileName:   req.FileName,
		Sheet:      req.Sheet,
		Payload:    base64.StdEncoding.EncodeToString(req.Content),
		Rows:       table.Len(),
		Columns:    table.Columns,
		Suggested:  suggestion.Name,
		FewColumns: suggestion.FewColumns,
		Preview:    previewCells(table.Head(s.cfg.PreviewRows)),
	})
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	req, err := s.readRequest(w, r)
	if err != nil {
		s.renderError(w, err)
		return
	}
	result, err := s.svc.Process(r.Context(), req)
	if err != nil {
		s.renderError(w, err)
		return
	}

	s.render(w, http.StatusOK, "result.html", resultPage{
		FileName:       req.FileName,
		Sheet:          req.Sheet,
		Payload:        base64.StdEncoding.EncodeToString(req.Content),
		Column:         result.Summary.Column,
		Summary:        result.Summary,
		ExportFileName: s.cfg.ExportFileName,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	req, err := s.readRequest(w, r)
	if err != nil {
		s.renderError(w, err)
		return
	}
	result, err := s.svc.Process(r.Context(), req)
	if err != nil {
		s.renderError(w, err)
		return
	}
	blob, err := s.svc.Export(result)
	if err != nil {
		s.renderError(w, err)
		return
	}
	s.writeWorkbook(w, blob)
}

func (s *Server) handleAPIColumns(w http.ResponseWriter, r *http.Request) {
	req, err := s.readRequest(w, r)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	table, err := s.svc.Load(r.Context(), req)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	suggestion := pipeline.SuggestColumn(table.Columns)
	s.writeJSON(w, http.StatusOK, columnsResponse{
		FileName:   req.FileName,
		Rows:       table.Len(),
		Columns:    table.Columns,
		Suggested:  suggestion.Name,
		FewColumns: suggestion.FewColumns,
	})
}

func (s *Server) handleAPINormalize(w http.ResponseWriter, r *http.Request) {
	req, err := s.readRequest(w, r)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	result, err := s.svc.Process(r.Context(), req)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "json" {
		s.writeJSON(w, http.StatusOK, result.Summary)
		return
	}
	blob, err := s.svc.Export(result)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.writeWorkbook(w, blob)
}

// readRequest accepts either a multipart "file" upload or the base64
// "payload" field the result pages post back.
func (s *Server) readRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, error) {
	limit := s.formLimit()
	if r.ContentLength > limit {
		return pipeline.Request{}, errTooLarge
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	// non-file fields are capped at maxMemory plus 10 MiB, so the payload
	// field needs maxMemory sized to the upload limit.
	if err := r.ParseMultipartForm(limit); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return pipeline.Request{}, uploadError(err)
		}
		if err := r.ParseForm(); err != nil {
			return pipeline.Request{}, uploadError(err)
		}
	}

	req := pipeline.Request{
		Sheet:  strings.TrimSpace(r.FormValue("sheet")),
		Column: r.FormValue("column"),
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		if header.Size > s.cfg.MaxUploadBytes {
			return pipeline.Request{}, errTooLarge
		}
		content, err := io.ReadAll(file)
		if err != nil {
			return pipeline.Request{}, uploadError(err)
		}
		req.FileName = header.Filename
		req.Content = content
	case errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart):
		payload := r.FormValue("payload")
		if payload == "" {
			return pipeline.Request{}, errNoFile
		}
		content, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return pipeline.Request{}, fmt.Errorf("%w: %v", errBadPayload, err)
		}
		if int64(len(content)) > s.cfg.MaxUploadBytes {
			return pipeline.Request{}, errTooLarge
		}
		req.FileName = r.FormValue("filename")
		req.Content = content
	default:
		return pipeline.Request{}, uploadError(err)
	}
	return req, nil
}

// formLimit bounds a request body. base64 inflates the payload by a third.
func (s *Server) formLimit() int64 {
	return s.cfg.MaxUploadBytes * 2
}

func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errTooLarge
	}
	return fmt.Errorf("%w: %v", errBadPayload, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errNoFile),
		errors.Is(err, errBadPayload),
		errors.Is(err, pipeline.ErrLoad),
		errors.Is(err, pipeline.ErrMissingColumn):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeWorkbook(w http.ResponseWriter, blob []byte) {
	w.Header().Set("Content-Type", pipeline.XLSXMimeType)
	w.Header().Set("Content-Disposition", contentDisposition(s.cfg.ExportFileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

func contentDisposition(fileName string) string {
	v := mime.FormatMediaType("attachment", map[string]string{"filename": fileName})
	if v == "" {
		return "attachment"
	}
	return v
}

// render executes into a buffer so a template failure never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error("template render failed", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	s.render(w, status, "error.html", errorPage{Message: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.log.Error("json encode failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) writeJSONError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func previewCells(table internal.Table) [][]string {
	out := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		cells := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			if v := row[col]; !util.IsNull(v) {
				cells[i] = util.CoerceText(v)
			}
		}
		out = append(out, cells)
	}
	return out
}
