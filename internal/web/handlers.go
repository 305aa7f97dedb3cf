package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvmerge/internal/core"
	"github.com/JonMunkholm/csvmerge/internal/export"
	"github.com/JonMunkholm/csvmerge/internal/logging"
	"github.com/JonMunkholm/csvmerge/internal/web/templates"
)

// multipartMemory is how much of a multipart body is held in memory;
// larger parts spill to temporary files.
const multipartMemory = 32 << 20

// handleDashboard renders the main page for the caller's session.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	render(w, r, http.StatusOK, templates.Dashboard(s.workspaceData(sess, nil)))
}

// handleStatus reports batch limiter occupancy and live sessions.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Batches:  s.service.LimiterStatus(),
		Sessions: s.service.Sessions().Len(),
	})
}

// handleAddFiles registers the files of a multipart "files" field as one batch.
func (s *Server) handleAddFiles(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	maxBody := s.cfg.Session.MaxFileSize * int64(s.cfg.Session.MaxFiles)
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		status := http.StatusBadRequest
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			status = http.StatusRequestEntityTooLarge
		}
		s.respondError(w, r, fmt.Errorf("parse form: %w", err), status)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}

	uploads := make([]core.Upload, len(headers))
	for i, fh := range headers {
		uploads[i] = multipartUpload(fh)
	}

	result, err := s.service.Register(r.Context(), sess.ID, uploads)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	logging.FromContext(r.Context()).Info("files added",
		"session_id", sess.ID,
		"added", len(result.Added),
		"rejected", len(result.Errors),
		"total", sess.Count(),
	)

	if isHTMX(r) {
		render(w, r, http.StatusOK, templates.Workspace(s.workspaceData(sess, result.Errors)))
		return
	}
	writeJSON(w, http.StatusOK, AddFilesResponse{
		Added:  toFileResponses(result.Added),
		Errors: toFileErrorResponses(result.Errors),
	})
}

func multipartUpload(fh *multipart.FileHeader) core.Upload {
	return core.Upload{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// handleListFiles returns the session's registered files.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, FilesResponse{
		Files:    toFileResponses(sess.Files()),
		Count:    sess.Count(),
		MaxFiles: sess.MaxFiles(),
	})
}

// handleRemoveFile drops one file from the session.
func (s *Server) handleRemoveFile(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	if err := sess.Remove(chi.URLParam(r, "fileID")); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.respondWorkspace(w, r, sess)
}

// handleClearFiles drops every file from the session.
func (s *Server) handleClearFiles(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.Clear()
	s.respondWorkspace(w, r, sess)
}

// respondWorkspace answers a mutation: the refreshed workspace for HTMX,
// 204 otherwise.
func (s *Server) respondWorkspace(w http.ResponseWriter, r *http.Request, sess *core.Session) {
	if isHTMX(r) {
		render(w, r, http.StatusOK, templates.Workspace(s.workspaceData(sess, nil)))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCombined returns the leading rows of the combined dataset.
// ?limit= overrides the configured preview size.
func (s *Server) handleCombined(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	combined := sess.Combined()
	head := combined.Head(parseIntParam(r, "limit", s.cfg.Session.PreviewRows))

	resp := CombinedResponse{
		Columns:   head.Columns,
		Rows:      head.Rows,
		TotalRows: combined.Len(),
	}
	if resp.Columns == nil {
		resp.Columns = []string{}
	}
	if resp.Rows == nil {
		resp.Rows = []core.Row{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDownloadCSV sends combined-data.csv. An empty combined set has
// nothing to download and is answered with 204.
func (s *Server) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	art, ok := sess.Artifact()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	sendAttachment(w, art.Name, art.ContentType, art.Body)
}

// handleDownloadExport returns a handler sending the combined set in format f.
// Like the CSV download, an empty combined set is answered with 204.
func (s *Server) handleDownloadExport(f export.Format, name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r.Context())

		combined := sess.Combined()
		if combined.Empty() {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		var buf bytes.Buffer
		if err := export.Write(&buf, f, combined); err != nil {
			s.respondError(w, r, fmt.Errorf("build %s: %w", f, err), http.StatusInternalServerError)
			return
		}
		sendAttachment(w, name, contentType, buf.Bytes())
	}
}

func sendAttachment(w http.ResponseWriter, name, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
