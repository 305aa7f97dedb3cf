package web

// Shared request parsing and view-model helpers used across handlers.

import (
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/csvmerge/internal/core"
	"github.com/JonMunkholm/csvmerge/internal/web/templates"
)

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

// FileResponse is the JSON form of a registered file.
type FileResponse struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	Rows    int       `json:"rows"`
	Columns []string  `json:"columns"`
	AddedAt time.Time `json:"added_at"`
}

// FileErrorResponse is the JSON form of a rejected file.
type FileErrorResponse struct {
	File    string `json:"file"`
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AddFilesResponse answers POST /api/files.
type AddFilesResponse struct {
	Added  []FileResponse      `json:"added"`
	Errors []FileErrorResponse `json:"errors"`
}

// FilesResponse answers GET /api/files.
type FilesResponse struct {
	Files    []FileResponse `json:"files"`
	Count    int            `json:"count"`
	MaxFiles int            `json:"max_files"`
}

// CombinedResponse answers GET /api/combined.
type CombinedResponse struct {
	Columns   []string   `json:"columns"`
	Rows      []core.Row `json:"rows"`
	TotalRows int        `json:"total_rows"`
}

// StatusResponse answers GET /api/status.
type StatusResponse struct {
	Batches  core.BatchLimiterStatus `json:"batches"`
	Sessions int                     `json:"sessions"`
}

func toFileResponses(files []core.SourceFile) []FileResponse {
	out := make([]FileResponse, len(files))
	for i, f := range files {
		cols := f.Columns()
		if cols == nil {
			cols = []string{}
		}
		out[i] = FileResponse{
			ID:      f.ID,
			Name:    f.Name,
			Size:    f.Size,
			Rows:    f.Rows(),
			Columns: cols,
			AddedAt: f.AddedAt,
		}
	}
	return out
}

func toFileErrorResponses(errs []*core.FileError) []FileErrorResponse {
	out := make([]FileErrorResponse, len(errs))
	for i, fe := range errs {
		msg := core.MapError(fe)
		out[i] = FileErrorResponse{
			File:    fe.FileName,
			Kind:    string(fe.Kind),
			Code:    msg.Code,
			Message: msg.Message,
		}
	}
	return out
}

func toDiagnostics(errs []*core.FileError) []templates.Diagnostic {
	out := make([]templates.Diagnostic, len(errs))
	for i, fe := range errs {
		msg := core.MapError(fe)
		out[i] = templates.Diagnostic{
			File:    fe.FileName,
			Code:    msg.Code,
			Message: msg.Message,
			Action:  msg.Action,
		}
	}
	return out
}

// workspaceData snapshots a session for the dashboard.
func (s *Server) workspaceData(sess *core.Session, errs []*core.FileError) templates.WorkspaceData {
	files := sess.Files()
	views := make([]templates.FileView, len(files))
	for i, f := range files {
		views[i] = templates.FileView{
			ID:      f.ID,
			Name:    f.Name,
			Size:    f.Size,
			Rows:    f.Rows(),
			Columns: len(f.Columns()),
			AddedAt: f.AddedAt,
		}
	}

	combined := sess.Combined()
	return templates.WorkspaceData{
		Files:       views,
		Diagnostics: toDiagnostics(errs),
		MaxFiles:    sess.MaxFiles(),
		Preview:     combined.Head(s.cfg.Session.PreviewRows),
		TotalRows:   combined.Len(),
	}
}
