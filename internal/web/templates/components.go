// Package templates holds the HTML components rendered by the web server.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/csvmerge/internal/core"
)

// HTMXSource is the script the dashboard loads for partial updates.
const HTMXSource = "https://unpkg.com/htmx.org@2.0.4"

// FileView is one registered file as shown in the file list.
type FileView struct {
	ID      string
	Name    string
	Size    int64
	Rows    int
	Columns int
	AddedAt time.Time
}

// Diagnostic is a per-file rejection from the last batch.
type Diagnostic struct {
	File    string
	Code    string
	Message string
	Action  string
}

// Alert is a batch-level error shown above the file list.
type Alert struct {
	Message string
	Action  string
	Code    string
}

// WorkspaceData drives the dashboard body and its HTMX partial.
type WorkspaceData struct {
	Alert       *Alert
	Files       []FileView
	Diagnostics []Diagnostic
	MaxFiles    int
	Preview     core.Table
	TotalRows   int
}

// CanDownload reports whether the combined set has rows.
func (d WorkspaceData) CanDownload() bool {
	return d.TotalRows > 0
}

// htmlWriter keeps the first write error so components can write freely.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) render(ctx context.Context, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

// Dashboard is the full page.
func Dashboard(d WorkspaceData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>CSV Merge</title>`)
		h.raw(`<script src="` + HTMXSource + `"></script>`)
		h.raw(`</head><body><main>`)
		h.raw(`<h1>CSV Merge</h1>`)
		h.raw(`<form hx-post="/api/files" hx-encoding="multipart/form-data" hx-target="#workspace" hx-swap="outerHTML">`)
		h.raw(`<input type="file" name="files" accept=".csv" multiple>`)
		h.raw(`<button type="submit">Add files</button></form>`)
		h.raw(`<div id="alerts" aria-live="polite"></div>`)
		h.render(ctx, Workspace(d))
		h.raw(`</main></body></html>`)
		return h.err
	})
}

// Workspace is the swappable part of the dashboard: file list,
// diagnostics, preview and download links.
func Workspace(d WorkspaceData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<section id="workspace">`)
		if d.Alert != nil {
			h.render(ctx, ErrorAlert(d.Alert.Message, d.Alert.Action, d.Alert.Code))
		}
		h.render(ctx, DiagnosticList(d.Diagnostics))
		h.render(ctx, FileList(d.Files, d.MaxFiles))
		if d.CanDownload() {
			h.raw(`<p class="downloads"><a href="/api/download" download>Download CSV</a> `)
			h.raw(`<a href="/api/download.xlsx" download>Download XLSX</a> `)
			h.raw(`<a href="/api/download.json" download>Download JSON</a></p>`)
		}
		h.render(ctx, Preview(d.Preview, d.TotalRows))
		h.raw(`</section>`)
		return h.err
	})
}

// FileList renders registered files with remove buttons.
func FileList(files []FileView, maxFiles int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="files"><h2>Files `)
		h.text(fmt.Sprintf("(%d/%d)", len(files), maxFiles))
		h.raw(`</h2>`)

		if len(files) == 0 {
			h.raw(`<p class="empty">No files added yet.</p></div>`)
			return h.err
		}

		h.raw(`<table><thead><tr><th>Name</th><th>Rows</th><th>Columns</th><th>Size</th><th></th></tr></thead><tbody>`)
		for _, f := range files {
			h.raw(`<tr><td>`)
			h.text(f.Name)
			h.raw(`</td><td>`)
			h.text(strconv.Itoa(f.Rows))
			h.raw(`</td><td>`)
			h.text(strconv.Itoa(f.Columns))
			h.raw(`</td><td>`)
			h.text(formatSize(f.Size))
			h.raw(`</td><td><button hx-delete="/api/files/`)
			h.text(f.ID)
			h.raw(`" hx-target="#workspace" hx-swap="outerHTML">Remove</button></td></tr>`)
		}
		h.raw(`</tbody></table>`)
		h.raw(`<button hx-delete="/api/files" hx-target="#workspace" hx-swap="outerHTML">Remove all</button></div>`)
		return h.err
	})
}

// DiagnosticList renders the files rejected by the last batch.
func DiagnosticList(ds []Diagnostic) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(ds) == 0 {
			return nil
		}
		h := &htmlWriter{w: w}
		h.raw(`<ul class="diagnostics">`)
		for _, d := range ds {
			h.raw(`<li><strong>`)
			h.text(d.File)
			h.raw(`</strong>: `)
			h.text(d.Message)
			h.raw(` <code>`)
			h.text(d.Code)
			h.raw(`</code></li>`)
		}
		h.raw(`</ul>`)
		return h.err
	})
}

// Preview renders the leading rows of the combined dataset.
func Preview(t core.Table, totalRows int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="preview"><h2>Combined data</h2>`)

		if totalRows == 0 {
			h.raw(`<p class="empty">Nothing to combine yet.</p></div>`)
			return h.err
		}

		h.raw(`<p>`)
		h.text(fmt.Sprintf("Showing %d of %d rows, %d columns", t.Len(), totalRows, len(t.Columns)))
		h.raw(`</p><table><thead><tr>`)
		for _, c := range t.Columns {
			h.raw(`<th>`)
			h.text(c)
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		for _, row := range t.Rows {
			h.raw(`<tr>`)
			for _, v := range row {
				h.raw(`<td>`)
				h.text(v)
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table></div>`)
		return h.err
	})
}

// ErrorAlert renders an error fragment for HTMX responses.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="alert alert-error" role="alert"><p>`)
		h.text(message)
		h.raw(`</p>`)
		if action != "" {
			h.raw(`<p class="action">`)
			h.text(action)
			h.raw(`</p>`)
		}
		h.raw(`<small>Code: `)
		h.text(code)
		h.raw(`</small></div>`)
		return h.err
	})
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
