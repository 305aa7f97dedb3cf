package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvmerge/internal/core"
)

func renderString(t *testing.T, d WorkspaceData) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Workspace(d).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestWorkspace_Empty(t *testing.T) {
	out := renderString(t, WorkspaceData{MaxFiles: 100})

	if !strings.Contains(out, "(0/100)") {
		t.Errorf("missing file counter: %s", out)
	}
	if strings.Contains(out, "/api/download") {
		t.Error("download links should be hidden when the combined set is empty")
	}
	if !strings.Contains(out, "Nothing to combine yet.") {
		t.Error("missing empty preview message")
	}
}

func TestWorkspace_EscapesContent(t *testing.T) {
	d := WorkspaceData{
		Files:       []FileView{{ID: "f1", Name: "<b>evil</b>.csv", Rows: 1, Columns: 1, Size: 2048}},
		Diagnostics: []Diagnostic{{File: "x.txt", Code: "FILE001", Message: "Only .csv files can be combined"}},
		MaxFiles:    100,
		Preview:     core.Table{Columns: []string{"a&b"}, Rows: []core.Row{{"<script>"}}},
		TotalRows:   1,
	}
	out := renderString(t, d)

	for _, bad := range []string{"<b>evil</b>", "<script>"} {
		if strings.Contains(out, bad) {
			t.Errorf("output contains unescaped %q", bad)
		}
	}
	for _, want := range []string{"&lt;b&gt;evil&lt;/b&gt;.csv", "a&amp;b", "FILE001", "/api/download.xlsx", "2.0 KB", `hx-delete="/api/files/f1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestWorkspace_Alert(t *testing.T) {
	out := renderString(t, WorkspaceData{
		MaxFiles: 2,
		Alert:    &Alert{Message: "Too many files", Action: "Remove some files", Code: "SES001"},
	})

	if !strings.HasPrefix(out, `<section id="workspace">`) {
		t.Errorf("alert must render inside the workspace: %s", out)
	}
	for _, want := range []string{`role="alert"`, "Too many files", "Remove some files", "SES001", "(0/2)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	if out := renderString(t, WorkspaceData{MaxFiles: 2}); strings.Contains(out, `role="alert"`) {
		t.Error("no alert expected without one set")
	}
}

func TestDashboard_FullPage(t *testing.T) {
	var buf bytes.Buffer
	if err := Dashboard(WorkspaceData{MaxFiles: 5}).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "<!DOCTYPE html>") || !strings.Contains(out, `name="files"`) || !strings.Contains(out, `id="workspace"`) || !strings.Contains(out, `id="alerts"`) {
		t.Errorf("unexpected dashboard: %s", out)
	}
}

func TestErrorAlert(t *testing.T) {
	var buf bytes.Buffer
	ErrorAlert("Too many files for one session", "Remove some files", "SES001").Render(context.Background(), &buf)
	out := buf.String()
	if !strings.Contains(out, "SES001") || !strings.Contains(out, "Remove some files") {
		t.Errorf("ErrorAlert output = %s", out)
	}
}

func TestFormatSize(t *testing.T) {
	tests := map[int64]string{
		0:               "0 B",
		1023:            "1023 B",
		1024:            "1.0 KB",
		5 * 1024 * 1024: "5.0 MB",
	}
	for in, want := range tests {
		if got := formatSize(in); got != want {
			t.Errorf("formatSize(%d) = %q, want %q", in, got, want)
		}
	}
}
