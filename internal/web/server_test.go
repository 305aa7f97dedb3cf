package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/csvmerge/internal/config"
	"github.com/JonMunkholm/csvmerge/internal/core"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Session: config.SessionConfig{
			MaxFiles:      100,
			MaxFileSize:   1 << 20,
			ParseWorkers:  2,
			IdleTimeout:   time.Hour,
			ReapInterval:  time.Minute,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			PreviewRows:   50,
		},
		Security: config.SecurityConfig{EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func newTestServer(cfg *config.Config) *Server {
	svc := core.NewService(core.ServiceConfig{
		Session: core.Options{
			MaxFiles:     cfg.Session.MaxFiles,
			MaxFileSize:  cfg.Session.MaxFileSize,
			ParseWorkers: cfg.Session.ParseWorkers,
		},
		IdleTimeout:   cfg.Session.IdleTimeout,
		MaxConcurrent: cfg.Session.MaxConcurrent,
		MaxWait:       cfg.Session.MaxWaitTime,
	})
	return NewServer(svc, cfg)
}

// client replays the session cookie the server hands out.
type client struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
}

func newClient(t *testing.T, srv *Server) *client {
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return &client{t: t, srv: srv}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.srv.Router().ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == SessionCookie {
			c.cookie = ck
		}
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) delete(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodDelete, path, nil))
}

func (c *client) upload(files map[string]string, order ...string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.do(c.uploadRequest(files, order))
}

// uploadHTMX posts files the way the dashboard form does.
func (c *client) uploadHTMX(files map[string]string, order ...string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := c.uploadRequest(files, order)
	req.Header.Set("HX-Request", "true")
	return c.do(req)
}

func (c *client) uploadRequest(files map[string]string, order []string) *http.Request {
	c.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range order {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			c.t.Fatal(err)
		}
		part.Write([]byte(files[name]))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestDashboard_StartsSession(t *testing.T) {
	c := newClient(t, newTestServer(testConfig()))

	rec := c.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if c.cookie == nil || c.cookie.Value == "" || !c.cookie.HttpOnly {
		t.Fatalf("session cookie = %+v", c.cookie)
	}
	if !strings.Contains(rec.Body.String(), "CSV Merge") {
		t.Error("dashboard body missing title")
	}

	first := c.cookie.Value
	c.get("/")
	if c.cookie.Value != first {
		t.Error("existing session should be reused")
	}
}

func TestAddFiles(t *testing.T) {
	c := newClient(t, newTestServer(testConfig()))

	rec := c.upload(map[string]string{
		"a.csv":     "name,age\nAl,30",
		"notes.txt": "x\n1",
		"b.csv":     "name,city\nBo,NY",
	}, "a.csv", "notes.txt", "b.csv")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[AddFilesResponse](t, rec)
	if len(resp.Added) != 2 || resp.Added[0].Name != "a.csv" || resp.Added[1].Name != "b.csv" {
		t.Errorf("Added = %+v", resp.Added)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].File != "notes.txt" || resp.Errors[0].Code != "FILE001" {
		t.Errorf("Errors = %+v", resp.Errors)
	}

	list := decode[FilesResponse](t, c.get("/api/files"))
	if list.Count != 2 || list.MaxFiles != 100 {
		t.Errorf("FilesResponse = %+v", list)
	}
}

func TestAddFiles_CountExceeded(t *testing.T) {
	cfg := testConfig()
	cfg.Session.MaxFiles = 2
	c := newClient(t, newTestServer(cfg))

	rec := c.upload(map[string]string{"a.csv": "a\n1", "b.csv": "a\n2", "c.csv": "a\n3"}, "a.csv", "b.csv", "c.csv")
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if got := decode[ErrorResponse](t, rec); got.Code != "SES001" {
		t.Errorf("code = %q, want SES001", got.Code)
	}
	if list := decode[FilesResponse](t, c.get("/api/files")); list.Count != 0 {
		t.Errorf("Count = %d, want nothing added", list.Count)
	}
}

// htmx only swaps 2xx responses, so errors for HTMX callers must arrive as
// a 200 workspace that replaces the form's #workspace target.
func TestAddFiles_CountExceededHTMX(t *testing.T) {
	cfg := testConfig()
	cfg.Session.MaxFiles = 2
	c := newClient(t, newTestServer(cfg))
	c.upload(map[string]string{"keep.csv": "a\n1"}, "keep.csv")

	rec := c.uploadHTMX(map[string]string{"b.csv": "a\n2", "c.csv": "a\n3"}, "b.csv", "c.csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 so htmx swaps", rec.Code)
	}
	if got := rec.Header().Get("HX-Retarget"); got != "#workspace" {
		t.Errorf("HX-Retarget = %q, want #workspace", got)
	}
	if got := rec.Header().Get("HX-Reswap"); got != "outerHTML" {
		t.Errorf("HX-Reswap = %q, want outerHTML", got)
	}

	out := rec.Body.String()
	for _, want := range []string{`<section id="workspace">`, `role="alert"`, "SES001", "keep.csv", "(1/2)"} {
		if !strings.Contains(out, want) {
			t.Errorf("response missing %q: %s", want, out)
		}
	}
	if list := decode[FilesResponse](t, c.get("/api/files")); list.Count != 1 {
		t.Errorf("Count = %d, want batch rejected", list.Count)
	}
}

func TestRemoveFile_NotFoundHTMX(t *testing.T) {
	c := newClient(t, newTestServer(testConfig()))

	req := httptest.NewRequest(http.MethodDelete, "/api/files/does-not-exist", nil)
	req.Header.Set("HX-Request", "true")
	rec := c.do(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	out := rec.Body.String()
	if !strings.Contains(out, `id="workspace"`) || !strings.Contains(out, "SES002") {
		t.Errorf("response = %s", out)
	}
}

func TestRespondHTMXError_NoSession(t *testing.T) {
	srv := newTestServer(testConfig())
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	req := httptest.NewRequest(http.MethodPost, "/api/files", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	srv.respondError(rec, req, core.ErrTooManyBatches, http.StatusServiceUnavailable)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("HX-Retarget"); got != "#alerts" {
		t.Errorf("HX-Retarget = %q, want #alerts", got)
	}
	if out := rec.Body.String(); !strings.Contains(out, "UPL002") || strings.Contains(out, `id="workspace"`) {
		t.Errorf("response = %s", out)
	}
}

func TestAddFiles_NoFile(t *testing.T) {
	c := newClient(t, newTestServer(testConfig()))

	rec := c.upload(nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decode[ErrorResponse](t, rec); got.Code != "FILE004" {
		t.Errorf("code = %q, want FILE004", got.Code)
	}
}

func TestAddFiles_HTMX(t *testing.T) {
	c := newClient(t, newTestServer(testConfig()))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("files", "bad.tsv")
	part.Write([]byte("a\t1"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("HX-Request", "true")
	rec := c.do(req)

	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("status = %d, content type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	out := rec.Body.String()
	if !strings.Contains(out, `id="workspace"`) || !strings.Contains(out, "FILE001") {
		t.Errorf("HTMX response = %s", out)
	}
}

func TestRemoveAndClearFiles(t *testing.T) {
	c := newClient(t, newTestServer(testConfig()))
	added := decode[AddFilesResponse](t, c.upload(map[string]string{"a.csv": "a\n1", "b.csv": "a\n2"}, "a.csv", "b.csv"))

	if rec := c.delete("/api/files/" + added.Added[0].ID); rec.Code != http.StatusNoContent {
		t.Fatalf("remove status = %d, want 204", rec.Code)
	}
	list := decode[FilesResponse](t, c.get("/api/files"))
	if list.Count != 1 || list.Files[0].Name != "b.csv" {
		t.Errorf("after remove = %+v", list)
	}

	rec := c.delete("/api/files/does-not-exist")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("remove unknown status = %d, want 404", rec.Code)
	}
	if got := decode[ErrorResponse](t, rec); got.Code != "SES002" {
		t.Errorf("code = %q, want SES002", got.Code)
	}

	if rec := c.delete("/api/files"); rec.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", rec.Code)
	}
	if list := decode[FilesResponse](t, c.get("/api/files")); list.Count != 0 {
		t.Errorf("Count after clear = %d", list.Count)
	}
}

func TestCombined(t *testing.T) {
	c := newClient(t, newTestServer(testConfig()))

	empty := decode[CombinedResponse](t, c.get("/api/combined"))
	if len(empty.Columns) != 0 || len(empty.Rows) != 0 || empty.TotalRows != 0 {
		t.Errorf("empty combined = %+v", empty)
	}

	c.upload(map[string]string{"a.csv": "x,y\n1,2\n3,4", "b.csv": "y,z\n5,6"}, "a.csv", "b.csv")

	got := decode[CombinedResponse](t, c.get("/api/combined?limit=2"))
	if strings.Join(got.Columns, ",") != "x,y,z" {
		t.Errorf("Columns = %q", got.Columns)
	}
	if got.TotalRows != 3 || len(got.Rows) != 2 {
		t.Errorf("TotalRows = %d, len(Rows) = %d", got.TotalRows, len(got.Rows))
	}
}

func TestDownloadCSV(t *testing.T) {
	c := newClient(t, newTestServer(testConfig()))

	if rec := c.get("/api/download"); rec.Code != http.StatusNoContent {
		t.Fatalf("empty download status = %d, want 204", rec.Code)
	}

	c.upload(map[string]string{"a.csv": "a,b\n1,\"x, y\"", "b.csv": "b,c\n2,3"}, "a.csv", "b.csv")

	rec := c.get("/api/download")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="combined-data.csv"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if want := "a,b,c\n1,\"x, y\",\n,2,3"; rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}
}

func TestDownloadXLSX(t *testing.T) {
	c := newClient(t, newTestServer(testConfig()))

	if rec := c.get("/api/download.xlsx"); rec.Code != http.StatusNoContent {
		t.Fatalf("empty download status = %d, want 204", rec.Code)
	}

	c.upload(map[string]string{"a.csv": "a\n1"}, "a.csv")
	rec := c.get("/api/download.xlsx")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("body is not a zip container")
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "combined-data.xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestDownloadExports(t *testing.T) {
	c := newClient(t, newTestServer(testConfig()))

	for _, path := range []string{"/api/download.json", "/api/download.yaml"} {
		if rec := c.get(path); rec.Code != http.StatusNoContent {
			t.Errorf("empty %s status = %d, want 204", path, rec.Code)
		}
	}

	c.upload(map[string]string{"a.csv": "a,b\n1,2", "b.csv": "b,c\n3,4"}, "a.csv", "b.csv")

	rec := c.get("/api/download.json")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("json status = %d, content type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="combined-data.json"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	got := decode[struct {
		Columns []string   `json:"columns"`
		Rows    [][]string `json:"rows"`
	}](t, rec)
	if strings.Join(got.Columns, ",") != "a,b,c" || len(got.Rows) != 2 || got.Rows[1][0] != "" {
		t.Errorf("json = %+v", got)
	}

	rec = c.get("/api/download.yaml")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/yaml" {
		t.Fatalf("yaml status = %d, content type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "combined-data.yaml") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if out := rec.Body.String(); !strings.Contains(out, "a:") || !strings.Contains(out, "c:") {
		t.Errorf("yaml body = %s", out)
	}
}

func TestStatus(t *testing.T) {
	c := newClient(t, newTestServer(testConfig()))

	got := decode[StatusResponse](t, c.get("/api/status"))
	if got.Batches.MaxConcurrent != 2 || got.Batches.Available != 2 {
		t.Errorf("Batches = %+v", got.Batches)
	}
	if got.Sessions != 1 {
		t.Errorf("Sessions = %d, want 1", got.Sessions)
	}
}

func TestSecurityHeaders(t *testing.T) {
	c := newClient(t, newTestServer(testConfig()))
	rec := c.get("/api/status")

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	c := newClient(t, newTestServer(cfg))

	for i := 0; i < 2; i++ {
		if rec := c.get("/api/status"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}

	rec := c.get("/api/status")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	if got := decode[ErrorResponse](t, rec); got.Code != "RATE001" {
		t.Errorf("code = %q, want RATE001", got.Code)
	}
}

func TestRateLimiter_WindowReset(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	defer rl.stop()

	now := time.Now()
	if !rl.allow("1.1.1.1", now) || rl.allow("1.1.1.1", now) {
		t.Fatal("second request inside window should be refused")
	}
	if !rl.allow("2.2.2.2", now) {
		t.Error("other clients have their own budget")
	}
	if !rl.allow("1.1.1.1", now.Add(2*time.Minute)) {
		t.Error("budget should reset after the window")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&core.CountError{Registered: 100, Supplied: 1, Max: 100}, http.StatusRequestEntityTooLarge},
		{fmt.Errorf("wrap: %w", &http.MaxBytesError{Limit: 1}), http.StatusRequestEntityTooLarge},
		{core.ErrTooManyBatches, http.StatusServiceUnavailable},
		{core.ErrFileNotFound, http.StatusNotFound},
		{core.ErrSessionNotFound, http.StatusGone},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errNoFile, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
