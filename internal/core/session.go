package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxFiles is the largest number of documents one session may hold.
const DefaultMaxFiles = 100

// Options controls how a Session accepts files.
type Options struct {
	MaxFiles     int   // file limit per session (default: 100)
	MaxFileSize  int64 // per-file byte limit (default: 100MB)
	ParseWorkers int   // parallel parses per batch (default: 4)
}

func (o Options) withDefaults() Options {
	if o.MaxFiles <= 0 {
		o.MaxFiles = DefaultMaxFiles
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.ParseWorkers <= 0 {
		o.ParseWorkers = DefaultParseWorkers
	}
	return o
}

// Upload is one file supplied by the user.
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// UploadFromString returns an Upload whose content is text.
func UploadFromString(name, text string) Upload {
	return UploadFromBytes(name, []byte(text))
}

// UploadFromBytes returns an Upload whose content is data.
func UploadFromBytes(name string, data []byte) Upload {
	return Upload{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// BatchResult reports the outcome of one Register call.
// Added and Errors are both in selection order.
type BatchResult struct {
	Added  []SourceFile
	Errors []*FileError
}

// Session is the in-memory working set of one user: the documents they
// registered, in the order they selected them.
type Session struct {
	ID        string
	CreatedAt time.Time

	opts Options

	mu       sync.RWMutex
	files    []SourceFile
	reserved int // slots held by in-flight Register calls
	lastUsed time.Time
}

// NewSession returns an empty session with a random ID.
func NewSession(opts Options) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		opts:      opts.withDefaults(),
		lastUsed:  now,
	}
}

// MaxFiles returns the session's file limit.
func (s *Session) MaxFiles() int {
	return s.opts.MaxFiles
}

// HasCSVExtension reports whether name ends in ".csv", ignoring case.
func HasCSVExtension(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".csv")
}

// Register adds a batch of uploads.
//
// If the batch would take the session past MaxFiles, a *CountError is
// returned and nothing is added. Otherwise each upload is checked and read
// on its own: a bad extension or an unreadable body is reported in
// BatchResult.Errors and the rest of the batch carries on. Accepted
// documents are parsed in parallel and appended in selection order.
//
// A cancelled ctx aborts the whole batch before anything is appended.
func (s *Session) Register(ctx context.Context, uploads []Upload) (BatchResult, error) {
	if err := s.reserve(len(uploads)); err != nil {
		return BatchResult{}, err
	}
	defer s.release(len(uploads))

	logger := slog.Default().With("session_id", s.ID)

	var (
		result   BatchResult
		accepted []Upload
		docs     []string
	)

	for _, u := range uploads {
		if !HasCSVExtension(u.Name) {
			result.Errors = append(result.Errors, &FileError{FileName: u.Name, Kind: InvalidExtension})
			logger.Warn("file rejected", "file", u.Name, "reason", InvalidExtension)
			continue
		}

		text, err := readUpload(u, s.opts.MaxFileSize)
		if err != nil {
			result.Errors = append(result.Errors, &FileError{FileName: u.Name, Kind: ReadFailure, Err: err})
			logger.Warn("file unreadable", "file", u.Name, "error", err)
			continue
		}

		accepted = append(accepted, u)
		docs = append(docs, text)
	}

	tables, err := ParseAll(ctx, docs, s.opts.ParseWorkers)
	if err != nil {
		return BatchResult{Errors: result.Errors}, fmt.Errorf("parse batch: %w", err)
	}

	now := time.Now()
	result.Added = make([]SourceFile, len(tables))
	for i, t := range tables {
		result.Added[i] = SourceFile{
			ID:      uuid.NewString(),
			Name:    accepted[i].Name,
			Size:    accepted[i].Size,
			AddedAt: now,
			Table:   t,
		}
		logger.Debug("file parsed", "file", accepted[i].Name, "rows", t.Len(), "columns", len(t.Columns))
	}

	s.mu.Lock()
	s.files = append(s.files, result.Added...)
	s.lastUsed = now
	s.mu.Unlock()

	logger.Info("batch registered",
		"supplied", len(uploads),
		"added", len(result.Added),
		"rejected", len(result.Errors),
	)

	return result, nil
}

// reserve claims n file slots or fails with a *CountError.
func (s *Session) reserve(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	held := len(s.files) + s.reserved
	if held+n > s.opts.MaxFiles {
		return &CountError{Registered: held, Supplied: n, Max: s.opts.MaxFiles}
	}
	s.reserved += n
	return nil
}

func (s *Session) release(n int) {
	s.mu.Lock()
	s.reserved -= n
	s.mu.Unlock()
}

// readUpload opens u and decodes it as text.
func readUpload(u Upload, maxSize int64) (string, error) {
	if u.Open == nil {
		return "", fmt.Errorf("no content")
	}
	if u.Size > maxSize {
		return "", tooLarge(maxSize)
	}

	rc, err := u.Open()
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer rc.Close()

	return DecodeText(rc, maxSize)
}

// Files returns the registered files in selection order.
func (s *Session) Files() []SourceFile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SourceFile, len(s.files))
	copy(out, s.files)
	return out
}

// Count returns the number of registered files.
func (s *Session) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Remove drops the file with the given ID.
func (s *Session) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.files {
		if f.ID == id {
			s.files = append(s.files[:i], s.files[i+1:]...)
			s.lastUsed = time.Now()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrFileNotFound, id)
}

// Clear drops every registered file.
func (s *Session) Clear() {
	s.mu.Lock()
	s.files = nil
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

// Combined merges all registered tables in selection order.
func (s *Session) Combined() Table {
	s.mu.RLock()
	tables := make([]Table, len(s.files))
	for i, f := range s.files {
		tables[i] = f.Table
	}
	s.mu.RUnlock()

	return Combine(tables)
}

// Artifact renders the combined dataset as combined-data.csv.
// It reports false when the combined set has no rows; there is nothing to
// download in that case.
func (s *Session) Artifact() (Artifact, bool) {
	combined := s.Combined()
	if combined.Empty() {
		return Artifact{}, false
	}
	return Artifact{
		Name:        ArtifactName,
		ContentType: ArtifactContentType,
		Body:        []byte(Serialize(combined)),
	}, true
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsed
}

func (s *Session) busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reserved > 0
}
