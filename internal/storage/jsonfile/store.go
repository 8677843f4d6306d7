// Package jsonfile persists the product set as a single JSON document.
//
// The document is an ordered array of product records. Writes merge incoming
// records into the existing array by identity key and replace the whole file
// atomically. A single writer per process is assumed; readers may observe the
// document from before or after a concurrent write.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/productscraper/internal/logging"
	"github.com/JakeFAU/productscraper/internal/metrics"
	"github.com/JakeFAU/productscraper/internal/product"
)

var (
	// ErrStoreMissing is returned when the document does not exist yet.
	ErrStoreMissing = errors.New("product store does not exist")
	// ErrStoreEmpty is returned when the document exists but has no content.
	ErrStoreEmpty = errors.New("product store is empty")
)

// defaultFileMode is used for a new document so a separate reader process can
// open it. An existing document keeps its mode.
const defaultFileMode fs.FileMode = 0o644

// StoreCorruption reports a document that cannot be read as a product list.
type StoreCorruption struct {
	Path   string
	Reason string
	Err    error
}

func (e *StoreCorruption) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("product store %s is corrupt (%s): %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("product store %s is corrupt (%s)", e.Path, e.Reason)
}

func (e *StoreCorruption) Unwrap() error {
	return e.Err
}

// WriteResult counts what a write did to the persisted set.
type WriteResult struct {
	Added     int
	Updated   int
	Unchanged int
	// Rejected counts incoming records that failed validation.
	Rejected int
}

// Changed is the number of records added or updated.
func (r WriteResult) Changed() int {
	return r.Added + r.Updated
}

// Store reads and writes the product document at a fixed path.
type Store struct {
	path   string
	logger *zap.Logger
}

// New creates a Store for path. The file need not exist.
func New(path string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store path is required")
	}
	return &Store{path: path, logger: logging.OrNop(logger)}, nil
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the document strictly, returning ErrStoreMissing, ErrStoreEmpty,
// *StoreCorruption or an I/O error.
func (s *Store) Load(ctx context.Context) ([]product.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrStoreMissing
	}
	if err != nil {
		return nil, fmt.Errorf("read product store %s: %w", s.path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrStoreEmpty
	}
	if trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			return nil, &StoreCorruption{Path: s.path, Reason: "invalid json"}
		}
		return nil, &StoreCorruption{Path: s.path, Reason: "not a list"}
	}

	var records []product.Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &StoreCorruption{Path: s.path, Reason: "not a list of products", Err: err}
		}
		return nil, &StoreCorruption{Path: s.path, Reason: "invalid json", Err: err}
	}
	if records == nil {
		records = []product.Record{}
	}
	return records, nil
}

// ReadAll returns the persisted records, or an empty slice when the document is
// missing, empty or unreadable. Each condition is logged.
func (s *Store) ReadAll(ctx context.Context) []product.Record {
	records, err := s.Load(ctx)
	if err == nil {
		return records
	}
	if !s.recoverable(err) {
		s.logger.Error("product store read failed; treating as empty",
			zap.String("path", s.path), zap.Error(err))
	}
	return []product.Record{}
}

// recoverable logs and reports whether err means the document can be
// treated as empty: missing, empty or corrupt.
func (s *Store) recoverable(err error) bool {
	var corrupt *StoreCorruption
	switch {
	case errors.Is(err, ErrStoreMissing):
		s.logger.Info("product store not found; treating as empty", zap.String("path", s.path))
	case errors.Is(err, ErrStoreEmpty):
		s.logger.Info("product store is empty", zap.String("path", s.path))
	case errors.As(err, &corrupt):
		s.logger.Warn("product store is corrupt; treating as empty",
			zap.String("path", s.path), zap.String("reason", corrupt.Reason), zap.Error(err))
	default:
		return false
	}
	return true
}

// WriteAll merges records into the persisted set and rewrites the document.
// A missing, empty or corrupt document is replaced; any other read failure
// is returned and the document is left untouched.
func (s *Store) WriteAll(ctx context.Context, records []product.Record) (WriteResult, error) {
	existing, err := s.Load(ctx)
	if err != nil {
		if !s.recoverable(err) {
			return WriteResult{}, fmt.Errorf("load product store before write: %w", err)
		}
		existing = []product.Record{}
	}

	merged, res := merge(existing, records, func(rec product.Record, err error) {
		s.logger.Warn("rejecting invalid record", zap.String("title", rec.Title), zap.Error(err))
	})

	if err := s.write(merged); err != nil {
		return WriteResult{}, err
	}
	metrics.ObserveStoreWrite(res.Added, res.Updated, res.Unchanged, res.Rejected)
	s.logger.Info("product store written",
		zap.String("path", s.path),
		zap.Int("total", len(merged)),
		zap.Int("added", res.Added),
		zap.Int("updated", res.Updated),
		zap.Int("unchanged", res.Unchanged),
		zap.Int("rejected", res.Rejected),
	)
	return res, nil
}

// Merge upserts incoming into existing by identity key. A record whose price
// differs replaces the stored one in place; unknown records are appended.
// existing is not modified.
func Merge(existing, incoming []product.Record) ([]product.Record, WriteResult) {
	return merge(existing, incoming, nil)
}

func merge(
	existing, incoming []product.Record,
	onReject func(product.Record, error),
) ([]product.Record, WriteResult) {
	merged := make([]product.Record, len(existing), len(existing)+len(incoming))
	copy(merged, existing)

	index := make(map[product.Key]int, len(merged))
	for i, rec := range merged {
		if _, seen := index[rec.Key()]; !seen {
			index[rec.Key()] = i
		}
	}

	var res WriteResult
	for _, rec := range incoming {
		if err := rec.Validate(); err != nil {
			res.Rejected++
			if onReject != nil {
				onReject(rec, err)
			}
			continue
		}
		i, ok := index[rec.Key()]
		switch {
		case !ok:
			index[rec.Key()] = len(merged)
			merged = append(merged, rec)
			res.Added++
		case merged[i].Price != rec.Price:
			merged[i] = rec
			res.Updated++
		default:
			res.Unchanged++
		}
	}
	return merged, res
}

func (s *Store) write(records []product.Record) error {
	if records == nil {
		records = []product.Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode product store: %w", err)
	}

	mode := defaultFileMode
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".products-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to set temp file mode: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace product store: %w", err)
	}
	return nil
}
