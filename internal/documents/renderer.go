package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"backoffice-service/internal/common/errors"
	"backoffice-service/internal/common/logger"
	"backoffice-service/internal/common/metrics"
)

// GeneratedDocument describes a rendered, persisted document. It is created
// once and never mutated; callers treat Filename as an opaque identifier.
type GeneratedDocument struct {
	Kind     Kind   `json:"kind"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// Renderer writes instruction sequences out as single-page PDF files under a
// per-kind namespace directory. Output goes through a temp file and a rename
// so a concurrent download never sees a partially written document.
type Renderer struct {
	baseDir string
	logger  logger.Logger
}

func NewRenderer(baseDir string, log logger.Logger) (*Renderer, error) {
	for _, kind := range []Kind{KindQuote, KindInvoice} {
		if err := os.MkdirAll(filepath.Join(baseDir, string(kind)), 0o755); err != nil {
			return nil, fmt.Errorf("create document namespace %s: %w", kind, err)
		}
	}
	return &Renderer{
		baseDir: baseDir,
		logger:  log.WithFields(map[string]interface{}{"component": "documents"}),
	}, nil
}

// Render converts instructions into a persisted PDF named
// "<kind>-<unixnano>.pdf". Instructions past the drawable area are written
// as-is; the page is not extended.
func (r *Renderer) Render(ctx context.Context, instructions []Instruction, kind Kind) (*GeneratedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStorageWriteFailedError(err)
	}
	if !kind.Valid() {
		return nil, errors.NewRenderFailedError(fmt.Sprintf("unknown document kind: %s", kind))
	}
	if len(instructions) == 0 {
		return nil, errors.NewRenderFailedError("empty instruction sequence")
	}

	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", bodySize)

	for i, ins := range instructions {
		switch op := ins.(type) {
		case TextAt:
			if op.Content == "" {
				return nil, errors.NewRenderFailedError(fmt.Sprintf("instruction %d: empty text content", i))
			}
			pdf.SetFontSize(op.FontSize)
			pdf.Text(op.X, op.Y, op.Content)
		case LineSegment:
			pdf.Line(op.X1, op.Y1, op.X2, op.Y2)
		default:
			return nil, errors.NewRenderFailedError(fmt.Sprintf("instruction %d: unknown operation %T", i, ins))
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, errors.NewRenderFailedError(err.Error())
	}

	dir := filepath.Join(r.baseDir, string(kind))
	// Nanosecond resolution keeps concurrent renders from colliding on name.
	filename := fmt.Sprintf("%s-%d.pdf", kind, time.Now().UnixNano())
	final := filepath.Join(dir, filename)

	tmp, err := os.CreateTemp(dir, "."+filename+"-*.tmp")
	if err != nil {
		return nil, errors.NewStorageWriteFailedError(err)
	}
	tmpName := tmp.Name()
	tmp.Close()

	if err := pdf.OutputFileAndClose(tmpName); err != nil {
		os.Remove(tmpName)
		return nil, errors.NewStorageWriteFailedError(err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return nil, errors.NewStorageWriteFailedError(err)
	}

	metrics.DocumentsGenerated.WithLabelValues(string(kind)).Inc()
	r.logger.Info("document rendered", map[string]interface{}{
		"kind":     string(kind),
		"filename": filename,
	})

	return &GeneratedDocument{Kind: kind, Filename: filename, Path: final}, nil
}

// Open returns the stored document file for streaming to a download. The
// caller closes the returned file.
func (r *Renderer) Open(ctx context.Context, kind Kind, filename string) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStorageReadFailedError(err)
	}

	path, err := r.Resolve(kind, filename)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewDocumentNotFoundError(filename)
		}
		return nil, errors.NewStorageReadFailedError(err)
	}
	return f, nil
}

// Resolve maps an opaque filename back to its storage path and verifies the
// document exists. Filenames carrying path separators are rejected so callers
// cannot escape the namespace directory.
func (r *Renderer) Resolve(kind Kind, filename string) (string, error) {
	if !kind.Valid() {
		return "", errors.NewValidationFailedError(fmt.Sprintf("unknown document kind: %s", kind))
	}
	if filename == "" || strings.ContainsAny(filename, `/\`) || filename != filepath.Base(filename) {
		return "", errors.NewDocumentNotFoundError(filename)
	}

	path := filepath.Join(r.baseDir, string(kind), filename)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewDocumentNotFoundError(filename)
		}
		return "", errors.NewStorageReadFailedError(err)
	}
	return path, nil
}

// Sweep deletes documents older than the retention window. A zero or
// negative retention disables the sweep, preserving unbounded retention.
func (r *Renderer) Sweep(retentionDays int) {
	if retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	for _, kind := range []Kind{KindQuote, KindInvoice} {
		dir := filepath.Join(r.baseDir, string(kind))
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil || info.IsDir() {
				continue
			}
			if info.ModTime().Before(cutoff) {
				if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
					r.logger.Warn("retention sweep remove failed", map[string]interface{}{
						"file":  entry.Name(),
						"error": err.Error(),
					})
					continue
				}
				r.logger.Info("expired document removed", map[string]interface{}{
					"kind": string(kind),
					"file": entry.Name(),
				})
			}
		}
	}
}
