package records

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"backoffice-service/internal/common/errors"
	"backoffice-service/internal/common/logger"
	"backoffice-service/internal/common/metrics"
)

// seqBits is the number of id bits reserved for the in-process sequence.
// Two creates landing in the same millisecond still get distinct ids.
const seqBits = 12

// Store persists one JSON file per record under a per-kind namespace
// directory. Writes go to a temp file in the same directory and are renamed
// into place, so listings never observe a torn record.
type Store struct {
	baseDir string
	logger  logger.Logger
	seq     atomic.Int64
}

func NewStore(baseDir string, log logger.Logger) (*Store, error) {
	for _, kind := range []Kind{KindContact, KindAssessment} {
		if err := os.MkdirAll(filepath.Join(baseDir, string(kind)), 0o755); err != nil {
			return nil, fmt.Errorf("create record namespace %s: %w", kind, err)
		}
	}
	return &Store{
		baseDir: baseDir,
		logger:  log.WithFields(map[string]interface{}{"component": "records"}),
	}, nil
}

// nextID combines the unix-millisecond timestamp with an atomic sequence.
func (s *Store) nextID() int64 {
	seq := s.seq.Add(1) & (1<<seqBits - 1)
	return time.Now().UnixMilli()<<seqBits | seq
}

// Create assigns an id, stamps createdAt, and persists the record. The
// record is not considered created unless the write fully succeeds.
func (s *Store) Create(ctx context.Context, kind Kind, fields map[string]interface{}) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStorageWriteFailedError(err)
	}
	if !kind.Valid() {
		return nil, errors.NewValidationFailedError(fmt.Sprintf("unknown record kind: %s", kind))
	}

	rec := &Record{
		ID:        s.nextID(),
		Kind:      kind,
		Fields:    fields,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, errors.NewStorageWriteFailedError(err)
	}

	dir := filepath.Join(s.baseDir, string(kind))
	final := filepath.Join(dir, fmt.Sprintf("%d.json", rec.ID))

	tmp, err := os.CreateTemp(dir, fmt.Sprintf(".%d-*.tmp", rec.ID))
	if err != nil {
		return nil, errors.NewStorageWriteFailedError(err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, errors.NewStorageWriteFailedError(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, errors.NewStorageWriteFailedError(err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return nil, errors.NewStorageWriteFailedError(err)
	}

	metrics.RecordsCreated.WithLabelValues(string(kind)).Inc()
	s.logger.Info("record created", map[string]interface{}{
		"kind": string(kind),
		"id":   rec.ID,
	})

	return rec, nil
}

// List returns every readable record under kind, in unspecified order, along
// with the number of stored units that could not be parsed. A single corrupt
// unit is skipped and counted, never failing the whole listing.
func (s *Store) List(ctx context.Context, kind Kind) ([]Record, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, errors.NewStorageReadFailedError(err)
	}
	if !kind.Valid() {
		return nil, 0, errors.NewValidationFailedError(fmt.Sprintf("unknown record kind: %s", kind))
	}

	dir := filepath.Join(s.baseDir, string(kind))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, 0, nil
		}
		return nil, 0, errors.NewStorageReadFailedError(err)
	}

	recs := []Record{}
	skipped := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			skipped++
			metrics.RecordListSkipped.WithLabelValues(string(kind)).Inc()
			s.logger.Warn("skipping unreadable record unit", map[string]interface{}{
				"kind":  string(kind),
				"file":  entry.Name(),
				"error": err.Error(),
			})
			continue
		}

		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			skipped++
			metrics.RecordListSkipped.WithLabelValues(string(kind)).Inc()
			s.logger.Warn("skipping corrupt record unit", map[string]interface{}{
				"kind":  string(kind),
				"file":  entry.Name(),
				"error": err.Error(),
			})
			continue
		}
		recs = append(recs, rec)
	}

	return recs, skipped, nil
}

// Get returns the record with the given id under kind.
func (s *Store) Get(ctx context.Context, kind Kind, id int64) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStorageReadFailedError(err)
	}
	if !kind.Valid() {
		return nil, errors.NewValidationFailedError(fmt.Sprintf("unknown record kind: %s", kind))
	}

	path := filepath.Join(s.baseDir, string(kind), fmt.Sprintf("%d.json", id))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewRecordNotFoundError(string(kind), id)
		}
		return nil, errors.NewStorageReadFailedError(err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.NewStorageReadFailedError(err)
	}
	return &rec, nil
}
