// Package history implements the append-only run history log and its
// duration estimator over a local JSON-lines file.
package history

import (
	"bufio"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/zerr"
	"zr/internal/core/domain"
	"zr/internal/core/ports"
)

var _ ports.HistoryStore = (*Store)(nil)

// Store implements ports.HistoryStore using the append-only log at
// <root>/.zr/history/runs.log, one JSON object per line.
type Store struct{}

// NewStore creates a new history store.
func NewStore() *Store {
	return &Store{}
}

// record is the on-disk representation of a domain.RunRecord.
type record struct {
	TaskName         string            `json:"task_name"`
	MatrixCoordinate map[string]string `json:"matrix_coordinate,omitempty"`
	StartedAt        time.Time         `json:"started_at"`
	EndedAt          time.Time         `json:"ended_at"`
	Status           string            `json:"status"`
	Fingerprint      string            `json:"fingerprint"`
	CacheHit         bool              `json:"cache_hit"`
}

// Append adds a RunRecord to the history log.
func (s *Store) Append(root string, run domain.RunRecord) error {
	path := filepath.Join(root, domain.DefaultHistoryPath())
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create history directory"), "path", path)
	}

	rec := record{
		TaskName:         run.TaskName,
		MatrixCoordinate: run.MatrixCoordinate,
		StartedAt:        run.StartedAt,
		EndedAt:          run.EndedAt,
		Status:           string(run.Status),
		Fingerprint:      run.Fingerprint,
		CacheHit:         run.CacheHit,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return zerr.Wrap(err, "failed to marshal run record")
	}
	data = append(data, '\n')

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, domain.FilePerm)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open history log"), "path", path)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to append run record"), "path", path)
	}

	return nil
}

// Estimate reads the last limit records for taskName, drops outliers beyond
// ±2σ, and returns the mean/stddev duration.
func (s *Store) Estimate(root, taskName string, limit int) (domain.Estimate, error) {
	records, err := s.readTail(root, taskName, limit)
	if err != nil {
		return domain.Estimate{}, err
	}

	if len(records) == 0 {
		return domain.Estimate{}, zerr.With(domain.ErrNoHistory, "task", taskName)
	}

	durations := make([]float64, len(records))
	for i, r := range records {
		durations[i] = float64(r.EndedAt.Sub(r.StartedAt))
	}

	trimmed := trimOutliers(durations)
	if len(trimmed) == 0 {
		trimmed = durations
	}

	mean, stddev := meanStdDev(trimmed)

	return domain.Estimate{
		TaskName:   taskName,
		SampleSize: len(trimmed),
		Mean:       time.Duration(mean),
		StdDev:     time.Duration(stddev),
	}, nil
}

// readTail returns up to limit most-recent records for taskName, tolerating
// a truncated final line from an interrupted append.
func (s *Store) readTail(root, taskName string, limit int) ([]record, error) {
	path := filepath.Join(root, domain.DefaultHistoryPath())

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to open history log"), "path", path)
	}
	defer f.Close()

	var matches []record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			// Tolerate a partial final line from an interrupted append.
			continue
		}

		if rec.TaskName == taskName {
			matches = append(matches, rec)
		}
	}

	if limit > 0 && len(matches) > limit {
		matches = matches[len(matches)-limit:]
	}

	return matches, nil
}

// trimOutliers drops values more than 2 standard deviations from the mean.
func trimOutliers(values []float64) []float64 {
	if len(values) < 3 { //nolint:mnd // too few samples to meaningfully trim
		return values
	}

	mean, stddev := meanStdDev(values)
	if stddev == 0 {
		return values
	}

	trimmed := make([]float64, 0, len(values))
	for _, v := range values {
		if math.Abs(v-mean) <= 2*stddev { //nolint:mnd // ±2σ per estimator definition
			trimmed = append(trimmed, v)
		}
	}

	return trimmed
}

func meanStdDev(values []float64) (mean, stddev float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / n

	var sqDiff float64
	for _, v := range values {
		d := v - mean
		sqDiff += d * d
	}
	stddev = math.Sqrt(sqDiff / n)

	return mean, stddev
}
