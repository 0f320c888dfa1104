package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/luke-benham/Cytometry/adapters/ingest"
	"github.com/luke-benham/Cytometry/domain/trial"
	"github.com/luke-benham/Cytometry/internal"
	"github.com/luke-benham/Cytometry/internal/errors"
	"github.com/luke-benham/Cytometry/ports"
)

// AnalysisService orchestrates the store and the analysis pipeline for the
// interactive surface. All analysis calls are stateless; the only cache is
// the content-keyed CSV export memo.
type AnalysisService struct {
	repo   ports.SampleRepository
	logger *internal.Logger

	exportGroup singleflight.Group
	exportMu    sync.Mutex
	exportKey   string
	exportCSV   []byte
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(repo ports.SampleRepository, logger *internal.Logger) *AnalysisService {
	return &AnalysisService{repo: repo, logger: logger}
}

// Ready reports whether the store is initialized and readable.
func (s *AnalysisService) Ready(ctx context.Context) bool {
	return s.repo.Ready(ctx)
}

// LoadFromSource ingests the source file and replaces the store's contents
// wholesale. Failures are reported as a human-readable status string, never
// propagated: callers check the message, not an error value.
func (s *AnalysisService) LoadFromSource(ctx context.Context, path string) string {
	rows, err := ingest.NewReader(path).ReadRows()
	if err != nil {
		s.logger.Error("source ingest failed: %v", err)
		return fmt.Sprintf("Error loading data: %v", err)
	}

	if err := s.repo.InitSchema(ctx); err != nil {
		s.logger.Error("schema init failed: %v", err)
		return fmt.Sprintf("Error loading data: %v", err)
	}

	n, err := s.repo.BulkReplace(ctx, rows)
	if err != nil {
		s.logger.Error("bulk load failed: %v", err)
		return fmt.Sprintf("Error loading data: %v", err)
	}

	s.logger.Info("loaded %d rows from %s", n, path)
	return fmt.Sprintf("Successfully loaded %d rows from %s.", n, path)
}

// AddSample validates the full field set and inserts the subject (if absent)
// and sample. A duplicate sample identifier comes back as an AppError with
// CodeDuplicateSample, reported verbatim so the caller can retry with a
// different identifier.
func (s *AnalysisService) AddSample(ctx context.Context, row trial.SampleRow) error {
	if err := validateSample(row); err != nil {
		return err
	}
	if err := s.repo.InsertSample(ctx, row); err != nil {
		return err
	}
	s.logger.Info("added sample %s for subject %s", row.SampleID, row.SubjectID)
	return nil
}

// RemoveSample deletes a sample by identifier and returns the removed count.
func (s *AnalysisService) RemoveSample(ctx context.Context, sampleID string) (int64, error) {
	if sampleID == "" {
		return 0, errors.ValidationError("sample identifier is required")
	}
	return s.repo.RemoveSample(ctx, sampleID)
}

// Overview returns the long frequency table for every stored sample. An
// unreadable store yields an empty table, not an error.
func (s *AnalysisService) Overview(ctx context.Context) []trial.FrequencyRecord {
	return trial.ComputeFrequencies(s.fetch(ctx))
}

// Compare runs the responder vs non-responder cohort comparison.
func (s *AnalysisService) Compare(ctx context.Context) ([]trial.LabeledFrequency, []trial.PopulationStat) {
	return trial.CompareCohort(s.fetch(ctx))
}

// Subset produces the baseline-subset tallies.
func (s *AnalysisService) Subset(ctx context.Context) trial.SubsetSummary {
	return trial.SummarizeSubset(s.fetch(ctx))
}

func (s *AnalysisService) fetch(ctx context.Context) []trial.SampleRow {
	rows, err := s.repo.FetchAll(ctx)
	if err != nil {
		s.logger.Error("fetch failed, returning empty dataset: %v", err)
		return nil
	}
	return rows
}

// ExportFrequenciesCSV encodes the current frequency table as CSV. The
// encoding is memoized by content, so repeated downloads of an unchanged
// table reuse the same bytes, and concurrent requests for the same content
// collapse onto one encoding pass.
func (s *AnalysisService) ExportFrequenciesCSV(ctx context.Context) ([]byte, error) {
	records := s.Overview(ctx)
	key := exportKey(records)

	s.exportMu.Lock()
	if s.exportKey == key && s.exportCSV != nil {
		data := s.exportCSV
		s.exportMu.Unlock()
		return data, nil
	}
	s.exportMu.Unlock()

	v, err, _ := s.exportGroup.Do(key, func() (interface{}, error) {
		data, err := encodeFrequenciesCSV(records)
		if err != nil {
			return nil, err
		}
		s.exportMu.Lock()
		s.exportKey = key
		s.exportCSV = data
		s.exportMu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func exportKey(records []trial.FrequencyRecord) string {
	h := fnv.New64a()
	for _, rec := range records {
		fmt.Fprintf(h, "%s|%d|%s|%d|%g\n", rec.Sample, rec.TotalCount, rec.Population, rec.Count, rec.Percentage)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

func encodeFrequenciesCSV(records []trial.FrequencyRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"sample", "total_count", "population", "count", "percentage"}); err != nil {
		return nil, errors.Wrap(err, "failed to write CSV header")
	}
	for _, rec := range records {
		record := []string{
			rec.Sample,
			strconv.Itoa(rec.TotalCount),
			rec.Population,
			strconv.Itoa(rec.Count),
			strconv.FormatFloat(rec.Percentage, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, errors.Wrap(err, "failed to write CSV record")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, "failed to flush CSV")
	}
	return buf.Bytes(), nil
}

func validateSample(row trial.SampleRow) error {
	required := map[string]string{
		"sample":      row.SampleID,
		"subject":     row.SubjectID,
		"project":     row.Project,
		"sex":         row.Sex,
		"condition":   row.Condition,
		"treatment":   row.Treatment,
		"sample_type": row.SampleType,
	}
	for name, value := range required {
		if value == "" {
			return errors.ValidationError(fmt.Sprintf("%s is required", name))
		}
	}
	// Response stays optional: blank means "not applicable".
	if row.Age < 0 {
		return errors.ValidationError("age must be non-negative")
	}
	if row.TimeFromTreatmentStart < 0 {
		return errors.ValidationError("time from treatment start must be non-negative")
	}
	for _, population := range trial.Populations {
		if row.Counts.Count(population) < 0 {
			return errors.ValidationError(fmt.Sprintf("%s count must be non-negative", population))
		}
	}
	return nil
}
