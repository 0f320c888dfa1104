package ports

import (
	"context"

	"github.com/luke-benham/Cytometry/domain/trial"
)

// SampleRepository defines the interface for subject/sample storage operations
type SampleRepository interface {
	// InitSchema idempotently creates the subjects and samples relations.
	InitSchema(ctx context.Context) error

	// BulkReplace derives the unique-subject and sample projections from the
	// source rows and replaces both relations wholesale. Returns the number
	// of source rows loaded.
	BulkReplace(ctx context.Context, rows []trial.SampleRow) (int, error)

	// InsertSample inserts the subject if absent (never updated when
	// present), then inserts the sample. A duplicate sample identifier is a
	// distinct, reportable failure.
	InsertSample(ctx context.Context, row trial.SampleRow) error

	// RemoveSample deletes the sample with the given identifier and returns
	// the number of rows removed. A missing identifier is not an error.
	RemoveSample(ctx context.Context, sampleID string) (int64, error)

	// FetchAll returns the full denormalized join of samples with their
	// subject's project, age, sex and condition, one row per sample.
	FetchAll(ctx context.Context) ([]trial.SampleRow, error)

	// Ready reports whether the store is initialized and readable.
	Ready(ctx context.Context) bool
}
