package sqlite

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/luke-benham/Cytometry/domain/trial"
	"github.com/luke-benham/Cytometry/internal/errors"
	"github.com/luke-benham/Cytometry/ports"
)

const subjectsSchema = `
CREATE TABLE IF NOT EXISTS subjects (
	subject_id TEXT PRIMARY KEY,
	project TEXT NOT NULL,
	age INTEGER,
	sex TEXT,
	condition TEXT
);`

const samplesSchema = `
CREATE TABLE IF NOT EXISTS samples (
	sample_id TEXT PRIMARY KEY,
	subject_id TEXT NOT NULL,
	treatment TEXT,
	response TEXT,
	sample_type TEXT,
	time_from_treatment_start INTEGER,
	b_cell INTEGER,
	cd8_t_cell INTEGER,
	cd4_t_cell INTEGER,
	nk_cell INTEGER,
	monocyte INTEGER,
	FOREIGN KEY (subject_id) REFERENCES subjects (subject_id)
);`

// sampleRecord is the flat scan target for the denormalized join.
type sampleRecord struct {
	SampleID               string `db:"sample_id"`
	SubjectID              string `db:"subject_id"`
	Project                string `db:"project"`
	Age                    int    `db:"age"`
	Sex                    string `db:"sex"`
	Condition              string `db:"condition"`
	Treatment              string `db:"treatment"`
	Response               string `db:"response"`
	SampleType             string `db:"sample_type"`
	TimeFromTreatmentStart int    `db:"time_from_treatment_start"`
	BCell                  int    `db:"b_cell"`
	CD8TCell               int    `db:"cd8_t_cell"`
	CD4TCell               int    `db:"cd4_t_cell"`
	NKCell                 int    `db:"nk_cell"`
	Monocyte               int    `db:"monocyte"`
}

func (r sampleRecord) toRow() trial.SampleRow {
	return trial.SampleRow{
		SampleID:               r.SampleID,
		SubjectID:              r.SubjectID,
		Project:                r.Project,
		Age:                    r.Age,
		Sex:                    r.Sex,
		Condition:              r.Condition,
		Treatment:              r.Treatment,
		Response:               r.Response,
		SampleType:             r.SampleType,
		TimeFromTreatmentStart: r.TimeFromTreatmentStart,
		Counts: trial.CellCounts{
			BCell:    r.BCell,
			CD8TCell: r.CD8TCell,
			CD4TCell: r.CD4TCell,
			NKCell:   r.NKCell,
			Monocyte: r.Monocyte,
		},
	}
}

// sampleRepository implements ports.SampleRepository on a single SQLite file.
//
// Each operation opens a fresh connection and closes it on every exit path.
// There is no shared handle to invalidate when the store file is replaced or
// reinitialized between requests.
type sampleRepository struct {
	path string
}

// NewSampleRepository creates a repository backed by the SQLite file at path.
func NewSampleRepository(path string) ports.SampleRepository {
	return &sampleRepository{path: path}
}

func (r *sampleRepository) open(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", r.path+"?_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}
	return db, nil
}

// InitSchema creates the subjects and samples tables if absent.
func (r *sampleRepository) InitSchema(ctx context.Context) error {
	db, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, schema := range []string{subjectsSchema, samplesSchema} {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			return errors.Wrap(err, "failed to create tables")
		}
	}
	return nil
}

const insertSubjectSQL = `INSERT OR IGNORE INTO subjects
	(subject_id, project, age, sex, condition)
	VALUES (?, ?, ?, ?, ?)`

const insertSampleSQL = `INSERT INTO samples
	(sample_id, subject_id, treatment, response, sample_type,
	 time_from_treatment_start, b_cell, cd8_t_cell, cd4_t_cell, nk_cell, monocyte)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// BulkReplace overwrites both relations with projections of the source rows.
// The replace is destructive: reloading truncates prior contents entirely.
func (r *sampleRepository) BulkReplace(ctx context.Context, rows []trial.SampleRow) (int, error) {
	db, err := r.open(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DROP TABLE IF EXISTS samples",
		"DROP TABLE IF EXISTS subjects",
		subjectsSchema,
		samplesSchema,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, errors.Wrap(err, "failed to rebuild schema")
		}
	}

	// Unique-subject projection: first occurrence per subject wins.
	seen := make(map[string]bool)
	for _, row := range rows {
		if seen[row.SubjectID] {
			continue
		}
		seen[row.SubjectID] = true
		if _, err := tx.ExecContext(ctx, insertSubjectSQL,
			row.SubjectID, row.Project, row.Age, row.Sex, row.Condition); err != nil {
			return 0, errors.Wrapf(err, "failed to insert subject %s", row.SubjectID)
		}
	}

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, insertSampleSQL,
			row.SampleID, row.SubjectID, row.Treatment, row.Response, row.SampleType,
			row.TimeFromTreatmentStart,
			row.Counts.BCell, row.Counts.CD8TCell, row.Counts.CD4TCell,
			row.Counts.NKCell, row.Counts.Monocyte); err != nil {
			return 0, errors.Wrapf(err, "failed to insert sample %s", row.SampleID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit bulk load")
	}
	return len(rows), nil
}

// InsertSample adds the subject if absent, then the sample. The subject
// insert is never rolled back when the sample insert fails; upsert-if-absent
// tolerates the leftover row.
func (r *sampleRepository) InsertSample(ctx context.Context, row trial.SampleRow) error {
	db, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, insertSubjectSQL,
		row.SubjectID, row.Project, row.Age, row.Sex, row.Condition); err != nil {
		return errors.Wrapf(err, "failed to insert subject %s", row.SubjectID)
	}

	if _, err := db.ExecContext(ctx, insertSampleSQL,
		row.SampleID, row.SubjectID, row.Treatment, row.Response, row.SampleType,
		row.TimeFromTreatmentStart,
		row.Counts.BCell, row.Counts.CD8TCell, row.Counts.CD4TCell,
		row.Counts.NKCell, row.Counts.Monocyte); err != nil {
		if isUniqueViolation(err) {
			return errors.DuplicateSample(row.SampleID)
		}
		return errors.Wrapf(err, "failed to insert sample %s", row.SampleID)
	}
	return nil
}

// RemoveSample deletes the sample row matching the identifier. It does not
// cascade to the subject.
func (r *sampleRepository) RemoveSample(ctx context.Context, sampleID string) (int64, error) {
	db, err := r.open(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	result, err := db.ExecContext(ctx, "DELETE FROM samples WHERE sample_id = ?", sampleID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to remove sample %s", sampleID)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read removed row count")
	}
	return removed, nil
}

const fetchAllSQL = `SELECT
	s.sample_id, s.subject_id, s.treatment, s.response, s.sample_type,
	s.time_from_treatment_start,
	s.b_cell, s.cd8_t_cell, s.cd4_t_cell, s.nk_cell, s.monocyte,
	sub.project, sub.age, sub.sex, sub.condition
FROM samples s
JOIN subjects sub ON s.subject_id = sub.subject_id
ORDER BY s.sample_id`

// FetchAll returns one denormalized row per sample.
func (r *sampleRepository) FetchAll(ctx context.Context) ([]trial.SampleRow, error) {
	db, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var records []sampleRecord
	if err := db.SelectContext(ctx, &records, fetchAllSQL); err != nil {
		return nil, errors.Wrap(err, "failed to fetch dataset")
	}

	rows := make([]trial.SampleRow, len(records))
	for i, rec := range records {
		rows[i] = rec.toRow()
	}
	return rows, nil
}

// Ready probes the store with a lightweight read. It replaces a process-wide
// "initialized" flag: readiness is re-checked on demand.
func (r *sampleRepository) Ready(ctx context.Context) bool {
	db, err := r.open(ctx)
	if err != nil {
		return false
	}
	defer db.Close()

	var count int
	return db.GetContext(ctx, &count, "SELECT COUNT(*) FROM samples") == nil
}

// isUniqueViolation reports whether err is a primary-key uniqueness failure.
// The driver surfaces constraint errors as text, so match on the SQLite
// message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
