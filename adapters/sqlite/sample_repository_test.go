package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luke-benham/Cytometry/domain/trial"
	"github.com/luke-benham/Cytometry/internal/errors"
)

func newTestRepo(t *testing.T) (*sampleRepository, context.Context) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trial_data.db")
	repo := NewSampleRepository(path).(*sampleRepository)
	ctx := context.Background()
	require.NoError(t, repo.InitSchema(ctx))
	return repo, ctx
}

func testRow(sampleID, subjectID string) trial.SampleRow {
	return trial.SampleRow{
		SampleID:               sampleID,
		SubjectID:              subjectID,
		Project:                "prj1",
		Age:                    65,
		Sex:                    "M",
		Condition:              "melanoma",
		Treatment:              "miraclib",
		Response:               "yes",
		SampleType:             "PBMC",
		TimeFromTreatmentStart: 0,
		Counts:                 trial.CellCounts{BCell: 100, CD8TCell: 200, CD4TCell: 300, NKCell: 150, Monocyte: 180},
	}
}

func TestInitSchema_Idempotent(t *testing.T) {
	repo, ctx := newTestRepo(t)
	require.NoError(t, repo.InitSchema(ctx))
	assert.True(t, repo.Ready(ctx))
}

func TestReady_BeforeSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")
	repo := NewSampleRepository(path).(*sampleRepository)
	assert.False(t, repo.Ready(context.Background()))
}

func TestInsertSample_ThenFetch(t *testing.T) {
	repo, ctx := newTestRepo(t)

	require.NoError(t, repo.InsertSample(ctx, testRow("s1", "sbj1")))

	rows, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, "s1", got.SampleID)
	assert.Equal(t, "sbj1", got.SubjectID)
	assert.Equal(t, "prj1", got.Project)
	assert.Equal(t, 65, got.Age)
	assert.Equal(t, "melanoma", got.Condition)
	assert.Equal(t, 180, got.Counts.Monocyte)
}

func TestInsertSample_DuplicateID(t *testing.T) {
	repo, ctx := newTestRepo(t)

	require.NoError(t, repo.InsertSample(ctx, testRow("s1", "sbj1")))

	dup := testRow("s1", "sbj1")
	dup.Counts.BCell = 999
	err := repo.InsertSample(ctx, dup)
	require.Error(t, err)
	assert.Equal(t, errors.CodeDuplicateSample, errors.GetCode(err))

	rows, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 100, rows[0].Counts.BCell, "first insert must stand")
}

func TestInsertSample_SubjectNotUpdatedWhenPresent(t *testing.T) {
	repo, ctx := newTestRepo(t)

	require.NoError(t, repo.InsertSample(ctx, testRow("s1", "sbj1")))

	second := testRow("s2", "sbj1")
	second.Age = 99 // differing subject fields are ignored for existing subjects
	require.NoError(t, repo.InsertSample(ctx, second))

	rows, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, 65, row.Age)
	}
}

func TestRemoveSample(t *testing.T) {
	repo, ctx := newTestRepo(t)
	require.NoError(t, repo.InsertSample(ctx, testRow("s1", "sbj1")))

	removed, err := repo.RemoveSample(ctx, "s1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	removed, err = repo.RemoveSample(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.EqualValues(t, 0, removed)
}

func TestRemoveSample_DoesNotCascadeToSubject(t *testing.T) {
	repo, ctx := newTestRepo(t)
	require.NoError(t, repo.InsertSample(ctx, testRow("s1", "sbj1")))

	_, err := repo.RemoveSample(ctx, "s1")
	require.NoError(t, err)

	// Re-inserting a sample for the same subject still works; the subject row
	// survived the sample delete.
	require.NoError(t, repo.InsertSample(ctx, testRow("s2", "sbj1")))
	rows, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "sbj1", rows[0].SubjectID)
}

func TestBulkReplace_Destructive(t *testing.T) {
	repo, ctx := newTestRepo(t)

	fileA := []trial.SampleRow{testRow("a1", "sbjA"), testRow("a2", "sbjA")}
	n, err := repo.BulkReplace(ctx, fileA)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	fileB := []trial.SampleRow{testRow("b1", "sbjB")}
	n, err = repo.BulkReplace(ctx, fileB)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b1", rows[0].SampleID, "loading file B must leave only file B's rows")
}

func TestBulkReplace_UniqueSubjectProjection(t *testing.T) {
	repo, ctx := newTestRepo(t)

	first := testRow("s1", "sbj1")
	second := testRow("s2", "sbj1")
	second.Age = 70 // first occurrence wins in the subject projection

	_, err := repo.BulkReplace(ctx, []trial.SampleRow{first, second})
	require.NoError(t, err)

	rows, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, 65, row.Age)
	}
}

func TestFetchAll_Empty(t *testing.T) {
	repo, ctx := newTestRepo(t)
	rows, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
