package trial

import (
	"math"
	"reflect"
	"testing"
)

func row(sampleID string, counts CellCounts) SampleRow {
	return SampleRow{
		SampleID:   sampleID,
		SubjectID:  "sbj-" + sampleID,
		Project:    "prj1",
		Age:        60,
		Sex:        "M",
		Condition:  "melanoma",
		Treatment:  "miraclib",
		Response:   "yes",
		SampleType: "PBMC",
		Counts:     counts,
	}
}

func TestComputeFrequencies_EqualCounts(t *testing.T) {
	records := ComputeFrequencies([]SampleRow{
		row("s1", CellCounts{BCell: 100, CD8TCell: 100, CD4TCell: 100, NKCell: 100, Monocyte: 100}),
	})

	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.TotalCount != 500 {
			t.Errorf("%s: total = %d, want 500", rec.Population, rec.TotalCount)
		}
		if rec.Percentage != 20.0 {
			t.Errorf("%s: percentage = %v, want 20.0", rec.Population, rec.Percentage)
		}
	}
}

func TestComputeFrequencies_ZeroTotal(t *testing.T) {
	records := ComputeFrequencies([]SampleRow{row("s1", CellCounts{})})

	for _, rec := range records {
		if rec.TotalCount != 0 {
			t.Errorf("total = %d, want 0", rec.TotalCount)
		}
		if rec.Percentage != 0 {
			t.Errorf("%s: percentage = %v, want 0", rec.Population, rec.Percentage)
		}
	}
}

func TestComputeFrequencies_PercentagesSumTo100(t *testing.T) {
	records := ComputeFrequencies([]SampleRow{
		row("s1", CellCounts{BCell: 13, CD8TCell: 7, CD4TCell: 91, NKCell: 2, Monocyte: 44}),
		row("s2", CellCounts{BCell: 1, CD8TCell: 1, CD4TCell: 1, NKCell: 0, Monocyte: 0}),
	})

	sums := make(map[string]float64)
	for _, rec := range records {
		sums[rec.Sample] += rec.Percentage
	}
	for sample, sum := range sums {
		if math.Abs(sum-100) > 1e-9 {
			t.Errorf("%s: percentages sum to %v, want 100", sample, sum)
		}
	}
}

func TestComputeFrequencies_OrderingAndShape(t *testing.T) {
	rows := []SampleRow{
		row("s1", CellCounts{BCell: 1, CD8TCell: 2, CD4TCell: 3, NKCell: 4, Monocyte: 5}),
		row("s2", CellCounts{BCell: 5, CD8TCell: 4, CD4TCell: 3, NKCell: 2, Monocyte: 1}),
		row("s3", CellCounts{BCell: 9, CD8TCell: 9, CD4TCell: 9, NKCell: 9, Monocyte: 9}),
	}

	records := ComputeFrequencies(rows)
	if len(records) != 5*len(rows) {
		t.Fatalf("expected %d records, got %d", 5*len(rows), len(records))
	}

	// Population-major: each population block preserves input sample order.
	i := 0
	for _, population := range Populations {
		for _, r := range rows {
			rec := records[i]
			if rec.Population != population || rec.Sample != r.SampleID {
				t.Fatalf("record %d = (%s, %s), want (%s, %s)",
					i, rec.Sample, rec.Population, r.SampleID, population)
			}
			i++
		}
	}
}

func TestComputeFrequencies_Pure(t *testing.T) {
	rows := []SampleRow{
		row("s1", CellCounts{BCell: 10, CD8TCell: 20, CD4TCell: 30, NKCell: 15, Monocyte: 18}),
	}
	first := ComputeFrequencies(rows)
	second := ComputeFrequencies(rows)
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated runs on identical input differ")
	}
}
