package trial

import "sort"

// SummarizeSubset filters to baseline (time from treatment start = 0)
// miraclib melanoma PBMC samples and tallies them three ways: samples per
// project, unique subjects per response category, and unique subjects per
// sex.
//
// When a subject has several baseline samples, the one with the lowest
// sample identifier represents the subject, so the subject-level tallies do
// not depend on storage read order.
func SummarizeSubset(rows []SampleRow) SubsetSummary {
	filtered := make([]SampleRow, 0, len(rows))
	for _, row := range rows {
		if row.Condition == cohortCondition &&
			row.Treatment == cohortTreatment &&
			row.SampleType == cohortSampleType &&
			row.TimeFromTreatmentStart == 0 {
			filtered = append(filtered, row)
		}
	}

	projects := make(map[string]int)
	for _, row := range filtered {
		projects[row.Project]++
	}

	ordered := make([]SampleRow, len(filtered))
	copy(ordered, filtered)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SampleID < ordered[j].SampleID
	})

	responses := make(map[string]int)
	sexes := make(map[string]int)
	seen := make(map[string]bool)
	for _, row := range ordered {
		if seen[row.SubjectID] {
			continue
		}
		seen[row.SubjectID] = true
		responses[row.Response]++
		sexes[row.Sex]++
	}

	return SubsetSummary{
		ProjectCounts:  tally(projects),
		ResponseCounts: tally(responses),
		SexCounts:      tally(sexes),
	}
}

// tally converts a count map to a slice ordered by descending count, ties
// broken by category value for stable output.
func tally(counts map[string]int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for value, count := range counts {
		out = append(out, CategoryCount{Value: value, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
