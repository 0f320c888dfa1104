package trial

// ComputeFrequencies reshapes wide per-sample counts into the long frequency
// table: one record per (sample, population), grouped population-major with
// input sample order preserved inside each group.
//
// The function is pure. A sample whose five counts sum to zero gets a
// percentage of 0 for every population rather than a division error.
func ComputeFrequencies(rows []SampleRow) []FrequencyRecord {
	totals := make([]int, len(rows))
	for i, row := range rows {
		totals[i] = row.Counts.Total()
	}

	records := make([]FrequencyRecord, 0, len(rows)*len(Populations))
	for _, population := range Populations {
		for i, row := range rows {
			count := row.Counts.Count(population)
			pct := 0.0
			if totals[i] > 0 {
				pct = 100 * float64(count) / float64(totals[i])
			}
			records = append(records, FrequencyRecord{
				Sample:     row.SampleID,
				TotalCount: totals[i],
				Population: population,
				Count:      count,
				Percentage: pct,
			})
		}
	}
	return records
}
