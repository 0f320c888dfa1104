package trial

// Cohort selection for the responder comparison. The comparison is defined
// for melanoma patients treated with miraclib, PBMC samples only.
const (
	cohortCondition  = "melanoma"
	cohortTreatment  = "miraclib"
	cohortSampleType = "PBMC"

	// SignificanceLevel is the p-value threshold for flagging a population.
	SignificanceLevel = 0.05
)

// CompareCohort filters to the miraclib melanoma PBMC cohort, computes
// per-population frequencies, attaches each sample's response label, and runs
// a Welch t-test per population between responders ("yes") and
// non-responders ("no").
//
// Samples with any other response value, including blank (not applicable),
// are excluded before frequencies are computed. A population appears in the
// statistics output only when both groups carry more than one observation.
func CompareCohort(rows []SampleRow) ([]LabeledFrequency, []PopulationStat) {
	filtered := make([]SampleRow, 0, len(rows))
	responseBySample := make(map[string]string)
	for _, row := range rows {
		if row.Condition != cohortCondition ||
			row.Treatment != cohortTreatment ||
			row.SampleType != cohortSampleType {
			continue
		}
		if row.Response != "yes" && row.Response != "no" {
			continue
		}
		filtered = append(filtered, row)
		responseBySample[row.SampleID] = row.Response
	}

	// Sample identifiers are unique, so the label join is exact: one label
	// per frequency record, no duplication, no drops.
	freq := ComputeFrequencies(filtered)
	labeled := make([]LabeledFrequency, len(freq))
	for i, rec := range freq {
		labeled[i] = LabeledFrequency{
			FrequencyRecord: rec,
			Response:        responseBySample[rec.Sample],
		}
	}

	var results []PopulationStat
	for _, population := range Populations {
		var responders, nonResponders []float64
		for _, rec := range labeled {
			if rec.Population != population {
				continue
			}
			if rec.Response == "yes" {
				responders = append(responders, rec.Percentage)
			} else {
				nonResponders = append(nonResponders, rec.Percentage)
			}
		}
		if len(responders) < 2 || len(nonResponders) < 2 {
			continue
		}
		tStat, pValue, ok := welchTTest(responders, nonResponders)
		if !ok {
			continue
		}
		results = append(results, PopulationStat{
			Population:  population,
			TStatistic:  tStat,
			PValue:      pValue,
			Significant: pValue < SignificanceLevel,
		})
	}

	return labeled, results
}
