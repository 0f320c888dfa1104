package trial

// Populations is the fixed, ordered set of immune-cell populations counted in
// every sample. Analysis output is always reported in this order.
var Populations = []string{"b_cell", "cd8_t_cell", "cd4_t_cell", "nk_cell", "monocyte"}

// CellCounts holds the raw per-population cell counts for one sample.
type CellCounts struct {
	BCell    int `json:"b_cell"`
	CD8TCell int `json:"cd8_t_cell"`
	CD4TCell int `json:"cd4_t_cell"`
	NKCell   int `json:"nk_cell"`
	Monocyte int `json:"monocyte"`
}

// Count returns the count for a population by name, matching Populations.
func (c CellCounts) Count(population string) int {
	switch population {
	case "b_cell":
		return c.BCell
	case "cd8_t_cell":
		return c.CD8TCell
	case "cd4_t_cell":
		return c.CD4TCell
	case "nk_cell":
		return c.NKCell
	case "monocyte":
		return c.Monocyte
	}
	return 0
}

// Total returns the sum of all five population counts.
func (c CellCounts) Total() int {
	return c.BCell + c.CD8TCell + c.CD4TCell + c.NKCell + c.Monocyte
}

// SampleRow is the denormalized view of one sample joined with its subject.
// It is both the shape of a source-file row and the shape returned by the
// store's full read.
type SampleRow struct {
	SampleID               string `json:"sample_id"`
	SubjectID              string `json:"subject_id"`
	Project                string `json:"project"`
	Age                    int    `json:"age"`
	Sex                    string `json:"sex"`
	Condition              string `json:"condition"`
	Treatment              string `json:"treatment"`
	Response               string `json:"response"`
	SampleType             string `json:"sample_type"`
	TimeFromTreatmentStart int    `json:"time_from_treatment_start"`
	Counts                 CellCounts
}

// FrequencyRecord is one (sample, population) cell of the long frequency
// table. Five records exist per sample, one per population.
type FrequencyRecord struct {
	Sample     string  `json:"sample"`
	TotalCount int     `json:"total_count"`
	Population string  `json:"population"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// LabeledFrequency is a FrequencyRecord with the sample's response label
// attached, used for responder vs non-responder plotting.
type LabeledFrequency struct {
	FrequencyRecord
	Response string `json:"response"`
}

// PopulationStat is the outcome of comparing responder and non-responder
// frequency distributions for one population.
type PopulationStat struct {
	Population  string  `json:"population"`
	TStatistic  float64 `json:"t_statistic"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"`
}

// CategoryCount is one entry of a categorical tally.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// SubsetSummary holds the three baseline-subset tallies. Project counts are
// per sample; response and sex counts are per unique subject.
type SubsetSummary struct {
	ProjectCounts  []CategoryCount `json:"project_counts"`
	ResponseCounts []CategoryCount `json:"response_counts"`
	SexCounts      []CategoryCount `json:"sex_counts"`
}
