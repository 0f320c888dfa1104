package ui

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/luke-benham/Cytometry/domain/trial"
	"github.com/luke-benham/Cytometry/internal/errors"
)

// DashboardView carries everything the dashboard template renders.
type DashboardView struct {
	Ready  bool
	Status string
	IsErr  bool

	SampleCount    int
	Frequencies    []trial.FrequencyRecord
	Plot           BoxPlot
	Stats          []trial.PopulationStat
	SignificantPop []string
	Subset         trial.SubsetSummary
}

// handleDashboard renders the main page: overview table, responder
// comparison, and baseline subset tallies.
func (a *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	view := DashboardView{
		Ready:  a.service.Ready(ctx),
		Status: r.URL.Query().Get("status"),
		IsErr:  r.URL.Query().Get("err") == "1",
	}

	if view.Ready {
		view.Frequencies = a.service.Overview(ctx)
		view.SampleCount = len(view.Frequencies) / len(trial.Populations)

		labeled, populationStats := a.service.Compare(ctx)
		view.Plot = BuildBoxPlot(labeled)
		view.Stats = populationStats
		for _, st := range populationStats {
			if st.Significant {
				view.SignificantPop = append(view.SignificantPop, st.Population)
			}
		}

		view.Subset = a.service.Subset(ctx)
	}

	a.render(w, "dashboard.html", view)
}

// handleReload destructively replaces the store from the configured source
// file.
func (a *App) handleReload(w http.ResponseWriter, r *http.Request) {
	status := a.service.LoadFromSource(r.Context(), a.sourceFile)
	redirectStatus(w, r, status, strings.HasPrefix(status, "Error"))
}

// handleAddSample processes the add-sample form. All fields except response
// are required; numeric fields must be non-negative.
func (a *App) handleAddSample(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectStatus(w, r, "Invalid form submission.", true)
		return
	}

	row, err := sampleFromForm(r)
	if err != nil {
		redirectStatus(w, r, err.Error(), true)
		return
	}

	if err := a.service.AddSample(r.Context(), row); err != nil {
		// Duplicate identifiers are expected; report the message verbatim so
		// the user retries with a different ID.
		redirectStatus(w, r, err.Error(), true)
		return
	}

	msg := fmt.Sprintf("Success: Sample '%s' for subject '%s' has been added.", row.SampleID, row.SubjectID)
	redirectStatus(w, r, msg, false)
}

// handleRemoveSample removes a sample by identifier.
func (a *App) handleRemoveSample(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectStatus(w, r, "Invalid form submission.", true)
		return
	}
	sampleID := r.PostFormValue("sample_id")

	removed, err := a.service.RemoveSample(r.Context(), sampleID)
	if err != nil {
		redirectStatus(w, r, err.Error(), true)
		return
	}
	if removed == 0 {
		redirectStatus(w, r, fmt.Sprintf("Sample ID '%s' not found.", sampleID), true)
		return
	}
	redirectStatus(w, r, fmt.Sprintf("Removed sample '%s'.", sampleID), false)
}

// handleExportFrequencies serves the frequency table as a CSV download.
func (a *App) handleExportFrequencies(w http.ResponseWriter, r *http.Request) {
	data, err := a.service.ExportFrequenciesCSV(r.Context())
	if err != nil {
		http.Error(w, "failed to encode frequency table", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="cell_population_frequencies.csv"`)
	w.Write(data)
}

func (a *App) render(w http.ResponseWriter, name string, view interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, name, view); err != nil {
		a.logger.Error("template %s failed: %v", name, err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

func redirectStatus(w http.ResponseWriter, r *http.Request, status string, isErr bool) {
	target := "/?status=" + url.QueryEscape(status)
	if isErr {
		target += "&err=1"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func sampleFromForm(r *http.Request) (trial.SampleRow, error) {
	formInt := func(name string) (int, error) {
		raw := r.PostFormValue(name)
		if raw == "" {
			return 0, errors.ValidationError(fmt.Sprintf("%s is required", name))
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, errors.ValidationError(fmt.Sprintf("%s must be an integer", name))
		}
		if v < 0 {
			return 0, errors.ValidationError(fmt.Sprintf("%s must be non-negative", name))
		}
		return v, nil
	}

	row := trial.SampleRow{
		SampleID:   r.PostFormValue("sample_id"),
		SubjectID:  r.PostFormValue("subject_id"),
		Project:    r.PostFormValue("project"),
		Sex:        r.PostFormValue("sex"),
		Condition:  r.PostFormValue("condition"),
		Treatment:  r.PostFormValue("treatment"),
		Response:   r.PostFormValue("response"), // blank means not applicable
		SampleType: r.PostFormValue("sample_type"),
	}

	var err error
	if row.Age, err = formInt("age"); err != nil {
		return trial.SampleRow{}, err
	}
	if row.TimeFromTreatmentStart, err = formInt("time_from_treatment_start"); err != nil {
		return trial.SampleRow{}, err
	}
	if row.Counts.BCell, err = formInt("b_cell"); err != nil {
		return trial.SampleRow{}, err
	}
	if row.Counts.CD8TCell, err = formInt("cd8_t_cell"); err != nil {
		return trial.SampleRow{}, err
	}
	if row.Counts.CD4TCell, err = formInt("cd4_t_cell"); err != nil {
		return trial.SampleRow{}, err
	}
	if row.Counts.NKCell, err = formInt("nk_cell"); err != nil {
		return trial.SampleRow{}, err
	}
	if row.Counts.Monocyte, err = formInt("monocyte"); err != nil {
		return trial.SampleRow{}, err
	}
	return row, nil
}
