package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/luke-benham/Cytometry/domain/trial"
	"github.com/luke-benham/Cytometry/internal/errors"
)

// columns are the required headers of a cell-count source file. Column order
// in the file is free; lookup is by header name.
var columns = []string{
	"sample", "subject", "project", "age", "sex", "condition",
	"treatment", "response", "sample_type", "time_from_treatment_start",
	"b_cell", "cd8_t_cell", "cd4_t_cell", "nk_cell", "monocyte",
}

// Reader reads cell-count source files in CSV or Excel format.
type Reader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewReader creates a reader dispatching on the file extension.
func NewReader(filePath string) *Reader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &Reader{filePath: filePath, fileType: fileType}
}

// ReadRows parses the source file into denormalized sample rows.
func (r *Reader) ReadRows() ([]trial.SampleRow, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.IngestFailed(fmt.Sprintf("source file not found: %s", r.filePath), nil)
	}

	var raw [][]string
	var err error
	switch r.fileType {
	case "csv":
		raw, err = r.readCSV()
	default:
		raw, err = r.readExcel()
	}
	if err != nil {
		return nil, err
	}

	if len(raw) < 2 {
		return nil, errors.IngestFailed("source file must have a header row and at least one data row", nil)
	}
	return r.processRows(raw)
}

func (r *Reader) readCSV() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.IngestFailed("failed to open CSV file", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.IngestFailed("failed to read CSV file", err)
	}
	return rows, nil
}

func (r *Reader) readExcel() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.IngestFailed("failed to open Excel file", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, errors.IngestFailed("failed to read Sheet1", err)
	}
	return rows, nil
}

func (r *Reader) processRows(raw [][]string) ([]trial.SampleRow, error) {
	index := make(map[string]int, len(raw[0]))
	for i, header := range raw[0] {
		index[strings.TrimSpace(header)] = i
	}
	for _, col := range columns {
		if _, ok := index[col]; !ok {
			return nil, errors.IngestFailed(fmt.Sprintf("missing required column %q", col), nil)
		}
	}

	rows := make([]trial.SampleRow, 0, len(raw)-1)
	for n, record := range raw[1:] {
		row, err := parseRow(record, index)
		if err != nil {
			return nil, errors.IngestFailed(fmt.Sprintf("row %d", n+2), err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(record []string, index map[string]int) (trial.SampleRow, error) {
	field := func(name string) string {
		i := index[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	intField := func(name string) (int, error) {
		raw := field(name)
		if raw == "" {
			return 0, nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("column %q: %w", name, err)
		}
		if v < 0 {
			return 0, fmt.Errorf("column %q: negative value %d", name, v)
		}
		return v, nil
	}

	row := trial.SampleRow{
		SampleID:   field("sample"),
		SubjectID:  field("subject"),
		Project:    field("project"),
		Sex:        field("sex"),
		Condition:  field("condition"),
		Treatment:  field("treatment"),
		Response:   field("response"),
		SampleType: field("sample_type"),
	}
	if row.SampleID == "" || row.SubjectID == "" {
		return trial.SampleRow{}, fmt.Errorf("sample and subject identifiers are required")
	}

	var err error
	if row.Age, err = intField("age"); err != nil {
		return trial.SampleRow{}, err
	}
	if row.TimeFromTreatmentStart, err = intField("time_from_treatment_start"); err != nil {
		return trial.SampleRow{}, err
	}
	if row.Counts.BCell, err = intField("b_cell"); err != nil {
		return trial.SampleRow{}, err
	}
	if row.Counts.CD8TCell, err = intField("cd8_t_cell"); err != nil {
		return trial.SampleRow{}, err
	}
	if row.Counts.CD4TCell, err = intField("cd4_t_cell"); err != nil {
		return trial.SampleRow{}, err
	}
	if row.Counts.NKCell, err = intField("nk_cell"); err != nil {
		return trial.SampleRow{}, err
	}
	if row.Counts.Monocyte, err = intField("monocyte"); err != nil {
		return trial.SampleRow{}, err
	}
	return row, nil
}
