package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/forecast"
)

// Demand exports carry one observation per row. The header decides the
// column layout; season and outbreak columns are optional.
var requiredColumns = []string{"blood_type", "region", "date", "units"}

var dateLayouts = []string{
	time.DateOnly,
	"2006-01-02 15:04:05",
	time.RFC3339,
}

type columnIndex map[string]int

func headerIndex(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return idx
}

func (ci columnIndex) validate() error {
	for _, col := range requiredColumns {
		if _, ok := ci[col]; !ok {
			return fmt.Errorf("missing required column: %s", col)
		}
	}
	return nil
}

func (ci columnIndex) value(row []string, col string) string {
	if i, ok := ci[col]; ok && i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func parseObservedOn(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// record maps one data row onto a demand record. The line number is the
// 1-based position in the file, header included, so errors point at the
// row a hospital admin would see in their spreadsheet.
func (ci columnIndex) record(row []string, line int) (domain.DemandRecord, error) {
	bloodType := ci.value(row, "blood_type")
	if !domain.IsValidBloodType(bloodType) {
		return domain.DemandRecord{}, fmt.Errorf("line %d: unknown blood type %q", line, bloodType)
	}

	region := ci.value(row, "region")
	if region == "" {
		return domain.DemandRecord{}, fmt.Errorf("line %d: region is required", line)
	}

	observedOn, err := parseObservedOn(ci.value(row, "date"))
	if err != nil {
		return domain.DemandRecord{}, fmt.Errorf("line %d: %w", line, err)
	}

	rawUnits := ci.value(row, "units")
	// Spreadsheet exports often render integers as "12.0"
	unitsFloat, err := strconv.ParseFloat(rawUnits, 64)
	if err != nil {
		return domain.DemandRecord{}, fmt.Errorf("line %d: invalid units %q", line, rawUnits)
	}
	units := int(unitsFloat)
	if units < 0 {
		return domain.DemandRecord{}, fmt.Errorf("line %d: units must not be negative", line)
	}

	season := ci.value(row, "season")
	if season == "" {
		season = forecast.SeasonOf(observedOn).String()
	}

	rawOutbreak := ci.value(row, "disease_outbreak")
	if rawOutbreak == "" {
		rawOutbreak = ci.value(row, "outbreak")
	}
	outbreak := rawOutbreak == "1" || strings.EqualFold(rawOutbreak, "true")

	return domain.DemandRecord{
		BloodType:       bloodType,
		Region:          region,
		ObservedOn:      observedOn,
		Units:           units,
		Season:          season,
		DiseaseOutbreak: outbreak,
	}, nil
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ParseCSV reads a demand export with a header row and returns the
// parsed records. A malformed row fails the whole file so a partial
// month can never be loaded.
func ParseCSV(r io.Reader) ([]domain.DemandRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idx := headerIndex(header)
	if err := idx.validate(); err != nil {
		return nil, err
	}

	var records []domain.DemandRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		line++

		if emptyRow(row) {
			continue
		}

		record, err := idx.record(row, line)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// ParseRows maps pre-split rows (the XLSX path) the same way ParseCSV
// maps CSV lines.
func ParseRows(header []string, rows [][]string) ([]domain.DemandRecord, error) {
	idx := headerIndex(header)
	if err := idx.validate(); err != nil {
		return nil, err
	}

	var records []domain.DemandRecord
	for i, row := range rows {
		if emptyRow(row) {
			continue
		}

		record, err := idx.record(row, i+2)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}
