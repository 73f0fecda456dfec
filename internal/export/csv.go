package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"aquatrack/internal/models"
)

// TimestampLayout is the fixed textual timestamp format of the exported
// files; the dashboard parses it back with the same layout.
const TimestampLayout = "2006-01-02 15:04:05"

// Header is the column contract with the dashboard. One row per sample,
// one column per field, scenario identified per row.
var Header = []string{
	"timestamp",
	"scenario",
	"inlet_flow_lph",
	"post_treatment_flow_lph",
	"rinse_flow_lph",
	"cip_flow_lph",
	"production_lph",
	"conductivity_uS_cm",
	"turbidity_NTU",
	"temperature_C",
	"cip_active",
	"shift",
	"line_status",
	"wur",
}

// FilePath returns the dataset file for a scenario, e.g. data/baseline.csv.
func FilePath(dir string, scenario models.Scenario) string {
	return filepath.Join(dir, string(scenario)+".csv")
}

// WriteCSV exports a sample sequence. The file is fully written or the
// call fails; flows are rounded to 2 decimals, temperature to 1 and WUR to
// 3, matching the precision the dashboard expects. An undefined WUR is
// exported as an empty cell, never as 0.
func WriteCSV(path string, samples []models.ProcessSample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range samples {
		if err := w.Write(record(&samples[i])); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return f.Close()
}

func record(s *models.ProcessSample) []string {
	cipActive := "0"
	if s.CIPActive {
		cipActive = "1"
	}

	wur := ""
	if s.WUR != nil {
		wur = strconv.FormatFloat(*s.WUR, 'f', 3, 64)
	}

	return []string{
		s.Timestamp.Format(TimestampLayout),
		string(s.Scenario),
		strconv.FormatFloat(s.InletFlow, 'f', 2, 64),
		strconv.FormatFloat(s.PostTreatmentFlow, 'f', 2, 64),
		strconv.FormatFloat(s.RinseFlow, 'f', 2, 64),
		strconv.FormatFloat(s.CIPFlow, 'f', 2, 64),
		strconv.FormatFloat(s.Production, 'f', 2, 64),
		strconv.FormatFloat(s.Conductivity, 'f', 2, 64),
		strconv.FormatFloat(s.Turbidity, 'f', 2, 64),
		strconv.FormatFloat(s.Temperature, 'f', 1, 64),
		cipActive,
		s.Shift,
		s.LineStatus,
		wur,
	}
}

// ReadCSV loads a dataset file back into memory, resolving columns by
// header name so column order does not matter.
func ReadCSV(path string) ([]models.ProcessSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range Header {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, name)
		}
	}

	var samples []models.ProcessSample
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		line++

		s, err := parseRecord(rec, col)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		samples = append(samples, s)
	}

	return samples, nil
}

func parseRecord(rec []string, col map[string]int) (models.ProcessSample, error) {
	var s models.ProcessSample
	var err error

	s.Timestamp, err = time.Parse(TimestampLayout, rec[col["timestamp"]])
	if err != nil {
		return s, fmt.Errorf("invalid timestamp %q: %w", rec[col["timestamp"]], err)
	}
	s.Scenario = models.Scenario(rec[col["scenario"]])

	floats := []struct {
		name string
		dst  *float64
	}{
		{"inlet_flow_lph", &s.InletFlow},
		{"post_treatment_flow_lph", &s.PostTreatmentFlow},
		{"rinse_flow_lph", &s.RinseFlow},
		{"cip_flow_lph", &s.CIPFlow},
		{"production_lph", &s.Production},
		{"conductivity_uS_cm", &s.Conductivity},
		{"turbidity_NTU", &s.Turbidity},
		{"temperature_C", &s.Temperature},
	}
	for _, f := range floats {
		*f.dst, err = strconv.ParseFloat(rec[col[f.name]], 64)
		if err != nil {
			return s, fmt.Errorf("invalid %s %q: %w", f.name, rec[col[f.name]], err)
		}
	}

	s.CIPActive = rec[col["cip_active"]] == "1"
	s.Shift = rec[col["shift"]]
	s.LineStatus = rec[col["line_status"]]

	if raw := rec[col["wur"]]; raw != "" {
		wur, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return s, fmt.Errorf("invalid wur %q: %w", raw, err)
		}
		s.WUR = &wur
	}

	return s, nil
}
