package validation

import (
	"encoding/json"
	"os"
)

// ExportReportJSON serializes a Report to JSON with indentation.
func ExportReportJSON(report *Report) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// ExportReportJSONCompact serializes a Report to JSON without indentation.
func ExportReportJSONCompact(report *Report) ([]byte, error) {
	return json.Marshal(report)
}

// SaveReportToFile exports a Report to a JSON file with indentation.
// The file is created with 0644 permissions (readable by all, writable by owner).
func SaveReportToFile(report *Report, filepath string) error {
	data, err := ExportReportJSON(report)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, data, 0644)
}

// SaveReportCompactToFile exports a Report to a compact JSON file.
// The file is created with 0644 permissions (readable by all, writable by owner).
func SaveReportCompactToFile(report *Report, filepath string) error {
	data, err := ExportReportJSONCompact(report)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, data, 0644)
}

// LoadReportFromFile loads a Report from a JSON file.
func LoadReportFromFile(filepath string) (*Report, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}

	return &report, nil
}
