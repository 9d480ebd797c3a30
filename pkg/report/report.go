// Package report persists analysis results: JSON run records for diagnostics
// and a plain-text report for the user.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/quaylabs/marketscout/pkg/strategy"
)

// RunRecord captures run-level metadata.
type RunRecord struct {
	ID        string              `json:"id"`
	Timestamp time.Time           `json:"timestamp"`
	Product   string              `json:"product"`
	Result    *strategy.RunResult `json:"result"`
}

// Writer writes run records and reports under baseDir/<runID>.
type Writer struct {
	baseDir string
	runDir  string
	runID   string
}

// NewWriter creates a report writer with a fresh run ID.
func NewWriter(baseDir string) (*Writer, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	runID := fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}

	return &Writer{baseDir: baseDir, runDir: runDir, runID: runID}, nil
}

// RunDir returns the run directory path.
func (w *Writer) RunDir() string {
	return w.runDir
}

// RunID returns the run identifier.
func (w *Writer) RunID() string {
	return w.runID
}

// WriteRun writes the run record to run.json.
func (w *Writer) WriteRun(product string, result *strategy.RunResult) error {
	record := RunRecord{
		ID:        w.runID,
		Timestamp: time.Now().UTC(),
		Product:   product,
		Result:    result,
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.runDir, "run.json"), data, 0644)
}

// WriteReport writes the user-facing analysis report and returns its path.
func (w *Writer) WriteReport(product string, result *strategy.RunResult) (string, error) {
	path := filepath.Join(w.runDir, ReportFilename(product))
	return path, os.WriteFile(path, []byte(Format(product, result)), 0644)
}

// ReportFilename derives a filesystem-safe report name from a product name.
func ReportFilename(product string) string {
	var sb strings.Builder
	for _, r := range product {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(unicode.ToLower(r))
		case r == ' ' || r == '-' || r == '_':
			sb.WriteRune('_')
		}
	}
	name := strings.Trim(sb.String(), "_")
	if name == "" {
		name = "product"
	}
	return name + "_analysis.txt"
}

// Format renders the run result as a plain-text report.
func Format(product string, result *strategy.RunResult) string {
	var sb strings.Builder
	line := strings.Repeat("=", 60)

	fmt.Fprintf(&sb, "Business Analysis Report for: %s\n%s\n\n", product, line)
	fmt.Fprintf(&sb, "Generated on: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	if result.Strategy != "" {
		fmt.Fprintf(&sb, "Strategy: %s\n", result.Strategy)
	}
	fmt.Fprintf(&sb, "%s\n\n", line)

	if result.Outcome == strategy.Completed {
		sb.WriteString(result.Output)
		sb.WriteString("\n")
	} else {
		sb.WriteString("Analysis could not be completed.\n\n")
		for _, attempt := range result.Trail {
			fmt.Fprintf(&sb, "- %s (%s): %s\n", attempt.Strategy, attempt.Kind, attempt.Error)
		}
	}
	return sb.String()
}
