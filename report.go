package txt2voc

import (
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Summary describes a conversion run.
type Summary struct {
	RunID     string        `json:"run_id"`
	Dataset   string        `json:"dataset"`
	OutputDir string        `json:"output_dir"`
	Files     int           `json:"files"`   // Number of XML files written.
	Objects   int           `json:"objects"` // Number of objects in the written files.
	Started   time.Time     `json:"started"`
	Duration  time.Duration `json:"duration_ns"`
	Error     string        `json:"error,omitempty"`
}

// WriteReport writes the summary as JSON to path.
func WriteReport(path string, s Summary) error {
	enc, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(enc, '\n'), 0644); err != nil {
		return fmt.Errorf("cannot write file %q: %w", path, err)
	}
	return nil
}

// ReadReport reads a summary written by WriteReport.
func ReadReport(path string) (Summary, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, err
	}

	var s Summary
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(enc, &s); err != nil {
		return Summary{}, fmt.Errorf("failed to parse report %q: %w", path, err)
	}
	return s, nil
}
