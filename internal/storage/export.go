package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/dynvec/internal/scenario"
)

type ExportData struct {
	Script     string             `json:"script"`
	Policy     string             `json:"policy"`
	Steps      []scenario.Step    `json:"steps"`
	Final      []int              `json:"final"`
	OK         bool               `json:"ok"`
	Violations []string           `json:"violations"`
	Metrics    map[string]float64 `json:"metrics"`
}

// ExportJSON writes a stored run, metadata and trace together, as indented
// JSON.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	steps, err := s.LoadTrace(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Script:     meta.Script,
		Policy:     meta.Policy,
		Steps:      steps,
		Final:      meta.Final,
		OK:         meta.OK,
		Violations: meta.Violations,
		Metrics:    meta.Metrics,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
