package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/dynvec/internal/scenario"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
)

// ErrInvalidRunID is returned for run ids that would leave the data
// directory.
var ErrInvalidRunID = errors.New("storage: invalid run id")

var traceHeader = []string{"step", "op", "len", "cap", "reallocated", "intact", "error", "values"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Script     string             `json:"script"`
	Policy     string             `json:"policy"`
	Timestamp  time.Time          `json:"timestamp"`
	Steps      int                `json:"steps"`
	Final      []int              `json:"final"`
	OK         bool               `json:"ok"`
	Violations []string           `json:"violations,omitempty"`
	Elapsed    time.Duration      `json:"elapsed"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes the run's metadata and step trace under a fresh run id.
func (s *Store) Save(result *scenario.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", sanitize(result.Script), now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Script:     result.Script,
		Policy:     result.Policy,
		Timestamp:  now,
		Steps:      len(result.Steps),
		Final:      result.Final,
		OK:         result.OK(),
		Violations: result.Violations,
		Elapsed:    result.Elapsed,
		Metrics:    result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, traceFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(traceHeader); err != nil {
		return "", err
	}
	for _, st := range result.Steps {
		if err := w.Write(traceRow(st)); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

// sanitize maps a script name onto characters safe in a directory name.
func sanitize(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if clean == "" {
		return "run"
	}
	return clean
}

func checkID(runID string) error {
	if runID == "" || runID == "." || runID == ".." || strings.ContainsAny(runID, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	return nil
}

func traceRow(st scenario.Step) []string {
	vals := make([]string, len(st.Values))
	for i, v := range st.Values {
		vals[i] = strconv.Itoa(v)
	}
	return []string{
		strconv.Itoa(st.Index),
		st.Op,
		strconv.Itoa(st.Len),
		strconv.Itoa(st.Cap),
		strconv.FormatBool(st.Reallocated),
		strconv.FormatBool(st.Intact),
		st.Err,
		strings.Join(vals, " "),
	}
}

// List returns the metadata of every stored run, oldest first. Directories
// without readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	if err := checkID(runID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTrace reads back the steps written by Save.
func (s *Store) LoadTrace(runID string) ([]scenario.Step, error) {
	path, err := s.TracePath(runID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(traceHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []scenario.Step{}, nil
	}

	steps := make([]scenario.Step, 0, len(records)-1)
	for i, rec := range records[1:] {
		st, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", traceFile, i+2, err)
		}
		steps = append(steps, st)
	}
	return steps, nil
}

// TracePath is the location of a run's CSV trace.
func (s *Store) TracePath(runID string) (string, error) {
	if err := checkID(runID); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, runID, traceFile), nil
}

func parseRow(rec []string) (scenario.Step, error) {
	var (
		st  scenario.Step
		err error
	)
	if st.Index, err = strconv.Atoi(rec[0]); err != nil {
		return st, err
	}
	st.Op = rec[1]
	if st.Len, err = strconv.Atoi(rec[2]); err != nil {
		return st, err
	}
	if st.Cap, err = strconv.Atoi(rec[3]); err != nil {
		return st, err
	}
	if st.Reallocated, err = strconv.ParseBool(rec[4]); err != nil {
		return st, err
	}
	if st.Intact, err = strconv.ParseBool(rec[5]); err != nil {
		return st, err
	}
	st.Err = rec[6]

	st.Values = []int{}
	for _, f := range strings.Fields(rec[7]) {
		v, err := strconv.Atoi(f)
		if err != nil {
			return st, err
		}
		st.Values = append(st.Values, v)
	}
	return st, nil
}
