// Package storage keeps finished runs on disk: one directory per run id
// holding the contract, trace, report and a CSV of the sampled frames.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/phystrace/internal/acceptance"
	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/trace"
)

const (
	metadataFile = "metadata.json"
	contractFile = "contract.yaml"
	traceFile    = "trace.json"
	reportFile   = "report.json"
	framesFile   = "frames.csv"
)

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
	ID          string             `json:"id"`
	Contract    string             `json:"contract"`
	Timestamp   time.Time          `json:"timestamp"`
	Integrator  string             `json:"integrator"`
	TEnd        float64            `json:"t_end"`
	Status      trace.Status       `json:"status"`
	Fingerprint string             `json:"fingerprint"`
	Frames      int                `json:"frames"`
	Events      int                `json:"events"`
	OK          bool               `json:"ok"`
	Score       acceptance.Score   `json:"score"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes a run under a fresh id and returns the id. rep may be nil
// when the run was not evaluated.
func (s *Store) Save(c *contract.Contract, tr *trace.Trace, rep *acceptance.Report) (string, error) {
	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Contract:    c.Name,
		Timestamp:   time.Now(),
		Integrator:  c.Simulation.Integrator,
		TEnd:        c.Simulation.TEnd,
		Status:      tr.Status,
		Fingerprint: fmt.Sprintf("%016x", tr.Fingerprint()),
		Frames:      len(tr.Frames),
		Events:      len(tr.Events),
		Metrics:     tr.Metrics,
	}
	if rep != nil {
		meta.OK, meta.Score = rep.OK, rep.Score
	}

	if err := writeRun(runDir, meta, c, tr, rep); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

func writeRun(runDir string, meta RunMetadata, c *contract.Contract, tr *trace.Trace, rep *acceptance.Report) error {
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return err
	}
	if err := contract.Save(c, filepath.Join(runDir, contractFile)); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(runDir, traceFile), tr); err != nil {
		return err
	}
	if rep != nil {
		if err := writeJSON(filepath.Join(runDir, reportFile), rep); err != nil {
			return err
		}
	}
	return writeFrames(filepath.Join(runDir, framesFile), tr)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeFrames(path string, tr *trace.Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"time", "phase"}
	for _, id := range tr.BodyIDs {
		header = append(header, id+".x", id+".y", id+".angle", id+".vx", id+".vy", id+".omega")
	}
	header = append(header, "energy", "dissipated", "impact_loss")
	if err := w.Write(header); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, fr := range tr.Frames {
		row := []string{format(fr.Time), fr.Phase}
		for i := range tr.BodyIDs {
			q, v := fr.Q[3*i:3*i+3], fr.V[3*i:3*i+3]
			row = append(row, format(q[0]), format(q[1]), format(q[2]), format(v[0]), format(v[1]), format(v[2]))
		}
		row = append(row, format(fr.Energy), format(fr.Dissipated), format(fr.ImpactLoss))
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every stored run, newest first.
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
		var meta RunMetadata
		if err := readJSON(filepath.Join(s.baseDir, entry.Name(), metadataFile), &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	var meta RunMetadata
	if err := readJSON(filepath.Join(s.baseDir, runID, metadataFile), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTrace(runID string) (*trace.Trace, error) {
	var tr trace.Trace
	if err := readJSON(filepath.Join(s.baseDir, runID, traceFile), &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

func (s *Store) LoadReport(runID string) (*acceptance.Report, error) {
	var rep acceptance.Report
	if err := readJSON(filepath.Join(s.baseDir, runID, reportFile), &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// LoadContract returns the stored contract. It is the validated form, but
// not sealed: callers re-run validation before simulating it again.
func (s *Store) LoadContract(runID string) (*contract.Contract, error) {
	return contract.Load(filepath.Join(s.baseDir, runID, contractFile))
}

// LoadFrames reads the frame CSV back as a header and numeric columns. The
// phase column is returned separately.
func (s *Store) LoadFrames(runID string) (header []string, rows [][]float64, phases []string, err error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil, fmt.Errorf("storage: %s has no header", framesFile)
	}

	for i, name := range records[0] {
		if i != 1 {
			header = append(header, name)
		}
	}
	for _, record := range records[1:] {
		row := make([]float64, 0, len(record)-1)
		for j, field := range record {
			if j == 1 {
				phases = append(phases, field)
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("storage: %s: %w", framesFile, err)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return header, rows, phases, nil
}
