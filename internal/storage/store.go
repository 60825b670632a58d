// Package storage persists simulation runs as per-run directories holding
// metadata.json and trajectory.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ecotools/fragsim/internal/sim"
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
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Classes    int                `json:"classes"`
	Diameters  []float64          `json:"diameters"`
	Unit       string             `json:"unit"`
	Integrator string             `json:"integrator"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Theta1     float64            `json:"theta1"`
	FragAvg    float64            `json:"k_frag_avg"`
	DissAvg    float64            `json:"k_diss_avg"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes one run. The trajectory columns are time, one concentration
// column per class (coarsest first) and the cumulative dissolved mass.
func (s *Store) Save(meta RunMetadata, tr *sim.Trajectory) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Classes = tr.Classes()
	meta.Metrics = tr.Metrics()

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "trajectory.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := []string{"time"}
	for k := 0; k < tr.Classes(); k++ {
		header = append(header, fmt.Sprintf("class_%d", k))
	}
	header = append(header, "dissolved")
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := 0; i < tr.Len(); i++ {
		row := []string{strconv.FormatFloat(tr.Time(i), 'g', -1, 64)}
		for k := 0; k < tr.Classes(); k++ {
			row = append(row, strconv.FormatFloat(tr.Concentration(i, k), 'g', -1, 64))
		}
		row = append(row, strconv.FormatFloat(tr.DissolvedAt(i), 'g', -1, 64))
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

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
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSeries reads a stored trajectory back as times, per-step class
// concentrations and the dissolved series.
func (s *Store) LoadSeries(runID string) ([]float64, [][]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trajectory.csv"))
	if err != nil {
		return nil, nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(records) < 2 {
		return []float64{}, [][]float64{}, []float64{}, nil
	}

	n := len(records) - 1
	times := make([]float64, 0, n)
	conc := make([][]float64, 0, n)
	dissolved := make([]float64, 0, n)

	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("bad time value %q: %w", record[0], err)
		}
		row := make([]float64, 0, len(record)-2)
		for _, field := range record[1 : len(record)-1] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("bad concentration %q: %w", field, err)
			}
			row = append(row, v)
		}
		d, err := strconv.ParseFloat(record[len(record)-1], 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("bad dissolved value %q: %w", record[len(record)-1], err)
		}

		times = append(times, t)
		conc = append(conc, row)
		dissolved = append(dissolved, d)
	}

	return times, conc, dissolved, nil
}
