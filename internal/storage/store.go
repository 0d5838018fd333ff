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
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/world"
)

const (
	metadataFile = "metadata.json"
	posesFile    = "poses.csv"
	sceneFile    = "scene.yaml"
)

var ErrRunNotFound = errors.New("run not found")

var poseHeader = []string{"tick", "time", "entity", "x", "y", "z", "qx", "qy", "qz", "qw"}

type Store struct {
	baseDir string
	newID   func(scene string, now time.Time) string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, newID: defaultRunID}
}

func defaultRunID(scene string, now time.Time) string {
	return fmt.Sprintf("%s_%d_%s", scene, now.Unix(), uuid.NewString()[:8])
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scene     string             `json:"scene"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Timestep  float64            `json:"timestep"`
	Substeps  int                `json:"substeps"`
	Ticks     int                `json:"ticks"`
	Time      float64            `json:"time"`
	Entities  int                `json:"entities"`
	Metrics   map[string]float64 `json:"metrics"`
	Errors    []string           `json:"errors,omitempty"`
}

// Run is what a finished simulation hands to Save.
type Run struct {
	Config  *config.Config
	Ticks   int
	Time    float64
	Frames  []world.Frame
	Metrics map[string]float64
	Errors  []error
}

// Save writes metadata.json, poses.csv and the scene configuration into a
// new run directory and returns the run id. A failed save removes the
// directory again.
func (s *Store) Save(run Run) (string, error) {
	if run.Config == nil {
		return "", fmt.Errorf("storage: run has no config")
	}
	now := time.Now()
	runID := s.newID(run.Config.Scene, now)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeRun(runDir, runID, now, run); err != nil {
		if rerr := os.RemoveAll(runDir); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return "", fmt.Errorf("storage: save %s: %w", runID, err)
	}
	return runID, nil
}

func writeRun(runDir, runID string, now time.Time, run Run) error {
	meta := RunMetadata{
		ID:        runID,
		Scene:     run.Config.Scene,
		Timestamp: now,
		Seed:      run.Config.Seed,
		Timestep:  run.Config.Timestep,
		Substeps:  run.Config.Substeps,
		Ticks:     run.Ticks,
		Time:      run.Time,
		Metrics:   run.Metrics,
	}
	if len(run.Frames) > 0 {
		meta.Entities = len(run.Frames[len(run.Frames)-1].Entities)
	}
	for _, err := range run.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return err
	}
	if err := config.Save(filepath.Join(runDir, sceneFile), run.Config); err != nil {
		return err
	}
	return writeFile(filepath.Join(runDir, posesFile), func(f *os.File) error {
		return WritePoses(f, run.Frames)
	})
}

// writeFile creates path and reports the close error when write succeeded.
func writeFile(path string, write func(f *os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

func writeJSON(path string, v any) error {
	return writeFile(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// List returns every readable run, newest first.
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
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadConfig reads back the scene a run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, sceneFile))
}

// PosesPath is where a run's pose table lives.
func (s *Store) PosesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, posesFile)
}

// LoadPoses rebuilds frames from poses.csv. Only names and poses survive
// the round trip.
func (s *Store) LoadPoses(runID string) ([]world.Frame, error) {
	file, err := os.Open(s.PosesPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(poseHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []world.Frame{}, nil
	}

	frames := make([]world.Frame, 0)
	for _, record := range records[1:] {
		tick, err := strconv.Atoi(record[0])
		if err != nil {
			continue
		}
		fields := make([]string, 0, 8)
		fields = append(fields, record[1])
		fields = append(fields, record[3:]...)
		vals := make([]float64, 0, 8)
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				break
			}
			vals = append(vals, v)
		}
		if len(vals) != 8 {
			continue
		}

		if len(frames) == 0 || frames[len(frames)-1].Tick != tick {
			frames = append(frames, world.Frame{Tick: tick, Time: vals[0]})
		}
		f := &frames[len(frames)-1]
		f.Entities = append(f.Entities, world.Pose{
			Name:       record[2],
			Position:   [3]float64{vals[1], vals[2], vals[3]},
			Quaternion: [4]float64{vals[4], vals[5], vals[6], vals[7]},
		})
	}
	return frames, nil
}
