package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/rigidlab/internal/world"
)

type ExportData struct {
	Metadata RunMetadata   `json:"metadata"`
	Frames   []world.Frame `json:"frames"`
}

// ExportJSON writes a run's metadata and frames as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, err := s.LoadPoses(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Metadata: *meta, Frames: frames})
}

// ExportCSV copies a run's pose table to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	frames, err := s.LoadPoses(runID)
	if err != nil {
		return err
	}
	return WritePoses(w, frames)
}

// WritePoses writes one row per entity per frame.
func WritePoses(w io.Writer, frames []world.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(poseHeader); err != nil {
		return err
	}

	for _, f := range frames {
		tick := strconv.Itoa(f.Tick)
		t := formatFloat(f.Time)
		for _, p := range f.Entities {
			row := []string{
				tick, t, p.Name,
				formatFloat(p.Position[0]), formatFloat(p.Position[1]), formatFloat(p.Position[2]),
				formatFloat(p.Quaternion[0]), formatFloat(p.Quaternion[1]),
				formatFloat(p.Quaternion[2]), formatFloat(p.Quaternion[3]),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// Trajectory extracts one coordinate (0=x, 1=y, 2=z) of a named entity.
func Trajectory(frames []world.Frame, entity string, axis int) (times, values []float64) {
	if axis < 0 || axis > 2 {
		return nil, nil
	}
	for _, f := range frames {
		for _, p := range f.Entities {
			if p.Name == entity {
				times = append(times, f.Time)
				values = append(values, p.Position[axis])
				break
			}
		}
	}
	return times, values
}

// EntityNames lists the entities of the last frame in order. Entities are
// never removed, so the last frame names all of them.
func EntityNames(frames []world.Frame) []string {
	if len(frames) == 0 {
		return nil
	}
	last := frames[len(frames)-1]
	names := make([]string, 0, len(last.Entities))
	for _, p := range last.Entities {
		names = append(names, p.Name)
	}
	return names
}
