package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/pthm-cable/autopark/planner"
)

// csvFile is a CSV stream whose header is written with the first record.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func createCSV(dir, name string) (*csvFile, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvFile{f: f}, nil
}

func writeRecords[T any](c *csvFile, records []T) error {
	if len(records) == 0 {
		return nil
	}
	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager handles run output: CSV logs, the run summary and reports.
// A nil *OutputManager is valid and discards everything.
type OutputManager struct {
	dir   string
	runID string

	generations *csvFile
	trajectory  *csvFile
	ticks       *csvFile
	events      *csvFile
	perf        *csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir, runID: uuid.NewString()}
	files := []struct {
		dst  **csvFile
		name string
	}{
		{&om.generations, "generations.csv"},
		{&om.trajectory, "trajectory.csv"},
		{&om.ticks, "ticks.csv"},
		{&om.events, "events.csv"},
		{&om.perf, "perf.csv"},
	}
	for _, spec := range files {
		c, err := createCSV(dir, spec.name)
		if err != nil {
			om.Close()
			return nil, err
		}
		*spec.dst = c
	}
	return om, nil
}

// RunID identifies this run in every output file. It is empty when output
// is disabled.
func (om *OutputManager) RunID() string {
	if om == nil {
		return ""
	}
	return om.runID
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// YAMLWriter is a configuration that can snapshot itself.
type YAMLWriter interface {
	WriteYAML(path string) error
}

// WriteConfig saves the effective configuration as config.yaml.
func (om *OutputManager) WriteConfig(cfg YAMLWriter) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WritePlan writes the fitness history and the planned trajectory.
func (om *OutputManager) WritePlan(r *planner.Result) error {
	if om == nil || r == nil {
		return nil
	}
	if err := writeRecords(om.generations, GenerationRecords(om.runID, r)); err != nil {
		return fmt.Errorf("writing generations: %w", err)
	}
	if err := writeRecords(om.trajectory, TrajectoryRecords(om.runID, r)); err != nil {
		return fmt.Errorf("writing trajectory: %w", err)
	}
	return nil
}

// WriteTick writes one control tick to ticks.csv.
func (om *OutputManager) WriteTick(rec TickRecord) error {
	if om == nil {
		return nil
	}
	rec.RunID = om.runID
	if err := writeRecords(om.ticks, []TickRecord{rec}); err != nil {
		return fmt.Errorf("writing tick: %w", err)
	}
	return nil
}

// WriteEvent writes a run event to events.csv.
func (om *OutputManager) WriteEvent(e Event) error {
	if om == nil {
		return nil
	}
	e.RunID = om.runID
	if err := writeRecords(om.events, []Event{e}); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats) error {
	if om == nil {
		return nil
	}
	if err := writeRecords(om.perf, []PerfStatsCSV{stats.ToCSV(om.runID)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteRun saves the run summary as run.json, stamping the run id.
func (om *OutputManager) WriteRun(rs RunSummary) error {
	if om == nil {
		return nil
	}
	rs.RunID = om.runID
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "run.json"), data, 0644); err != nil {
		return fmt.Errorf("writing run.json: %w", err)
	}
	return nil
}

// WriteReports renders convergence.png and paths.png. The planned path
// defaults to the trajectory of r.
func (om *OutputManager) WriteReports(r *planner.Result, scene Scene) error {
	if om == nil {
		return nil
	}
	if r != nil && len(r.BestCost) > 0 {
		if err := ConvergencePlot(filepath.Join(om.dir, "convergence.png"), r); err != nil {
			return fmt.Errorf("convergence plot: %w", err)
		}
	}
	if r != nil && scene.Planned == nil {
		scene.Planned = r.Trajectory
	}
	if err := PathsPlot(filepath.Join(om.dir, "paths.png"), scene); err != nil {
		return fmt.Errorf("paths plot: %w", err)
	}
	return nil
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, c := range []*csvFile{om.generations, om.trajectory, om.ticks, om.events, om.perf} {
		if c == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
