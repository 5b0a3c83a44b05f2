package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"simeval/adapters/events"
	"simeval/domain/core"
	"simeval/domain/event"
	"simeval/domain/report"
	"simeval/internal/errors"
	"simeval/internal/evaluation"
	"simeval/internal/logging"
	"simeval/internal/registry"
	"simeval/internal/serialize"
	"simeval/ports"
)

// SourceOptions configure the data sources built from both event files.
type SourceOptions struct {
	InterestedUsers   []string
	InterestedRepos   []string
	CommunitiesFile   string
	UserLocationsFile string
	TETopN            int
}

// EvaluationRequest describes one evaluation of a simulation against ground
// truth.
type EvaluationRequest struct {
	GroundTruthFile string
	SimulationFile  string
	// OutputFile receives the JSON report; empty skips writing.
	OutputFile string
	Filter     registry.Filter
	// MeasurementID runs a single measurement instead of a batch.
	MeasurementID string
}

// EvaluationResult is the outcome of Evaluate.
type EvaluationResult struct {
	RunID  core.RunID
	Report *report.BatchReport
	JSON   []byte
	Stored bool
}

// EvaluationService loads event streams, runs the engine and exports the
// report.
type EvaluationService struct {
	engine  *evaluation.Engine
	reports ports.ReportRepository
	sources SourceOptions
	clock   core.Clock
	log     *slog.Logger
}

// NewEvaluationService creates an evaluation service. reports may be nil,
// in which case reports are only written to files.
func NewEvaluationService(engine *evaluation.Engine, reports ports.ReportRepository, sources SourceOptions) *EvaluationService {
	return &EvaluationService{
		engine:  engine,
		reports: reports,
		sources: sources,
		clock:   time.Now,
		log:     logging.New("app"),
	}
}

// Engine returns the engine the service runs.
func (s *EvaluationService) Engine() *evaluation.Engine {
	return s.engine
}

// Evaluate runs req end to end: load, evaluate, serialise, write, persist.
func (s *EvaluationService) Evaluate(ctx context.Context, req EvaluationRequest) (*EvaluationResult, error) {
	if req.GroundTruthFile == "" || req.SimulationFile == "" {
		return nil, errors.InvalidInput("ground truth and simulation files are required")
	}

	groundTruth, simulation, err := s.LoadSources(ctx, req.GroundTruthFile, req.SimulationFile)
	if err != nil {
		return nil, err
	}

	var batch *report.BatchReport
	if req.MeasurementID != "" {
		batch, err = s.runSingle(ctx, groundTruth, simulation, req.MeasurementID)
	} else {
		batch, err = s.engine.RunAll(ctx, groundTruth, simulation, req.Filter)
	}
	if err != nil {
		return nil, err
	}

	data, err := serialize.Marshal(batch.Tree())
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode report")
	}
	result := &EvaluationResult{RunID: batch.RunID, Report: batch, JSON: data}

	if req.OutputFile != "" {
		if err := writeReport(req.OutputFile, data); err != nil {
			return nil, err
		}
		s.log.Info("report written", "path", req.OutputFile, "run_id", batch.RunID.String())
	}

	if s.reports != nil {
		stored := &ports.StoredReport{
			RunID:            batch.RunID,
			CreatedAt:        s.clock().UTC(),
			MeasurementCount: len(batch.Entries),
			FailureCount:     len(batch.Failures()),
			Report:           data,
		}
		if err := s.reports.Save(ctx, stored); err != nil {
			return nil, err
		}
		result.Stored = true
	}
	return result, nil
}

// LoadSources reads both event files concurrently and wraps each in a
// Measurements source configured from the service's source options.
func (s *EvaluationService) LoadSources(ctx context.Context, groundTruthFile, simulationFile string) (*events.Measurements, *events.Measurements, error) {
	opts, err := s.sourceOptions()
	if err != nil {
		return nil, nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var gtEvents, simEvents []event.Event
	var g errgroup.Group
	g.Go(func() error {
		loaded, err := s.load("ground truth", groundTruthFile)
		gtEvents = loaded
		return err
	})
	g.Go(func() error {
		loaded, err := s.load("simulation", simulationFile)
		simEvents = loaded
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return events.NewMeasurements(gtEvents, opts...), events.NewMeasurements(simEvents, opts...), nil
}

func (s *EvaluationService) load(side, path string) ([]event.Event, error) {
	sw := core.StartStopwatch(s.clock)
	loaded, err := events.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s events", side)
	}
	s.log.Info("events loaded",
		"side", side,
		"path", path,
		"events", len(loaded),
		"eta", core.FormatElapsed(sw.Elapsed()))
	return loaded, nil
}

func (s *EvaluationService) sourceOptions() ([]events.Option, error) {
	opts := []events.Option{
		events.WithInterestedUsers(s.sources.InterestedUsers...),
		events.WithInterestedRepos(s.sources.InterestedRepos...),
		events.WithTopN(s.sources.TETopN),
	}
	if s.sources.CommunitiesFile != "" {
		communities, err := events.LoadCommunities(s.sources.CommunitiesFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, events.WithCommunities(communities))
	}
	if s.sources.UserLocationsFile != "" {
		locations, err := events.LoadUserLocations(s.sources.UserLocationsFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, events.WithUserLocations(locations))
	}
	return opts, nil
}

// runSingle evaluates one measurement and shapes it as a one-entry batch.
func (s *EvaluationService) runSingle(ctx context.Context, groundTruth, simulation ports.DataSource, id string) (*report.BatchReport, error) {
	spec, err := s.engine.Registry().Lookup(id)
	if err != nil {
		return nil, err
	}
	sw := core.StartStopwatch(s.clock)
	outcome, err := s.engine.RunMeasurement(ctx, groundTruth, simulation, id)
	if err != nil {
		return nil, errors.Wrapf(err, "measurement %s", id)
	}
	return &report.BatchReport{
		RunID: core.NewRunID(),
		Entries: []report.Entry{{
			ID:       id,
			Report:   outcome.Report,
			Metadata: spec.Metadata(),
		}},
		Elapsed: sw.Elapsed(),
	}, nil
}

func writeReport(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create output directory")
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	return nil
}
