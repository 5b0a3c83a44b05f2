package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"simeval/app"
	"simeval/domain/core"
	"simeval/domain/measurement"
	"simeval/domain/report"
	"simeval/internal/container"
	"simeval/internal/errors"
	"simeval/internal/evaluation"
	"simeval/internal/migration"
	"simeval/internal/registry"
)

type evaluateFlags struct {
	groundTruth string
	simulation  string
	output      string
	scale       string
	entityType  string
	measurement string
	timing      string
	onError     string
	workers     int
}

func (c *cli) newEvaluateCmd() *cobra.Command {
	var f evaluateFlags

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a simulation event file against a ground truth event file",
		Long: `Compute every selected measurement on both event files, compare the
results with the bound metrics and write the JSON report.

Event files are CSV (time,event,user,repo[,action]) or XLSX.

Example: simeval evaluate -g gt.csv -s sim.csv -o eval_output.json --scale node`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyEvaluateFlags(cmd, f)
			if c.cfg.Data.GroundTruthFile == "" || c.cfg.Data.SimulationFile == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Both a ground truth file and a simulation file are required.")
				return cmd.Usage()
			}
			return c.runEvaluate(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.groundTruth, "ground-truth", "g", "", "Ground truth event file (GROUND_TRUTH_FILE)")
	cmd.Flags().StringVarP(&f.simulation, "simulation", "s", "", "Simulation event file (SIMULATION_FILE)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output JSON report (OUTPUT_FILE, default eval_output.json)")
	cmd.Flags().StringVar(&f.scale, "scale", "", "Only run measurements of this scale: population, node, community or te")
	cmd.Flags().StringVar(&f.entityType, "entity-type", "", "Only run measurements of this entity type: user or repo")
	cmd.Flags().StringVar(&f.measurement, "measurement", "", "Run a single measurement by id")
	cmd.Flags().StringVar(&f.timing, "timing", "", "Timing mode: last or per_metric (TIMING_MODE)")
	cmd.Flags().StringVar(&f.onError, "on-error", "", "Failure policy: isolate or abort (FAILURE_POLICY)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Measurements evaluated concurrently (WORKERS)")

	return cmd
}

// applyEvaluateFlags lets explicitly set flags override configuration.
func (c *cli) applyEvaluateFlags(cmd *cobra.Command, f evaluateFlags) {
	flags := cmd.Flags()
	if flags.Changed("ground-truth") {
		c.cfg.Data.GroundTruthFile = f.groundTruth
	}
	if flags.Changed("simulation") {
		c.cfg.Data.SimulationFile = f.simulation
	}
	if flags.Changed("output") {
		c.cfg.Data.OutputFile = f.output
	}
}

func (c *cli) runEvaluate(cmd *cobra.Command, f evaluateFlags) error {
	flags := cmd.Flags()
	if flags.Changed("timing") {
		timing, err := report.ParseTimingMode(f.timing)
		if err != nil {
			return errors.WithCode(errors.CodeConfigInvalid, err)
		}
		c.cfg.Evaluation.Timing = timing
	}
	if flags.Changed("on-error") {
		policy, err := evaluation.ParseFailurePolicy(f.onError)
		if err != nil {
			return errors.WithCode(errors.CodeConfigInvalid, err)
		}
		c.cfg.Evaluation.Failure = policy
	}
	if flags.Changed("workers") {
		if f.workers < 1 {
			return errors.ConfigInvalid("--workers must be at least 1")
		}
		c.cfg.Evaluation.Workers = f.workers
	}
	filter, err := parseFilter(f.scale, f.entityType)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := container.New(c.cfg)
	if err != nil {
		return err
	}
	defer deps.Shutdown(context.Background())
	if err := deps.ConnectDatabase(ctx); err != nil {
		return err
	}

	result, err := deps.EvaluationService.Evaluate(ctx, app.EvaluationRequest{
		GroundTruthFile: c.cfg.Data.GroundTruthFile,
		SimulationFile:  c.cfg.Data.SimulationFile,
		OutputFile:      c.cfg.Data.OutputFile,
		Filter:          filter,
		MeasurementID:   f.measurement,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %d measurements, %d failed, eta %s\n",
		result.RunID, len(result.Report.Entries), len(result.Report.Failures()),
		core.FormatElapsed(result.Report.Elapsed))
	for _, e := range result.Report.Failures() {
		fmt.Fprintf(out, "  %s: %s %s\n", e.ID, e.Failure.Code, e.Failure.Message)
	}
	fmt.Fprintf(out, "Report written to %s\n", c.cfg.Data.OutputFile)
	if result.Stored {
		fmt.Fprintln(out, "Report stored in the database")
	}
	return nil
}

func (c *cli) newListCmd() *cobra.Command {
	var scale, entityType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the registered measurements",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilter(scale, entityType)
			if err != nil {
				return err
			}
			deps, err := container.New(c.cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTABLE\tSCALE\tENTITY\tQUESTION\tMETRICS")
			for _, id := range deps.Registry.Select(filter) {
				spec, err := deps.Registry.Lookup(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					spec.ID, deps.Registry.TableOf(id), spec.Scale, spec.EntityType,
					spec.QuestionRef, metricNames(spec))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&scale, "scale", "", "Only list measurements of this scale")
	cmd.Flags().StringVar(&entityType, "entity-type", "", "Only list measurements of this entity type")
	return cmd
}

func (c *cli) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the registry, stored reports and evaluations over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, err := container.New(c.cfg)
			if err != nil {
				return err
			}
			defer deps.Shutdown(context.Background())
			if err := deps.ConnectDatabase(ctx); err != nil {
				return err
			}
			return deps.APIServer().Start(ctx, c.cfg.Server.Port)
		},
	}
}

func (c *cli) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the report store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.cfg.Database.Enabled() {
				return errors.ConfigInvalid("DATABASE_URL is required")
			}
			db, err := sqlx.ConnectContext(cmd.Context(), "postgres", c.cfg.Database.URL)
			if err != nil {
				return errors.DatabaseError("failed to connect to database", err)
			}
			defer db.Close()

			runner := migration.NewRunner()
			if err := runner.Run(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema version %s applied\n", runner.Version())
			return nil
		},
	}
}

func parseFilter(scale, entityType string) (registry.Filter, error) {
	sc, err := measurement.ParseScale(scale)
	if err != nil {
		return registry.Filter{}, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	et, err := measurement.ParseEntityType(entityType)
	if err != nil {
		return registry.Filter{}, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return registry.Filter{Scale: sc, EntityType: et}, nil
}

func metricNames(spec measurement.Spec) string {
	names := make([]string, len(spec.Metrics))
	for i, b := range spec.Metrics {
		names[i] = b.DisplayName()
	}
	return strings.Join(names, ",")
}
