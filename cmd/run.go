// -- cmd/run.go --
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/atesim/internal/config"
	"github.com/xkilldash9x/atesim/internal/experiment"
	"github.com/xkilldash9x/atesim/internal/observability"
	"github.com/xkilldash9x/atesim/internal/report"
)

// newRunCommand wires the run subcommand. Flags are bound into the shared
// viper instance so the precedence is flags > env > config file > defaults.
func newRunCommand(v *viper.Viper, cfg *config.Config) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the randomization experiments and print a summary table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiments(cmd, cfg.Sim)
		},
	}

	flags := runCmd.Flags()
	flags.String("design", "both", "experiment design: fixed, redraw or both")
	flags.Int("n", 1000, "population size per repetition")
	flags.Int("ntreat", 500, "number of treated units (1..n-1)")
	flags.Int("reps", 800, "number of Monte Carlo repetitions")
	flags.Int64("seed", 12345, "random seed for the fixed-population design")
	flags.Int64("redraw-seed", 54321, "random seed for the redraw design")
	flags.Float64("tau0", 0.2, "constant additive treatment effect")
	flags.Int("workers", 1, "parallel repetition workers (1 = serial)")
	flags.StringP("output", "o", "", "write the report as JSON to this file")

	bind := map[string]string{
		"sim.design":      "design",
		"sim.n":           "n",
		"sim.ntreat":      "ntreat",
		"sim.reps":        "reps",
		"sim.seed":        "seed",
		"sim.redraw_seed": "redraw-seed",
		"sim.tau0":        "tau0",
		"sim.workers":     "workers",
		"sim.output":      "output",
	}
	for key, flag := range bind {
		// BindPFlag only fails for unknown flags, which would be a
		// programming error caught by the command's own tests.
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	return runCmd
}

// runExperiments executes every selected design concurrently and renders
// one combined report. Each design is an independent experiment with its
// own seed.
func runExperiments(cmd *cobra.Command, sim config.SimConfig) error {
	log := observability.GetLogger().Named("run")
	runner := experiment.NewRunner(log)

	var configs []experiment.Config
	if sim.Design == "fixed" || sim.Design == "both" {
		configs = append(configs, experiment.Config{
			Design:  experiment.Fixed,
			N:       sim.N,
			NTreat:  sim.NTreat,
			Reps:    sim.Reps,
			Seed:    sim.Seed,
			Tau0:    sim.Tau0,
			Workers: sim.Workers,
		})
	}
	if sim.Design == "redraw" || sim.Design == "both" {
		configs = append(configs, experiment.Config{
			Design:  experiment.Redraw,
			N:       sim.N,
			NTreat:  sim.NTreat,
			Reps:    sim.Reps,
			Seed:    sim.RedrawSeed,
			Tau0:    sim.Tau0,
			Workers: sim.Workers,
		})
	}

	summaries := make([]experiment.Summary, len(configs))
	g, ctx := errgroup.WithContext(cmd.Context())
	for i, ecfg := range configs {
		g.Go(func() error {
			log.Info("starting experiment",
				zap.Stringer("design", ecfg.Design),
				zap.Int64("seed", ecfg.Seed),
			)
			summary, err := runner.Run(ctx, ecfg)
			if err != nil {
				return err
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rep := report.New()
	for i, ecfg := range configs {
		rep.Add(ecfg, summaries[i])
	}
	rep.RenderTable(cmd.OutOrStdout())

	if sim.Output != "" {
		if err := rep.WriteJSON(sim.Output); err != nil {
			return err
		}
		log.Info("report written", zap.String("path", sim.Output))
	}
	return nil
}
