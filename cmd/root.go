// -- cmd/root.go --
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/atesim/internal/config"
	"github.com/xkilldash9x/atesim/internal/observability"
)

// NewRootCommand builds a fresh command tree. Each invocation gets its own
// viper instance so flags and config never leak between executions.
func NewRootCommand() *cobra.Command {
	var cfgFile string
	v := viper.New()
	loaded := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "atesim",
		Short: "Monte Carlo simulator for the difference-in-means ATE estimator.",
		Long: `atesim simulates completely randomized experiments and reports the bias,
sampling variance and robust-interval coverage of the difference-in-means
estimator of the average treatment effect, under a fixed finite population
and under a fresh population redraw per repetition.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				// Fall back to a minimal logger so the failure is visible.
				observability.InitializeLogger(config.LoggerConfig{
					Level: "info", Format: "console", ServiceName: "atesim",
				})
				return err
			}
			*loaded = *cfg

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("configuration loaded",
				zap.String("version", Version),
				zap.String("design", cfg.Sim.Design),
			)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./atesim.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newRunCommand(v, loaded))
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

// Execute runs the root command under ctx. On failure the error has already
// been logged; callers only need the exit code.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("command execution failed", zap.Error(err))
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
