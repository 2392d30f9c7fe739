package commands

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	ps "github.com/reoring/pulsarschema"
	"github.com/reoring/pulsarschema/i18n"
	"github.com/reoring/pulsarschema/internal/cli/config"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
)

type rootOptions struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "pulsarschema",
		Short: "Schema tooling for Avro and JSON message payloads",
		Long: `pulsarschema inspects schema documents and converts message payloads.

Schema documents may be JSON (.avsc, .json) or YAML (.yaml, .yml).
Settings are read from pulsarschema.yaml and PULSARSCHEMA_* variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			i18n.SetLanguage(cfg.Language)
			if opts.verbose || cfg.Verbose {
				logger, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				ps.SetLogger(logger)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./pulsarschema.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log diagnostics to stderr")

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newCanonicalCommand())
	rootCmd.AddCommand(newFingerprintCommand())
	rootCmd.AddCommand(newEncodeCommand(opts))
	rootCmd.AddCommand(newDecodeCommand(opts))
	rootCmd.AddCommand(newRegisterCommand(opts))
	rootCmd.AddCommand(newDeriveDemoCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pulsarschema %s (%s, %s)\n", Version, GitCommit, runtime.Version())
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
