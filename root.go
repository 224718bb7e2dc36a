package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Kopyshevskiy/highway-path-planner/internal/config"
)

// flags holds command-line overrides. Only flags the user set are applied.
type flags struct {
	configPath  string
	logLevel    string
	logFormat   string
	metricsAddr string
	verify      bool
	unbuffered  bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "highway",
		Short: "Plan routes between highway service stations",
		Long: `highway reads station and car commands from standard input, one per line,
and answers each with a single line on standard output.

Commands:
  add-station <distance> <count> <autonomy>...   aggiunta | non aggiunta
  demolish-station <distance>                    demolita | non demolita
  add-car <distance> <autonomy>                  aggiunta | non aggiunta
  scrap-car <distance> <autonomy>                rottamata | non rottamata
  plan-path <from> <to>                          <distances> | nessun percorso`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return newApp(cfg, cmd.ErrOrStderr()).run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&f.logFormat, "log-format", "", "Log format: text, json")
	pf.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	pf.BoolVar(&f.verify, "verify", false, "Check all structural invariants after every mutating command")
	cmd.Flags().BoolVar(&f.unbuffered, "unbuffered", false, "Flush output after every response")

	cmd.SetContext(context.Background())
	cmd.AddCommand(newVersionCmd(), newVerifyCmd(f))
	return cmd
}

// load reads the config file and applies the flags that were set.
func (f *flags) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if changed("verify") {
		cfg.Verify = f.verify
	}
	if changed("unbuffered") {
		cfg.Output.Unbuffered = f.unbuffered
	}
	return cfg, cfg.Validate()
}
