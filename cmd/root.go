package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"surge/internal/banner"
	"surge/internal/cli"
	"surge/internal/config"
	"surge/internal/logging"
	"surge/internal/runner"
	"surge/internal/sysmon"
	"surge/internal/tui/app"
)

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var (
		cfgFile string
		headers []string
	)

	root := &cobra.Command{
		Use:   "surge",
		Short: "Surge - concurrent HTTP load generator",
		Long: `
Surge sends GET requests to one target from a pool of workers and reports
live statistics.

It supports two modes:
1. TUI Mode (Default): Interactive dashboard
2. CLI Mode (Headless): Run with --url for scripts and CI`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Init(v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(v)
			if err != nil {
				return err
			}
			if len(headers) > 0 {
				if s.Headers == nil {
					s.Headers = make(map[string]string)
				}
				for k, val := range config.ParseHeaders(headers) {
					s.Headers[k] = val
				}
			}

			if cmd.Flags().Changed("url") {
				return runHeadless(cmd, s)
			}
			return runTUI(s)
		},
	}

	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), banner.GetString())
		cmd.Usage()
	})

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.surge.yaml)")

	f := root.Flags()
	f.StringP("url", "u", "", "Target URL (enables CLI mode)")
	f.Float64P("delay", "d", config.Default().Delay, "Delay between a worker's requests in seconds")
	f.IntP("workers", "w", config.Default().Workers, "Number of concurrent workers")
	f.IntP("max-requests", "n", config.Default().MaxRequests, "Total request budget, 0 for unlimited")
	f.Float64("timeout", config.Default().Timeout, "Request timeout in seconds, 0 for none")
	f.String("user-agent", config.Default().UserAgent, "User-Agent header")
	f.Bool("insecure", false, "Skip TLS certificate verification")
	f.StringSliceVarP(&headers, "header", "H", []string{}, "HTTP Header (e.g. \"Key: Value\")")
	f.StringP("out", "o", "", "Output filename prefix for reports")
	root.PersistentFlags().String("log-file", config.Default().LogFile, "Log file used in TUI mode")
	root.PersistentFlags().String("log-level", config.Default().LogLevel, "Log level (debug, info, warn, error)")

	_ = v.BindPFlag("target", f.Lookup("url"))
	for _, name := range []string{"delay", "workers", "max-requests", "timeout", "user-agent", "insecure", "out"} {
		_ = v.BindPFlag(name, f.Lookup(name))
	}
	_ = v.BindPFlag("log-file", root.PersistentFlags().Lookup("log-file"))
	_ = v.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newTargetCmd(v))
	root.AddCommand(newConfigCmd(v))

	return root
}

func newController(s config.Settings, logger zerolog.Logger) *runner.Controller {
	opts := runner.Options{
		Executor: runner.NewExecutor(s.ExecutorOptions()),
		Logger:   logger,
	}
	if sampler, err := sysmon.NewSampler(); err != nil {
		logger.Warn().Err(err).Msg("resource sampling disabled")
	} else {
		opts.Sampler = sampler
	}
	return runner.NewController(opts)
}

func runHeadless(cmd *cobra.Command, s config.Settings) error {
	logger, err := logging.New(cmd.ErrOrStderr(), s.LogLevel, true)
	if err != nil {
		return err
	}
	// per-request lines would garble the progress line unless asked for
	if logger.GetLevel() > zerolog.DebugLevel {
		logger = logger.Level(max(logger.GetLevel(), zerolog.WarnLevel))
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	ctrl := newController(s, logger)
	return cli.Run(ctx, ctrl, s.RunConfig(), cli.Options{
		Out:       cmd.OutOrStdout(),
		OutPrefix: s.Out,
	})
}

func runTUI(s config.Settings) error {
	var w io.Writer = io.Discard
	if s.LogFile != "" {
		f, err := logging.OpenFile(s.LogFile)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		w = f
	}
	logger, err := logging.New(w, s.LogLevel, false)
	if err != nil {
		return err
	}

	ctrl := newController(s, logger)
	m := app.NewModel(ctrl, s.RunConfig(), s.Out)
	p := tea.NewProgram(m, tea.WithAltScreen())

	_, err = p.Run()
	ctrl.Stop()
	if err != nil {
		return fmt.Errorf("running surge: %w", err)
	}
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
