package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"surge/internal/config"
	"surge/internal/dummy"
	"surge/internal/logging"
)

func newTargetCmd(v *viper.Viper) *cobra.Command {
	def := dummy.DefaultConfig()
	cfg := def

	cmd := &cobra.Command{
		Use:   "target",
		Short: "Run the local test target server",
		Long: `Runs a small HTTP server to aim surge at.

Endpoints:
  /api/status   fast 200
  /api/slow     200 after 2-5s
  /api/error    random 4xx/5xx
  /api/random   random status and delay
  /api/stats    what the server has seen so far`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(v)
			if err != nil {
				return err
			}
			logger, err := logging.New(cmd.ErrOrStderr(), s.LogLevel, true)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			return dummy.New(cfg, logger).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&cfg.Host, "host", def.Host, "Interface to listen on")
	cmd.Flags().IntVarP(&cfg.Port, "port", "p", def.Port, "Port to listen on")
	cmd.Flags().StringVar(&cfg.StaticDir, "static", "", "Directory served for non-API paths")
	return cmd
}
