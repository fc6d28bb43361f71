package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mediavault/internal/api"
	"mediavault/internal/daemon"
	"mediavault/internal/dedupe"
	"mediavault/internal/scanner"
	"mediavault/internal/staging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the mediavault daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()
			mgr := staging.New(st, cfg, logger)
			svc := api.NewService(
				st,
				scanner.New(st, cfg, nil, logger),
				dedupe.New(st, cfg, logger),
				mgr,
			)
			d, err := daemon.New(cfg, st, svc, mgr, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := d.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mediavault daemon listening on %s\n", d.Addr())

			<-runCtx.Done()
			fmt.Fprintln(cmd.OutOrStdout(), "Shutting down")
			d.Stop()
			return nil
		},
	}
}
