package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/o2v/app"
	"github.com/kilianp07/o2v/config"
	"github.com/kilianp07/o2v/infra/logger"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one expired-assignment reclaim pass and exit",
	RunE:  sweepOnce,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func sweepOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg, app.Deps{})
	if err != nil {
		return err
	}
	logg := logger.New("sweep-command")
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	n, err := svc.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	logg.Infof("reclaimed %d expired assignments", n)
	return nil
}
