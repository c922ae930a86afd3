package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/o2v/app"
	"github.com/kilianp07/o2v/config"
	"github.com/kilianp07/o2v/core/model"
	"github.com/kilianp07/o2v/infra/logger"
)

var routeFile string

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Route a test order from a JSON file",
	RunE:  routeOrder,
}

func init() {
	routeCmd.Flags().StringVarP(&routeFile, "file", "f", "", "order request file")
	if err := routeCmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(routeCmd)
}

type routeRequest struct {
	OrderID    string            `json:"order_id"`
	Items      []model.OrderItem `json:"items"`
	Candidates []model.Candidate `json:"candidates"`
}

func routeOrder(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	data, err := os.ReadFile(routeFile)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	var req routeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}

	svc, err := app.New(cfg, app.Deps{})
	if err != nil {
		return err
	}
	logg := logger.New("route-command")
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	attempt, err := svc.Route(ctx, req.OrderID, req.Items, req.Candidates)
	if err != nil {
		return fmt.Errorf("route order: %w", err)
	}
	logg.Infof("order %s: attempt %d assigned to vendor %s (%s)",
		attempt.OrderID, attempt.AttemptNumber, attempt.SelectedVendorID, attempt.SelectionReason)
	for _, c := range attempt.Candidates {
		logg.Infof("  #%d %s overall=%.1f", c.Rank, c.VendorID, c.OverallScore)
	}
	return nil
}
