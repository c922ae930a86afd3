package app

import (
	"context"
	"time"

	"github.com/kilianp07/o2v/core/logger"
	"github.com/kilianp07/o2v/core/model"
	"github.com/kilianp07/o2v/core/routing"
)

// emptyCatalog is the candidate source used when no catalog integration is
// wired. Reassignments see an empty pool and escalate.
type emptyCatalog struct {
	log logger.Logger
}

func (c emptyCatalog) FetchEligible(_ context.Context, orderID string, _ []model.OrderItem, _ []string, _ bool) ([]model.Candidate, error) {
	c.log.Warnf("order %s: no catalog source configured, returning empty pool", orderID)
	return nil, nil
}

// logOnlyOrderService records state changes in the log when no order service
// integration is wired.
type logOnlyOrderService struct {
	log logger.Logger
}

func (s logOnlyOrderService) AdvanceState(_ context.Context, orderID, state string) error {
	s.log.Infof("order %s: state advanced to %s", orderID, state)
	return nil
}

func (s logOnlyOrderService) MarkDelayed(_ context.Context, orderID string) error {
	s.log.Warnf("order %s: marked delayed", orderID)
	return nil
}

// logOnlyNotifier is used when no MQTT broker is configured.
type logOnlyNotifier struct {
	log logger.Logger
}

func (n logOnlyNotifier) Notify(_ context.Context, msg routing.Notification) error {
	n.log.Infof("notification %s for order %s vendor %s (attempt %d, deadline %s)",
		msg.Kind, msg.OrderID, msg.VendorID, msg.AttemptNumber, msg.Deadline.Format(time.RFC3339))
	return nil
}
