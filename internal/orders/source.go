package orders

import (
	"context"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Lister fetches the orders of a company.
type Lister interface {
	List(ctx context.Context, companyID string) ([]Order, error)
}

// Source exposes the orders that are ready to ship.
type Source struct {
	lister Lister
	logger *otelzap.Logger
}

// NewSource creates a Source over an order lister.
func NewSource(lister Lister, logger *otelzap.Logger) *Source {
	return &Source{lister: lister, logger: logger}
}

// ProcessingOrders returns the company's orders whose status is
// "processing", ignoring case. A failed fetch is logged and yields an
// empty list so callers can show a "no processing orders" notice.
func (s *Source) ProcessingOrders(ctx context.Context, companyID string) []Order {
	all, err := s.lister.List(ctx, companyID)
	if err != nil {
		s.logger.Ctx(ctx).Error("Failed to fetch orders",
			zap.String("company_id", companyID),
			zap.Error(err),
		)
		return []Order{}
	}

	out := make([]Order, 0, len(all))
	for _, o := range all {
		if o.IsProcessing() {
			out = append(out, o)
		}
	}
	return out
}

// Options returns the processing orders as selection entries.
func (s *Source) Options(ctx context.Context, companyID string) []Option {
	processing := s.ProcessingOrders(ctx, companyID)
	opts := make([]Option, len(processing))
	for i := range processing {
		opts[i] = processing[i].Option()
	}
	return opts
}

// Find returns a processing order by id.
func (s *Source) Find(ctx context.Context, companyID, orderID string) (*Order, bool) {
	for _, o := range s.ProcessingOrders(ctx, companyID) {
		if o.ID == orderID {
			return &o, true
		}
	}
	return nil, false
}
