package courier

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Registry manages registered courier providers.
type Registry struct {
	couriers map[string]Courier
	mu       sync.RWMutex
}

// NewRegistry creates a new courier registry.
func NewRegistry() *Registry {
	return &Registry{
		couriers: make(map[string]Courier),
	}
}

// Register adds a courier to the registry.
func (r *Registry) Register(c Courier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.couriers[c.Name()] = c
}

// Get returns a courier by name.
func (r *Registry) Get(name string) (Courier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.couriers[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrCarrierNotFound, name)
}

// All returns all registered couriers.
func (r *Registry) All() []Courier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Courier, 0, len(r.couriers))
	for _, c := range r.couriers {
		result = append(result, c)
	}
	return result
}

// Names returns the sorted names of all registered couriers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.couriers))
	for name := range r.couriers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered couriers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.couriers)
}

// Quote returns a charge estimate from a single provider.
func (r *Registry) Quote(ctx context.Context, name string, req *QuoteRequest) (*QuoteResponse, error) {
	c, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	q, ok := c.(Quoter)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrQuoteNotSupported, name)
	}
	return q.Quote(ctx, req)
}

// GetAllQuotes fetches charge estimates from every provider that supports it,
// in parallel. Errors from individual providers don't fail the entire request.
func (r *Registry) GetAllQuotes(ctx context.Context, req *QuoteRequest) ([]*QuoteResponse, []error) {
	var quoters []Quoter
	for _, c := range r.All() {
		if q, ok := c.(Quoter); ok {
			quoters = append(quoters, q)
		}
	}
	if len(quoters) == 0 {
		return nil, []error{ErrQuoteNotSupported}
	}
	return fanOutQuotes(ctx, quoters, req)
}

// GetQuotesFrom fetches charge estimates from the named providers only.
// An empty list means every provider that supports quoting.
func (r *Registry) GetQuotesFrom(ctx context.Context, req *QuoteRequest, names []string) ([]*QuoteResponse, []error) {
	if len(names) == 0 {
		return r.GetAllQuotes(ctx, req)
	}

	var quoters []Quoter
	var errs []error
	for _, name := range names {
		c, err := r.Get(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		q, ok := c.(Quoter)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrQuoteNotSupported, name))
			continue
		}
		quoters = append(quoters, q)
	}
	if len(quoters) == 0 {
		return nil, errs
	}

	results, qerrs := fanOutQuotes(ctx, quoters, req)
	return results, append(errs, qerrs...)
}

func fanOutQuotes(ctx context.Context, quoters []Quoter, req *QuoteRequest) ([]*QuoteResponse, []error) {
	results := make([]*QuoteResponse, 0, len(quoters))
	errs := make([]error, 0)
	mu := &sync.Mutex{}

	g, ctx := errgroup.WithContext(ctx)

	for _, q := range quoters {
		g.Go(func() error {
			resp, err := q.Quote(ctx, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", q.Name(), err))
				return nil // keep collecting from the other providers
			}
			results = append(results, resp)
			return nil
		})
	}

	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Total.LessThan(results[j].Total)
	})
	return results, errs
}
