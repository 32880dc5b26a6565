package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	dompay "github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
	"github.com/Barrister1990/agrilink-sub000/internal/observability"
)

// Interactive parks each charge until the payer's outcome arrives through Resolve.
// The wait is bounded only by the caller's context, or by timeout when it is set.
type Interactive struct {
	mu      sync.Mutex
	waiting map[string]chan dompay.Outcome
	timeout time.Duration
	log     observability.Logger
}

func NewInteractive(timeout time.Duration, logger observability.Logger) *Interactive {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Interactive{
		waiting: make(map[string]chan dompay.Outcome),
		timeout: timeout,
		log:     logger.With(observability.F("component", "interactive_gateway")),
	}
}

func (g *Interactive) Charge(ctx context.Context, c dompay.Charge) (dompay.Outcome, error) {
	if c.Reference == "" {
		return "", fmt.Errorf("%w: reference required", dompay.ErrGateway)
	}
	ch := make(chan dompay.Outcome, 1)

	g.mu.Lock()
	if _, dup := g.waiting[c.Reference]; dup {
		g.mu.Unlock()
		return "", fmt.Errorf("%w: duplicate reference %s", dompay.ErrGateway, c.Reference)
	}
	g.waiting[c.Reference] = ch
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.waiting, c.Reference)
		g.mu.Unlock()
	}()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	g.log.Info("payment_awaiting_payer",
		observability.F("reference", c.Reference),
		observability.F("channel", c.Method.Channel()),
		observability.F("amount_minor", c.AmountMinor),
	)

	select {
	case o := <-ch:
		return o, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Resolve delivers the payer's outcome to the waiting charge.
func (g *Interactive) Resolve(reference string, outcome dompay.Outcome) error {
	if !outcome.Valid() {
		return fmt.Errorf("%w: outcome %q", dompay.ErrGateway, outcome)
	}
	g.mu.Lock()
	ch, ok := g.waiting[reference]
	if ok {
		delete(g.waiting, reference)
	}
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", dompay.ErrUnknownRef, reference)
	}
	ch <- outcome
	return nil
}

// Pending lists references still waiting on the payer.
func (g *Interactive) Pending() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.waiting))
	for ref := range g.waiting {
		out = append(out, ref)
	}
	return out
}
