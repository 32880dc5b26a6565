package gateway

import (
	"context"
	"math/rand"
	"sync"
	"time"

	dompay "github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
)

// Simulator resolves charges at random, for local runs and load tests.
type Simulator struct {
	mu          sync.Mutex
	random      *rand.Rand
	successRate float64
	cancelRate  float64
	latency     time.Duration
}

func NewSimulator(successRate, cancelRate float64, latency time.Duration) *Simulator {
	s := &Simulator{
		random:  rand.New(rand.NewSource(time.Now().UnixNano())),
		latency: latency,
	}
	s.SetRates(successRate, cancelRate)
	return s
}

// SetRates adjusts the outcome mix; whatever is left after success and cancel is declined.
func (s *Simulator) SetRates(success, cancel float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successRate = clamp01(success)
	s.cancelRate = clamp01(cancel)
	if s.successRate+s.cancelRate > 1 {
		s.cancelRate = 1 - s.successRate
	}
}

func (s *Simulator) Charge(ctx context.Context, c dompay.Charge) (dompay.Outcome, error) {
	_ = c
	if s.latency > 0 {
		t := time.NewTimer(s.latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.random.Float64()
	switch {
	case r < s.successRate:
		return dompay.OutcomeSuccess, nil
	case r < s.successRate+s.cancelRate:
		return dompay.OutcomeCancelled, nil
	default:
		return dompay.OutcomeDeclined, nil
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
