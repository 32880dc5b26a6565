package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dominv "github.com/Barrister1990/agrilink-sub000/internal/domain/inventory"
	domoutbox "github.com/Barrister1990/agrilink-sub000/internal/domain/outbox"
)

type stubRepo struct {
	stock map[string]int
	fail  map[string]error
}

func (s *stubRepo) Get(_ context.Context, id string) (*dominv.Product, error) {
	v, ok := s.stock[id]
	if !ok {
		return nil, dominv.ErrNotFound
	}
	return &dominv.Product{ID: id, Stock: v}, nil
}

func (s *stubRepo) Save(_ context.Context, p *dominv.Product) error {
	s.stock[p.ID] = p.Stock
	return nil
}

func (s *stubRepo) DecrementClamped(_ context.Context, id string, qty int) (int, error) {
	if err := s.fail[id]; err != nil {
		return 0, err
	}
	v, ok := s.stock[id]
	if !ok {
		return 0, dominv.ErrNotFound
	}
	s.stock[id] = dominv.Clamp(v, qty)
	return s.stock[id], nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (c *capturePublisher) Publish(_ context.Context, e domoutbox.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func TestAdjustStockClampsAndPublishes(t *testing.T) {
	repo := &stubRepo{stock: map[string]int{"p1": 10, "p2": 1}}
	pub := &capturePublisher{}
	uc := NewAdjustStockUseCase(repo, pub, nil)

	res, err := uc.Execute(context.Background(), AdjustStockInput{
		OrderID: "ord-1",
		Lines:   []Line{{ProductID: "p1", Quantity: 3}, {ProductID: "p2", Quantity: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, repo.stock["p1"])
	assert.Equal(t, 0, repo.stock["p2"])
	require.Len(t, res.Adjusted, 2)
	assert.Empty(t, res.Skipped)

	require.Len(t, pub.events, 2)
	evt := pub.events[1].(dominv.StockChangedEvent)
	assert.Equal(t, "p2", evt.ProductID)
	assert.Equal(t, 0, evt.Stock)
}

func TestAdjustStockSkipsFailedProducts(t *testing.T) {
	repo := &stubRepo{
		stock: map[string]int{"p1": 4, "p3": 2},
		fail:  map[string]error{"p3": errors.New("connection reset")},
	}
	uc := NewAdjustStockUseCase(repo, nil, nil)

	res, err := uc.Execute(context.Background(), AdjustStockInput{
		OrderID: "ord-2",
		Lines: []Line{
			{ProductID: "missing", Quantity: 1},
			{ProductID: "p3", Quantity: 1},
			{ProductID: "p1", Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.stock["p1"])
	assert.Equal(t, 2, repo.stock["p3"])
	require.Len(t, res.Skipped, 2)
	assert.ErrorIs(t, res.Skipped[0], dominv.ErrNotFound)
	assert.ErrorIs(t, res.Skipped[1], dominv.ErrStockRead)
	assert.Equal(t, "p3", res.Skipped[1].ProductID)
}
