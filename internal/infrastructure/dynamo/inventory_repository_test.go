package dynamo

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Barrister1990/agrilink-sub000/internal/domain/inventory"
)

// fakeTable interprets the two update expressions the repository issues.
type fakeTable struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	beforeOp func(expr string)
	updates  int
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: make(map[string]map[string]types.AttributeValue)}
}

func keyOf(k map[string]types.AttributeValue) string {
	return k["product_id"].(*types.AttributeValueMemberS).Value
}

func num(av types.AttributeValue) int {
	n, _ := strconv.Atoi(av.(*types.AttributeValueMemberN).Value)
	return n
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[keyOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	expr := aws.ToString(in.UpdateExpression)
	if f.beforeOp != nil {
		f.beforeOp(expr)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++

	item, ok := f.items[keyOf(in.Key)]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("missing")}
	}
	stock := num(item["stock"])
	q := num(in.ExpressionAttributeValues[":q"])

	switch expr {
	case decrementExpr:
		if stock < q {
			return nil, &types.ConditionalCheckFailedException{Item: item}
		}
		stock -= q
	case clampExpr:
		if stock >= q {
			return nil, &types.ConditionalCheckFailedException{Item: item}
		}
		stock = 0
	default:
		return nil, errors.New("unexpected expression " + expr)
	}
	item["stock"] = &types.AttributeValueMemberN{Value: strconv.Itoa(stock)}
	return &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{"stock": item["stock"]}}, nil
}

func (f *fakeTable) setStock(id string, stock int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[id]["stock"] = &types.AttributeValueMemberN{Value: strconv.Itoa(stock)}
}

func seeded(t *testing.T, stock int) (*fakeTable, *InventoryRepository) {
	t.Helper()
	table := newFakeTable()
	repo := NewInventoryRepository(table, "products")
	repo.now = func() time.Time { return time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC) }
	p, err := domain.NewProduct("p1", "Cassava", "s1", decimal.RequireFromString("3.25"), stock)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), p))
	return table, repo
}

func TestSaveAndGet(t *testing.T) {
	_, repo := seeded(t, 9)

	p, err := repo.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Cassava", p.Name)
	assert.Equal(t, 9, p.Stock)
	assert.True(t, decimal.RequireFromString("3.25").Equal(p.UnitPrice))
	assert.Equal(t, 2026, p.UpdatedAt.Year())

	_, err = repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDecrementClamped(t *testing.T) {
	tests := []struct {
		name  string
		stock int
		qty   int
		want  int
	}{
		{name: "enough stock", stock: 10, qty: 4, want: 6},
		{name: "exact stock", stock: 4, qty: 4, want: 0},
		{name: "oversell clamps", stock: 2, qty: 5, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, repo := seeded(t, tt.stock)
			got, err := repo.DecrementClamped(context.Background(), "p1", tt.qty)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			p, err := repo.Get(context.Background(), "p1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Stock)
		})
	}
}

func TestDecrementRetriesWhenStockRaised(t *testing.T) {
	table, repo := seeded(t, 1)
	raised := false
	table.beforeOp = func(expr string) {
		if expr == clampExpr && !raised {
			raised = true
			table.setStock("p1", 10)
		}
	}

	got, err := repo.DecrementClamped(context.Background(), "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, 3, table.updates)
}

func TestDecrementErrors(t *testing.T) {
	_, repo := seeded(t, 1)

	_, err := repo.DecrementClamped(context.Background(), "ghost", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.DecrementClamped(context.Background(), "p1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}
