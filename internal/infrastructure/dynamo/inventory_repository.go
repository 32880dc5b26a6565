package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	domain "github.com/Barrister1990/agrilink-sub000/internal/domain/inventory"
)

const (
	decrementExpr = "SET stock = stock - :q, updated_at = :now"
	decrementCond = "attribute_exists(product_id) AND stock >= :q"
	clampExpr     = "SET stock = :zero, updated_at = :now"
	clampCond     = "attribute_exists(product_id) AND stock < :q"

	maxDecrementAttempts = 5
)

// Client is the subset of the DynamoDB API the repository uses.
type Client interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// NewClient loads the default AWS chain. endpoint overrides the service URL for local DynamoDB.
func NewClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("dynamo: load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

type productItem struct {
	ProductID  string `dynamodbav:"product_id"`
	Name       string `dynamodbav:"name"`
	SupplierID string `dynamodbav:"supplier_id"`
	UnitPrice  string `dynamodbav:"unit_price"`
	Stock      int    `dynamodbav:"stock"`
	UpdatedAt  string `dynamodbav:"updated_at"`
}

// InventoryRepository stores one item per product keyed by product_id.
type InventoryRepository struct {
	client Client
	table  string
	now    func() time.Time
}

func NewInventoryRepository(client Client, table string) *InventoryRepository {
	return &InventoryRepository{
		client: client,
		table:  table,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *InventoryRepository) key(productID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"product_id": &types.AttributeValueMemberS{Value: productID}}
}

func (r *InventoryRepository) Get(ctx context.Context, productID string) (*domain.Product, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            r.key(productID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo: get product: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrNotFound
	}
	var item productItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("dynamo: decode product: %w", err)
	}
	return item.toDomain()
}

func (r *InventoryRepository) Save(ctx context.Context, p *domain.Product) error {
	if p.Stock < 0 {
		return domain.ErrNegativeStock
	}
	item, err := attributevalue.MarshalMap(productItem{
		ProductID:  p.ID,
		Name:       p.Name,
		SupplierID: p.SupplierID,
		UnitPrice:  p.UnitPrice.String(),
		Stock:      p.Stock,
		UpdatedAt:  r.now().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("dynamo: encode product: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(r.table), Item: item}); err != nil {
		return fmt.Errorf("dynamo: put product: %w", err)
	}
	return nil
}

// DecrementClamped subtracts when enough stock exists, otherwise pins stock at zero.
// Both writes are conditional, so a concurrent writer only causes a retry.
func (r *InventoryRepository) DecrementClamped(ctx context.Context, productID string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	for attempt := 0; attempt < maxDecrementAttempts; attempt++ {
		values := map[string]types.AttributeValue{
			":q":   &types.AttributeValueMemberN{Value: strconv.Itoa(quantity)},
			":now": &types.AttributeValueMemberS{Value: r.now().Format(time.RFC3339Nano)},
		}
		out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                           aws.String(r.table),
			Key:                                 r.key(productID),
			UpdateExpression:                    aws.String(decrementExpr),
			ConditionExpression:                 aws.String(decrementCond),
			ExpressionAttributeValues:           values,
			ReturnValues:                        types.ReturnValueUpdatedNew,
			ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
		})
		if err == nil {
			return stockOf(out.Attributes)
		}
		var ccf *types.ConditionalCheckFailedException
		if !errors.As(err, &ccf) {
			return 0, fmt.Errorf("dynamo: decrement stock: %w", err)
		}
		if len(ccf.Item) == 0 {
			return 0, domain.ErrNotFound
		}

		values[":zero"] = &types.AttributeValueMemberN{Value: "0"}
		_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                           aws.String(r.table),
			Key:                                 r.key(productID),
			UpdateExpression:                    aws.String(clampExpr),
			ConditionExpression:                 aws.String(clampCond),
			ExpressionAttributeValues:           values,
			ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
		})
		if err == nil {
			return 0, nil
		}
		if !errors.As(err, &ccf) {
			return 0, fmt.Errorf("dynamo: clamp stock: %w", err)
		}
		if len(ccf.Item) == 0 {
			return 0, domain.ErrNotFound
		}
		// stock was raised between the two writes; start over
	}
	return 0, fmt.Errorf("dynamo: decrement stock for %s: contention after %d attempts", productID, maxDecrementAttempts)
}

func stockOf(attrs map[string]types.AttributeValue) (int, error) {
	var v struct {
		Stock int `dynamodbav:"stock"`
	}
	if err := attributevalue.UnmarshalMap(attrs, &v); err != nil {
		return 0, fmt.Errorf("dynamo: decode stock: %w", err)
	}
	return v.Stock, nil
}

func (i productItem) toDomain() (*domain.Product, error) {
	price, err := decimal.NewFromString(i.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("dynamo: product %s price: %w", i.ProductID, err)
	}
	updated, _ := time.Parse(time.RFC3339Nano, i.UpdatedAt)
	return &domain.Product{
		ID:         i.ProductID,
		Name:       i.Name,
		SupplierID: i.SupplierID,
		UnitPrice:  price,
		Stock:      i.Stock,
		UpdatedAt:  updated,
	}, nil
}
