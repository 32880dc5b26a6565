package checkout

import (
	"context"

	apporder "github.com/Barrister1990/agrilink-sub000/internal/application/order"
	apppay "github.com/Barrister1990/agrilink-sub000/internal/application/payment"
	dominv "github.com/Barrister1990/agrilink-sub000/internal/domain/inventory"
)

type IDGenerator interface {
	NewID() string
}

// Catalog resolves price, supplier and availability for a product.
type Catalog interface {
	Get(ctx context.Context, productID string) (*dominv.Product, error)
}

type Gateway interface {
	Execute(ctx context.Context, in apppay.AttemptInput) (apppay.AttemptResult, error)
}

type OrderPlacer interface {
	Execute(ctx context.Context, in apporder.PlaceOrderInput) (*apporder.PlaceOrderResult, error)
}
