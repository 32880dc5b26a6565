package checkout

import (
	"sync"
	"time"

	"github.com/Barrister1990/agrilink-sub000/internal/domain/cart"
	domain "github.com/Barrister1990/agrilink-sub000/internal/domain/checkout"
	dompay "github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
)

// session is one buyer's in-progress checkout. Nothing here is persisted.
type session struct {
	mu         sync.Mutex
	id         string
	buyerID    string
	flow       *domain.Flow
	cart       *cart.Cart
	submitting bool
	// pendingRef is the reference of the charge currently waiting on the payer.
	pendingRef string
	touchedAt  time.Time
}

// View is the read model returned for a session.
type View struct {
	ID               string               `json:"id"`
	BuyerID          string               `json:"buyer_id"`
	Step             domain.Step          `json:"step"`
	Items            []cart.Item          `json:"items"`
	Summary          domain.Summary       `json:"summary"`
	Shipping         domain.ShippingInfo  `json:"shipping"`
	DefaultShipping  *domain.ShippingInfo `json:"default_shipping,omitempty"`
	PaymentMethod    dompay.Method        `json:"payment_method"`
	IdempotencyKey   string               `json:"idempotency_key,omitempty"`
	PaymentReference string               `json:"payment_reference,omitempty"`
	PendingReference string               `json:"pending_payment_reference,omitempty"`
	OrderID          string               `json:"order_id,omitempty"`
}
