package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Barrister1990/agrilink-sub000/internal/application"
	apporder "github.com/Barrister1990/agrilink-sub000/internal/application/order"
	apppay "github.com/Barrister1990/agrilink-sub000/internal/application/payment"
	"github.com/Barrister1990/agrilink-sub000/internal/domain/cart"
	domain "github.com/Barrister1990/agrilink-sub000/internal/domain/checkout"
	domorder "github.com/Barrister1990/agrilink-sub000/internal/domain/order"
	dompay "github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
	"github.com/Barrister1990/agrilink-sub000/internal/domain/shipping"
	"github.com/Barrister1990/agrilink-sub000/internal/observability"
)

const (
	checkoutService = "checkout-service"
	useCaseSubmit   = "checkout.submit"
)

var (
	ErrSessionNotFound   = errors.New("checkout: session not found")
	ErrSubmitInProgress  = errors.New("checkout: submission already in progress")
	ErrEmptyCart         = errors.New("checkout: cart is empty")
	ErrCartLocked        = errors.New("checkout: cart can no longer change")
	ErrInsufficientStock = errors.New("checkout: not enough stock")
)

// Service holds checkout sessions in memory and drives each through the flow.
type Service struct {
	catalog Catalog
	gateway Gateway
	placer  OrderPlacer
	fees    *shipping.Table
	ids     IDGenerator
	tracker *application.Tracker
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session

	defaultsMu sync.RWMutex
	defaults   map[string]domain.ShippingInfo
}

func NewService(catalog Catalog, gateway Gateway, placer OrderPlacer, fees *shipping.Table, ids IDGenerator, tel observability.Observability) *Service {
	if fees == nil {
		fees = shipping.DefaultTable()
	}
	return &Service{
		catalog:  catalog,
		gateway:  gateway,
		placer:   placer,
		fees:     fees,
		ids:      ids,
		tracker:  application.NewTracker(tel, checkoutService),
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[string]*session),
		defaults: make(map[string]domain.ShippingInfo),
	}
}

// Start opens a new session for the buyer.
func (s *Service) Start(ctx context.Context, buyerID string) (View, error) {
	_ = ctx
	if buyerID == "" {
		return View{}, fmt.Errorf("%w: buyer id is required", apporder.ErrValidation)
	}
	sess := &session{
		id:        s.ids.NewID(),
		buyerID:   buyerID,
		flow:      domain.NewFlow(s.ids.NewID),
		cart:      cart.New(),
		touchedAt: s.now(),
	}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess), nil
}

func (s *Service) lookup(sessionID, buyerID string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok || sess.buyerID != buyerID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// mutate runs fn under the session lock unless a submission is in flight.
func (s *Service) mutate(sessionID, buyerID string, fn func(*session) error) (View, error) {
	sess, err := s.lookup(sessionID, buyerID)
	if err != nil {
		return View{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.submitting {
		return s.view(sess), ErrSubmitInProgress
	}
	sess.touchedAt = s.now()
	if err := fn(sess); err != nil {
		return s.view(sess), err
	}
	return s.view(sess), nil
}

func (s *Service) Get(ctx context.Context, sessionID, buyerID string) (View, error) {
	_ = ctx
	sess, err := s.lookup(sessionID, buyerID)
	if err != nil {
		return View{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess), nil
}

// AddItem adds quantity units of a catalog product at its current price.
func (s *Service) AddItem(ctx context.Context, sessionID, buyerID, productID string, quantity int) (View, error) {
	p, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return View{}, err
	}
	return s.mutate(sessionID, buyerID, func(sess *session) error {
		if err := cartEditable(sess); err != nil {
			return err
		}
		already := 0
		for _, it := range sess.cart.Items() {
			if it.ProductID == productID {
				already = it.Quantity
			}
		}
		if already+quantity > p.Stock {
			return fmt.Errorf("%w: %s has %d left", ErrInsufficientStock, p.ID, p.Stock)
		}
		return sess.cart.Add(cart.Item{
			ProductID:  p.ID,
			SupplierID: p.SupplierID,
			UnitPrice:  p.UnitPrice,
			Quantity:   quantity,
		})
	})
}

// SetQuantity replaces the quantity of a line already in the cart; zero removes it.
func (s *Service) SetQuantity(ctx context.Context, sessionID, buyerID, productID string, quantity int) (View, error) {
	p, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return View{}, err
	}
	return s.mutate(sessionID, buyerID, func(sess *session) error {
		if err := cartEditable(sess); err != nil {
			return err
		}
		if quantity > p.Stock {
			return fmt.Errorf("%w: %s has %d left", ErrInsufficientStock, p.ID, p.Stock)
		}
		return sess.cart.SetQuantity(productID, quantity)
	})
}

func (s *Service) RemoveItem(ctx context.Context, sessionID, buyerID, productID string) (View, error) {
	_ = ctx
	return s.mutate(sessionID, buyerID, func(sess *session) error {
		if err := cartEditable(sess); err != nil {
			return err
		}
		return sess.cart.Remove(productID)
	})
}

func cartEditable(sess *session) error {
	if sess.flow.Step().Terminal() {
		return ErrCartLocked
	}
	if _, captured := sess.flow.CapturedPayment(); captured {
		return ErrCartLocked
	}
	return nil
}

func (s *Service) SubmitShipping(ctx context.Context, sessionID, buyerID string, info domain.ShippingInfo) (View, error) {
	_ = ctx
	return s.mutate(sessionID, buyerID, func(sess *session) error {
		return sess.flow.SubmitShipping(info)
	})
}

func (s *Service) Next(ctx context.Context, sessionID, buyerID string) (View, error) {
	_ = ctx
	return s.mutate(sessionID, buyerID, func(sess *session) error {
		if sess.flow.Step() == domain.StepDelivery && sess.cart.Len() == 0 {
			return ErrEmptyCart
		}
		return sess.flow.Next()
	})
}

func (s *Service) Back(ctx context.Context, sessionID, buyerID string) (View, error) {
	_ = ctx
	return s.mutate(sessionID, buyerID, func(sess *session) error {
		return sess.flow.Back()
	})
}

func (s *Service) SelectPayment(ctx context.Context, sessionID, buyerID string, m dompay.Method) (View, error) {
	_ = ctx
	return s.mutate(sessionID, buyerID, func(sess *session) error {
		return sess.flow.SelectPayment(m)
	})
}

type SubmitResult struct {
	OrderID          string         `json:"order_id"`
	PaymentStatus    dompay.Status  `json:"payment_status"`
	PaymentReference string         `json:"payment_reference,omitempty"`
	Summary          domain.Summary `json:"summary"`
	ItemCount        int            `json:"item_count"`
	Replayed         bool           `json:"replayed"`
}

// Submit charges the payer (unless cash on delivery) and persists the order. Any
// failure leaves the session on the payment step with the cart untouched.
func (s *Service) Submit(ctx context.Context, sessionID, buyerID string) (_ *SubmitResult, err error) {
	ctx, run := s.tracker.Begin(ctx, useCaseSubmit, "SubmitCheckout",
		attribute.String("checkout.session_id", sessionID),
		attribute.String("order.buyer_id", buyerID),
	)
	defer func() { run.End(err) }()

	sess, err := s.lookup(sessionID, buyerID)
	if err != nil {
		run.Fail("SESSION_NOT_FOUND")
		return nil, err
	}

	sess.mu.Lock()
	if sess.submitting {
		sess.mu.Unlock()
		run.Fail("SUBMIT_IN_PROGRESS")
		return nil, ErrSubmitInProgress
	}
	key, err := sess.flow.BeginSubmit()
	if err != nil {
		sess.mu.Unlock()
		run.Fail("FLOW_NOT_READY")
		return nil, err
	}
	items := sess.cart.Items()
	if len(items) == 0 {
		sess.mu.Unlock()
		run.Fail("CART_EMPTY")
		return nil, ErrEmptyCart
	}
	sess.submitting = true
	info := sess.flow.Shipping()
	method := sess.flow.PaymentMethod()
	captured, alreadyPaid := sess.flow.CapturedPayment()
	sess.mu.Unlock()

	defer func() {
		sess.mu.Lock()
		sess.submitting = false
		sess.pendingRef = ""
		sess.touchedAt = s.now()
		sess.mu.Unlock()
	}()

	summary := domain.Summarize(items, s.fees, info.Region)
	run.Field("idempotency_key", key)
	run.Span.SetAttributes(
		attribute.String("payment.channel", method.Channel()),
		attribute.String("checkout.total", summary.Total.StringFixed(2)),
	)

	pay := apppay.AttemptResult{Reference: captured.Reference, Status: captured.Status}
	if !alreadyPaid {
		pay, err = s.gateway.Execute(ctx, apppay.AttemptInput{
			AmountMinor: summary.Total.Shift(2).Round(0).IntPart(),
			PayerEmail:  info.Email,
			Method:      method,
			Metadata: map[string]string{
				"session_id":      sessionID,
				"idempotency_key": key,
			},
			OnReference: func(ref string) {
				sess.mu.Lock()
				sess.pendingRef = ref
				sess.mu.Unlock()
			},
		})
		if err != nil {
			run.Fail("GATEWAY_FAILED")
			return nil, err
		}
		sess.mu.Lock()
		sess.flow.RecordPayment(domain.PaymentResult{Reference: pay.Reference, Status: pay.Status})
		sess.mu.Unlock()
	} else {
		run.Field("payment_reused", true)
	}

	lines := make([]domorder.LineInput, 0, len(items))
	for _, it := range items {
		lines = append(lines, domorder.LineInput{
			ProductID:  it.ProductID,
			SupplierID: it.SupplierID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
		})
	}
	placed, err := s.placer.Execute(ctx, apporder.PlaceOrderInput{
		IdempotencyKey:   key,
		BuyerID:          buyerID,
		Lines:            lines,
		Shipping:         toAddress(info),
		PaymentMethod:    method,
		PaymentReference: pay.Reference,
		PaymentStatus:    pay.Status,
		Notes:            info.Notes,
	})
	if err != nil {
		run.Fail("ORDER_PLACE_FAILED")
		return nil, err
	}

	sess.mu.Lock()
	if cerr := sess.flow.Complete(placed.OrderID); cerr != nil {
		sess.mu.Unlock()
		run.Fail("FLOW_COMPLETE_FAILED")
		return nil, cerr
	}
	sess.cart.Clear()
	sess.mu.Unlock()

	if info.SaveAsDefault {
		s.defaultsMu.Lock()
		s.defaults[buyerID] = info
		s.defaultsMu.Unlock()
	}

	run.Field("order_id", placed.OrderID)
	return &SubmitResult{
		OrderID:          placed.OrderID,
		PaymentStatus:    pay.Status,
		PaymentReference: pay.Reference,
		Summary:          summary,
		ItemCount:        placed.ItemCount,
		Replayed:         placed.Replayed,
	}, nil
}

// Expire drops sessions idle since before cutoff that are not mid-submission.
func (s *Service) Expire(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := !sess.submitting && sess.touchedAt.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		s.tracker.Logger().Info("checkout_sessions_expired", observability.F("count", n))
	}
	return n
}

func (s *Service) view(sess *session) View {
	items := sess.cart.Items()
	info := sess.flow.Shipping()
	v := View{
		ID:             sess.id,
		BuyerID:        sess.buyerID,
		Step:           sess.flow.Step(),
		Items:          items,
		Summary:        domain.Summarize(items, s.fees, info.Region),
		Shipping:       info,
		PaymentMethod:  sess.flow.PaymentMethod(),
		IdempotencyKey: sess.flow.IdempotencyKey(),
		OrderID:        sess.flow.OrderID(),
	}
	if p, ok := sess.flow.CapturedPayment(); ok {
		v.PaymentReference = p.Reference
	}
	if sess.submitting {
		v.PendingReference = sess.pendingRef
	}
	s.defaultsMu.RLock()
	if d, ok := s.defaults[sess.buyerID]; ok {
		v.DefaultShipping = &d
	}
	s.defaultsMu.RUnlock()
	return v
}

func toAddress(info domain.ShippingInfo) domorder.Address {
	return domorder.Address{
		Name:       info.Name,
		Email:      info.Email,
		Phone:      info.Phone,
		Line1:      info.AddressLine1,
		Line2:      info.AddressLine2,
		City:       info.City,
		Region:     info.Region,
		PostalCode: info.PostalCode,
	}
}
