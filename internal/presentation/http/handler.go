package httppresentation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	appcheckout "github.com/Barrister1990/agrilink-sub000/internal/application/checkout"
	appfulfil "github.com/Barrister1990/agrilink-sub000/internal/application/fulfillment"
	appgrowth "github.com/Barrister1990/agrilink-sub000/internal/application/growth"
	apporder "github.com/Barrister1990/agrilink-sub000/internal/application/order"
	apppay "github.com/Barrister1990/agrilink-sub000/internal/application/payment"
	domcheckout "github.com/Barrister1990/agrilink-sub000/internal/domain/checkout"
	domfulfil "github.com/Barrister1990/agrilink-sub000/internal/domain/fulfillment"
	domgrowth "github.com/Barrister1990/agrilink-sub000/internal/domain/growth"
	domorder "github.com/Barrister1990/agrilink-sub000/internal/domain/order"
	dompay "github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
	"github.com/Barrister1990/agrilink-sub000/internal/observability"
)

const (
	componentHTTPHandler = "http_server"
	maxBodyBytes         = 1 << 20
)

type Checkout interface {
	Start(ctx context.Context, buyerID string) (appcheckout.View, error)
	Get(ctx context.Context, sessionID, buyerID string) (appcheckout.View, error)
	AddItem(ctx context.Context, sessionID, buyerID, productID string, quantity int) (appcheckout.View, error)
	SetQuantity(ctx context.Context, sessionID, buyerID, productID string, quantity int) (appcheckout.View, error)
	RemoveItem(ctx context.Context, sessionID, buyerID, productID string) (appcheckout.View, error)
	SubmitShipping(ctx context.Context, sessionID, buyerID string, info domcheckout.ShippingInfo) (appcheckout.View, error)
	Next(ctx context.Context, sessionID, buyerID string) (appcheckout.View, error)
	Back(ctx context.Context, sessionID, buyerID string) (appcheckout.View, error)
	SelectPayment(ctx context.Context, sessionID, buyerID string, m dompay.Method) (appcheckout.View, error)
	Submit(ctx context.Context, sessionID, buyerID string) (*appcheckout.SubmitResult, error)
}

type OrderReader interface {
	Get(ctx context.Context, id string) (*domorder.Order, error)
	List(ctx context.Context, f domorder.Filter) ([]*domorder.Order, error)
}

type OrderTransitioner interface {
	Execute(ctx context.Context, cmd apporder.TransitionStatusInput) (*domorder.Order, error)
}

type Fulfillment interface {
	ListGroups(ctx context.Context, orderID string) ([]domfulfil.Group, error)
	ListBySupplier(ctx context.Context, supplierID string) ([]domfulfil.Group, error)
	PaySupplier(ctx context.Context, orderID, supplierID string) (*appfulfil.PayoutResult, error)
	AdvanceShipment(ctx context.Context, orderID, supplierID string, to domfulfil.ShipmentStatus) (*domfulfil.Group, error)
}

type Growth interface {
	Execute(ctx context.Context, in appgrowth.SupplierGrowthInput) (*appgrowth.SupplierGrowthResult, error)
}

type PaymentCallback interface {
	Execute(ctx context.Context, in apppay.CallbackInput) (struct{}, error)
}

// PendingPayments lists charges still waiting on the payer.
type PendingPayments interface {
	Pending() []string
}

// StockAlerts reports products whose stock ran out.
type StockAlerts interface {
	Depleted() []string
}

// Deps are the use cases the HTTP surface drives. Metrics is served on /metrics when set.
// Callbacks need either a body signed with CallbackSecret or a staff token.
type Deps struct {
	Checkout        Checkout
	Orders          OrderReader
	Transition      OrderTransitioner
	Fulfillment     Fulfillment
	Growth          Growth
	Callback        PaymentCallback
	CallbackSecret  []byte
	PendingPayments PendingPayments
	StockAlerts     StockAlerts
	Auth            *Authenticator
	SubmitLimiter   *RateLimiter
	Metrics         http.Handler
}

type Handler struct {
	deps Deps
	now  func() time.Time

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewHandler(deps Deps, tel observability.Observability) *Handler {
	tel = observability.OrNop(tel)
	return &Handler{
		deps:         deps,
		now:          func() time.Time { return time.Now().UTC() },
		log:          tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tracer:       tel.Tracer(),
		reqCounter:   tel.Metrics().Counter(observability.MHTTPRequests),
		durHistogram: tel.Metrics().Histogram(observability.MHTTPRequestDuration),
	}
}

// Router wires every route behind Trace → Request Logger → Metrics → Access Log.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(h.withTrace, h.withRequestLogger, h.withHTTPMetrics, h.withAccessLog, limitBody)

	r.Get("/health", h.handleHealth)
	if h.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.deps.Metrics)
	}
	r.Post("/payments/callback", h.handlePaymentCallback)

	r.Group(func(r chi.Router) {
		r.Use(h.deps.Auth.Middleware)

		r.Route("/checkout/sessions", func(r chi.Router) {
			r.Use(RequireRole(RoleBuyer))
			r.Post("/", h.handleStartSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", h.handleGetSession)
				r.Post("/cart/items", h.handleAddItem)
				r.Put("/cart/items/{productID}", h.handleSetQuantity)
				r.Delete("/cart/items/{productID}", h.handleRemoveItem)
				r.Put("/shipping", h.handleShipping)
				r.Post("/next", h.handleNext)
				r.Post("/back", h.handleBack)
				r.Put("/payment-method", h.handlePaymentMethod)
				submit := http.Handler(http.HandlerFunc(h.handleSubmit))
				if h.deps.SubmitLimiter != nil {
					submit = h.deps.SubmitLimiter.Middleware(submit)
				}
				r.Method(http.MethodPost, "/submit", submit)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(RequireRole(RoleStaff)).Get("/export.csv", h.handleExportCSV)
			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", h.handleGetOrder)
				r.Get("/invoice", h.handleInvoice)
				r.Post("/status", h.handleOrderStatus)
				r.Get("/suppliers", h.handleListSuppliers)
				r.With(RequireRole(RoleStaff)).Post("/suppliers/{supplierID}/pay", h.handlePaySupplier)
				r.With(RequireRole(RoleStaff, RoleFarmer)).Post("/suppliers/{supplierID}/shipment", h.handleShipment)
			})
		})

		r.With(RequireRole(RoleStaff, RoleFarmer)).Get("/suppliers/{supplierID}/growth", h.handleGrowth)
		r.With(RequireRole(RoleStaff, RoleFarmer)).Get("/suppliers/{supplierID}/orders", h.handleSupplierOrders)
		r.With(RequireRole(RoleStaff)).Get("/payments/pending", h.handlePendingPayments)
	})
	return r
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

type healthResponse struct {
	Status           string   `json:"status"`
	DepletedProducts []string `json:"depleted_products"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", DepletedProducts: []string{}}
	if h.deps.StockAlerts != nil {
		resp.DepletedProducts = append(resp.DepletedProducts, h.deps.StockAlerts.Depleted()...)
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- checkout

func buyerOf(r *http.Request) string {
	id, _ := IdentityFrom(r.Context())
	return id.Subject
}

func (h *Handler) respondView(w http.ResponseWriter, status int, v appcheckout.View, err error) {
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, status, v)
}

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Checkout.Start(r.Context(), buyerOf(r))
	h.respondView(w, http.StatusCreated, v, err)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Checkout.Get(r.Context(), chi.URLParam(r, "sessionID"), buyerOf(r))
	h.respondView(w, http.StatusOK, v, err)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	v, err := h.deps.Checkout.AddItem(r.Context(), chi.URLParam(r, "sessionID"), buyerOf(r), req.ProductID, req.Quantity)
	h.respondView(w, http.StatusOK, v, err)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	v, err := h.deps.Checkout.SetQuantity(r.Context(), chi.URLParam(r, "sessionID"), buyerOf(r), chi.URLParam(r, "productID"), req.Quantity)
	h.respondView(w, http.StatusOK, v, err)
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Checkout.RemoveItem(r.Context(), chi.URLParam(r, "sessionID"), buyerOf(r), chi.URLParam(r, "productID"))
	h.respondView(w, http.StatusOK, v, err)
}

func (h *Handler) handleShipping(w http.ResponseWriter, r *http.Request) {
	var info domcheckout.ShippingInfo
	if err := decodeJSON(r, &info); err != nil {
		writeDomainError(w, err)
		return
	}
	v, err := h.deps.Checkout.SubmitShipping(r.Context(), chi.URLParam(r, "sessionID"), buyerOf(r), info)
	h.respondView(w, http.StatusOK, v, err)
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Checkout.Next(r.Context(), chi.URLParam(r, "sessionID"), buyerOf(r))
	h.respondView(w, http.StatusOK, v, err)
}

func (h *Handler) handleBack(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Checkout.Back(r.Context(), chi.URLParam(r, "sessionID"), buyerOf(r))
	h.respondView(w, http.StatusOK, v, err)
}

func (h *Handler) handlePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var m dompay.Method
	if err := decodeJSON(r, &m); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := m.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}
	v, err := h.deps.Checkout.SelectPayment(r.Context(), chi.URLParam(r, "sessionID"), buyerOf(r), m)
	h.respondView(w, http.StatusOK, v, err)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Checkout.Submit(r.Context(), chi.URLParam(r, "sessionID"), buyerOf(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// --- orders

type lineItemResponse struct {
	ProductID  string          `json:"product_id"`
	SupplierID string          `json:"supplier_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

type orderResponse struct {
	ID               string             `json:"id"`
	BuyerID          string             `json:"buyer_id"`
	Status           domorder.Status    `json:"status"`
	StatusLabel      string             `json:"status_label"`
	StatusBadge      string             `json:"status_badge"`
	Shipping         domorder.Address   `json:"shipping"`
	Subtotal         decimal.Decimal    `json:"subtotal"`
	ShippingFee      decimal.Decimal    `json:"shipping_fee"`
	Total            decimal.Decimal    `json:"total"`
	PaymentMethod    dompay.Method      `json:"payment_method"`
	PaymentStatus    dompay.Status      `json:"payment_status"`
	PaymentReference string             `json:"payment_reference,omitempty"`
	Notes            string             `json:"notes,omitempty"`
	CancelReason     string             `json:"cancel_reason,omitempty"`
	NextStatuses     []domorder.Status  `json:"next_statuses"`
	Items            []lineItemResponse `json:"items"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func toOrderResponse(o *domorder.Order) orderResponse {
	p := o.Status.Presentation()
	items := make([]lineItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, lineItemResponse{
			ProductID:  it.ProductID,
			SupplierID: it.SupplierID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			LineTotal:  it.LineTotal,
		})
	}
	return orderResponse{
		ID:               o.ID,
		BuyerID:          o.BuyerID,
		Status:           o.Status,
		StatusLabel:      p.Label,
		StatusBadge:      p.Badge,
		Shipping:         o.Shipping,
		Subtotal:         o.Subtotal,
		ShippingFee:      o.ShippingFee,
		Total:            o.Total,
		PaymentMethod:    o.PaymentMethod,
		PaymentStatus:    o.PaymentStatus,
		PaymentReference: o.PaymentReference,
		Notes:            o.Notes,
		CancelReason:     o.CancelReason,
		NextStatuses:     nextStatuses(o),
		Items:            items,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

var lifecycle = []domorder.Status{
	domorder.StatusConfirmed,
	domorder.StatusProcessing,
	domorder.StatusShipped,
	domorder.StatusDelivered,
	domorder.StatusCancelled,
}

// nextStatuses lists the statuses a staff transition may move o to.
func nextStatuses(o *domorder.Order) []domorder.Status {
	out := []domorder.Status{}
	for _, s := range lifecycle {
		if o.CanTransitionTo(s) {
			out = append(out, s)
		}
	}
	return out
}

func canSeeOrder(id Identity, o *domorder.Order) bool {
	switch id.Role {
	case RoleStaff:
		return true
	case RoleBuyer:
		return o.BuyerID == id.Subject
	case RoleFarmer:
		for _, it := range o.Items {
			if it.SupplierID == id.SupplierID {
				return true
			}
		}
	}
	return false
}

// loadVisibleOrder answers 404 both for missing orders and for orders the caller may not see.
func (h *Handler) loadVisibleOrder(w http.ResponseWriter, r *http.Request) (*domorder.Order, Identity, bool) {
	id, _ := IdentityFrom(r.Context())
	o, err := h.deps.Orders.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, err)
		return nil, id, false
	}
	if !canSeeOrder(id, o) {
		writeDomainError(w, domorder.ErrNotFound)
		return nil, id, false
	}
	return o, id, true
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, _, ok := h.loadVisibleOrder(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleInvoice(w http.ResponseWriter, r *http.Request) {
	o, _, ok := h.loadVisibleOrder(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := renderInvoice(&buf, o); err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

type statusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	target, err := domorder.ParseStatus(req.Status)
	if err != nil {
		writeDomainError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	o, id, ok := h.loadVisibleOrder(w, r)
	if !ok {
		return
	}
	// Buyers may only cancel their own orders; farmers use the shipment route.
	switch id.Role {
	case RoleStaff:
	case RoleBuyer:
		if target != domorder.StatusCancelled {
			writeError(w, http.StatusForbidden, errForbidden)
			return
		}
	default:
		writeError(w, http.StatusForbidden, errForbidden)
		return
	}

	updated, err := h.deps.Transition.Execute(r.Context(), apporder.TransitionStatusInput{
		OrderID: o.ID,
		Status:  target,
		Reason:  req.Reason,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	orders, err := h.deps.Orders.List(r.Context(), f)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := apporder.ExportCSV(&buf, orders); err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="orders-`+h.now().Format("20060102")+`.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func parseFilter(r *http.Request) (domorder.Filter, error) {
	q := r.URL.Query()
	f := domorder.Filter{
		SupplierID: q.Get("supplier_id"),
		BuyerID:    q.Get("buyer_id"),
	}
	if raw := q.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			s, err := domorder.ParseStatus(part)
			if err != nil {
				return f, fmt.Errorf("%w: %v", errBadRequest, err)
			}
			f.Statuses = append(f.Statuses, s)
		}
	}
	var err error
	if f.CreatedFrom, err = parseDate(q.Get("from")); err != nil {
		return f, err
	}
	if f.CreatedTo, err = parseDate(q.Get("to")); err != nil {
		return f, err
	}
	return f, nil
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", errBadRequest, v)
	}
	return t, nil
}

// --- fulfillment

type groupResponse struct {
	OrderID       string             `json:"order_id"`
	SupplierID    string             `json:"supplier_id"`
	Items         []lineItemResponse `json:"items"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Shipment      string             `json:"shipment_status"`
	PaymentStatus dompay.Status      `json:"payment_status"`
	PaidAt        *time.Time         `json:"paid_at,omitempty"`
}

func toGroupResponse(g domfulfil.Group) groupResponse {
	items := make([]lineItemResponse, 0, len(g.Items))
	for _, it := range g.Items {
		items = append(items, lineItemResponse{
			ProductID:  it.ProductID,
			SupplierID: it.SupplierID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			LineTotal:  it.LineTotal,
		})
	}
	resp := groupResponse{
		OrderID:       g.OrderID,
		SupplierID:    g.SupplierID,
		Items:         items,
		Subtotal:      g.Subtotal,
		Shipment:      g.Shipment.String(),
		PaymentStatus: g.Payment,
	}
	if !g.PaidAt.IsZero() {
		paid := g.PaidAt
		resp.PaidAt = &paid
	}
	return resp
}

func (h *Handler) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	o, id, ok := h.loadVisibleOrder(w, r)
	if !ok {
		return
	}
	groups, err := h.deps.Fulfillment.ListGroups(r.Context(), o.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		if id.Role == RoleFarmer && g.SupplierID != id.SupplierID {
			continue
		}
		out = append(out, toGroupResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleSupplierOrders(w http.ResponseWriter, r *http.Request) {
	supplierID := chi.URLParam(r, "supplierID")
	if id, _ := IdentityFrom(r.Context()); id.Role == RoleFarmer && id.SupplierID != supplierID {
		writeError(w, http.StatusForbidden, errForbidden)
		return
	}
	groups, err := h.deps.Fulfillment.ListBySupplier(r.Context(), supplierID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

type payoutResponse struct {
	Group     groupResponse `json:"group"`
	OrderPaid bool          `json:"order_paid"`
}

func (h *Handler) handlePaySupplier(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Fulfillment.PaySupplier(r.Context(), chi.URLParam(r, "orderID"), chi.URLParam(r, "supplierID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payoutResponse{Group: toGroupResponse(res.Group), OrderPaid: res.OrderPaid})
}

type shipmentRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleShipment(w http.ResponseWriter, r *http.Request) {
	supplierID := chi.URLParam(r, "supplierID")
	if id, _ := IdentityFrom(r.Context()); id.Role == RoleFarmer && id.SupplierID != supplierID {
		writeError(w, http.StatusForbidden, errForbidden)
		return
	}
	var req shipmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	to, err := domfulfil.ParseShipmentStatus(req.Status)
	if err != nil {
		writeDomainError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	g, err := h.deps.Fulfillment.AdvanceShipment(r.Context(), chi.URLParam(r, "orderID"), supplierID, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(*g))
}

// --- growth

func (h *Handler) handleGrowth(w http.ResponseWriter, r *http.Request) {
	supplierID := chi.URLParam(r, "supplierID")
	if id, _ := IdentityFrom(r.Context()); id.Role == RoleFarmer && id.SupplierID != supplierID {
		writeError(w, http.StatusForbidden, errForbidden)
		return
	}
	period, err := domgrowth.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	res, err := h.deps.Growth.Execute(r.Context(), appgrowth.SupplierGrowthInput{
		SupplierID: supplierID,
		Period:     period,
		Now:        h.now(),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
