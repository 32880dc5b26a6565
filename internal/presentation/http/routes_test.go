package httppresentation

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type depletedStub []string

func (d depletedStub) Depleted() []string { return d }

func TestHealthListsDepletedProducts(t *testing.T) {
	s := buildServer(t, nil, false, func(d *Deps) { d.StockAlerts = depletedStub{"okra"} })

	resp, body := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"okra"}, decode[healthResponse](t, body).DepletedProducts)
}

func TestSetCartQuantity(t *testing.T) {
	s := newServer(t, nil)
	tok := s.token(buyer)
	resp, body := s.do(http.MethodPost, "/checkout/sessions", tok, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	base := "/checkout/sessions/" + decode[map[string]any](t, body)["id"].(string)

	resp, _ = s.do(http.MethodPost, base+"/cart/items", tok, map[string]any{"product_id": "yam", "quantity": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = s.do(http.MethodPut, base+"/cart/items/yam", tok, map[string]any{"quantity": 4})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	items := decode[map[string]any](t, body)["items"].([]any)
	require.Len(t, items, 1)
	assert.EqualValues(t, 4, items[0].(map[string]any)["quantity"])

	tests := []struct {
		name    string
		product string
		qty     int
		want    int
	}{
		{name: "not in cart", product: "okra", qty: 1, want: http.StatusNotFound},
		{name: "over stock", product: "yam", qty: 99, want: http.StatusConflict},
		{name: "negative", product: "yam", qty: -1, want: http.StatusBadRequest},
		{name: "unknown product", product: "ghost", qty: 1, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := s.do(http.MethodPut, base+"/cart/items/"+tt.product, tok, map[string]any{"quantity": tt.qty})
			assert.Equal(t, tt.want, resp.StatusCode, string(body))
		})
	}

	resp, body = s.do(http.MethodPut, base+"/cart/items/yam", tok, map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[map[string]any](t, body)["items"])
}

func TestDeliverySummaryFlagsKnownRegion(t *testing.T) {
	s := newServer(t, nil)
	tok := s.token(buyer)
	sessionID := s.checkoutToPayment(tok)

	_, body := s.do(http.MethodGet, "/checkout/sessions/"+sessionID, tok, nil)
	summary := decode[map[string]any](t, body)["summary"].(map[string]any)
	assert.Equal(t, true, summary["known_region"])
}

func TestOrderResponseListsNextStatuses(t *testing.T) {
	s := newServer(t, nil)
	tok := s.token(buyer)
	base := "/checkout/sessions/" + s.checkoutToPayment(tok)
	s.do(http.MethodPut, base+"/payment-method", tok, map[string]any{"kind": "cash_on_delivery"})
	resp, body := s.do(http.MethodPost, base+"/submit", tok, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	orderID := decode[map[string]any](t, body)["order_id"].(string)

	_, body = s.do(http.MethodGet, "/orders/"+orderID, s.token(staff), nil)
	assert.Equal(t, []any{"confirmed", "cancelled"}, decode[map[string]any](t, body)["next_statuses"])

	resp, body = s.do(http.MethodPost, "/orders/"+orderID+"/status", s.token(staff), map[string]any{"status": "cancelled"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, decode[map[string]any](t, body)["next_statuses"])
}

func TestSupplierOrders(t *testing.T) {
	s := newServer(t, nil)
	tok := s.token(buyer)
	base := "/checkout/sessions/" + s.checkoutToPayment(tok)
	s.do(http.MethodPut, base+"/payment-method", tok, map[string]any{"kind": "card"})
	resp, body := s.do(http.MethodPost, base+"/submit", tok, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	orderID := decode[map[string]any](t, body)["order_id"].(string)

	resp, _ = s.do(http.MethodGet, "/orders/"+orderID+"/suppliers", s.token(staff), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/suppliers/A/orders", s.token(farmer), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	groups := decode[[]groupResponse](t, body)
	require.Len(t, groups, 1)
	assert.Equal(t, orderID, groups[0].OrderID)
	assert.Equal(t, "20.00", groups[0].Subtotal.StringFixed(2))

	resp, _ = s.do(http.MethodGet, "/suppliers/B/orders", s.token(farmer), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/suppliers/B/orders", tok, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/suppliers/B/orders", s.token(staff), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]groupResponse](t, body), 1)
}
