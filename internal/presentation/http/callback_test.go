package httppresentation

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *server) signedCallback(body any, secret string) *http.Response {
	s.t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(s.t, err)
	req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/payments/callback", bytes.NewReader(raw))
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(CallbackSignatureHeader, SignCallback([]byte(secret), raw))
	resp, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp
}

func TestPaymentCallbackRequiresSignatureOrStaff(t *testing.T) {
	s := newServer(t, nil)
	body := map[string]any{"reference": "PAY-404", "outcome": "success"}

	tests := []struct {
		name string
		send func() *http.Response
		want int
	}{
		{name: "anonymous", want: http.StatusUnauthorized, send: func() *http.Response {
			resp, _ := s.do(http.MethodPost, "/payments/callback", "", body)
			return resp
		}},
		{name: "buyer token", want: http.StatusUnauthorized, send: func() *http.Response {
			resp, _ := s.do(http.MethodPost, "/payments/callback", s.token(buyer), body)
			return resp
		}},
		{name: "wrong secret", want: http.StatusUnauthorized, send: func() *http.Response {
			return s.signedCallback(body, "guess")
		}},
		{name: "signed", want: http.StatusNotFound, send: func() *http.Response {
			return s.signedCallback(body, callbackSecret)
		}},
		{name: "staff token", want: http.StatusNotFound, send: func() *http.Response {
			resp, _ := s.do(http.MethodPost, "/payments/callback", s.token(staff), body)
			return resp
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.send().StatusCode)
		})
	}
}

func TestPaymentCallbackWithoutSecretRejectsSignatures(t *testing.T) {
	s := buildServer(t, nil, false, func(d *Deps) { d.CallbackSecret = nil })
	resp := s.signedCallback(map[string]any{"reference": "PAY-1", "outcome": "success"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

type submitOutcome struct {
	status int
	body   []byte
	err    error
}

func TestInteractiveSubmitResolvedByCallback(t *testing.T) {
	s := buildServer(t, nil, true, nil)
	tok := s.token(buyer)
	sessionID := s.checkoutToPayment(tok)
	base := "/checkout/sessions/" + sessionID
	resp, _ := s.do(http.MethodPut, base+"/payment-method", tok, map[string]any{"kind": "card"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	done := make(chan submitOutcome, 1)
	go func() {
		req, err := http.NewRequest(http.MethodPost, s.srv.URL+base+"/submit", nil)
		if err != nil {
			done <- submitOutcome{err: err}
			return
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		res, err := s.srv.Client().Do(req)
		if err != nil {
			done <- submitOutcome{err: err}
			return
		}
		defer res.Body.Close()
		b, err := io.ReadAll(res.Body)
		done <- submitOutcome{status: res.StatusCode, body: b, err: err}
	}()

	var ref string
	require.Eventually(t, func() bool {
		_, body := s.do(http.MethodGet, base, tok, nil)
		ref, _ = decode[map[string]any](t, body)["pending_payment_reference"].(string)
		return ref != ""
	}, 2*time.Second, 10*time.Millisecond)

	// The reference is minted just before the processor registers it.
	require.Eventually(t, func() bool {
		_, body := s.do(http.MethodGet, "/payments/pending", s.token(staff), nil)
		refs := decode[pendingResponse](t, body).References
		return len(refs) == 1 && refs[0] == ref
	}, 2*time.Second, 10*time.Millisecond)

	resp, _ = s.do(http.MethodGet, "/payments/pending", tok, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.signedCallback(map[string]any{"reference": ref, "outcome": "success"}, callbackSecret)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var out submitOutcome
	select {
	case out = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submit still waiting after callback")
	}
	require.NoError(t, out.err)
	require.Equal(t, http.StatusCreated, out.status, string(out.body))
	res := decode[map[string]any](t, out.body)
	assert.Equal(t, "paid", res["payment_status"])
	assert.Equal(t, ref, res["payment_reference"])

	_, body := s.do(http.MethodGet, base, tok, nil)
	view := decode[map[string]any](t, body)
	assert.Nil(t, view["pending_payment_reference"])
	assert.Equal(t, ref, view["payment_reference"])
	assert.Empty(t, s.interactive.Pending())
}
