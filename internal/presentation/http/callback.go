package httppresentation

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	apppay "github.com/Barrister1990/agrilink-sub000/internal/application/payment"
	dompay "github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
)

// CallbackSignatureHeader carries the hex HMAC-SHA256 of the raw callback body.
const CallbackSignatureHeader = "X-Callback-Signature"

// SignCallback returns the signature a processor sends for body.
func SignCallback(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// callbackAuthorized accepts a body signed with the callback secret, or a staff bearer token.
func (h *Handler) callbackAuthorized(r *http.Request, body []byte) bool {
	if sig := r.Header.Get(CallbackSignatureHeader); sig != "" {
		if len(h.deps.CallbackSecret) == 0 {
			return false
		}
		got, err := hex.DecodeString(sig)
		if err != nil {
			return false
		}
		mac := hmac.New(sha256.New, h.deps.CallbackSecret)
		_, _ = mac.Write(body)
		return hmac.Equal(mac.Sum(nil), got)
	}

	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || h.deps.Auth == nil {
		return false
	}
	id, err := h.deps.Auth.Verify(strings.TrimSpace(token))
	return err == nil && id.Role == RoleStaff
}

type callbackRequest struct {
	Reference string         `json:"reference"`
	Outcome   dompay.Outcome `json:"outcome"`
}

func (h *Handler) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	if h.deps.Callback == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("interactive payments are disabled"))
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeDomainError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if !h.callbackAuthorized(r, body) {
		writeError(w, http.StatusUnauthorized, errUnauthorized)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var req callbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if _, err := h.deps.Callback.Execute(r.Context(), apppay.CallbackInput{Reference: req.Reference, Outcome: req.Outcome}); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pendingResponse struct {
	References []string `json:"references"`
}

func (h *Handler) handlePendingPayments(w http.ResponseWriter, _ *http.Request) {
	refs := []string{}
	if h.deps.PendingPayments != nil {
		refs = append(refs, h.deps.PendingPayments.Pending()...)
	}
	sort.Strings(refs)
	writeJSON(w, http.StatusOK, pendingResponse{References: refs})
}
