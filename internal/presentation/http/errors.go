package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"

	appcheckout "github.com/Barrister1990/agrilink-sub000/internal/application/checkout"
	appgrowth "github.com/Barrister1990/agrilink-sub000/internal/application/growth"
	apporder "github.com/Barrister1990/agrilink-sub000/internal/application/order"
	apppay "github.com/Barrister1990/agrilink-sub000/internal/application/payment"
	domcart "github.com/Barrister1990/agrilink-sub000/internal/domain/cart"
	domcheckout "github.com/Barrister1990/agrilink-sub000/internal/domain/checkout"
	domfulfil "github.com/Barrister1990/agrilink-sub000/internal/domain/fulfillment"
	domgrowth "github.com/Barrister1990/agrilink-sub000/internal/domain/growth"
	dominv "github.com/Barrister1990/agrilink-sub000/internal/domain/inventory"
	domorder "github.com/Barrister1990/agrilink-sub000/internal/domain/order"
	dompay "github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
)

var (
	errForbidden   = errors.New("forbidden")
	errRateLimited = errors.New("rate limit exceeded")
	errBadRequest  = errors.New("bad request")
)

// persistenceMessage is what buyers see when the order write fails after payment.
const persistenceMessage = "We could not save your order. Your payment is safe; please try again."

type errorBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
	Retry  bool              `json:"retry,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// writeDomainError maps sentinel errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *domcheckout.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "invalid shipping details", Code: "validation", Fields: verr.Fields})

	case errors.Is(err, dompay.ErrCancelled):
		writeJSON(w, http.StatusPaymentRequired, errorBody{Error: err.Error(), Code: "payment_cancelled", Retry: true})
	case errors.Is(err, dompay.ErrDeclined):
		writeJSON(w, http.StatusPaymentRequired, errorBody{Error: err.Error(), Code: "payment_declined", Retry: true})
	case errors.Is(err, dompay.ErrGateway):
		writeJSON(w, http.StatusPaymentRequired, errorBody{Error: err.Error(), Code: "payment_failed", Retry: true})

	case errors.Is(err, domorder.ErrPersistence):
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: persistenceMessage, Code: "persistence", Retry: true})

	case errors.Is(err, appcheckout.ErrSessionNotFound),
		errors.Is(err, domorder.ErrNotFound),
		errors.Is(err, domfulfil.ErrNotFound),
		errors.Is(err, dominv.ErrNotFound),
		errors.Is(err, domcart.ErrItemNotFound),
		errors.Is(err, dompay.ErrUnknownRef):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error(), Code: "not_found"})

	case errors.Is(err, apporder.ErrValidation),
		errors.Is(err, appgrowth.ErrSupplierRequired),
		errors.Is(err, apppay.ErrInvalidCallback),
		errors.Is(err, domgrowth.ErrInvalidPeriod),
		errors.Is(err, dompay.ErrInvalidMethod),
		errors.Is(err, dompay.ErrInvalidProvider),
		errors.Is(err, dominv.ErrInvalidQuantity),
		errors.Is(err, domorder.ErrInvalidQuantity),
		errors.Is(err, domcart.ErrInvalidQuantity),
		errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_request"})

	case errors.Is(err, appcheckout.ErrSubmitInProgress):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Code: "submit_in_progress", Retry: true})
	case errors.Is(err, domcheckout.ErrWrongStep),
		errors.Is(err, domcheckout.ErrNoPreviousStep),
		errors.Is(err, domcheckout.ErrFinished),
		errors.Is(err, domcheckout.ErrShippingRequired),
		errors.Is(err, domcheckout.ErrNoPaymentMethod),
		errors.Is(err, domcheckout.ErrPaymentCaptured),
		errors.Is(err, appcheckout.ErrEmptyCart),
		errors.Is(err, appcheckout.ErrCartLocked),
		errors.Is(err, appcheckout.ErrInsufficientStock),
		errors.Is(err, domorder.ErrInvalidTransition),
		errors.Is(err, domorder.ErrConflict),
		errors.Is(err, domfulfil.ErrInvalidTransition),
		errors.Is(err, domfulfil.ErrGroupCancelled),
		errors.Is(err, domfulfil.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Code: "conflict"})

	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal"})
	}
}
