package payment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGateway is the umbrella for every failure that guarantees no order was created.
	ErrGateway    = errors.New("payment: gateway failure")
	ErrCancelled  = fmt.Errorf("%w: cancelled by payer", ErrGateway)
	ErrDeclined   = fmt.Errorf("%w: declined", ErrGateway)
	ErrUnknownRef = errors.New("payment: unknown reference")

	ErrInvalidMethod   = errors.New("payment: invalid payment method")
	ErrInvalidProvider = errors.New("payment: invalid mobile money provider")
	ErrInvalidAmount   = errors.New("payment: amount must be greater than zero")
)

// Status is the payment state of an order or a supplier payout.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed:
		return true
	}
	return false
}

// Kind identifies the payment path.
type Kind string

const (
	KindCard           Kind = "card"
	KindMobileMoney    Kind = "mobile_money"
	KindCashOnDelivery Kind = "cash_on_delivery"
)

// Provider is a mobile money network.
type Provider string

const (
	ProviderMTN        Provider = "mtn"
	ProviderVodafone   Provider = "vodafone"
	ProviderAirtelTigo Provider = "airteltigo"
)

// Method is the buyer's payment selection. Provider is set only for mobile money.
type Method struct {
	Kind     Kind     `json:"kind"`
	Provider Provider `json:"provider,omitempty"`
}

func Card() Method                       { return Method{Kind: KindCard} }
func CashOnDelivery() Method             { return Method{Kind: KindCashOnDelivery} }
func MobileMoney(p Provider) Method      { return Method{Kind: KindMobileMoney, Provider: p} }
func (m Method) UsesGateway() bool       { return m.Kind == KindCard || m.Kind == KindMobileMoney }
func (m Method) IsZero() bool            { return m.Kind == "" }
func (m Method) Equal(other Method) bool { return m == other }

func (m Method) Validate() error {
	switch m.Kind {
	case KindCard, KindCashOnDelivery:
		if m.Provider != "" {
			return fmt.Errorf("%w: provider only applies to mobile money", ErrInvalidMethod)
		}
		return nil
	case KindMobileMoney:
		switch m.Provider {
		case ProviderMTN, ProviderVodafone, ProviderAirtelTigo:
			return nil
		}
		return fmt.Errorf("%w: %q", ErrInvalidProvider, m.Provider)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMethod, m.Kind)
	}
}

// Channel is the label sent to the processor ("card", "mobile_money:mtn").
func (m Method) Channel() string {
	if m.Kind == KindMobileMoney {
		return string(m.Kind) + ":" + string(m.Provider)
	}
	return string(m.Kind)
}

func (m Method) String() string { return m.Channel() }

// ParseMethod is the inverse of Channel.
func ParseMethod(s string) (Method, error) {
	kind, provider, _ := strings.Cut(s, ":")
	m := Method{Kind: Kind(kind), Provider: Provider(provider)}
	if err := m.Validate(); err != nil {
		return Method{}, err
	}
	return m, nil
}
