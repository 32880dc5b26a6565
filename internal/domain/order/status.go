package order

import (
	"fmt"
	"strings"
)

// Status is the closed set of order lifecycle states.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusPending
	StatusConfirmed
	StatusProcessing
	StatusShipped
	StatusDelivered
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusPending:    "pending",
	StatusConfirmed:  "confirmed",
	StatusProcessing: "processing",
	StatusShipped:    "shipped",
	StatusDelivered:  "delivered",
	StatusCancelled:  "cancelled",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func ParseStatus(v string) (Status, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for s, name := range statusNames {
		if name == v {
			return s, nil
		}
	}
	return StatusUnknown, fmt.Errorf("order: unknown status %q", v)
}

func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("order: cannot marshal status %d", s)
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Presentation is how a status is shown to buyers and staff.
type Presentation struct {
	Label string `json:"label"`
	Badge string `json:"badge"`
}

// Presentations is the single status → display mapping.
var Presentations = map[Status]Presentation{
	StatusPending:    {Label: "Pending", Badge: "yellow"},
	StatusConfirmed:  {Label: "Confirmed", Badge: "blue"},
	StatusProcessing: {Label: "Processing", Badge: "indigo"},
	StatusShipped:    {Label: "Shipped", Badge: "purple"},
	StatusDelivered:  {Label: "Delivered", Badge: "green"},
	StatusCancelled:  {Label: "Cancelled", Badge: "red"},
}

func (s Status) Presentation() Presentation {
	if p, ok := Presentations[s]; ok {
		return p
	}
	return Presentation{Label: "Unknown", Badge: "gray"}
}
