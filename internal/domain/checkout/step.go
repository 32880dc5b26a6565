package checkout

// Step is a position in the checkout wizard.
type Step uint8

const (
	StepShipping Step = iota
	StepDelivery
	StepPayment
	StepConfirmation
)

var stepNames = [...]string{"shipping", "delivery", "payment", "confirmation"}

func (s Step) String() string {
	if int(s) < len(stepNames) {
		return stepNames[s]
	}
	return "unknown"
}

func (s Step) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Terminal reports whether the flow has finished.
func (s Step) Terminal() bool { return s == StepConfirmation }
