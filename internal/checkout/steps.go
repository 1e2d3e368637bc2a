package checkout

// StepName identifies a checkout step.
type StepName string

const (
	StepShipping StepName = "shipping"
	StepPayment  StepName = "payment"
	StepReview   StepName = "review"
)

// Step is one entry of a workflow's ordered step list. Validate returns
// the missing field names, empty when the step may be left.
type Step struct {
	Name     StepName
	Validate func(FormData) []string
}

var (
	shippingStep = Step{Name: StepShipping, Validate: func(f FormData) []string { return missingFields(f.Shipping) }}
	paymentStep  = Step{Name: StepPayment, Validate: func(f FormData) []string { return missingFields(f.Payment) }}
	reviewStep   = Step{Name: StepReview, Validate: func(FormData) []string { return nil }}
)

// TwoStep is Shipping then Review; payment is collected on delivery.
func TwoStep() []Step {
	return []Step{shippingStep, reviewStep}
}

// ThreeStep adds the Payment stub between Shipping and Review.
func ThreeStep() []Step {
	return []Step{shippingStep, paymentStep, reviewStep}
}

// StepsFor picks the variant.
func StepsFor(includePayment bool) []Step {
	if includePayment {
		return ThreeStep()
	}
	return TwoStep()
}

func hasStep(steps []Step, name StepName) bool {
	for _, s := range steps {
		if s.Name == name {
			return true
		}
	}
	return false
}
