package enums

// ExchangeCondition grades a trade-in unit.
type ExchangeCondition string

const (
	ExchangeConditionExcellent ExchangeCondition = "Excellent"
	ExchangeConditionGood      ExchangeCondition = "Good"
	ExchangeConditionFair      ExchangeCondition = "Fair"
	ExchangeConditionPoor      ExchangeCondition = "Poor"
)

var exchangeConditions = set[ExchangeCondition]{
	ExchangeConditionExcellent,
	ExchangeConditionGood,
	ExchangeConditionFair,
	ExchangeConditionPoor,
}

func (c ExchangeCondition) String() string { return string(c) }

func (c ExchangeCondition) IsValid() bool { return exchangeConditions.has(c) }

// ParseExchangeCondition ignores case, so form input like "good" resolves.
func ParseExchangeCondition(value string) (ExchangeCondition, error) {
	return exchangeConditions.parse("exchange condition", value, true)
}
