package domain

// Action represents the type of trading action to be performed.
type Action int

const (
	ActionHold Action = iota
	ActionBuy
	ActionSell
)

const (
	actionStringHold = "hold"
	actionStringBuy  = "buy"
	actionStringSell = "sell"
)

// String returns the string representation of the action
func (a Action) String() string {
	switch a {
	case ActionHold:
		return actionStringHold
	case ActionBuy:
		return actionStringBuy
	case ActionSell:
		return actionStringSell
	default:
		return "unknown"
	}
}
