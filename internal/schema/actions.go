package schema

// ActionKind enumerates the closed set of outbound actions.
type ActionKind uint8

const (
	ActionUnknown ActionKind = iota
	ActionPlace
	ActionCancel
	ActionCancelAll
	ActionTake

	actionKindEnd
)

// ActionKindCount is the number of defined kinds, for metrics arrays.
const ActionKindCount = int(actionKindEnd)

func (k ActionKind) String() string {
	switch k {
	case ActionPlace:
		return "place"
	case ActionCancel:
		return "cancel"
	case ActionCancelAll:
		return "cancel_all"
	case ActionTake:
		return "take"
	default:
		return "unknown"
	}
}

// Action is one instruction handed to the executor collaborator. Kind selects
// which fields are meaningful.
type Action struct {
	Kind ActionKind

	// ActionPlace / ActionTake.
	Side Side
	Size Shares

	// ActionPlace: limit price of the resting maker order.
	PriceTicks Ticks

	// ActionTake: worst acceptable crossing price.
	MaxPriceTicks Ticks

	// ActionPlace / ActionCancel: client order identifier. The router assigns
	// it on Place so the tracker and the executor share one name for the order.
	OrderID string
}

// Place builds a maker placement action.
func Place(side Side, price Ticks, size Shares) Action {
	return Action{Kind: ActionPlace, Side: side, PriceTicks: price, Size: size}
}

// Cancel builds a cancellation for a single resting order.
func Cancel(orderID string) Action {
	return Action{Kind: ActionCancel, OrderID: orderID}
}

// CancelAll builds a cancel of every resting order on both sides.
func CancelAll() Action {
	return Action{Kind: ActionCancelAll}
}

// Take builds a spread-crossing taker action.
func Take(side Side, size Shares, maxPrice Ticks) Action {
	return Action{Kind: ActionTake, Side: side, Size: size, MaxPriceTicks: maxPrice}
}
