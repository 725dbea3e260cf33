package executor

import (
	"github.com/yanun0323/errors"

	"main/internal/schema"
)

var (
	ErrDuplicateOrder    = errors.New("executor: order already exists")
	ErrUnknownOrder      = errors.New("executor: order not found")
	ErrInvalidTransition = errors.New("executor: invalid order state transition")
	ErrInvalidFill       = errors.New("executor: invalid fill quantity")
)

// OrderState tracks the lifecycle of an order.
type OrderState uint8

const (
	OrderStateUnknown OrderState = iota
	OrderStateNew
	OrderStateSent
	OrderStateAcked
	OrderStatePartFilled
	OrderStateFilled
	OrderStateCanceled
	OrderStateRejected
)

func (s OrderState) String() string {
	switch s {
	case OrderStateNew:
		return "new"
	case OrderStateSent:
		return "sent"
	case OrderStateAcked:
		return "acked"
	case OrderStatePartFilled:
		return "part_filled"
	case OrderStateFilled:
		return "filled"
	case OrderStateCanceled:
		return "canceled"
	case OrderStateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Order holds the executor's view of one submitted order.
type Order struct {
	ID     string
	Side   schema.Side
	Price  schema.Ticks
	Qty    schema.Shares
	Leaves schema.Shares
	State  OrderState
}

// StateMachine updates orders from submit/ack/fill/cancel events. It exists
// so a lifecycle bug surfaces as a loud invalid-transition error instead of a
// silently wrong position.
type StateMachine struct {
	orders map[string]*Order
}

func NewStateMachine() *StateMachine {
	return &StateMachine{orders: make(map[string]*Order)}
}

// Order returns the current order state.
func (m *StateMachine) Order(id string) (*Order, bool) {
	o, ok := m.orders[id]
	return o, ok
}

// ApplySubmit creates a new order in Sent state.
func (m *StateMachine) ApplySubmit(a schema.Action) (*Order, error) {
	if a.OrderID == "" {
		return nil, ErrUnknownOrder
	}
	if _, ok := m.orders[a.OrderID]; ok {
		return nil, ErrDuplicateOrder
	}
	o := &Order{
		ID:     a.OrderID,
		Side:   a.Side,
		Price:  a.PriceTicks,
		Qty:    a.Size,
		Leaves: a.Size,
		State:  OrderStateSent,
	}
	m.orders[o.ID] = o
	return o, nil
}

// ApplyAck moves a sent order to Acked.
func (m *StateMachine) ApplyAck(id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrUnknownOrder
	}
	if isTerminal(o.State) {
		return o, ErrInvalidTransition
	}
	if o.State == OrderStateSent || o.State == OrderStateNew {
		o.State = OrderStateAcked
	}
	return o, nil
}

// ApplyFill reduces an order by the filled size.
func (m *StateMachine) ApplyFill(id string, size schema.Shares) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrUnknownOrder
	}
	if isTerminal(o.State) {
		return o, ErrInvalidTransition
	}
	if size <= 0 {
		return o, ErrInvalidFill
	}
	o.Leaves -= size
	if o.Leaves <= 0 {
		o.Leaves = 0
		o.State = OrderStateFilled
	} else {
		o.State = OrderStatePartFilled
	}
	return o, nil
}

// ApplyCancel moves an order to Canceled.
func (m *StateMachine) ApplyCancel(id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrUnknownOrder
	}
	if isTerminal(o.State) {
		return o, ErrInvalidTransition
	}
	o.State = OrderStateCanceled
	return o, nil
}

// ApplyReject marks a submission the venue refused.
func (m *StateMachine) ApplyReject(id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrUnknownOrder
	}
	o.State = OrderStateRejected
	return o, nil
}

// Forget drops a tracked order. Callers prune terminal orders here so the
// map stays bounded over a long session.
func (m *StateMachine) Forget(id string) {
	delete(m.orders, id)
}

// Live returns the IDs of all non-terminal orders.
func (m *StateMachine) Live() []string {
	out := make([]string, 0, len(m.orders))
	for id, o := range m.orders {
		if !isTerminal(o.State) {
			out = append(out, id)
		}
	}
	return out
}

func isTerminal(state OrderState) bool {
	switch state {
	case OrderStateFilled, OrderStateCanceled, OrderStateRejected:
		return true
	default:
		return false
	}
}
