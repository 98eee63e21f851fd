package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderState stage of a planned order in the execution state machine.
type OrderState string

const (
	OrderStatePlanned                  OrderState = "planned"
	OrderStateSized                    OrderState = "sized"
	OrderStateSkippedBelowMin          OrderState = "skipped_below_min"
	OrderStateSkippedInsufficientFunds OrderState = "skipped_insufficient_funds"
	OrderStateSubmitted                OrderState = "submitted"
	OrderStateSimulated                OrderState = "simulated"
	OrderStateFilled                   OrderState = "filled"
	OrderStatePartial                  OrderState = "partial"
	OrderStateFailed                   OrderState = "failed"
)

// Terminal reports whether no further transition is possible.
func (s OrderState) Terminal() bool {
	switch s {
	case OrderStateSkippedBelowMin, OrderStateSkippedInsufficientFunds,
		OrderStateSimulated, OrderStateFilled, OrderStatePartial, OrderStateFailed:
		return true
	}
	return false
}

// Phase run phase an order belongs to.
type Phase string

const (
	PhaseLiquidation Phase = "liquidation"
	PhaseTrim        Phase = "trim"
	PhaseAcquisition Phase = "acquisition"
)

// OrderIntent unsized instruction produced by the planner or liquidation pass.
type OrderIntent struct {
	Phase  Phase
	Pair   Pair
	Action Action
	// Amount unrounded base quantity.
	Amount decimal.Decimal
	// Price last price used for sizing.
	Price decimal.Decimal
}

// OrderReceipt what the exchange reported back for a submitted market order.
type OrderReceipt struct {
	OrderID       string
	ClientOrderID string
	// Filled the exchange reported the order fully closed.
	Filled           bool
	Status           string
	ExecutedQuantity decimal.Decimal
}

// Order outcome of one intent.
type Order struct {
	Phase         Phase
	Pair          Pair
	Action        Action
	Amount        decimal.Decimal
	Price         decimal.Decimal
	State         OrderState
	ClientOrderID string
	Receipt       *OrderReceipt
	Err           error
	At            time.Time
}

// NewOrder starts an order in the planned state.
func NewOrder(intent OrderIntent) *Order {
	return &Order{
		Phase:  intent.Phase,
		Pair:   intent.Pair,
		Action: intent.Action,
		Amount: intent.Amount,
		Price:  intent.Price,
		State:  OrderStatePlanned,
	}
}

// Value quote value of the order at its sizing price.
func (o *Order) Value() decimal.Decimal {
	return o.Amount.Mul(o.Price)
}

// String returns a human-readable string representation.
func (o *Order) String() string {
	return fmt.Sprintf("%s %s action: %s amount: %s state: %s",
		o.Phase, o.Pair.String(), o.Action.String(), o.Amount.String(), o.State)
}

// Report result of one rebalancing run.
type Report struct {
	Universe       Universe
	InitialCapital decimal.Decimal
	Capital        decimal.Decimal
	Plan           AllocationPlan
	Orders         []*Order
	Final          Valuation
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Count returns how many orders ended in state.
func (r *Report) Count(state OrderState) int {
	n := 0
	for _, o := range r.Orders {
		if o.State == state {
			n++
		}
	}
	return n
}
