package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

func (s Side) Valid() bool {
	switch s {
	case SideBuy, SideSell:
		return true
	default:
		return false
	}
}

// OrderState is the lifecycle position of an order. Executed and Rejected are terminal.
type OrderState string

const (
	StateSubmitted OrderState = "submitted"
	StateValidated OrderState = "validated"
	StateExecuted  OrderState = "executed"
	StateRejected  OrderState = "rejected"
)

func (s OrderState) Terminal() bool {
	switch s {
	case StateExecuted, StateRejected:
		return true
	default:
		return false
	}
}

type OrderStatus string

const (
	StatusFilled          OrderStatus = "filled"
	StatusPartiallyFilled OrderStatus = "partially_filled"
	StatusRejected        OrderStatus = "rejected"
)

// Order is immutable once submitted.
type Order struct {
	OrderID              string          `json:"order_id"`
	AssetID              string          `json:"asset_id"`
	ActorID              string          `json:"actor_id"`
	Side                 Side            `json:"side"`
	RequestedAmount      decimal.Decimal `json:"requested_amount"`
	SlippageTolerancePct decimal.Decimal `json:"slippage_tolerance_pct"`
	// ReferencePrice is the price the caller assumed; zero means "latest at submission".
	ReferencePrice decimal.Decimal `json:"reference_price"`
	SubmittedAt    time.Time       `json:"submitted_at"`
}

// OrderExecutionResult is written once per order.
type OrderExecutionResult struct {
	OrderID        string          `json:"order_id"`
	AssetID        string          `json:"asset_id"`
	Side           Side            `json:"side"`
	State          OrderState      `json:"state"`
	Status         OrderStatus     `json:"status"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
	ExecutedPrice  decimal.Decimal `json:"executed_price"`
	ExecutedAmount decimal.Decimal `json:"executed_amount"`
	Shortfall      decimal.Decimal `json:"shortfall"`
	Reason         string          `json:"reason,omitempty"`
	ExecutedAt     time.Time       `json:"executed_at"`
}
