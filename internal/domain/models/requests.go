package models

import "github.com/shopspring/decimal"

// Requests for the HTTP API. Times are RFC3339 or unix seconds; empty means unbounded.

type WindowRequest struct {
	Asset string `param:"asset" json:"-" validate:"required,max=128"`
	From  string `query:"from" json:"from"`
	To    string `query:"to" json:"to"`
}

type StatisticsRequest struct {
	WindowRequest
}

type SeasonalRequest struct {
	WindowRequest
	Period int `query:"period" json:"period" default:"12" validate:"gte=2,lte=366"`
}

type PredictionRequest struct {
	WindowRequest
	Period  int `query:"period" json:"period" default:"12" validate:"gte=2,lte=366"`
	Horizon int `query:"horizon" json:"horizon" default:"6" validate:"gte=1,lte=365"`
}

type TimeSeriesRequest struct {
	WindowRequest
	Limit int `query:"limit" json:"limit" default:"10000" validate:"gte=1,lte=50000"`
}

type PriceHistoryRequest struct {
	WindowRequest
	Interval string `query:"interval" json:"interval" default:"1d" validate:"oneof=1h 1d 1w"`
}

type OverviewRequest struct {
	WindowRequest
	Period  int `query:"period" json:"period" default:"12" validate:"gte=2,lte=366"`
	Horizon int `query:"horizon" json:"horizon" default:"6" validate:"gte=1,lte=365"`
}

type AppendSampleRequest struct {
	Asset     string  `param:"asset" json:"-" validate:"required,max=128"`
	Timestamp string  `json:"timestamp" validate:"required"`
	Price     float64 `json:"price" validate:"gte=0"`
	Volume    float64 `json:"volume" validate:"gte=0"`
}

type RankingRequest struct {
	Assets       []string           `json:"assets" validate:"required,min=1,max=200,dive,required"`
	Weights      map[string]float64 `json:"weights" validate:"required,min=1"`
	LookbackDays int                `json:"lookback_days" default:"30" validate:"gte=1,lte=3650"`
}

type CompareRequest struct {
	A            string `query:"a" json:"a" validate:"required"`
	B            string `query:"b" json:"b" validate:"required,nefield=A"`
	LookbackDays int    `query:"lookback_days" json:"lookback_days" default:"30" validate:"gte=1,lte=3650"`
}

// PlaceOrderRequest leaves side, amount and slippage checks to the engine so that
// every rejection is audited.
type PlaceOrderRequest struct {
	AssetID              string          `json:"asset_id" validate:"required,max=128"`
	Side                 string          `json:"side" validate:"required"`
	Amount               decimal.Decimal `json:"amount"`
	SlippageTolerancePct decimal.Decimal `json:"slippage_tolerance_pct"`
	ReferencePrice       decimal.Decimal `json:"reference_price"`
}

type OrderLookupRequest struct {
	ID string `param:"id" validate:"required"`
}

// ExportRequest selects an analytics result by Kind and renders it in Format.
// Which of the remaining fields are required depends on Kind.
type ExportRequest struct {
	Kind    string             `json:"kind" validate:"required,oneof=statistics seasonal prediction rankings comparison"`
	Format  string             `json:"format" validate:"required"`
	Asset   string             `json:"asset"`
	From    string             `json:"from"`
	To      string             `json:"to"`
	Period  int                `json:"period" default:"12" validate:"gte=2,lte=366"`
	Horizon int                `json:"horizon" default:"6" validate:"gte=1,lte=365"`
	Assets  []string           `json:"assets"`
	Weights map[string]float64 `json:"weights"`
	A       string             `json:"a"`
	B       string             `json:"b"`
	// LookbackDays applies to rankings and comparison.
	LookbackDays int `json:"lookback_days" default:"30" validate:"gte=1,lte=3650"`
}

type AuditLogsRequest struct {
	Actor  string `query:"actor" json:"actor"`
	Action string `query:"action" json:"action"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=10000"`
}

type CreateUserRequest struct {
	Name  string `json:"name" validate:"required,max=256"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" default:"viewer" validate:"oneof=admin trader viewer"`
}

type ListUsersRequest struct {
	Page     int `query:"page" default:"1" validate:"gte=1"`
	PageSize int `query:"page_size" default:"50" validate:"gte=1,lte=500"`
}

// User mirrors the user directory's representation.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
