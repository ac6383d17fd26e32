package models

import "time"

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Sign returns +1 for a buy and -1 for a sell.
func (s OrderSide) Sign() float64 {
	if s == OrderSideSell {
		return -1
	}
	return 1
}

// Valid reports whether the side is a known value.
func (s OrderSide) Valid() bool {
	return s == OrderSideBuy || s == OrderSideSell
}

// OrderKind represents the kind of an order.
type OrderKind string

const (
	OrderKindMarket OrderKind = "MARKET"
	OrderKindLimit  OrderKind = "LIMIT"
	OrderKindStop   OrderKind = "STOP"
)

// Valid reports whether the kind is a known value.
func (k OrderKind) Valid() bool {
	return k == OrderKindMarket || k == OrderKindLimit || k == OrderKindStop
}

// TimeInForce represents order validity.
type TimeInForce string

const (
	TIFGoodTillCancel TimeInForce = "GTC"
	TIFDay            TimeInForce = "DAY"
)

// MetaKind discriminates the value held by a MetaValue.
type MetaKind int

const (
	MetaString MetaKind = iota
	MetaNumber
	MetaBool
)

// MetaValue is a bounded order-metadata value: a string, a number, or a
// boolean. Keeping the value set closed keeps orders and fills
// serializable and comparable in tests.
type MetaValue struct {
	Kind MetaKind
	Str  string
	Num  float64
	Flag bool
}

// MetaStr wraps a string metadata value.
func MetaStr(s string) MetaValue { return MetaValue{Kind: MetaString, Str: s} }

// MetaNum wraps a numeric metadata value.
func MetaNum(n float64) MetaValue { return MetaValue{Kind: MetaNumber, Num: n} }

// MetaFlag wraps a boolean metadata value.
func MetaFlag(b bool) MetaValue { return MetaValue{Kind: MetaBool, Flag: b} }

// Meta holds free-form order metadata.
type Meta map[string]MetaValue

// Order is a resting instruction to trade. The engine assigns ID and
// SubmittedAt on submission; callers leave them zero.
type Order struct {
	ID          int64
	Symbol      string
	Side        OrderSide
	Quantity    float64 // positive magnitude
	Kind        OrderKind
	LimitPrice  float64 // required for limit orders
	StopPrice   float64 // required for stop orders
	TIF         TimeInForce
	SubmittedAt time.Time
	Meta        Meta
}

// SignedQuantity returns the order quantity signed by side.
func (o Order) SignedQuantity() float64 {
	return o.Side.Sign() * o.Quantity
}

// Liquidity flags a fill's liquidity role. This model only simulates
// taking liquidity; no resting liquidity is modeled.
type Liquidity string

// LiquidityTaker is the only liquidity flag this engine produces.
const LiquidityTaker Liquidity = "TAKER"

// Fill is the immutable record of one order fully executing.
type Fill struct {
	OrderID   int64
	Symbol    string
	Quantity  float64 // signed: positive bought, negative sold
	Price     float64 // execution price after slippage
	Timestamp time.Time
	Fee       float64
	Slippage  float64 // execution price minus reference price
	Liquidity Liquidity
}

// Notional returns the absolute dollar value of the fill.
func (f Fill) Notional() float64 {
	n := f.Quantity * f.Price
	if n < 0 {
		return -n
	}
	return n
}
