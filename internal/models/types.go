package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Segment string
type Side string
type Product string
type OrderType string
type OrderStatus string

const (
	SegmentNSE Segment = "NSE"
	SegmentBSE Segment = "BSE"
	SegmentNFO Segment = "NFO"
	SegmentBFO Segment = "BFO"
	SegmentMCX Segment = "MCX"
	SegmentCDS Segment = "CDS"

	SideBuy  Side = "BUY"
	SideSell Side = "SELL"

	ProductIntraday Product = "MIS"
	ProductCarry    Product = "NRML"
	ProductDelivery Product = "CNC"

	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"

	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusComplete  OrderStatus = "COMPLETE"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

var KnownSegments = []Segment{
	SegmentNSE,
	SegmentBSE,
	SegmentNFO,
	SegmentBFO,
	SegmentMCX,
	SegmentCDS,
}

func (s Segment) Known() bool {
	for _, known := range KnownSegments {
		if s == known {
			return true
		}
	}
	return false
}

func (s Segment) IsDerivatives() bool {
	return s == SegmentNFO || s == SegmentBFO
}

func (s Segment) IsCommodity() bool {
	return s == SegmentMCX
}

// TradeEvent описывает завершённую сделку лидера. После создания не изменяется.
type TradeEvent struct {
	OrderID   string          `json:"order_id"`
	Symbol    string          `json:"symbol"`
	Segment   Segment         `json:"segment"`
	Side      Side            `json:"side"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Product   Product         `json:"product"`
	OrderType OrderType       `json:"order_type"`
	Timestamp time.Time       `json:"timestamp"`
	LeaderID  string          `json:"leader_id"`
}

// OrderUpdate несёт сырое уведомление о статусе ордера из потока брокера.
type OrderUpdate struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	Symbol    string    `json:"tradingsymbol"`
	Segment   string    `json:"exchange"`
	Side      string    `json:"transaction_type"`
	Quantity  int       `json:"quantity"`
	Price     string    `json:"price"`
	Product   string    `json:"product"`
	OrderType string    `json:"order_type"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"order_timestamp"`
}

type OrderParams struct {
	Variety   string
	Segment   Segment
	Symbol    string
	Side      Side
	Quantity  int
	Product   Product
	OrderType OrderType
	Price     decimal.Decimal
	Tag       string
}

type AccountInfo struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// ReplicationResult хранит итог репликации одного события на один аккаунт.
type ReplicationResult struct {
	UserID   string `json:"user_id"`
	Success  bool   `json:"success"`
	Quantity int    `json:"replicated_quantity"`
	OrderID  string `json:"order_id,omitempty"`
	Denied   bool   `json:"denied,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Error    string `json:"error,omitempty"`
}

// DailyStats собирается для итоговой сводки за сессию.
type DailyStats struct {
	Uptime          time.Duration        `json:"uptime"`
	TradesProcessed int                  `json:"total_trades_processed"`
	Successful      int                  `json:"successful_replications"`
	Failed          int                  `json:"failed_replications"`
	Followers       []FollowerDailyStats `json:"followers"`
}

type FollowerDailyStats struct {
	UserID      string          `json:"user_id"`
	Enabled     bool            `json:"enabled"`
	Multiplier  float64         `json:"multiplier"`
	DailyTrades int             `json:"daily_trades"`
	DailyPnL    decimal.Decimal `json:"daily_pnl"`
	Placed      int             `json:"placed_orders"`
	Failed      int             `json:"failed_orders"`
}
