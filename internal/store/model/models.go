package model

import "gorm.io/datatypes"

type SignalModel struct {
	ID             int64          `gorm:"column:id;primaryKey"`
	Symbol         string         `gorm:"column:symbol;index"`
	Timeframe      string         `gorm:"column:timeframe"`
	Direction      string         `gorm:"column:direction"`
	Entry          float64        `gorm:"column:entry"`
	Stop           float64        `gorm:"column:stop"`
	Target         float64        `gorm:"column:target"`
	RawScore       float64        `gorm:"column:raw_score"`
	ExecutionScore float64        `gorm:"column:execution_score"`
	Grade          string         `gorm:"column:grade"`
	AutoTradeable  bool           `gorm:"column:auto_tradeable"`
	GateReason     string         `gorm:"column:gate_reason"`
	RiskReward     float64        `gorm:"column:risk_reward"`
	SpreadBps      float64        `gorm:"column:spread_bps"`
	DepthUSDT      float64        `gorm:"column:depth_usdt"`
	Details        datatypes.JSON `gorm:"column:details;type:TEXT"`
	CreatedAtUnix  int64          `gorm:"column:created_at;index"`
}

func (SignalModel) TableName() string { return "signals" }

type OrderModel struct {
	ID              int64          `gorm:"column:id;primaryKey"`
	SignalID        int64          `gorm:"column:signal_id;index"`
	Symbol          string         `gorm:"column:symbol;index"`
	Side            string         `gorm:"column:side"`
	OrderType       string         `gorm:"column:order_type"`
	Quantity        string         `gorm:"column:quantity"`
	Price           float64        `gorm:"column:price"`
	Status          string         `gorm:"column:status"`
	Category        string         `gorm:"column:category"`
	ExchangeOrderID string         `gorm:"column:exchange_order_id;index"`
	Paper           bool           `gorm:"column:paper"`
	Attempts        datatypes.JSON `gorm:"column:attempts;type:TEXT"`
	CreatedAtUnix   int64          `gorm:"column:created_at;index"`
}

func (OrderModel) TableName() string { return "orders" }

type AlertModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	HashKey       string         `gorm:"column:hash_key;index"`
	Kind          string         `gorm:"column:kind"`
	Severity      string         `gorm:"column:severity"`
	Symbol        string         `gorm:"column:symbol"`
	Title         string         `gorm:"column:title"`
	Outcome       string         `gorm:"column:outcome"`
	Delivery      datatypes.JSON `gorm:"column:delivery;type:TEXT"`
	CreatedAtUnix int64          `gorm:"column:created_at;index"`
}

func (AlertModel) TableName() string { return "alerts" }

type SymbolStatModel struct {
	ID            int64  `gorm:"column:id;primaryKey"`
	Symbol        string `gorm:"column:symbol;uniqueIndex"`
	Wins          int64  `gorm:"column:wins"`
	Losses        int64  `gorm:"column:losses"`
	UpdatedAtUnix int64  `gorm:"column:updated_at"`
}

func (SymbolStatModel) TableName() string { return "symbol_stats" }
