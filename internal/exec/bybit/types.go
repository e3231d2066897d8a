package bybit

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

type Status string

// 订单状态机：NEW → SIGNED → SENT → {FILLED | REJECTED | ERROR}。
// NEW→SIGNED 必须持有效签名；SENT 之后由交易所应答码决定终态。
const (
	StatusNew      Status = "NEW"
	StatusSigned   Status = "SIGNED"
	StatusSent     Status = "SENT"
	StatusFilled   Status = "FILLED"
	StatusRejected Status = "REJECTED"
	StatusError    Status = "ERROR"
)

// Category 是交易所应用级拒绝的分类。
type Category string

const (
	CategoryNone                Category = ""
	CategoryInvalidSignature    Category = "invalid signature"
	CategoryInvalidKey          Category = "invalid key"
	CategoryPermissionDenied    Category = "permission denied"
	CategoryInsufficientBalance Category = "insufficient balance"
	CategoryUnknown             Category = "unknown"
)

// Attempt 记录单次尝试的终态，只追加不覆盖，供审计与重试分析。
type Attempt struct {
	Seq             int
	Status          Status
	ExchangeOrderID string
	RetCode         int64
	Category        Category
	Err             string
	At              time.Time
}

// Order 是网关处理一个已批准信号时的执行记录。
type Order struct {
	Symbol          string
	Side            Side
	Quantity        decimal.Decimal
	OrderType       string
	Status          Status
	ExchangeOrderID string
	Attempt         int
	LastError       string
	Category        Category
	Paper           bool
	Price           float64
	Attempts        []Attempt
	CreatedAt       time.Time
}

func (o *Order) record(a Attempt) {
	a.Seq = len(o.Attempts) + 1
	a.At = time.Now()
	o.Attempts = append(o.Attempts, a)
	o.Attempt = a.Seq
	o.Status = a.Status
	o.ExchangeOrderID = a.ExchangeOrderID
	o.LastError = a.Err
	o.Category = a.Category
}
