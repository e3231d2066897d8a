package market

// Ticker 是各交易所行情接口归一化后的快照。
// 字段映射只发生在各交易所 source 内部，业务层不做字段猜测。
type Ticker struct {
	Symbol       string
	Price        float64
	Bid          float64
	Ask          float64
	BidSize      float64
	AskSize      float64
	Volume24h    float64
	ChangePct24h float64
}

// SpreadBps 返回买卖价差（基点）。无有效盘口时返回 0。
func (t Ticker) SpreadBps() float64 {
	if t.Bid <= 0 || t.Ask <= 0 || t.Ask < t.Bid {
		return 0
	}
	mid := (t.Bid + t.Ask) / 2
	if mid <= 0 {
		return 0
	}
	return (t.Ask - t.Bid) / mid * 10000
}

// TopDepthUsdt 返回盘口一档的名义深度（USDT）。0 表示深度未知。
func (t Ticker) TopDepthUsdt() float64 {
	return t.Bid*t.BidSize + t.Ask*t.AskSize
}
