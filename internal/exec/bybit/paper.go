package bybit

import (
	"hash/fnv"
	"time"

	"krill/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 纸面模式：不触网，所有操作短路为合成 FILLED 结果。
// 凭证缺失时默认走这里，直到显式开启实盘。

// paperPrice 生成一个按 symbol 稳定、看起来合理的价格。
func (c *Client) paperPrice(symbol string) float64 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	// 10 ~ 5120 之间的确定性伪价格
	return 10 + float64(h.Sum32()%512)*10
}

func (c *Client) paperOrder(symbol string, side Side, usdNotional float64, orderType string) *Order {
	price := c.paperPrice(symbol)
	qty := decimal.NewFromFloat(usdNotional).
		Div(decimal.NewFromFloat(price)).
		Round(4)
	order := &Order{
		Symbol:    symbol,
		Side:      side,
		Quantity:  qty,
		OrderType: orderType,
		Status:    StatusNew,
		Paper:     true,
		Price:     price,
		CreatedAt: time.Now(),
	}
	order.record(Attempt{
		Status:          StatusFilled,
		ExchangeOrderID: "paper-" + uuid.NewString(),
	})
	logger.Infof("paper 模式成交 symbol=%s side=%s qty=%s price=%.4f",
		symbol, side, qty.String(), price)
	return order
}
