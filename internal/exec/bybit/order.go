package bybit

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"krill/internal/logger"
	symbolpkg "krill/internal/pkg/symbol"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// GetPrice 查询最新成交价。
func (c *Client) GetPrice(ctx context.Context, symbol string) (float64, error) {
	if c.cfg.Paper {
		return c.paperPrice(symbol), nil
	}
	q := url.Values{}
	q.Set("category", "linear")
	q.Set("symbol", symbol)
	resp, err := c.publicGET(ctx, "/v5/market/tickers", q.Encode())
	if err != nil {
		return 0, err
	}
	if resp.retCode != retCodeOK {
		return 0, fmt.Errorf("bybit tickers retCode=%d retMsg=%s", resp.retCode, resp.retMsg)
	}
	price := gjson.GetBytes(resp.body, "result.list.0.lastPrice").Float()
	if price <= 0 {
		return 0, fmt.Errorf("bybit tickers 无有效价格: %s", symbol)
	}
	return price, nil
}

// EnsureLeverage 设置杠杆（尽力而为）："杠杆未变化"不算失败。
func (c *Client) EnsureLeverage(ctx context.Context, symbol string, leverage int) error {
	if leverage <= 0 {
		return fmt.Errorf("无效杠杆: %d", leverage)
	}
	if c.cfg.Paper {
		return nil
	}
	body := fmt.Sprintf(`{"category":"linear","symbol":%q,"buyLeverage":"%d","sellLeverage":"%d"}`,
		symbol, leverage, leverage)
	resp, err := c.signedPOST(ctx, "/v5/position/set-leverage", body)
	if err != nil {
		return err
	}
	if resp.retCode != retCodeOK && resp.retCode != retCodeLeverageNotModified {
		return fmt.Errorf("set-leverage retCode=%d retMsg=%s", resp.retCode, resp.retMsg)
	}
	return nil
}

// PlaceOrder 将一个已批准的信号提交为交易所订单。
// 仓位大小始终由 USD 名义金额 ÷ 现价推导，不接受调用方直接给数量，
// 以便仓位控制集中在一处。每次尝试都追加记录到返回的 Order。
//
// 返回值约定：
//   - (order, nil)           已得到终态 FILLED / REJECTED
//   - (order, err)           传输类失败（含超时/熔断），order.Status == ERROR
//   - (nil, ErrThrottled)    被限频拒绝，未发起调用
//   - (nil, 其它 err)        前置校验失败（不支持的交易对等）
func (c *Client) PlaceOrder(ctx context.Context, symbol string, side Side, usdNotional float64, orderType string) (*Order, error) {
	if usdNotional <= 0 {
		return nil, fmt.Errorf("无效下单金额: %f", usdNotional)
	}
	if orderType == "" {
		orderType = "Market"
	}
	if c.cfg.Paper {
		return c.paperOrder(symbol, side, usdNotional, orderType), nil
	}
	if !symbolpkg.IsSupportedQuote(symbol) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSymbol, symbol)
	}

	price, err := c.GetPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("获取价格失败: %w", err)
	}
	qty := decimal.NewFromFloat(usdNotional).
		Div(decimal.NewFromFloat(price)).
		Round(4)
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("推导数量无效: notional=%f price=%f", usdNotional, price)
	}

	order := &Order{
		Symbol:    symbol,
		Side:      side,
		Quantity:  qty,
		OrderType: orderType,
		Status:    StatusNew,
		Price:     price,
		CreatedAt: time.Now(),
	}
	body := fmt.Sprintf(`{"category":"linear","symbol":%q,"side":%q,"orderType":%q,"qty":%q}`,
		symbol, side, orderType, qty.String())

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		req, err := c.newSignedRequest(ctx, "/v5/order/create", body)
		if err != nil {
			if err == ErrThrottled {
				// 限频是独立结果：不计 attempt，也不重试。
				return nil, ErrThrottled
			}
			order.record(Attempt{Status: StatusError, Err: err.Error()})
			lastErr = err
			if err == ErrCircuitOpen {
				return order, err
			}
			if attempt < c.cfg.MaxAttempts {
				logRetry("place-order", attempt, err)
				if serr := sleepCtx(ctx, c.backoff(attempt)); serr != nil {
					return order, serr
				}
				continue
			}
			return order, lastErr
		}
		order.Status = StatusSigned

		resp, err := c.do(req)
		order.Status = StatusSent
		if err != nil {
			order.record(Attempt{Status: StatusError, Err: err.Error()})
			lastErr = err
			if attempt < c.cfg.MaxAttempts {
				logRetry("place-order", attempt, err)
				if serr := sleepCtx(ctx, c.backoff(attempt)); serr != nil {
					return order, serr
				}
				continue
			}
			return order, lastErr
		}
		if resp.retCode != retCodeOK {
			// 应用级拒绝：带分类立即返回，不重试。
			order.record(Attempt{
				Status:   StatusRejected,
				RetCode:  resp.retCode,
				Category: classify(resp.retCode),
				Err:      resp.retMsg,
			})
			logger.Warnf("bybit 下单被拒 symbol=%s retCode=%d category=%s msg=%s",
				symbol, resp.retCode, order.Category, resp.retMsg)
			return order, nil
		}
		order.record(Attempt{
			Status:          StatusFilled,
			ExchangeOrderID: gjson.GetBytes(resp.body, "result.orderId").String(),
		})
		logger.Infof("bybit 下单成功 symbol=%s side=%s qty=%s orderId=%s",
			symbol, side, qty.String(), order.ExchangeOrderID)
		return order, nil
	}
	return order, lastErr
}
