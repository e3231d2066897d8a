package symbol

import "strings"

// 支持的报价货币（实盘下单前的安全校验口径）。
var supportedQuotes = []string{"USDT", "USDC"}

type Symbol struct {
	Base  string
	Quote string
}

// Exchange 返回交易所风格符号（如 BTCUSDT）。
func (s Symbol) Exchange() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + s.Quote
}

// Parse 解析 "BTC/USDT" 或 "BTCUSDT" 两种写法。
func Parse(s string) Symbol {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Symbol{}
	}
	if parts := strings.SplitN(s, "/", 2); len(parts) == 2 {
		return Symbol{
			Base:  strings.TrimSpace(parts[0]),
			Quote: strings.TrimSpace(parts[1]),
		}
	}
	quotes := []string{"USDT", "USDC", "BUSD", "BTC", "ETH"}
	for _, quote := range quotes {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return Symbol{Base: s[:len(s)-len(quote)], Quote: quote}
		}
	}
	return Symbol{}
}

// Normalize 归一化为交易所风格符号；无法解析时返回空串。
func Normalize(s string) string {
	return Parse(s).Exchange()
}

// IsSupportedQuote 判断是否为受支持的报价货币交易对。
// 实盘网关据此拒绝非 USDT/USDC 对。
func IsSupportedQuote(s string) bool {
	sym := Parse(s)
	if sym.Quote == "" {
		return false
	}
	for _, q := range supportedQuotes {
		if sym.Quote == q {
			return true
		}
	}
	return false
}
