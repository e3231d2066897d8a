package bybit

import "errors"

var (
	// ErrThrottled 表示滚动窗口限频拒绝了本次请求（未发起网络调用）。
	// 网关不自动重试，由调用方决定是否重新排队。
	ErrThrottled = errors.New("bybit: rate limited")

	// ErrUnsupportedSymbol 表示实盘模式下的非受支持报价货币交易对。
	ErrUnsupportedSymbol = errors.New("bybit: unsupported symbol")

	// ErrCircuitOpen 表示熔断器处于打开状态，直接按网络错误处理。
	ErrCircuitOpen = errors.New("bybit: circuit open")
)

// Bybit v5 常见应用级错误码。
const (
	retCodeOK                  = 0
	retCodeParamError          = 10001
	retCodeInvalidKey          = 10003
	retCodeInvalidSignature    = 10004
	retCodePermissionDenied    = 10005
	retCodeLeverageNotModified = 110043
	retCodeInsufficientBalance = 110007
)

// classify 将交易所应答码映射为错误分类。应用级拒绝一律不重试。
func classify(retCode int64) Category {
	switch retCode {
	case retCodeInvalidSignature:
		return CategoryInvalidSignature
	case retCodeInvalidKey:
		return CategoryInvalidKey
	case retCodePermissionDenied:
		return CategoryPermissionDenied
	case retCodeInsufficientBalance:
		return CategoryInsufficientBalance
	default:
		return CategoryUnknown
	}
}
