package bybit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// sign 计算 Bybit v5 请求签名：
// HMAC-SHA256(secret, timestamp + apiKey + recvWindow + payload) 的十六进制。
// payload 为 POST body 或 GET 的 query string。
func sign(secret, timestamp, apiKey, recvWindow, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + apiKey + recvWindow + payload))
	return hex.EncodeToString(mac.Sum(nil))
}
