package coinex

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// GenSign 生成请求签名
// 签名串格式: method + request_path(含query) + body + timestamp(毫秒)
func GenSign(secretKey, method, requestPath, body, timestamp string) string {
	prepared := strings.ToUpper(method) + requestPath + body + timestamp
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(prepared))
	return strings.ToLower(hex.EncodeToString(mac.Sum(nil)))
}

// buildHeaders 构造单次请求的完整请求头
// 每次调用返回全新的Header，不存在跨请求共享的可变状态
func buildHeaders(accessID, signature, timestamp string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Accept", "application/json")
	h.Set("X-COINEX-KEY", accessID)
	h.Set("X-COINEX-SIGN", signature)
	h.Set("X-COINEX-TIMESTAMP", timestamp)
	return h
}
