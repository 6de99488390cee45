package coinex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL CoinEx v2 API地址
const DefaultBaseURL = "https://api.coinex.com/v2"

// Client CoinEx交易所客户端
type Client struct {
	accessID  string
	secretKey string
	baseURL   string
	clientID  string
	http      *http.Client
}

// apiResponse CoinEx v2 API统一响应格式
type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewClient 创建CoinEx客户端，timeoutSeconds不大于0时使用默认10秒
func NewClient(accessID, secretKey, baseURL, clientID string, timeoutSeconds int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 10
	}
	return &Client{
		accessID:  accessID,
		secretKey: secretKey,
		baseURL:   baseURL,
		clientID:  clientID,
		http:      &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
	}
}

// request 发送已签名的请求并解析统一响应
// 业务层拒绝(code != 0)返回*RejectionError，网络/HTTP错误返回普通error
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body interface{}) (json.RawMessage, error) {
	requestPath := path
	if len(query) > 0 {
		requestPath = path + "?" + query.Encode()
	}

	var bodyStr string
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyStr = string(raw)
	}

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	signature := GenSign(c.secretKey, method, requestPath, bodyStr, timestamp)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bytes.NewBufferString(bodyStr))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header = buildHeaders(c.accessID, signature, timestamp)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, path, string(raw))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	if apiResp.Code != 0 {
		return nil, &RejectionError{Code: apiResp.Code, Message: apiResp.Message}
	}

	return apiResp.Data, nil
}

// GetSpotMarkets 获取全部现货交易对信息
func (c *Client) GetSpotMarkets(ctx context.Context) ([]*MarketInfo, error) {
	data, err := c.request(ctx, http.MethodGet, "/spot/market", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get spot markets: %w", err)
	}

	var markets []*MarketInfo
	if err := json.Unmarshal(data, &markets); err != nil {
		return nil, fmt.Errorf("failed to decode spot markets: %w", err)
	}
	return markets, nil
}

// GetSpotMarket 获取单个交易对的详细信息
func (c *Client) GetSpotMarket(ctx context.Context, market string) (*MarketInfo, error) {
	query := url.Values{}
	query.Set("market", market)

	data, err := c.request(ctx, http.MethodGet, "/spot/market", query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get spot market %s: %w", market, err)
	}

	var markets []*MarketInfo
	if err := json.Unmarshal(data, &markets); err != nil {
		return nil, fmt.Errorf("failed to decode spot market %s: %w", market, err)
	}
	if len(markets) == 0 {
		return nil, fmt.Errorf("no market info for %s", market)
	}
	return markets[0], nil
}

// GetSpotTicker 获取交易对24小时行情
func (c *Client) GetSpotTicker(ctx context.Context, market string) (*TickerInfo, error) {
	query := url.Values{}
	query.Set("market", market)

	data, err := c.request(ctx, http.MethodGet, "/spot/ticker", query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get spot ticker %s: %w", market, err)
	}

	var tickers []*TickerInfo
	if err := json.Unmarshal(data, &tickers); err != nil {
		return nil, fmt.Errorf("failed to decode spot ticker %s: %w", market, err)
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no ticker data for %s", market)
	}
	return tickers[0], nil
}

// GetLastPrice 获取交易对最新价
func (c *Client) GetLastPrice(ctx context.Context, market string) (decimal.Decimal, error) {
	ticker, err := c.GetSpotTicker(ctx, market)
	if err != nil {
		return decimal.Zero, err
	}
	return ticker.Last, nil
}

// GetSpotKline 获取K线数据
// period取值见timeframes包，limit最大1000
func (c *Client) GetSpotKline(ctx context.Context, market, period string, limit int) ([]*KlineItem, error) {
	query := url.Values{}
	query.Set("market", market)
	query.Set("period", period)
	query.Set("limit", strconv.Itoa(limit))

	data, err := c.request(ctx, http.MethodGet, "/spot/kline", query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get kline %s %s: %w", market, period, err)
	}

	var klines []*KlineItem
	if err := json.Unmarshal(data, &klines); err != nil {
		return nil, fmt.Errorf("failed to decode kline %s: %w", market, err)
	}
	return klines, nil
}

// GetSpotBalance 获取现货账户余额
func (c *Client) GetSpotBalance(ctx context.Context) ([]*BalanceItem, error) {
	data, err := c.request(ctx, http.MethodGet, "/assets/spot/balance", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get spot balance: %w", err)
	}

	var balances []*BalanceItem
	if err := json.Unmarshal(data, &balances); err != nil {
		return nil, fmt.Errorf("failed to decode spot balance: %w", err)
	}
	return balances, nil
}

// GetDepositAddress 获取充值地址
// chain如 "TRC20" / "CSC" / "BEP20"
func (c *Client) GetDepositAddress(ctx context.Context, ccy, chain string) (*DepositAddress, error) {
	query := url.Values{}
	query.Set("ccy", ccy)
	query.Set("chain", chain)

	data, err := c.request(ctx, http.MethodGet, "/assets/deposit-address", query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit address %s/%s: %w", ccy, chain, err)
	}

	var addr DepositAddress
	if err := json.Unmarshal(data, &addr); err != nil {
		return nil, fmt.Errorf("failed to decode deposit address: %w", err)
	}
	return &addr, nil
}

// placeOrderPayload 下单请求体，指针字段为空时不参与序列化
type placeOrderPayload struct {
	Market     string `json:"market"`
	MarketType string `json:"market_type"`
	Side       string `json:"side"`
	Type       string `json:"type"`
	Amount     string `json:"amount,omitempty"`
	Price      string `json:"price,omitempty"`
	ClientID   string `json:"client_id,omitempty"`
	IsHide     bool   `json:"is_hide"`
}

// PlaceSpotOrder 下现货订单
// 交易所业务层拒绝以*RejectionError返回，调用方区别于网络错误处理
func (c *Client) PlaceSpotOrder(ctx context.Context, req *OrderRequest) (*OrderInfo, error) {
	payload := &placeOrderPayload{
		Market:     req.Market,
		MarketType: "SPOT",
		Side:       req.Side,
		Type:       req.Type,
		ClientID:   req.ClientID,
		IsHide:     req.IsHide,
	}
	if payload.ClientID == "" {
		payload.ClientID = c.clientID
	}
	if !req.Amount.IsZero() {
		payload.Amount = req.Amount.String()
	}
	if !req.Price.IsZero() {
		payload.Price = req.Price.String()
	}

	data, err := c.request(ctx, http.MethodPost, "/spot/order", nil, payload)
	if err != nil {
		return nil, err
	}

	var order OrderInfo
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("failed to decode order result: %w", err)
	}
	return &order, nil
}

// ModifySpotOrder 修改订单，amount/price至少一个非空
func (c *Client) ModifySpotOrder(ctx context.Context, market string, orderID int64, amount, price *decimal.Decimal) (*OrderInfo, error) {
	payload := map[string]interface{}{
		"market":      market,
		"market_type": "SPOT",
		"order_id":    orderID,
	}
	if amount != nil {
		payload["amount"] = amount.String()
	}
	if price != nil {
		payload["price"] = price.String()
	}

	data, err := c.request(ctx, http.MethodPost, "/spot/modify-order", nil, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to modify order %d: %w", orderID, err)
	}

	var order OrderInfo
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("failed to decode modify result: %w", err)
	}
	return &order, nil
}

// CancelSpotOrder 取消订单
func (c *Client) CancelSpotOrder(ctx context.Context, market string, orderID int64) (*OrderInfo, error) {
	payload := map[string]interface{}{
		"market":   market,
		"order_id": orderID,
	}

	data, err := c.request(ctx, http.MethodPost, "/spot/cancel-order", nil, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order %d: %w", orderID, err)
	}

	var order OrderInfo
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("failed to decode cancel result: %w", err)
	}
	return &order, nil
}

// GetOrderStatus 查询订单状态
func (c *Client) GetOrderStatus(ctx context.Context, market string, orderID int64) (*OrderInfo, error) {
	query := url.Values{}
	query.Set("market", market)
	query.Set("order_id", strconv.FormatInt(orderID, 10))

	data, err := c.request(ctx, http.MethodGet, "/spot/order-status", query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get order status %d: %w", orderID, err)
	}

	var order OrderInfo
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("failed to decode order status: %w", err)
	}
	return &order, nil
}

// GetPendingOrders 查询未成交订单
func (c *Client) GetPendingOrders(ctx context.Context, market, side string, page, limit int) ([]*OrderInfo, error) {
	query := url.Values{}
	query.Set("market_type", "SPOT")
	if market != "" {
		query.Set("market", market)
	}
	if side != "" {
		query.Set("side", side)
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	data, err := c.request(ctx, http.MethodGet, "/spot/pending-order", query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending orders: %w", err)
	}

	var orders []*OrderInfo
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode pending orders: %w", err)
	}
	return orders, nil
}

// GetUserDeals 获取成交明细（交易历史）
// market为空时返回全部交易对的成交记录
func (c *Client) GetUserDeals(ctx context.Context, market string, page, limit int) ([]*DealItem, error) {
	query := url.Values{}
	query.Set("market_type", "SPOT")
	if market != "" {
		query.Set("market", market)
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	data, err := c.request(ctx, http.MethodGet, "/spot/user-deals", query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get user deals: %w", err)
	}

	var deals []*DealItem
	if err := json.Unmarshal(data, &deals); err != nil {
		return nil, fmt.Errorf("failed to decode user deals: %w", err)
	}
	return deals, nil
}
