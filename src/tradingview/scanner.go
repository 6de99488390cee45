package tradingview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"coinexbot/src/timeframes"
)

// DefaultBaseURL TradingView扫描器地址
const DefaultBaseURL = "https://scanner.tradingview.com"

// Recommendation 推荐评级，五档
type Recommendation string

const (
	StrongBuy  Recommendation = "STRONG_BUY"
	Buy        Recommendation = "BUY"
	Neutral    Recommendation = "NEUTRAL"
	Sell       Recommendation = "SELL"
	StrongSell Recommendation = "STRONG_SELL"
)

// Summary 某个(交易对,周期)的评级摘要
type Summary struct {
	Symbol         string         `json:"symbol"`
	Recommendation Recommendation `json:"recommendation"`
	Buy            int            `json:"buy"`     // 买入票数
	Sell           int            `json:"sell"`    // 卖出票数
	Neutral        int            `json:"neutral"` // 中性票数
}

// columnSuffixes 扫描器列名的周期后缀，日线无后缀
var columnSuffixes = map[string]string{
	"1m":  "|1",
	"5m":  "|5",
	"15m": "|15",
	"30m": "|30",
	"1h":  "|60",
	"2h":  "|120",
	"4h":  "|240",
	"1d":  "",
	"1W":  "|1W",
}

// ratingColumns 参与投票的评级列：综合、均线组、振荡器组
var ratingColumns = []string{"Recommend.All", "Recommend.MA", "Recommend.Other"}

// Client TradingView扫描器客户端
type Client struct {
	screener string // 市场类别，如crypto
	exchange string // 交易所代码，如COINEX
	baseURL  string
	http     *http.Client
}

// NewClient 创建扫描器客户端
func NewClient(screener, exchange, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		screener: screener,
		exchange: exchange,
		baseURL:  baseURL,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

type scanRequest struct {
	Symbols struct {
		Tickers []string `json:"tickers"`
		Query   struct {
			Types []string `json:"types"`
		} `json:"query"`
	} `json:"symbols"`
	Columns []string `json:"columns"`
}

type scanResponse struct {
	Data []struct {
		Symbol string    `json:"s"`
		Values []float64 `json:"d"`
	} `json:"data"`
	TotalCount int `json:"totalCount"`
}

// GetSummary 获取单个交易对在指定周期的评级摘要
func (c *Client) GetSummary(ctx context.Context, symbol string, tf timeframes.Timeframe) (*Summary, error) {
	interval, err := tf.GetScannerInterval()
	if err != nil {
		return nil, err
	}
	suffix, ok := columnSuffixes[interval]
	if !ok {
		return nil, fmt.Errorf("no scanner column suffix for interval %s", interval)
	}

	req := &scanRequest{}
	req.Symbols.Tickers = []string{c.exchange + ":" + symbol}
	req.Symbols.Query.Types = []string{}
	for _, col := range ratingColumns {
		req.Columns = append(req.Columns, col+suffix)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scan request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/"+c.screener+"/scan", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build scan request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("scan request for %s failed: %w", symbol, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from scanner: %s", resp.StatusCode, string(raw))
	}

	var scanResp scanResponse
	if err := json.Unmarshal(raw, &scanResp); err != nil {
		return nil, fmt.Errorf("failed to decode scan response: %w", err)
	}
	if len(scanResp.Data) == 0 {
		return nil, fmt.Errorf("no scanner data for %s", symbol)
	}

	values := scanResp.Data[0].Values
	if len(values) != len(ratingColumns) {
		return nil, fmt.Errorf("unexpected scanner columns for %s: got %d want %d",
			symbol, len(values), len(ratingColumns))
	}

	summary := &Summary{
		Symbol:         symbol,
		Recommendation: classifyRating(values[0]),
	}
	for _, v := range values {
		switch classifyRating(v) {
		case StrongBuy, Buy:
			summary.Buy++
		case StrongSell, Sell:
			summary.Sell++
		default:
			summary.Neutral++
		}
	}
	return summary, nil
}

// classifyRating 将扫描器评分[-1,1]映射到五档评级
func classifyRating(v float64) Recommendation {
	switch {
	case v >= 0.5:
		return StrongBuy
	case v >= 0.1:
		return Buy
	case v > -0.1:
		return Neutral
	case v > -0.5:
		return Sell
	default:
		return StrongSell
	}
}
