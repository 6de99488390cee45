package config

import (
	"fmt"
	"time"

	"coinexbot/src/database"
	"coinexbot/src/timeframes"

	"github.com/shopspring/decimal"
	"github.com/xpwu/go-config/configs"
)

// Config 主配置结构
type Config struct {
	CoinEx      CoinExConfig      `conf:"coinex,CoinEx交易所配置"`
	TradingView TradingViewConfig `conf:"tradingview,TradingView评级配置"`
	Database    database.Config   `conf:"database,数据库配置"`
	Trading     TradingConfig     `conf:"trading,建仓配置"`
	Risk        RiskConfig        `conf:"risk,风控配置"`
}

// CoinExConfig CoinEx API配置
type CoinExConfig struct {
	AccessID  string `conf:"access_id,API访问ID"`
	SecretKey string `conf:"secret_key,API私钥"`
	BaseURL   string `conf:"base_url,API地址"`
	ClientID  string `conf:"client_id,订单客户端标识"`
	Timeout   int    `conf:"timeout,请求超时时间(秒)"`
}

// TradingViewConfig TradingView评级配置
type TradingViewConfig struct {
	BaseURL  string `conf:"base_url,扫描接口地址"`
	Screener string `conf:"screener,市场筛选器名称"`
	Exchange string `conf:"exchange,交易所前缀"`
}

// TradingConfig 建仓配置
type TradingConfig struct {
	TargetPositions  int     `conf:"target_positions,目标持仓数 - 同时持有的不同币种数量"`
	CashPerPosition  float64 `conf:"cash_per_position,单仓预算上限(USDT) - 0表示不设上限"`
	BalancePercent   float64 `conf:"balance_percent,单次买入占可用余额的比例 - 0.5=50%"`
	FastTimeframe    string  `conf:"fast_timeframe,快周期 - 如15min"`
	SlowTimeframe    string  `conf:"slow_timeframe,慢周期 - 必须长于快周期，如1hour"`
	Lookback         int     `conf:"lookback,信号回看K线数 - 默认100，最大1000"`
	RetryIntervalSec int     `conf:"retry_interval_sec,两轮建仓尝试的最小间隔(秒)"`
	MinSymbolPrice   float64 `conf:"min_symbol_price,入选交易对的最低价格 - 过滤超低价币"`
}

// RiskConfig 风控配置
type RiskConfig struct {
	LossLimit        float64 `conf:"loss_limit,止损系数 - 0.9表示从高点回落10%离场"`
	TakeProfit       float64 `conf:"take_profit,止盈系数 - 1.5表示涨到成本1.5倍后锁定，0表示关闭"`
	CheckIntervalSec int     `conf:"check_interval_sec,风控检查间隔(秒)"`
}

// AppConfig 全局配置实例
var AppConfig = &Config{
	CoinEx: CoinExConfig{
		AccessID:  "",
		SecretKey: "",
		BaseURL:   "https://api.coinex.com/v2",
		ClientID:  "coinexbot",
		Timeout:   10,
	},
	TradingView: TradingViewConfig{
		BaseURL:  "https://scanner.tradingview.com",
		Screener: "crypto",
		Exchange: "COINEX",
	},
	Database: database.DefaultConfig(),
	Trading: TradingConfig{
		TargetPositions:  4,
		CashPerPosition:  100.0,
		BalancePercent:   0.25,
		FastTimeframe:    "15min",
		SlowTimeframe:    "1hour",
		Lookback:         100,
		RetryIntervalSec: 60,
		MinSymbolPrice:   0.001,
	},
	Risk: RiskConfig{
		LossLimit:        0.9,
		TakeProfit:       0, // 默认只做追踪止损
		CheckIntervalSec: 30,
	},
}

func init() {
	configs.Unmarshal(AppConfig)
}

// Validate 验证配置
func (c *Config) Validate() error {
	fast, err := timeframes.ParseTimeframe(c.Trading.FastTimeframe)
	if err != nil {
		return fmt.Errorf("invalid fast timeframe: %w", err)
	}
	slow, err := timeframes.ParseTimeframe(c.Trading.SlowTimeframe)
	if err != nil {
		return fmt.Errorf("invalid slow timeframe: %w", err)
	}
	fastDur, _ := fast.GetDuration()
	slowDur, _ := slow.GetDuration()
	if fastDur >= slowDur {
		return fmt.Errorf("slow timeframe must be longer than fast timeframe")
	}

	if c.Trading.TargetPositions <= 0 {
		return fmt.Errorf("target positions must be positive")
	}
	if c.Trading.BalancePercent <= 0 || c.Trading.BalancePercent > 1 {
		return fmt.Errorf("balance percent must be between 0 and 1")
	}
	if c.Trading.Lookback <= 0 || c.Trading.Lookback > 1000 {
		return fmt.Errorf("lookback must be between 1 and 1000")
	}

	if c.Risk.LossLimit <= 0 || c.Risk.LossLimit >= 1 {
		return fmt.Errorf("loss limit must be between 0 and 1")
	}
	if c.Risk.TakeProfit != 0 && c.Risk.TakeProfit <= 1 {
		return fmt.Errorf("take profit must be greater than 1 when enabled")
	}
	return nil
}

// ValidateCredentials 验证交易所凭证，只有需要签名接口的命令才检查
func (c *Config) ValidateCredentials() error {
	if c.CoinEx.AccessID == "" || c.CoinEx.SecretKey == "" {
		return fmt.Errorf("coinex credentials are required")
	}
	return nil
}

// GetFastTimeframe 获取快周期
func (c *Config) GetFastTimeframe() (timeframes.Timeframe, error) {
	return timeframes.ParseTimeframe(c.Trading.FastTimeframe)
}

// GetSlowTimeframe 获取慢周期
func (c *Config) GetSlowTimeframe() (timeframes.Timeframe, error) {
	return timeframes.ParseTimeframe(c.Trading.SlowTimeframe)
}

// GetCashPerPosition 单仓预算上限
func (c *Config) GetCashPerPosition() decimal.Decimal {
	return decimal.NewFromFloat(c.Trading.CashPerPosition)
}

// GetBalancePercent 单次买入余额比例
func (c *Config) GetBalancePercent() decimal.Decimal {
	return decimal.NewFromFloat(c.Trading.BalancePercent)
}

// GetMinSymbolPrice 入选交易对的最低价格
func (c *Config) GetMinSymbolPrice() decimal.Decimal {
	return decimal.NewFromFloat(c.Trading.MinSymbolPrice)
}

// GetLossLimit 止损系数
func (c *Config) GetLossLimit() decimal.Decimal {
	return decimal.NewFromFloat(c.Risk.LossLimit)
}

// GetTakeProfit 止盈系数
func (c *Config) GetTakeProfit() decimal.Decimal {
	return decimal.NewFromFloat(c.Risk.TakeProfit)
}

// GetRetryInterval 建仓尝试间隔
func (c *Config) GetRetryInterval() time.Duration {
	return time.Duration(c.Trading.RetryIntervalSec) * time.Second
}

// GetCheckInterval 风控检查间隔
func (c *Config) GetCheckInterval() time.Duration {
	return time.Duration(c.Risk.CheckIntervalSec) * time.Second
}
