package market

import (
	"context"
	"fmt"
	"strings"

	"coinexbot/src/coinex"
	"coinexbot/src/database"
	"coinexbot/src/timeframes"

	"github.com/shopspring/decimal"
	"github.com/xpwu/go-log/log"
)

// ExchangeClient 行情服务依赖的交易所能力
type ExchangeClient interface {
	GetSpotMarkets(ctx context.Context) ([]*coinex.MarketInfo, error)
	GetSpotTicker(ctx context.Context, market string) (*coinex.TickerInfo, error)
	GetSpotKline(ctx context.Context, market, period string, limit int) ([]*coinex.KlineItem, error)
}

// Service 行情服务：交易对刷新与K线获取
type Service struct {
	client  ExchangeClient
	symbols *database.SymbolStore
}

// NewService 创建行情服务
func NewService(client ExchangeClient, symbols *database.SymbolStore) *Service {
	return &Service{
		client:  client,
		symbols: symbols,
	}
}

// RefreshSymbols 刷新交易对表
// 只保留USDT计价且最新价高于minPrice的交易对，整表替换
func (s *Service) RefreshSymbols(ctx context.Context, minPrice decimal.Decimal) (int, error) {
	ctx, logger := log.WithCtx(ctx)
	logger.PushPrefix("MarketService")

	markets, err := s.client.GetSpotMarkets(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list spot markets: %w", err)
	}

	var records []*database.SymbolRecord
	for _, m := range markets {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if !strings.HasSuffix(m.Market, "USDT") {
			continue
		}

		ticker, err := s.client.GetSpotTicker(ctx, m.Market)
		if err != nil {
			// 单个交易对行情失败只跳过，不中断整轮刷新
			logger.Error(fmt.Sprintf("获取行情失败，跳过: market=%s, error=%v", m.Market, err))
			continue
		}
		if !ticker.Last.GreaterThan(minPrice) {
			continue
		}

		records = append(records, &database.SymbolRecord{
			Market:            m.Market,
			MinAmount:         m.MinAmount,
			MakerFeeRate:      m.MakerFeeRate,
			TakerFeeRate:      m.TakerFeeRate,
			IsAMMAvailable:    m.IsAMMAvailable,
			IsMarginAvailable: m.IsMarginAvailable,
			Price:             ticker.Last,
			Value:             ticker.Value,
			VolumeSell:        ticker.VolumeSell,
			VolumeBuy:         ticker.VolumeBuy,
		})
	}

	if err := s.symbols.ReplaceAll(ctx, records); err != nil {
		return 0, fmt.Errorf("failed to store symbols: %w", err)
	}

	logger.Info(fmt.Sprintf("交易对表刷新完成: count=%d, min_price=%s", len(records), minPrice.String()))
	return len(records), nil
}

// GetCandles 获取带派生字段的K线序列
// 新上市交易对可能返回空序列，调用方按"本周期跳过"处理
func (s *Service) GetCandles(ctx context.Context, market string, tf timeframes.Timeframe, limit int) ([]*Candle, error) {
	items, err := s.client.GetSpotKline(ctx, market, tf.GetCoinexPeriod(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get candles for %s: %w", market, err)
	}
	return BuildCandleSeries(items), nil
}

// GetTrackedSymbols 获取当前跟踪的交易对列表
func (s *Service) GetTrackedSymbols(ctx context.Context) ([]*database.SymbolRecord, error) {
	return s.symbols.GetAll(ctx)
}

// GetLastPrice 获取交易对最新价
func (s *Service) GetLastPrice(ctx context.Context, market string) (decimal.Decimal, error) {
	ticker, err := s.client.GetSpotTicker(ctx, market)
	if err != nil {
		return decimal.Zero, err
	}
	return ticker.Last, nil
}
