package market

import (
	"math"
	"testing"

	"coinexbot/src/coinex"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kline(ts int64, closePrice, value float64) *coinex.KlineItem {
	return &coinex.KlineItem{
		CreatedAt: ts,
		Open:      decimal.NewFromFloat(closePrice * 0.99),
		High:      decimal.NewFromFloat(closePrice * 1.01),
		Low:       decimal.NewFromFloat(closePrice * 0.98),
		Close:     decimal.NewFromFloat(closePrice),
		Volume:    decimal.NewFromFloat(10),
		Value:     decimal.NewFromFloat(value),
	}
}

func TestBuildCandleSeries(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		candles := BuildCandleSeries(nil)
		assert.Empty(t, candles)

		candles = BuildCandleSeries([]*coinex.KlineItem{})
		assert.Empty(t, candles)
	})

	t.Run("derived fields", func(t *testing.T) {
		items := []*coinex.KlineItem{
			kline(1700000000000, 100, 1000),
			kline(1700000300000, 110, 1100),
			kline(1700000600000, 99, 990),
		}

		candles := BuildCandleSeries(items)
		require.Len(t, candles, 3)

		// 首根K线无上一期，Return为0，CumReturn为1
		assert.True(t, candles[0].Return.IsZero())
		assert.InDelta(t, 1.0, candles[0].CumReturn.InexactFloat64(), 1e-9)

		// 第二根: ln(110/100)
		assert.InDelta(t, math.Log(1.1), candles[1].Return.InexactFloat64(), 1e-9)
		assert.InDelta(t, 1.1, candles[1].CumReturn.InexactFloat64(), 1e-9)

		// 第三根: ln(99/110)，累计收益率 = 99/100
		assert.InDelta(t, math.Log(0.9), candles[2].Return.InexactFloat64(), 1e-9)
		assert.InDelta(t, 0.99, candles[2].CumReturn.InexactFloat64(), 1e-9)
	})

	t.Run("cumulative value", func(t *testing.T) {
		items := []*coinex.KlineItem{
			kline(1700000000000, 100, 1000),
			kline(1700000300000, 100, 500),
			kline(1700000600000, 100, 250),
		}

		candles := BuildCandleSeries(items)
		require.Len(t, candles, 3)
		assert.True(t, candles[0].CumValue.Equal(decimal.NewFromInt(1000)))
		assert.True(t, candles[1].CumValue.Equal(decimal.NewFromInt(1500)))
		assert.True(t, candles[2].CumValue.Equal(decimal.NewFromInt(1750)))
	})

	t.Run("zero previous close is skipped", func(t *testing.T) {
		items := []*coinex.KlineItem{
			{CreatedAt: 1700000000000, Close: decimal.Zero, Value: decimal.Zero},
			kline(1700000300000, 10, 100),
		}

		candles := BuildCandleSeries(items)
		require.Len(t, candles, 2)
		assert.True(t, candles[1].Return.IsZero())
	})

	t.Run("timestamps are utc", func(t *testing.T) {
		candles := BuildCandleSeries([]*coinex.KlineItem{kline(1700000000000, 100, 1000)})
		require.Len(t, candles, 1)
		assert.Equal(t, int64(1700000000), candles[0].Time.Unix())
	})
}
