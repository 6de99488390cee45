package market

import (
	"math"
	"time"

	"coinexbot/src/coinex"

	"github.com/shopspring/decimal"
)

// Candle 单根K线及派生字段
type Candle struct {
	Time      time.Time       `json:"time"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Return    decimal.Decimal `json:"return"`     // 单期对数收益率
	CumReturn decimal.Decimal `json:"cum_return"` // 累计收益率 exp(sum(log returns))
	Volume    decimal.Decimal `json:"volume"`
	Value     decimal.Decimal `json:"value"`
	CumValue  decimal.Decimal `json:"cum_value"` // 累计成交额
}

// BuildCandleSeries 将原始K线转为带派生字段的序列
// 首根K线的Return为0；空输入返回空序列，由调用方按"本周期跳过该交易对"处理
func BuildCandleSeries(items []*coinex.KlineItem) []*Candle {
	candles := make([]*Candle, 0, len(items))

	cumLogReturn := 0.0
	cumValue := decimal.Zero

	for i, item := range items {
		c := &Candle{
			Time:   time.UnixMilli(item.CreatedAt).UTC(),
			Open:   item.Open,
			High:   item.High,
			Low:    item.Low,
			Close:  item.Close,
			Volume: item.Volume,
			Value:  item.Value,
		}

		if i > 0 {
			prev := items[i-1].Close
			if prev.IsPositive() && item.Close.IsPositive() {
				ratio, _ := item.Close.Div(prev).Float64()
				logReturn := math.Log(ratio)
				c.Return = decimal.NewFromFloat(logReturn)
				cumLogReturn += logReturn
			}
		}
		c.CumReturn = decimal.NewFromFloat(math.Exp(cumLogReturn))

		cumValue = cumValue.Add(item.Value)
		c.CumValue = cumValue

		candles = append(candles, c)
	}

	return candles
}
