package timeframes

import (
	"fmt"
	"time"
)

// Timeframe K线周期枚举，取值与CoinEx API的period参数一致
type Timeframe string

const (
	// 支持的K线周期
	Timeframe1min   Timeframe = "1min"   // 1分钟
	Timeframe3min   Timeframe = "3min"   // 3分钟
	Timeframe5min   Timeframe = "5min"   // 5分钟
	Timeframe15min  Timeframe = "15min"  // 15分钟
	Timeframe30min  Timeframe = "30min"  // 30分钟
	Timeframe1hour  Timeframe = "1hour"  // 1小时
	Timeframe2hour  Timeframe = "2hour"  // 2小时
	Timeframe4hour  Timeframe = "4hour"  // 4小时
	Timeframe6hour  Timeframe = "6hour"  // 6小时
	Timeframe12hour Timeframe = "12hour" // 12小时
	Timeframe1day   Timeframe = "1day"   // 1天
	Timeframe3day   Timeframe = "3day"   // 3天
	Timeframe1week  Timeframe = "1week"  // 1周
)

// durations 周期到Duration的查表，只定义一次
var durations = map[Timeframe]time.Duration{
	Timeframe1min:   time.Minute,
	Timeframe3min:   3 * time.Minute,
	Timeframe5min:   5 * time.Minute,
	Timeframe15min:  15 * time.Minute,
	Timeframe30min:  30 * time.Minute,
	Timeframe1hour:  time.Hour,
	Timeframe2hour:  2 * time.Hour,
	Timeframe4hour:  4 * time.Hour,
	Timeframe6hour:  6 * time.Hour,
	Timeframe12hour: 12 * time.Hour,
	Timeframe1day:   24 * time.Hour,
	Timeframe3day:   3 * 24 * time.Hour,
	Timeframe1week:  7 * 24 * time.Hour,
}

// scannerIntervals 周期到TradingView扫描器interval的查表
// 部分CoinEx周期在TradingView端没有对应档位（3min/6hour/12hour/3day）
var scannerIntervals = map[Timeframe]string{
	Timeframe1min:  "1m",
	Timeframe5min:  "5m",
	Timeframe15min: "15m",
	Timeframe30min: "30m",
	Timeframe1hour: "1h",
	Timeframe2hour: "2h",
	Timeframe4hour: "4h",
	Timeframe1day:  "1d",
	Timeframe1week: "1W",
}

// GetDuration 获取周期对应的Duration
func (tf Timeframe) GetDuration() (time.Duration, error) {
	d, ok := durations[tf]
	if !ok {
		return 0, fmt.Errorf("unsupported timeframe: %s", tf)
	}
	return d, nil
}

// GetCoinexPeriod 获取CoinEx API对应的period参数
func (tf Timeframe) GetCoinexPeriod() string {
	// CoinEx API使用的周期格式与我们的定义相同
	return string(tf)
}

// GetScannerInterval 获取TradingView扫描器对应的interval参数
func (tf Timeframe) GetScannerInterval() (string, error) {
	interval, ok := scannerIntervals[tf]
	if !ok {
		return "", fmt.Errorf("timeframe %s has no TradingView interval", tf)
	}
	return interval, nil
}

// String 返回字符串表示
func (tf Timeframe) String() string {
	return string(tf)
}

// IsValid 检查周期是否有效
func (tf Timeframe) IsValid() bool {
	_, ok := durations[tf]
	return ok
}

// GetAllTimeframes 获取所有支持的周期
func GetAllTimeframes() []Timeframe {
	return []Timeframe{
		Timeframe1min,
		Timeframe3min,
		Timeframe5min,
		Timeframe15min,
		Timeframe30min,
		Timeframe1hour,
		Timeframe2hour,
		Timeframe4hour,
		Timeframe6hour,
		Timeframe12hour,
		Timeframe1day,
		Timeframe3day,
		Timeframe1week,
	}
}

// ParseTimeframe 解析周期字符串
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if !tf.IsValid() {
		return "", fmt.Errorf("invalid timeframe: %s", s)
	}
	return tf, nil
}
