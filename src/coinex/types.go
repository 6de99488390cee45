package coinex

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MarketInfo 现货交易对信息
type MarketInfo struct {
	Market            string          `json:"market"`              // 交易对代码，如BTCUSDT
	BaseCcy           string          `json:"base_ccy"`            // 基础资产
	QuoteCcy          string          `json:"quote_ccy"`           // 计价资产
	MinAmount         decimal.Decimal `json:"min_amount"`          // 最小下单数量
	MakerFeeRate      decimal.Decimal `json:"maker_fee_rate"`      // Maker手续费率
	TakerFeeRate      decimal.Decimal `json:"taker_fee_rate"`      // Taker手续费率
	IsAMMAvailable    bool            `json:"is_amm_available"`    // 是否支持AMM
	IsMarginAvailable bool            `json:"is_margin_available"` // 是否支持杠杆
}

// TickerInfo 现货行情信息（24小时）
type TickerInfo struct {
	Market     string          `json:"market"`
	Last       decimal.Decimal `json:"last"`        // 最新价
	Value      decimal.Decimal `json:"value"`       // 24小时成交额
	VolumeSell decimal.Decimal `json:"volume_sell"` // 卖方成交量
	VolumeBuy  decimal.Decimal `json:"volume_buy"`  // 买方成交量
}

// KlineItem 原始K线数据 - 符合CoinEx v2 API返回格式
type KlineItem struct {
	CreatedAt int64           `json:"created_at"` // 开盘时间(毫秒)
	Open      decimal.Decimal `json:"open"`       // 开盘价
	High      decimal.Decimal `json:"high"`       // 最高价
	Low       decimal.Decimal `json:"low"`        // 最低价
	Close     decimal.Decimal `json:"close"`      // 收盘价
	Volume    decimal.Decimal `json:"volume"`     // 成交量
	Value     decimal.Decimal `json:"value"`      // 成交额
}

// BalanceItem 现货账户余额
type BalanceItem struct {
	Ccy       string          `json:"ccy"`       // 币种
	Available decimal.Decimal `json:"available"` // 可用余额
	Frozen    decimal.Decimal `json:"frozen"`    // 冻结余额
}

// DepositAddress 充值地址
type DepositAddress struct {
	Address string `json:"address"`
	Memo    string `json:"memo"`
}

// OrderInfo 订单信息
type OrderInfo struct {
	OrderID        int64           `json:"order_id"`
	Market         string          `json:"market"`
	Side           string          `json:"side"`
	Type           string          `json:"type"`
	Amount         decimal.Decimal `json:"amount"`          // 委托数量
	Price          decimal.Decimal `json:"price"`           // 委托价格
	FilledAmount   decimal.Decimal `json:"filled_amount"`   // 已成交数量
	FilledValue    decimal.Decimal `json:"filled_value"`    // 已成交金额
	LastFillPrice  decimal.Decimal `json:"last_fill_price"` // 最新成交价
	BaseFee        decimal.Decimal `json:"base_fee"`        // 基础资产手续费
	QuoteFee       decimal.Decimal `json:"quote_fee"`       // 计价资产手续费
	ClientID       string          `json:"client_id"`
	Status         string          `json:"status"`
	CreatedAtMilli int64           `json:"created_at"` // 下单时间(毫秒)
}

// DealItem 成交明细（交易历史）
type DealItem struct {
	DealID         int64           `json:"deal_id"`
	OrderID        int64           `json:"order_id"`
	Market         string          `json:"market"`
	Side           string          `json:"side"` // buy/sell
	Price          decimal.Decimal `json:"price"`
	Amount         decimal.Decimal `json:"amount"`
	CreatedAtMilli int64           `json:"created_at"` // 成交时间(毫秒)
}

// OrderRequest 下单请求参数
type OrderRequest struct {
	Market   string          `json:"market"`
	Side     string          `json:"side"`   // buy/sell
	Type     string          `json:"type"`   // limit/market/maker_only/ioc/fok
	Amount   decimal.Decimal `json:"amount"` // 委托数量(基础资产)
	Price    decimal.Decimal `json:"price"`  // 限价单价格
	ClientID string          `json:"client_id"`
	IsHide   bool            `json:"is_hide"`
}

// RejectionError 交易所业务层拒绝（code != 0），区别于网络传输错误
type RejectionError struct {
	Code    int
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("coinex rejected request: code=%d message=%s", e.Code, e.Message)
}
