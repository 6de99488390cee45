package gateway

import (
	"context"
	"errors"
	"fmt"

	"coinexbot/src/coinex"

	"github.com/shopspring/decimal"
	"github.com/xpwu/go-log/log"
)

// Status 下单结果标签
type Status string

const (
	// StatusDone 交易所已接受订单
	StatusDone Status = "done"
	// StatusFail 参数非法或交易所业务层拒绝
	StatusFail Status = "fail"
)

// Result 下单结果
// Status为done时Order有效；为fail时Detail携带原始拒绝信息
type Result struct {
	Status Status            `json:"status"`
	Order  *coinex.OrderInfo `json:"order,omitempty"`
	Detail string            `json:"detail,omitempty"`
}

// Exchange 网关依赖的交易所下单能力
type Exchange interface {
	PlaceSpotOrder(ctx context.Context, req *coinex.OrderRequest) (*coinex.OrderInfo, error)
}

// Gateway 订单网关
// 交易所业务层拒绝收敛成fail结果；参数违约和传输层错误直接作为error返回
type Gateway struct {
	client Exchange
}

// NewGateway 创建订单网关
func NewGateway(client Exchange) *Gateway {
	return &Gateway{client: client}
}

var validOrderTypes = map[string]bool{
	"limit":      true,
	"market":     true,
	"maker_only": true,
	"ioc":        true,
	"fok":        true,
}

// PlaceOrder 提交现货订单
// amount与price必须恰好一个为正：市价卖出按amount(基础资产数量)成交，
// 市价买入按price(计价资产金额)成交，与交易所的市价单语义一致。
// 参数违约属于调用方缺陷，直接报错，不包装成fail结果
func (g *Gateway) PlaceOrder(ctx context.Context, market, side, orderType string, amount, price decimal.Decimal) (*Result, error) {
	ctx, logger := log.WithCtx(ctx)
	logger.PushPrefix("OrderGateway")

	if market == "" {
		return nil, fmt.Errorf("order contract violated: market is required")
	}
	if side != "buy" && side != "sell" {
		return nil, fmt.Errorf("order contract violated: invalid side %q", side)
	}
	if !validOrderTypes[orderType] {
		return nil, fmt.Errorf("order contract violated: invalid order type %q", orderType)
	}
	amountSet := amount.IsPositive()
	priceSet := price.IsPositive()
	if amountSet == priceSet {
		return nil, fmt.Errorf("order contract violated: exactly one of amount and price must be positive")
	}

	logger.Info(fmt.Sprintf("提交订单: market=%s, side=%s, type=%s, amount=%s, price=%s",
		market, side, orderType, amount.String(), price.String()))

	order, err := g.client.PlaceSpotOrder(ctx, &coinex.OrderRequest{
		Market: market,
		Side:   side,
		Type:   orderType,
		Amount: amount,
		Price:  price,
	})
	if err != nil {
		var rejection *coinex.RejectionError
		if errors.As(err, &rejection) {
			// 业务层拒绝原样透传，余额不足等情况由调用方决定是否换单重试
			logger.Error(fmt.Sprintf("交易所拒绝订单: market=%s, code=%d, message=%s",
				market, rejection.Code, rejection.Message))
			return fail(rejection.Message), nil
		}
		return nil, fmt.Errorf("failed to place order for %s: %w", market, err)
	}

	logger.Info(fmt.Sprintf("订单已接受: market=%s, order_id=%d, status=%s",
		market, order.OrderID, order.Status))
	return &Result{Status: StatusDone, Order: order}, nil
}

// MarketBuy 市价买入，value为计价资产金额
func (g *Gateway) MarketBuy(ctx context.Context, market string, value decimal.Decimal) (*Result, error) {
	return g.PlaceOrder(ctx, market, "buy", "market", decimal.Zero, value)
}

// MarketSell 市价卖出，amount为基础资产数量
func (g *Gateway) MarketSell(ctx context.Context, market string, amount decimal.Decimal) (*Result, error) {
	return g.PlaceOrder(ctx, market, "sell", "market", amount, decimal.Zero)
}

func fail(detail string) *Result {
	return &Result{Status: StatusFail, Detail: detail}
}
