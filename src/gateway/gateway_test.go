package gateway

import (
	"context"
	"errors"
	"testing"

	"coinexbot/src/coinex"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExchange struct {
	lastReq *coinex.OrderRequest
	order   *coinex.OrderInfo
	err     error
}

func (f *fakeExchange) PlaceSpotOrder(ctx context.Context, req *coinex.OrderRequest) (*coinex.OrderInfo, error) {
	f.lastReq = req
	return f.order, f.err
}

func TestGatewayPlaceOrder(t *testing.T) {
	t.Run("accepted order returns done", func(t *testing.T) {
		exchange := &fakeExchange{
			order: &coinex.OrderInfo{
				OrderID: 12345,
				Market:  "BTCUSDT",
				Side:    "sell",
				Status:  "filled",
			},
		}
		g := NewGateway(exchange)

		result, err := g.PlaceOrder(context.Background(), "BTCUSDT", "sell", "market",
			decimal.RequireFromString("0.5"), decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, StatusDone, result.Status)
		require.NotNil(t, result.Order)
		assert.Equal(t, int64(12345), result.Order.OrderID)

		require.NotNil(t, exchange.lastReq)
		assert.Equal(t, "BTCUSDT", exchange.lastReq.Market)
		assert.True(t, exchange.lastReq.Amount.Equal(decimal.RequireFromString("0.5")))
	})

	t.Run("exchange rejection returns fail with raw message", func(t *testing.T) {
		exchange := &fakeExchange{
			err: &coinex.RejectionError{Code: 3109, Message: "balance not enough"},
		}
		g := NewGateway(exchange)

		result, err := g.PlaceOrder(context.Background(), "BTCUSDT", "buy", "market",
			decimal.Zero, decimal.RequireFromString("100"))
		require.NoError(t, err)
		assert.Equal(t, StatusFail, result.Status)
		assert.Equal(t, "balance not enough", result.Detail)
		assert.Nil(t, result.Order)
	})

	t.Run("transport error is returned as error, not fail", func(t *testing.T) {
		exchange := &fakeExchange{err: errors.New("connection refused")}
		g := NewGateway(exchange)

		result, err := g.PlaceOrder(context.Background(), "BTCUSDT", "buy", "market",
			decimal.Zero, decimal.RequireFromString("100"))
		require.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("contract violations error before hitting the exchange", func(t *testing.T) {
		tests := []struct {
			name   string
			market string
			side   string
			typ    string
			amount string
			price  string
		}{
			{"empty market", "", "buy", "market", "0", "100"},
			{"bad side", "BTCUSDT", "hold", "market", "0", "100"},
			{"bad type", "BTCUSDT", "buy", "stop_loss", "0", "100"},
			{"neither amount nor price", "BTCUSDT", "buy", "market", "0", "0"},
			{"both amount and price", "BTCUSDT", "buy", "market", "1", "100"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				exchange := &fakeExchange{}
				g := NewGateway(exchange)

				result, err := g.PlaceOrder(context.Background(), tt.market, tt.side, tt.typ,
					decimal.RequireFromString(tt.amount), decimal.RequireFromString(tt.price))
				// 调用方缺陷必须是真正的error，与交易所拒绝的fail结果区分开
				require.Error(t, err)
				assert.Contains(t, err.Error(), "order contract violated")
				assert.Nil(t, result)
				assert.Nil(t, exchange.lastReq, "交易所不应被调用")
			})
		}
	})
}

func TestGatewayMarketHelpers(t *testing.T) {
	t.Run("market buy sends quote value", func(t *testing.T) {
		exchange := &fakeExchange{order: &coinex.OrderInfo{OrderID: 1}}
		g := NewGateway(exchange)

		result, err := g.MarketBuy(context.Background(), "ETHUSDT", decimal.RequireFromString("250"))
		require.NoError(t, err)
		assert.Equal(t, StatusDone, result.Status)
		assert.Equal(t, "buy", exchange.lastReq.Side)
		assert.Equal(t, "market", exchange.lastReq.Type)
		assert.True(t, exchange.lastReq.Price.Equal(decimal.RequireFromString("250")))
		assert.True(t, exchange.lastReq.Amount.IsZero())
	})

	t.Run("market sell sends base amount", func(t *testing.T) {
		exchange := &fakeExchange{order: &coinex.OrderInfo{OrderID: 2}}
		g := NewGateway(exchange)

		result, err := g.MarketSell(context.Background(), "ETHUSDT", decimal.RequireFromString("1.5"))
		require.NoError(t, err)
		assert.Equal(t, StatusDone, result.Status)
		assert.Equal(t, "sell", exchange.lastReq.Side)
		assert.True(t, exchange.lastReq.Amount.Equal(decimal.RequireFromString("1.5")))
		assert.True(t, exchange.lastReq.Price.IsZero())
	})
}
