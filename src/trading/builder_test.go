package trading

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"coinexbot/src/coinex"
	"coinexbot/src/database"
	"coinexbot/src/gateway"
	"coinexbot/src/portfolio"
	"coinexbot/src/selector"
	"coinexbot/src/timeframes"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestOrderAmount(t *testing.T) {
	tests := []struct {
		name      string
		budget    string
		price     string
		minAmount string
		want      string
	}{
		{"budget above minimum", "100", "10", "1", "10"},
		{"minimum amount floors the order", "100", "50", "5", "5"},
		{"exactly at minimum", "50", "10", "5", "5"},
		{"zero price yields zero", "100", "0", "1", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OrderAmount(d(tt.budget), d(tt.price), d(tt.minAmount))
			assert.True(t, got.Equal(d(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

type fakeCandidates struct {
	candidates []*selector.Candidate
	calls      int
}

func (f *fakeCandidates) Select(ctx context.Context, fast, slow timeframes.Timeframe, lookback int) ([]*selector.Candidate, error) {
	f.calls++
	return f.candidates, nil
}

type fakeBuyer struct {
	results map[string]*gateway.Result
	calls   []string
	values  map[string]decimal.Decimal
}

func (f *fakeBuyer) MarketBuy(ctx context.Context, market string, value decimal.Decimal) (*gateway.Result, error) {
	f.calls = append(f.calls, market)
	if f.values == nil {
		f.values = map[string]decimal.Decimal{}
	}
	f.values[market] = value
	return f.results[market], nil
}

type fakeBalances struct {
	items []*coinex.BalanceItem
}

func (f *fakeBalances) GetSpotBalance(ctx context.Context) ([]*coinex.BalanceItem, error) {
	return f.items, nil
}

type stubPrices struct{}

func (stubPrices) GetLastPrice(ctx context.Context, market string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

var positionColumns = []string{
	"market", "order_id", "side", "order_type", "amount", "filled_amount",
	"fill_price", "base_fee", "quote_fee", "hi_price", "created_at",
}

func testConfig() BuilderConfig {
	return BuilderConfig{
		TargetPositions: 3,
		CashPerPosition: d("100"),
		BalancePercent:  d("0.5"),
		FastTimeframe:   timeframes.Timeframe15min,
		SlowTimeframe:   timeframes.Timeframe1hour,
		Lookback:        100,
		RetryInterval:   time.Second,
	}
}

func newTestBuilder(t *testing.T, candidates *fakeCandidates, buyer *fakeBuyer,
	usdt string, cfg BuilderConfig) (*Builder, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ledger := portfolio.NewLedger(
		database.NewPositionStore(db), database.NewSymbolStore(db), stubPrices{})
	balances := &fakeBalances{items: []*coinex.BalanceItem{
		{Ccy: "USDT", Available: d(usdt)},
	}}
	return NewBuilder(candidates, buyer, ledger, balances, cfg), mock
}

// 只持有USDT时Sync不产生写入，只读一次持仓列表
func expectEmptySync(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT (.+) FROM positions ORDER BY market").
		WillReturnRows(sqlmock.NewRows(positionColumns))
}

func expectCount(mock sqlmock.Sqlmock, n int) {
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
}

func expectNoPosition(mock sqlmock.Sqlmock, market string) {
	mock.ExpectQuery("SELECT (.+) FROM positions WHERE market").
		WithArgs(market).
		WillReturnError(sql.ErrNoRows)
}

func TestBuilderBuildOnce(t *testing.T) {
	t.Run("buys candidates and records positions", func(t *testing.T) {
		candidates := &fakeCandidates{candidates: []*selector.Candidate{
			{Symbol: "AAAUSDT", Close: d("10"), MinAmount: d("0.1")},
			{Symbol: "BBBUSDT", Close: d("20"), MinAmount: d("0.1")},
		}}
		buyer := &fakeBuyer{results: map[string]*gateway.Result{
			"AAAUSDT": {Status: gateway.StatusDone, Order: &coinex.OrderInfo{
				OrderID: 1, Market: "AAAUSDT", Side: "buy", Type: "market",
				FilledAmount: d("10"), LastFillPrice: d("10")}},
			"BBBUSDT": {Status: gateway.StatusDone, Order: &coinex.OrderInfo{
				OrderID: 2, Market: "BBBUSDT", Side: "buy", Type: "market",
				FilledAmount: d("5"), LastFillPrice: d("20")}},
		}}
		b, mock := newTestBuilder(t, candidates, buyer, "1000", testConfig())

		expectEmptySync(mock)
		expectCount(mock, 0)
		// AAAUSDT：查重 + 建仓
		expectNoPosition(mock, "AAAUSDT")
		expectNoPosition(mock, "AAAUSDT")
		mock.ExpectExec("INSERT INTO positions").WillReturnResult(sqlmock.NewResult(1, 1))
		// BBBUSDT：查重 + 建仓
		expectNoPosition(mock, "BBBUSDT")
		expectNoPosition(mock, "BBBUSDT")
		mock.ExpectExec("INSERT INTO positions").WillReturnResult(sqlmock.NewResult(1, 1))

		opened, err := b.BuildOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, opened)
		assert.Equal(t, []string{"AAAUSDT", "BBBUSDT"}, buyer.calls)
		// 预算上限100，按收盘价换算成计价金额
		assert.True(t, buyer.values["AAAUSDT"].Equal(d("100")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already held symbol is skipped", func(t *testing.T) {
		candidates := &fakeCandidates{candidates: []*selector.Candidate{
			{Symbol: "AAAUSDT", Close: d("10"), MinAmount: d("0.1")},
		}}
		buyer := &fakeBuyer{}
		b, mock := newTestBuilder(t, candidates, buyer, "1000", testConfig())

		expectEmptySync(mock)
		expectCount(mock, 1)
		rows := sqlmock.NewRows(positionColumns).
			AddRow("AAAUSDT", int64(1), "buy", "market", "10", "10", "10", "0", "0", "10", int64(1700000000000))
		mock.ExpectQuery("SELECT (.+) FROM positions WHERE market").
			WithArgs("AAAUSDT").
			WillReturnRows(rows)

		opened, err := b.BuildOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, opened)
		assert.Empty(t, buyer.calls)
	})

	t.Run("full portfolio skips selection", func(t *testing.T) {
		candidates := &fakeCandidates{}
		b, mock := newTestBuilder(t, candidates, &fakeBuyer{}, "1000", testConfig())

		expectEmptySync(mock)
		expectCount(mock, 3)

		opened, err := b.BuildOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, opened)
		assert.Equal(t, 0, candidates.calls)
	})

	t.Run("rejected buy skips the candidate", func(t *testing.T) {
		candidates := &fakeCandidates{candidates: []*selector.Candidate{
			{Symbol: "AAAUSDT", Close: d("10"), MinAmount: d("0.1")},
		}}
		buyer := &fakeBuyer{results: map[string]*gateway.Result{
			"AAAUSDT": {Status: gateway.StatusFail, Detail: "balance not enough"},
		}}
		b, mock := newTestBuilder(t, candidates, buyer, "1000", testConfig())

		expectEmptySync(mock)
		expectCount(mock, 0)
		expectNoPosition(mock, "AAAUSDT")

		opened, err := b.BuildOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, opened)
		assert.Equal(t, []string{"AAAUSDT"}, buyer.calls)
	})

	t.Run("empty selection is not an error", func(t *testing.T) {
		candidates := &fakeCandidates{}
		b, mock := newTestBuilder(t, candidates, &fakeBuyer{}, "1000", testConfig())

		expectEmptySync(mock)
		expectCount(mock, 0)

		opened, err := b.BuildOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, opened)
		assert.Equal(t, 1, candidates.calls)
	})

	t.Run("minimum amount order exceeding balance is skipped", func(t *testing.T) {
		// 最小下单量换算的金额超过可用余额时放弃该候选
		cfg := testConfig()
		candidates := &fakeCandidates{candidates: []*selector.Candidate{
			{Symbol: "AAAUSDT", Close: d("1000"), MinAmount: d("2")},
		}}
		buyer := &fakeBuyer{}
		b, mock := newTestBuilder(t, candidates, buyer, "1000", cfg)

		expectEmptySync(mock)
		expectCount(mock, 0)
		expectNoPosition(mock, "AAAUSDT")

		opened, err := b.BuildOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, opened)
		assert.Empty(t, buyer.calls)
	})
}
