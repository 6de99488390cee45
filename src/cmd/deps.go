package cmd

import (
	"fmt"

	"coinexbot/src/coinex"
	"coinexbot/src/config"
	"coinexbot/src/database"
	"coinexbot/src/gateway"
	"coinexbot/src/market"
	"coinexbot/src/monitor"
	"coinexbot/src/portfolio"
	"coinexbot/src/profit"
	"coinexbot/src/selector"
	"coinexbot/src/signal"
	"coinexbot/src/trading"
	"coinexbot/src/tradingview"
)

// deps 各命令共用的组件装配
type deps struct {
	db     *database.PostgresDB
	client *coinex.Client
	ledger *portfolio.Ledger
	market *market.Service
}

func newDeps() (*deps, error) {
	cfg := config.AppConfig
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}

	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	client := coinex.NewClient(cfg.CoinEx.AccessID, cfg.CoinEx.SecretKey,
		cfg.CoinEx.BaseURL, cfg.CoinEx.ClientID, cfg.CoinEx.Timeout)

	symbols := database.NewSymbolStore(db.DB())
	positions := database.NewPositionStore(db.DB())

	return &deps{
		db:     db,
		client: client,
		ledger: portfolio.NewLedger(positions, symbols, client),
		market: market.NewService(client, symbols),
	}, nil
}

func (d *deps) close() {
	d.db.Close()
}

func (d *deps) newBuilder() (*trading.Builder, error) {
	cfg := config.AppConfig

	fast, err := cfg.GetFastTimeframe()
	if err != nil {
		return nil, err
	}
	slow, err := cfg.GetSlowTimeframe()
	if err != nil {
		return nil, err
	}

	oracle := tradingview.NewClient(cfg.TradingView.Screener, cfg.TradingView.Exchange,
		cfg.TradingView.BaseURL)
	engine := signal.NewEngine(d.market, oracle)
	sel := selector.NewSelector(engine)
	gw := gateway.NewGateway(d.client)

	return trading.NewBuilder(sel, gw, d.ledger, d.client, trading.BuilderConfig{
		TargetPositions: cfg.Trading.TargetPositions,
		CashPerPosition: cfg.GetCashPerPosition(),
		BalancePercent:  cfg.GetBalancePercent(),
		FastTimeframe:   fast,
		SlowTimeframe:   slow,
		Lookback:        cfg.Trading.Lookback,
		RetryInterval:   cfg.GetRetryInterval(),
	}), nil
}

func (d *deps) newMonitor() *monitor.Monitor {
	cfg := config.AppConfig
	gw := gateway.NewGateway(d.client)
	return monitor.NewMonitor(d.ledger, gw, d.client, d.client,
		cfg.GetLossLimit(), cfg.GetTakeProfit(), cfg.GetCheckInterval())
}

func (d *deps) newCalculator() *profit.Calculator {
	return profit.NewCalculator(d.client,
		database.NewTransactionStore(d.db.DB()),
		database.NewMatchedTradeStore(d.db.DB()))
}
