package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"traderpro/internal/api"
	"traderpro/internal/broker"
	"traderpro/internal/config"
	"traderpro/internal/domain"
	"traderpro/internal/httpapi"
	"traderpro/internal/session"
	"traderpro/internal/trading"
	"traderpro/internal/util"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("loading .env: %v", err)
	}

	cfgPath := "config/traderpro.yaml"
	if p := os.Getenv("TRADERPRO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	sessions := session.NewManager(cfg, brokerFactory(cfg))
	dash := httpapi.NewDashboardServer(
		sessions,
		trading.NewDesk(),
		trading.NewAssetCache(cfg.Dashboard.AssetCacheTTL, cfg.Dashboard.FallbackAssets),
		logger.With("component", "httpapi"),
	)
	srv := api.NewServer(cfg, dash.Handler(), logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("traderpro-server starting",
		"broker", cfg.Broker,
		"portfolios", len(cfg.Portfolios),
		"http_port", cfg.Server.Port,
		"grpc_port", cfg.Server.GRPCPort,
	)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// brokerFactory opens one broker connection per login. In simulator mode
// every login gets its own seeded demo book.
func brokerFactory(cfg *config.Config) session.BrokerFactory {
	if cfg.Broker == "simulator" {
		return func(_ context.Context, p config.Portfolio) (broker.Broker, error) {
			return demoBroker(), nil
		}
	}
	return func(_ context.Context, p config.Portfolio) (broker.Broker, error) {
		creds, err := p.Credentials()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", broker.ErrConnectivity, err)
		}
		return broker.NewAlpacaBroker(broker.AlpacaOptions{
			APIKey:    creds.APIKey,
			APISecret: creds.APISecret,
			BaseURL:   cfg.Alpaca.BaseURL,
			DataURL:   cfg.Alpaca.DataURL,
			Feed:      cfg.Alpaca.Feed,
		}), nil
	}
}

func demoBroker() *broker.SimulatorBroker {
	d := decimal.RequireFromString
	b := broker.NewSimulatorBroker(domain.AccountSummary{
		Cash:        d("4250.00"),
		BuyingPower: d("8500.00"),
		Equity:      d("18730.40"),
	})
	b.SetPrice("AAPL", d("187.25"))
	b.SetPrice("MSFT", d("415.10"))
	b.SetPrice("TSLA", d("176.80"))
	b.SetPrice("NVDA", d("903.55"))
	b.SetPosition(domain.Position{Symbol: "AAPL", Qty: d("20"), MarketValue: d("3745.00"), UnrealizedPLPct: d("0.062")})
	b.SetPosition(domain.Position{Symbol: "MSFT", Qty: d("12.5"), MarketValue: d("5188.75"), UnrealizedPLPct: d("0.118")})
	b.SetPosition(domain.Position{Symbol: "TSLA", Qty: d("31"), MarketValue: d("5480.80"), UnrealizedPLPct: d("-0.094")})
	b.SetAssets([]string{"AAPL", "MSFT", "NVDA", "TSLA"})
	return b
}
