package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keel-lab/keel-trading/internal/backtest"
	"github.com/keel-lab/keel-trading/internal/brokerage"
	"github.com/keel-lab/keel-trading/internal/journal"
	"github.com/keel-lab/keel-trading/internal/live"
	"github.com/keel-lab/keel-trading/internal/logger"
	"github.com/keel-lab/keel-trading/internal/strategy"
	tradingprovider "github.com/keel-lab/keel-trading/internal/trading/provider"
	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"github.com/keel-lab/keel-trading/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const stopTimeout = 30 * time.Second

// venueCredentials is the optional YAML file carrying per-venue credentials.
// Secrets can also come from the environment: BROKERAGE_API_SECRET,
// BINANCE_API_KEY and BINANCE_SECRET_KEY override the file.
type venueCredentials struct {
	Brokerage *brokerage.ClientConfig                `yaml:"brokerage"`
	Binance   *tradingprovider.BinanceProviderConfig `yaml:"binance"`
}

func loadVenueCredentials(path string) (venueCredentials, error) {
	var creds venueCredentials

	if path == "" {
		return creds, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return creds, fmt.Errorf("failed to read venue config: %w", err)
	}

	if err := yaml.Unmarshal(data, &creds); err != nil {
		return creds, fmt.Errorf("failed to parse venue config: %w", err)
	}

	return creds, nil
}

// buildVenueProvider constructs the trading provider for one venue, layering
// environment secrets over the venue config file.
func buildVenueProvider(venue tradingprovider.ProviderType, creds venueCredentials, log *logger.Logger) (tradingprovider.TradingProvider, error) {
	switch venue {
	case tradingprovider.ProviderBrokerage:
		if creds.Brokerage == nil {
			return nil, fmt.Errorf("brokerage venue requires a venue config with a brokerage section")
		}

		config := *creds.Brokerage
		if secret := os.Getenv("BROKERAGE_API_SECRET"); secret != "" {
			config.Secret = secret
		}

		return tradingprovider.NewTradingProvider(tradingprovider.ProviderBrokerage, config, log)
	case tradingprovider.ProviderBinance:
		var config tradingprovider.BinanceProviderConfig
		if creds.Binance != nil {
			config = *creds.Binance
		}

		if key := os.Getenv("BINANCE_API_KEY"); key != "" {
			config.ApiKey = key
		}

		if secret := os.Getenv("BINANCE_SECRET_KEY"); secret != "" {
			config.SecretKey = secret
		}

		return tradingprovider.NewTradingProvider(tradingprovider.ProviderBinance, config, log)
	default:
		return nil, fmt.Errorf("unsupported venue: %s", venue)
	}
}

// buildTradingProviders constructs one provider per venue the live
// deployments in the config actually use.
func buildTradingProviders(config live.TraderConfig, creds venueCredentials, log *logger.Logger) (map[string]tradingprovider.TradingProvider, error) {
	providers := make(map[string]tradingprovider.TradingProvider)

	for _, deployment := range config.Deployments {
		if deployment.Mode != types.DeploymentModeLive {
			continue
		}

		if _, exists := providers[deployment.Venue]; exists {
			continue
		}

		venueProvider, err := buildVenueProvider(tradingprovider.ProviderType(deployment.Venue), creds, log)
		if err != nil {
			return nil, err
		}

		providers[deployment.Venue] = venueProvider
	}

	return providers, nil
}

func buildDataProvider(cmd *cli.Command) (provider.Provider, error) {
	providerType := provider.ProviderType(cmd.String("data-provider"))

	switch providerType {
	case provider.ProviderPolygon:
		return provider.NewMarketDataProvider(providerType, os.Getenv("POLYGON_API_KEY"))
	case provider.ProviderDuckDB:
		return provider.NewMarketDataProvider(providerType, cmd.String("data"))
	default:
		return provider.NewMarketDataProvider(providerType, "")
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	logger, err := logger.NewLogger()
	if err != nil {
		return err
	}

	config, err := live.LoadTraderConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	store, err := journal.NewJournal(config.Journal, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Initialize(); err != nil {
		return err
	}

	strategies, err := strategy.NewDefaultRegistry()
	if err != nil {
		return err
	}

	dataProvider, err := buildDataProvider(cmd)
	if err != nil {
		return err
	}

	creds, err := loadVenueCredentials(cmd.String("venue-config"))
	if err != nil {
		return err
	}

	tradingProviders, err := buildTradingProviders(config, creds, logger)
	if err != nil {
		return err
	}

	registry := live.NewSupervisorRegistry(store, logger)
	evaluator := live.NewSignalEvaluator(backtest.NewSimulationRunner(), logger)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, deployment := range config.Deployments {
		strat, err := strategies.Create(deployment.Strategy)
		if err != nil {
			return stopAfter(registry, err)
		}

		gateway := live.NewExecutionGateway(store, tradingProviders[deployment.Venue], logger)

		supervisor, err := live.NewSupervisor(deployment, strat, dataProvider, evaluator, gateway, store, logger)
		if err != nil {
			return stopAfter(registry, err)
		}

		id, err := registry.Deploy(runCtx, supervisor)
		if err != nil {
			return stopAfter(registry, err)
		}

		fmt.Printf("deployed %s: %s on %s (%s)\n", id, deployment.Strategy, deployment.Symbol, deployment.Mode)
	}

	fmt.Printf("running %d deployment(s), press Ctrl+C to stop\n", len(config.Deployments))

	<-runCtx.Done()

	fmt.Println("\nstopping deployments...")

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := registry.StopAll(stopCtx); err != nil {
		return err
	}

	fmt.Println("all deployments stopped")

	return nil
}

// stopAfter shuts down any already-started deployment before surfacing the
// error that aborted startup.
func stopAfter(registry *live.SupervisorRegistry, cause error) error {
	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := registry.StopAll(stopCtx); err != nil {
		return fmt.Errorf("%w (and failed to stop started deployments: %v)", cause, err)
	}

	return cause
}

func accountsAction(ctx context.Context, cmd *cli.Command) error {
	logger, err := logger.NewLogger()
	if err != nil {
		return err
	}

	creds, err := loadVenueCredentials(cmd.String("venue-config"))
	if err != nil {
		return err
	}

	venueProvider, err := buildVenueProvider(tradingprovider.ProviderType(cmd.String("venue")), creds, logger)
	if err != nil {
		return err
	}

	accounts, err := venueProvider.ListAccounts(ctx)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeAccountNotFound) {
			fmt.Println("no accounts found")
			return nil
		}

		return err
	}

	for _, account := range accounts {
		fmt.Printf("%-24s %-8s %-6s %14.2f\n", account.ID, account.Type, account.Currency, account.Cash)
	}

	return nil
}

func strategiesAction(ctx context.Context, cmd *cli.Command) error {
	strategies, err := strategy.NewDefaultRegistry()
	if err != nil {
		return err
	}

	for _, name := range strategies.Names() {
		fmt.Println(name)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "trader",
		Usage: "Run strategy deployments against live or paper execution",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run every deployment in the config file until interrupted",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the deployments YAML file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "data-provider",
						Usage: "Market data source: polygon, binance, duckdb",
						Value: string(provider.ProviderPolygon),
					},
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "Path to the bar database (data-provider=duckdb)",
					},
					&cli.StringFlag{
						Name:  "venue-config",
						Usage: "Path to the venue credentials YAML (required for live deployments)",
					},
				},
				Action: runAction,
			},
			{
				Name:  "accounts",
				Usage: "List the accounts visible to a venue credential",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "venue",
						Usage:    "Trading venue: brokerage, binance",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "venue-config",
						Usage: "Path to the venue credentials YAML",
					},
				},
				Action: accountsAction,
			},
			{
				Name:   "strategies",
				Usage:  "List the deployable strategies",
				Action: strategiesAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
