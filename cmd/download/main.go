package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/keel-lab/keel-trading/pkg/marketdata"
	"github.com/keel-lab/keel-trading/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
)

// downloadAction is the core logic executed by the CLI command. It parses
// arguments, sets up the market data client, and starts the download.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	config := clientConfigFromFlags(cmd)

	params, err := downloadParamsFromFlags(cmd)
	if err != nil {
		return err
	}

	client, err := marketdata.NewClient(config, nil)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	log.Printf("Starting download for %s from %s to %s using %s provider...",
		params.Ticker,
		params.StartDate.Format("2006-01-02"),
		params.EndDate.Format("2006-01-02"),
		config.ProviderType)

	path, err := client.Download(ctx, params)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	log.Printf("Download completed: %s", path)

	return nil
}

// clientConfigFromFlags builds the market data client configuration from the
// CLI flags. Credentials come from the environment, never from flags.
func clientConfigFromFlags(cmd *cli.Command) marketdata.ClientConfig {
	return marketdata.ClientConfig{
		ProviderType:  provider.ProviderType(cmd.String("provider")),
		WriterType:    marketdata.WriterType(cmd.String("writer")),
		DataPath:      cmd.String("data"),
		PolygonApiKey: os.Getenv("POLYGON_API_KEY"),
	}
}

// downloadParamsFromFlags builds the download request from the CLI flags.
func downloadParamsFromFlags(cmd *cli.Command) (marketdata.DownloadParams, error) {
	interval, err := marketdata.ParseInterval(cmd.String("interval"))
	if err != nil {
		return marketdata.DownloadParams{}, err
	}

	return marketdata.DownloadParams{
		Ticker:    cmd.String("ticker"),
		StartDate: cmd.Timestamp("start"),
		EndDate:   cmd.Timestamp("end"),
		Interval:  interval,
	}, nil
}

// newCommand builds the download CLI command.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download historical market data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ticker",
				Aliases:  []string{"t"},
				Usage:    "Ticker symbol to download",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value:   time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   fmt.Sprintf("Bar interval, one of %v", marketdata.SupportedIntervals()),
				Value:   "1m",
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider to use (e.g., %s, %s)", provider.ProviderPolygon, provider.ProviderBinance),
				Value:   string(provider.ProviderPolygon),
			},
			&cli.StringFlag{
				Name:    "writer",
				Aliases: []string{"w"},
				Usage:   fmt.Sprintf("Data writer format (e.g., %s)", marketdata.WriterDuckDB),
				Value:   string(marketdata.WriterDuckDB),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data output directory",
				Value:   "data",
			},
		},
		Action: downloadAction,
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
