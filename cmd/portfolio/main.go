package main

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/soltools/portfolio/internal/analytics"
	"github.com/soltools/portfolio/internal/api"
	"github.com/soltools/portfolio/internal/cache"
	"github.com/soltools/portfolio/internal/config"
	"github.com/soltools/portfolio/internal/database"
	"github.com/soltools/portfolio/internal/domain"
	"github.com/soltools/portfolio/internal/export"
	"github.com/soltools/portfolio/internal/liquidity"
	"github.com/soltools/portfolio/internal/metadata"
	"github.com/soltools/portfolio/internal/outbound"
	"github.com/soltools/portfolio/internal/portfolio"
	"github.com/soltools/portfolio/internal/pricing"
	"github.com/soltools/portfolio/internal/solana"
	"github.com/soltools/portfolio/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	app := &cli.App{
		Name:  "portfolio",
		Usage: "Solana wallet portfolio valuation",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API server",
				Action: runServe,
			},
			{
				Name:      "lookup",
				Usage:     "print a wallet's portfolio as JSON",
				ArgsUsage: "<address>",
				Action:    runLookup,
			},
			{
				Name:      "report",
				Usage:     "export a wallet's portfolio to a spreadsheet",
				ArgsUsage: "<address>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Value: "portfolio.xlsx",
						Usage: "output .xlsx path",
					},
					&cli.BoolFlag{
						Name:  "sheets",
						Usage: "write to the configured Google Spreadsheet instead of a local file",
					},
				},
				Action: runReport,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// pipeline bundles the wired-up portfolio services.
type pipeline struct {
	scanner  *solana.Scanner
	service  *portfolio.Service
	resolver *pricing.Resolver
}

func buildPipeline(cfg config.Config) (*pipeline, error) {
	client, err := outbound.NewClient(cfg.ProxyURLs, cfg.IdentityCeiling, cfg.OutboundTimeout)
	if err != nil {
		return nil, fmt.Errorf("creating outbound client: %w", err)
	}

	store, err := cache.NewStore(cfg.CacheDir, map[string]time.Duration{
		cache.CategoryPrices:   cfg.PriceCacheTTL,
		cache.CategoryMetadata: cfg.MetadataCacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating cache store: %w", err)
	}

	allowlist := domain.NewAllowlist(cfg.AllowlistExtra)

	priceClient := pricing.NewClient(cfg.PriceAPIURL, client)
	resolver := pricing.NewResolver(priceClient, store, cfg.PriceBatchSize, cfg.PriceBatchDelay)

	pairClient := liquidity.NewClient(cfg.PairAPIURL, client)
	verifier := liquidity.NewVerifier(allowlist, pairClient,
		cfg.LowValueThreshold, cfg.HighValueThreshold, cfg.MinLiquidityUSD,
		cfg.LiquidityCheckDelay)

	labels := metadata.NewResolver(client, store, cfg.TokenListURL)

	scanner := solana.NewScanner(solana.NewClient(cfg.RPCURL))
	service := portfolio.NewService(resolver, verifier, labels, allowlist)

	return &pipeline{
		scanner:  scanner,
		service:  service,
		resolver: resolver,
	}, nil
}

func runServe(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	// Analytics is optional: without a database the endpoints answer 503.
	var views analytics.Repository
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		migrationsSub, err := fs.Sub(migrationsFS, "migrations")
		if err != nil {
			return fmt.Errorf("creating migrations sub-fs: %w", err)
		}
		if err := database.Migrate(ctx, pool, migrationsSub); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		views = analytics.NewPgRepository(pool)
	} else {
		slog.Warn("DATABASE_URL not set, analytics endpoints disabled")
	}

	if cfg.WarmInterval > 0 {
		warmWorker := worker.NewWarmWorker(p.resolver, domain.WellKnownMints, cfg.WarmInterval)
		go warmWorker.Run(ctx)
	}

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, analytics summary endpoint is unprotected")
	}

	srv := api.NewServer(cfg.HTTPPort, p.scanner, p.service, views, cfg.AdminAPIKey)

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}

func runLookup(c *cli.Context) error {
	address := c.Args().First()
	if address == "" {
		return cli.Exit("usage: portfolio lookup <address>", 1)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := fetchPortfolio(ctx, address)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling portfolio: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runReport(c *cli.Context) error {
	address := c.Args().First()
	if address == "" {
		return cli.Exit("usage: portfolio report <address>", 1)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	var writer export.ReportWriter
	if c.Bool("sheets") {
		if cfg.SpreadsheetID == "" || cfg.GoogleCredentialsJSON == "" {
			return cli.Exit("REPORT_SPREADSHEET_ID and GOOGLE_CREDENTIALS_JSON are required for --sheets", 1)
		}
		sw, err := export.NewSheetsWriter(ctx, cfg.SpreadsheetID, cfg.GoogleCredentialsJSON)
		if err != nil {
			return err
		}
		writer = sw
	} else {
		writer = export.NewXLSXWriter(c.String("out"))
	}

	result, err := fetchPortfolio(ctx, address)
	if err != nil {
		return err
	}

	if err := export.NewService(writer).Export(ctx, result); err != nil {
		return err
	}

	if !c.Bool("sheets") {
		log.Printf("report written to %s", c.String("out"))
	}
	return nil
}

func fetchPortfolio(ctx context.Context, address string) (domain.Portfolio, error) {
	cfg := config.Load()

	p, err := buildPipeline(cfg)
	if err != nil {
		return domain.Portfolio{}, err
	}

	tokens, err := p.scanner.ScanWallet(ctx, address)
	if err != nil {
		return domain.Portfolio{}, err
	}
	return p.service.BuildPortfolio(ctx, address, tokens)
}
