// cmd/ingress/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/northstar-data/retail-ingress/pkg/cleaner"
	"github.com/northstar-data/retail-ingress/pkg/config"
	"github.com/northstar-data/retail-ingress/pkg/connector"
	"github.com/northstar-data/retail-ingress/pkg/extract"
	"github.com/northstar-data/retail-ingress/pkg/load"
	"github.com/northstar-data/retail-ingress/pkg/model"
	"github.com/northstar-data/retail-ingress/pkg/pipeline"
	"github.com/northstar-data/retail-ingress/pkg/schema"
	"github.com/northstar-data/retail-ingress/pkg/sink"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ingress failed:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load() // optional .env for local runs

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := connector.NewConnectorFactory(cfg, logger)
	source, target, err := factory.CreateAllConnectors(ctx)
	if err != nil {
		return err
	}
	defer source.Close()
	defer target.Close()

	reader, err := extract.NewTableReader(source.DB(), logger, cfg.RetryAttempts, cfg.RetryDelay)
	if err != nil {
		return err
	}

	uploader, err := load.NewUploader(target.DB(), logger, cfg.RetryAttempts, cfg.RetryDelay)
	if err != nil {
		return err
	}

	invalidSink, err := sink.NewCSVSink(cfg.InvalidLogDir)
	if err != nil {
		return err
	}
	defer invalidSink.Close()

	batchCleaner, err := cleaner.NewBatchCleaner(logger)
	if err != nil {
		return err
	}
	batchCleaner.WithWorkers(cfg.WorkerPoolSize)

	runner, err := pipeline.NewRunner(batchCleaner, uploader, invalidSink, logger)
	if err != nil {
		return err
	}

	jobs, err := buildJobs(ctx, cfg, logger, reader)
	if err != nil {
		return err
	}

	results, err := runner.RunAll(ctx, jobs)
	for _, r := range results {
		logger.Info("Pipeline summary",
			zap.String("kind", string(r.Kind)),
			zap.String("table", r.Table),
			zap.Bool("success", r.Success),
			zap.Int("rows_read", r.RowsRead),
			zap.Int("rows_valid", r.RowsValid),
			zap.Int("rows_invalid", r.RowsInvalid),
			zap.Duration("duration", r.Duration))
	}
	return err
}

// buildJobs wires one entity job per configured source. Sources without
// configuration are skipped so a partial environment still processes what
// it can.
func buildJobs(ctx context.Context, cfg *config.Config, logger *zap.Logger, reader *extract.TableReader) ([]pipeline.EntityJob, error) {
	countries := schema.DefaultCountryCodes

	jobs := []pipeline.EntityJob{
		pipeline.NewEntityJob(schema.User(countries), "dim_users", func(ctx context.Context) (*model.Batch, error) {
			return reader.ReadTable(ctx, "legacy_users")
		}),
		pipeline.NewEntityJob(schema.Order(), "orders_table", func(ctx context.Context) (*model.Batch, error) {
			return reader.ReadTable(ctx, "orders_table")
		}),
	}

	if cfg.CardDetailsPDF != "" {
		pdfExtractor, err := extract.NewPDFExtractor(logger, cfg.RetryAttempts, cfg.RetryDelay)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, pipeline.NewEntityJob(schema.Payment(), "dim_card_details", func(ctx context.Context) (*model.Batch, error) {
			return pdfExtractor.RetrieveCardTable(ctx, cfg.CardDetailsPDF)
		}))
	}

	if cfg.API.StoreCountURL != "" && cfg.API.StoreDetailsURL != "" {
		apiClient, err := extract.NewStoreAPIClient(cfg.API, logger, cfg.RetryAttempts, cfg.RetryDelay)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, pipeline.NewEntityJob(schema.Store(), "dim_store_details", func(ctx context.Context) (*model.Batch, error) {
			count, err := apiClient.NumberOfStores(ctx)
			if err != nil {
				return nil, err
			}
			return apiClient.RetrieveStores(ctx, count)
		}))
	}

	if cfg.ProductsS3Address != "" || strings.HasPrefix(cfg.DateDetailsURL, "s3://") {
		fetcher, err := extract.NewS3Fetcher(ctx, logger, cfg.RetryAttempts, cfg.RetryDelay)
		if err != nil {
			return nil, err
		}

		if cfg.ProductsS3Address != "" {
			jobs = append(jobs, pipeline.NewEntityJob(schema.Product(), "dim_products", func(ctx context.Context) (*model.Batch, error) {
				return fetcher.FetchCSV(ctx, cfg.ProductsS3Address)
			}))
		}
		if strings.HasPrefix(cfg.DateDetailsURL, "s3://") {
			jobs = append(jobs, pipeline.NewEntityJob(schema.DateDimension(), "dim_date_times", func(ctx context.Context) (*model.Batch, error) {
				return fetcher.FetchJSON(ctx, cfg.DateDetailsURL)
			}))
		}
	}

	if cfg.DateDetailsURL != "" && !strings.HasPrefix(cfg.DateDetailsURL, "s3://") {
		httpFetcher, err := extract.NewHTTPFetcher(logger, cfg.RetryAttempts, cfg.RetryDelay)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, pipeline.NewEntityJob(schema.DateDimension(), "dim_date_times", func(ctx context.Context) (*model.Batch, error) {
			return httpFetcher.FetchJSON(ctx, cfg.DateDetailsURL)
		}))
	}

	return jobs, nil
}

// newLogger builds the process logger from configuration.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
