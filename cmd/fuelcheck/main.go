// Package main запускает прогон проверки закупок топлива.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/fuelcheck/internal/config"
	"github.com/mmeshcher/fuelcheck/internal/ensek"
	"github.com/mmeshcher/fuelcheck/internal/metrics"
	"github.com/mmeshcher/fuelcheck/internal/model"
	"github.com/mmeshcher/fuelcheck/internal/pipeline"
	"github.com/mmeshcher/fuelcheck/internal/publish"
	"github.com/mmeshcher/fuelcheck/internal/repository"
	"github.com/mmeshcher/fuelcheck/internal/table"
)

const metricsJob = "fuelcheck"

func main() {
	logger, _ := zap.NewProduction()

	code := run(logger)

	logger.Sync()
	os.Exit(code)
}

// run выполняет прогон и возвращает код завершения процесса.
func run(logger *zap.Logger) int {
	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Errorw("configuration error", "error", err.Error())
		return 1
	}

	// входная таблица и раскладка отчёта проверяются до создания отчёта и первого обращения к сервису
	intents, err := table.LoadIntents(cfg.InputPath)
	if err != nil {
		sugar.Errorw("input table error", "path", cfg.InputPath, "error", err.Error())
		return 1
	}
	columns, err := table.ReadColumns(cfg.InputPath)
	if err != nil {
		sugar.Errorw("input header error", "path", cfg.InputPath, "error", err.Error())
		return 1
	}
	if _, err := pipeline.DetectLayout(columns); err != nil {
		sugar.Errorw("report layout error", "path", cfg.InputPath, "error", err.Error())
		return 1
	}

	startedAt := time.Now()
	reportPath := filepath.Join(cfg.ResultsDir, fmt.Sprintf("execution_%s.csv", startedAt.Format("20060102150405")))
	report, err := table.Initialize(cfg.InputPath, reportPath)
	if err != nil {
		sugar.Errorw("report initialization error", "error", err.Error())
		return 1
	}
	sugar.Infow("report created", "path", report.Path(), "intents", len(intents))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := ensek.NewClient(cfg.BaseURL, cfg.RequestTimeout)
	defer client.CloseIdleConnections()

	token, err := client.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		sugar.Errorw("login failed", "url", cfg.BaseURL, "error", err.Error())
		return 1
	}
	client.SetToken(token)

	if catalog, err := client.Energy(ctx); err != nil {
		sugar.Warnw("energy catalog unavailable", "error", err.Error())
	} else {
		for name, item := range catalog {
			sugar.Infow("energy stock", "fuel", name, "units", item.QuantityOf, "unit_type", item.UnitType, "price", item.PricePerUnit)
		}
	}

	if cfg.ResetBeforeRun {
		if err := client.Reset(ctx); err != nil {
			sugar.Errorw("reset before run failed", "error", err.Error())
			return 1
		}
		sugar.Info("service data reset before run")
	}

	reg := metrics.NewRegistry()
	p := pipeline.New(client, client, report, logger, reg)

	summary, err := p.Run(ctx, intents)
	if err != nil {
		sugar.Errorw("validation run aborted", "report", report.Path(), "error", err.Error())
		return 1
	}

	logOrders(ctx, sugar, client, summary)

	if cfg.VerifyReset {
		empty, err := pipeline.VerifyReset(ctx, client, client)
		if err != nil {
			sugar.Errorw("reset verification failed", "error", err.Error())
		} else {
			sugar.Infow("reset verification", "orders_empty", empty)
		}
	}

	result := model.Run{
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		ReportPath: report.Path(),
		Summary:    *summary,
	}

	if cfg.S3.Bucket != "" {
		publishReport(ctx, sugar, cfg, result.ReportPath)
	}
	if cfg.DatabaseURI != "" {
		archiveRun(ctx, sugar, cfg.DatabaseURI, result)
	}
	if cfg.PushgatewayURL != "" {
		if err := reg.Push(ctx, cfg.PushgatewayURL, metricsJob); err != nil {
			sugar.Errorw("metrics push failed", "error", err.Error())
		}
	}

	sugar.Infow("run finished",
		"report", result.ReportPath,
		"total", summary.Total(),
		"passed", summary.Passed,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"duration", result.FinishedAt.Sub(result.StartedAt).String(),
	)

	if summary.Failed > 0 {
		return 1
	}
	return 0
}

// logOrders запрашивает каждый созданный прогоном заказ по номеру и пишет его в журнал.
func logOrders(ctx context.Context, sugar *zap.SugaredLogger, client *ensek.Client, summary *model.Summary) {
	for _, res := range summary.Results {
		id := res.Outcome.OrderID
		if id == "" {
			continue
		}
		o, err := client.GetOrder(ctx, id)
		if err != nil {
			sugar.Warnw("order lookup failed", "order_id", id, "error", err.Error())
			continue
		}
		sugar.Infow("order lookup", "order_id", o.ID, "fuel", o.FuelName, "quantity", o.Quantity, "time", o.CreatedAt)
	}
}

func publishReport(ctx context.Context, sugar *zap.SugaredLogger, cfg *config.Config, path string) {
	pub, err := publish.New(ctx, publish.Config{
		Bucket:          cfg.S3.Bucket,
		Prefix:          cfg.S3.Prefix,
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		PathStyle:       cfg.S3.PathStyle,
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
	})
	if err != nil {
		sugar.Errorw("report publisher initialization error", "error", err.Error())
		return
	}

	key, err := pub.Publish(ctx, path)
	if err != nil {
		sugar.Errorw("report publication failed", "error", err.Error())
		return
	}
	sugar.Infow("report published", "bucket", cfg.S3.Bucket, "key", key)
}

func archiveRun(ctx context.Context, sugar *zap.SugaredLogger, dsn string, finished model.Run) {
	repo, err := repository.NewPostgresRepository(dsn)
	if err != nil {
		sugar.Errorw("database initialization error", "error", err.Error())
		return
	}
	defer repo.Close()

	id, err := repo.SaveRun(ctx, finished)
	if err != nil {
		sugar.Errorw("run archive failed", "error", err.Error())
		return
	}
	sugar.Infow("run archived", "run_id", id)

	recent, err := repo.RecentRuns(ctx, 5)
	if err != nil {
		sugar.Warnw("recent runs unavailable", "error", err.Error())
		return
	}
	for _, r := range recent {
		sugar.Infow("archived run",
			"run_id", r.ID,
			"started_at", r.StartedAt.Format(time.RFC3339),
			"passed", r.Summary.Passed,
			"failed", r.Summary.Failed,
			"skipped", r.Summary.Skipped,
		)
	}
}
