// Package pipeline проводит прогон проверки: покупает топливо по заявкам, классифицирует
// ответы, сверяет заказы и записывает результаты в отчёт.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/fuelcheck/internal/metrics"
	"github.com/mmeshcher/fuelcheck/internal/model"
	"github.com/mmeshcher/fuelcheck/internal/reconcile"
	"github.com/mmeshcher/fuelcheck/internal/table"
	"github.com/mmeshcher/fuelcheck/internal/validation"
)

// Purchaser покупает топливо и возвращает текст ответа сервиса.
type Purchaser interface {
	Buy(ctx context.Context, fuelID model.FuelID, quantity int) (string, error)
}

// OrderLister возвращает все заказы сервиса.
type OrderLister interface {
	ListOrders(ctx context.Context) ([]model.OrderRecord, error)
}

// Resetter сбрасывает тестовые данные сервиса.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Report описывает файл отчёта, в который пишутся результаты.
type Report interface {
	Columns() ([]string, error)
	UpdateField(key int, column, value string) (table.UpdateResult, error)
	Field(key int, column string) (string, bool, error)
}

// Pipeline выполняет заявки строго последовательно, в порядке входной таблицы.
type Pipeline struct {
	purchaser Purchaser
	orders    OrderLister
	report    Report
	logger    *zap.Logger
	metrics   *metrics.Registry
	now       func() time.Time
}

// New создаёт конвейер проверки.
func New(purchaser Purchaser, orders OrderLister, report Report, logger *zap.Logger, m *metrics.Registry) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewRegistry()
	}
	return &Pipeline{
		purchaser: purchaser,
		orders:    orders,
		report:    report,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// Run покупает топливо по всем заявкам, затем один раз запрашивает список заказов
// и сверяет с ним каждую заявку. Ошибки сети и отчёта прерывают прогон,
// несовпадения записываются в отчёт и попадают в итоги.
func (p *Pipeline) Run(ctx context.Context, intents []model.PurchaseIntent) (*model.Summary, error) {
	columns, err := p.report.Columns()
	if err != nil {
		return nil, fmt.Errorf("read report header: %w", err)
	}
	layout, err := DetectLayout(columns)
	if err != nil {
		return nil, err
	}

	outcomes := make([]model.PurchaseOutcome, 0, len(intents))
	for _, intent := range intents {
		outcome, err := p.submit(ctx, intent, layout)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}

	orders, err := p.orders.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}

	summary := &model.Summary{
		OrdersBeforeToday: reconcile.CountCreatedBefore(orders, p.now()),
		Results:           make([]model.IntentResult, 0, len(intents)),
	}
	p.metrics.OrdersBeforeToday.Set(float64(summary.OrdersBeforeToday))
	p.logger.Info("orders fetched",
		zap.Int("orders", len(orders)),
		zap.Int("created_before_today", summary.OrdersBeforeToday),
	)

	for i, intent := range intents {
		res, err := p.verify(intent, outcomes[i], orders, layout)
		if err != nil {
			return nil, err
		}

		switch res.Verdict {
		case model.StatusPass:
			summary.Passed++
		case model.StatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
		summary.Results = append(summary.Results, res)
	}

	p.logger.Info("validation finished",
		zap.Int("passed", summary.Passed),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func (p *Pipeline) submit(ctx context.Context, intent model.PurchaseIntent, layout Layout) (model.PurchaseOutcome, error) {
	started := time.Now()
	message, err := p.purchaser.Buy(ctx, intent.FuelID, intent.Quantity)
	p.metrics.PurchaseLatency.Observe(time.Since(started).Seconds())
	if err != nil {
		return model.PurchaseOutcome{}, fmt.Errorf("purchase %s: %w", intent.FuelID.Name(), err)
	}

	status, orderID := validation.Classify(message, intent.Quantity)
	outcome := model.PurchaseOutcome{
		FuelID:     intent.FuelID,
		RawMessage: message,
		OrderID:    orderID,
		Status:     status,
	}
	p.metrics.Purchases.WithLabelValues(string(status)).Inc()

	p.logger.Info("purchase classified",
		zap.Int("fuel_id", int(intent.FuelID)),
		zap.String("fuel", intent.FuelID.Name()),
		zap.Int("quantity", intent.Quantity),
		zap.String("status", string(status)),
		zap.String("order_id", orderID),
		zap.String("message", message),
	)

	if layout.Message {
		if err := p.write(intent.FuelID, table.ColumnBuyValidationMsg, string(status)); err != nil {
			return model.PurchaseOutcome{}, err
		}
	}
	if err := p.write(intent.FuelID, table.ColumnOrderID, orderID); err != nil {
		return model.PurchaseOutcome{}, err
	}

	return outcome, nil
}

func (p *Pipeline) verify(intent model.PurchaseIntent, outcome model.PurchaseOutcome, orders []model.OrderRecord, layout Layout) (model.IntentResult, error) {
	orderID, found, err := p.report.Field(int(intent.FuelID), table.ColumnOrderID)
	if err != nil {
		return model.IntentResult{}, fmt.Errorf("read order id of fuel %d: %w", intent.FuelID, err)
	}
	if !found {
		return model.IntentResult{}, fmt.Errorf("read order id of fuel %d: %w", intent.FuelID, table.ErrRowNotFound)
	}

	var rec model.Reconciliation
	if outcome.Status == model.StatusSkipped {
		rec = reconcile.Reconcile(intent, "", nil)
	} else {
		rec = reconcile.Reconcile(intent, orderID, orders)
	}

	verdict := model.Verdict(outcome.Status, rec)

	p.metrics.Reconciliations.WithLabelValues("order", string(rec.OrderMatch)).Inc()
	p.metrics.Reconciliations.WithLabelValues("fuel_type", string(rec.FuelTypeMatch)).Inc()
	p.metrics.Reconciliations.WithLabelValues("quantity", string(rec.QuantityMatch)).Inc()

	_, byContent := reconcile.FindByContent(orders, intent)
	p.logger.Info("order reconciled",
		zap.Int("fuel_id", int(intent.FuelID)),
		zap.String("order_id", orderID),
		zap.String("order", string(rec.OrderMatch)),
		zap.String("fuel_type", string(rec.FuelTypeMatch)),
		zap.String("quantity", string(rec.QuantityMatch)),
		zap.Bool("content_match", byContent),
		zap.String("verdict", string(verdict)),
	)

	if err := p.persist(intent.FuelID, rec, verdict, layout); err != nil {
		return model.IntentResult{}, err
	}

	return model.IntentResult{
		Intent:         intent,
		Outcome:        outcome,
		Reconciliation: rec,
		Verdict:        verdict,
	}, nil
}

func (p *Pipeline) persist(fuelID model.FuelID, rec model.Reconciliation, verdict model.ValidationStatus, layout Layout) error {
	if !layout.Detailed {
		return p.write(fuelID, table.ColumnBuyValidationMsg, string(verdict))
	}

	if err := p.write(fuelID, table.ColumnValidationOrder, string(rec.OrderMatch)); err != nil {
		return err
	}
	if rec.FuelTypeMatch != model.StatusNotApplicable {
		if err := p.write(fuelID, table.ColumnValidationFuel, string(rec.FuelTypeMatch)); err != nil {
			return err
		}
	}
	if rec.QuantityMatch != model.StatusNotApplicable {
		if err := p.write(fuelID, table.ColumnValidationAmount, string(rec.QuantityMatch)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) write(fuelID model.FuelID, column, value string) error {
	res, err := p.report.UpdateField(int(fuelID), column, value)
	if err != nil {
		return fmt.Errorf("update %s of fuel %d: %w", column, fuelID, err)
	}
	if res == table.NotFound {
		return fmt.Errorf("update %s of fuel %d: %w", column, fuelID, table.ErrRowNotFound)
	}
	return nil
}

// VerifyReset сбрасывает данные сервиса и проверяет, что список заказов после этого пуст.
func VerifyReset(ctx context.Context, r Resetter, o OrderLister) (bool, error) {
	if err := r.Reset(ctx); err != nil {
		return false, err
	}
	orders, err := o.ListOrders(ctx)
	if err != nil {
		return false, fmt.Errorf("list orders after reset: %w", err)
	}
	return len(orders) == 0, nil
}
