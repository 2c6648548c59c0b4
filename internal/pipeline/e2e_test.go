package pipeline_test

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mmeshcher/fuelcheck/internal/ensek"
	"github.com/mmeshcher/fuelcheck/internal/handler"
	"github.com/mmeshcher/fuelcheck/internal/metrics"
	"github.com/mmeshcher/fuelcheck/internal/middleware"
	"github.com/mmeshcher/fuelcheck/internal/model"
	"github.com/mmeshcher/fuelcheck/internal/pipeline"
	"github.com/mmeshcher/fuelcheck/internal/service"
	"github.com/mmeshcher/fuelcheck/internal/table"
)

func TestRun_AgainstSandbox(t *testing.T) {
	logger := zaptest.NewLogger(t)
	reg := metrics.NewRegistry()

	svc := service.NewService("test", "testing", reg)
	h := handler.NewHandler(svc, logger, middleware.NewAuthMiddleware("e2e-secret"), reg.Handler())
	ts := httptest.NewServer(h.SetupRouter())
	defer ts.Close()

	dir := t.TempDir()
	input := filepath.Join(dir, "execution.csv")
	require.NoError(t, os.WriteFile(input, []byte(
		"fuel_type,buy_amount,buy_validation_msg,buy_validation_order,buy_validation_fuel_type,buy_validation_fuel_amount,order_id\n"+
			"1,23,,,,,\n"+
			"2,15,,,,,\n"+
			"4,50,,,,,\n"), 0o644))

	intents, err := table.LoadIntents(input)
	require.NoError(t, err)

	report, err := table.Initialize(input, filepath.Join(dir, "results", "execution_e2e.csv"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := ensek.NewClient(ts.URL, time.Second)
	defer client.CloseIdleConnections()

	token, err := client.Login(ctx, "test", "testing")
	require.NoError(t, err)
	client.SetToken(token)

	summary, err := pipeline.New(client, client, report, logger, reg).Run(ctx, intents)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.OrdersBeforeToday)

	orders := svc.Orders(ctx)
	require.Len(t, orders, 1)

	get := func(fuel model.FuelID, column string) string {
		v, found, err := report.Field(int(fuel), column)
		require.NoError(t, err)
		require.True(t, found)
		return v
	}

	assert.Equal(t, "pass", get(model.FuelGas, table.ColumnBuyValidationMsg))
	assert.Equal(t, "pass", get(model.FuelGas, table.ColumnValidationOrder))
	assert.Equal(t, "pass", get(model.FuelGas, table.ColumnValidationFuel))
	assert.Equal(t, "pass", get(model.FuelGas, table.ColumnValidationAmount))
	assert.Equal(t, orders[0].ID, get(model.FuelGas, table.ColumnOrderID))

	assert.Equal(t, "skipped", get(model.FuelNuclear, table.ColumnBuyValidationMsg))
	assert.Equal(t, "skipped", get(model.FuelNuclear, table.ColumnValidationOrder))
	assert.Equal(t, "", get(model.FuelNuclear, table.ColumnOrderID))

	// oil stock is 20, the purchase is refused in text
	assert.Equal(t, "fail", get(model.FuelOil, table.ColumnBuyValidationMsg))
	assert.Equal(t, "skipped", get(model.FuelOil, table.ColumnValidationOrder))

	gasID := orders[0].ID
	require.NoError(t, client.UpdateOrder(ctx, gasID, ensek.Order{Fuel: "gas", ID: gasID, Quantity: 30}))

	updated, err := client.GetOrder(ctx, gasID)
	require.NoError(t, err)
	assert.Equal(t, 30, updated.Quantity)
	assert.Equal(t, "gas", updated.FuelName)

	require.NoError(t, client.DeleteOrder(ctx, gasID))
	_, err = client.GetOrder(ctx, gasID)
	var se *ensek.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 404, se.Code)

	ok, err := pipeline.VerifyReset(ctx, client, client)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRun_SandboxRejectsMissingToken(t *testing.T) {
	logger := zaptest.NewLogger(t)
	svc := service.NewService("test", "testing", nil)
	h := handler.NewHandler(svc, logger, middleware.NewAuthMiddleware("e2e-secret"), nil)
	ts := httptest.NewServer(h.SetupRouter())
	defer ts.Close()

	dir := t.TempDir()
	input := filepath.Join(dir, "execution.csv")
	require.NoError(t, os.WriteFile(input, []byte("fuel_type,buy_amount,buy_validation_msg,order_id\n1,5,,\n"), 0o644))

	report, err := table.Initialize(input, filepath.Join(dir, "report.csv"))
	require.NoError(t, err)

	client := ensek.NewClient(ts.URL, time.Second)
	defer client.CloseIdleConnections()

	_, err = pipeline.New(client, client, report, logger, nil).Run(context.Background(), []model.PurchaseIntent{
		{FuelID: model.FuelGas, Quantity: 5},
	})

	var se *ensek.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 401, se.Code)

	v, _, err := report.Field(1, table.ColumnBuyValidationMsg)
	require.NoError(t, err)
	assert.Equal(t, "", v)
}
