package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/fuelcheck/internal/model"
	"github.com/mmeshcher/fuelcheck/internal/validation"
)

func newTestService() *Service {
	s := NewService("test", "testing", nil)
	s.now = func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }
	s.newID = func() string { return "11111111-1111-1111-1111-111111111111" }
	return s
}

func TestBuy_Success(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	msg, err := s.Buy(ctx, model.FuelGas, 23)
	require.NoError(t, err)
	assert.Equal(t, "You have purchased 23 m³ at a cost of 7.82 there are 2977 units remaining. Your order id is 11111111-1111-1111-1111-111111111111.", msg)

	status, id := validation.Classify(msg, 23)
	assert.Equal(t, model.StatusPass, status)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", id)

	orders := s.Orders(ctx)
	require.Len(t, orders, 1)
	assert.Equal(t, "gas", orders[0].Fuel)
	assert.Equal(t, 23, orders[0].Quantity)
}

func TestBuy_Nuclear(t *testing.T) {
	s := newTestService()

	msg, err := s.Buy(context.Background(), model.FuelNuclear, 15)
	require.NoError(t, err)
	assert.Equal(t, validation.UnavailablePhrase, msg)
	assert.Empty(t, s.Orders(context.Background()))
}

func TestBuy_NotEnough(t *testing.T) {
	s := newTestService()

	msg, err := s.Buy(context.Background(), model.FuelOil, 21)
	require.NoError(t, err)
	assert.Equal(t, "There is not enough oil to purchase! Only 20 units remaining.", msg)
}

func TestBuy_Errors(t *testing.T) {
	s := newTestService()

	_, err := s.Buy(context.Background(), 7, 1)
	assert.ErrorIs(t, err, ErrUnknownFuel)

	_, err = s.Buy(context.Background(), model.FuelGas, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestOrderLifecycleAndReset(t *testing.T) {
	s := NewService("test", "testing", nil)
	ctx := context.Background()

	_, err := s.Buy(ctx, model.FuelOil, 5)
	require.NoError(t, err)

	orders := s.Orders(ctx)
	require.Len(t, orders, 1)

	got, err := s.Order(ctx, orders[0].ID)
	require.NoError(t, err)
	assert.Equal(t, orders[0], got)

	require.NoError(t, s.DeleteOrder(ctx, orders[0].ID))
	assert.ErrorIs(t, s.DeleteOrder(ctx, orders[0].ID), ErrOrderNotFound)
	_, err = s.Order(ctx, orders[0].ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = s.Buy(ctx, model.FuelOil, 5)
	require.NoError(t, err)
	assert.Equal(t, 10, s.Energy(ctx)[3].Stock)

	s.Reset(ctx)
	assert.Empty(t, s.Orders(ctx))
	assert.Equal(t, 20, s.Energy(ctx)[3].Stock)
}

func TestUpdateOrder(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.Buy(ctx, model.FuelGas, 23)
	require.NoError(t, err)
	id := s.Orders(ctx)[0].ID

	o, err := s.UpdateOrder(ctx, id, "electric", 40)
	require.NoError(t, err)
	assert.Equal(t, "electric", o.Fuel)
	assert.Equal(t, 40, o.Quantity)

	o, err = s.UpdateOrder(ctx, id, "", 5)
	require.NoError(t, err)
	assert.Equal(t, "electric", o.Fuel)
	assert.Equal(t, 5, o.Quantity)

	got, err := s.Order(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, o, got)

	_, err = s.UpdateOrder(ctx, id, "coal", 5)
	assert.ErrorIs(t, err, ErrUnknownFuel)
	_, err = s.UpdateOrder(ctx, id, "gas", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = s.UpdateOrder(ctx, "absent", "gas", 1)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestAuthenticate(t *testing.T) {
	s := newTestService()

	assert.NoError(t, s.Authenticate(context.Background(), "test", "testing"))
	assert.ErrorIs(t, s.Authenticate(context.Background(), "test", "nope"), ErrInvalidCredentials)
}
