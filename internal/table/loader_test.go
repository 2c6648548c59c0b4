package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/fuelcheck/internal/model"
)

func TestParseIntents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []model.PurchaseIntent
	}{
		{
			name:  "required columns only",
			input: "fuel_type,buy_amount\n1,23\n3,5\n",
			want: []model.PurchaseIntent{
				{FuelID: model.FuelGas, Quantity: 23},
				{FuelID: model.FuelElectric, Quantity: 5},
			},
		},
		{
			name:  "with order id and extra columns",
			input: "fuel_type,buy_amount,buy_validation_msg,order_id\n4,2,,abc\n2,15,,\n",
			want: []model.PurchaseIntent{
				{FuelID: model.FuelOil, Quantity: 2, ExistingOrderID: "abc"},
				{FuelID: model.FuelNuclear, Quantity: 15},
			},
		},
		{
			name:  "duplicate fuel keeps first position, last values",
			input: "fuel_type,buy_amount\n1,10\n3,7\n1,20\n",
			want: []model.PurchaseIntent{
				{FuelID: model.FuelGas, Quantity: 20},
				{FuelID: model.FuelElectric, Quantity: 7},
			},
		},
		{
			name:  "columns in any order, crlf and spaces",
			input: "buy_amount, fuel_type\r\n 8 , 4\r\n",
			want: []model.PurchaseIntent{
				{FuelID: model.FuelOil, Quantity: 8},
			},
		},
		{
			name:  "header only",
			input: "fuel_type,buy_amount\n",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntents([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIntents_Errors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		malformed  bool
		parseError string
	}{
		{name: "empty file", input: "", malformed: true},
		{name: "missing buy_amount", input: "fuel_type,order_id\n1,x\n", malformed: true},
		{name: "missing fuel_type", input: "buy_amount\n1\n", malformed: true},
		{name: "non numeric amount", input: "fuel_type,buy_amount\n1,lots\n", parseError: ColumnBuyAmount},
		{name: "non numeric fuel", input: "fuel_type,buy_amount\ngas,3\n", parseError: ColumnFuelType},
		{name: "zero amount", input: "fuel_type,buy_amount\n1,0\n", parseError: ColumnBuyAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIntents([]byte(tt.input))
			require.Error(t, err)

			if tt.malformed {
				assert.ErrorIs(t, err, ErrMalformedInput)
				return
			}

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.parseError, pe.Column)
			assert.Equal(t, 2, pe.Line)
		})
	}
}

func TestLoadIntents_MissingFile(t *testing.T) {
	_, err := LoadIntents(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)
}

func TestLoadIntents_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "execution.csv")
	require.NoError(t, os.WriteFile(path, []byte("fuel_type,buy_amount,order_id\n1,23,\n"), 0o644))

	got, err := LoadIntents(path)
	require.NoError(t, err)
	assert.Equal(t, []model.PurchaseIntent{{FuelID: model.FuelGas, Quantity: 23}}, got)
}

func TestReadColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "execution.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufefffuel_type, buy_amount,order_id\n1,2,\n"), 0o644))

	cols, err := ReadColumns(path)
	require.NoError(t, err)
	assert.Equal(t, []string{ColumnFuelType, ColumnBuyAmount, ColumnOrderID}, cols)

	_, err = ReadColumns(filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, ErrIO)
}
