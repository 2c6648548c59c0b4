package table

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mmeshcher/fuelcheck/internal/model"
)

// LoadIntents читает входную таблицу и возвращает заявки в порядке их первого появления.
// Повторная строка с тем же fuel_type перезаписывает количество и номер заказа.
func LoadIntents(path string) ([]model.PurchaseIntent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}
	return ParseIntents(data)
}

// ReadColumns возвращает имена столбцов заголовка таблицы без BOM и пробелов.
func ReadColumns(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}
	doc, err := parse(data)
	if err != nil {
		return nil, err
	}
	return doc.columns(), nil
}

// ParseIntents разбирает содержимое входной таблицы.
func ParseIntents(data []byte) ([]model.PurchaseIntent, error) {
	doc, err := parse(data)
	if err != nil {
		return nil, err
	}

	for _, required := range []string{ColumnFuelType, ColumnBuyAmount} {
		if !doc.has(required) {
			return nil, fmt.Errorf("%w: header has no %q column", ErrMalformedInput, required)
		}
	}

	fuelIdx := doc.index[ColumnFuelType]
	amountIdx := doc.index[ColumnBuyAmount]
	orderIdx, hasOrder := doc.index[ColumnOrderID]

	var intents []model.PurchaseIntent
	positions := make(map[model.FuelID]int)

	for _, row := range doc.rows {
		if row.fields == nil {
			continue
		}

		fuelID, err := parseInt(row, ColumnFuelType, fuelIdx)
		if err != nil {
			return nil, err
		}
		quantity, err := parseInt(row, ColumnBuyAmount, amountIdx)
		if err != nil {
			return nil, err
		}
		if quantity <= 0 {
			return nil, &ParseError{
				Line:   row.line,
				Column: ColumnBuyAmount,
				Value:  cell(row.fields, amountIdx),
				Reason: "quantity must be positive",
			}
		}

		intent := model.PurchaseIntent{
			FuelID:   model.FuelID(fuelID),
			Quantity: quantity,
		}
		if hasOrder {
			intent.ExistingOrderID = strings.TrimSpace(cell(row.fields, orderIdx))
		}

		if pos, ok := positions[intent.FuelID]; ok {
			intents[pos] = intent
			continue
		}
		positions[intent.FuelID] = len(intents)
		intents = append(intents, intent)
	}

	return intents, nil
}

func parseInt(row record, column string, idx int) (int, error) {
	raw := cell(row.fields, idx)
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ParseError{
			Line:   row.line,
			Column: column,
			Value:  raw,
			Reason: "not an integer",
		}
	}
	return v, nil
}
