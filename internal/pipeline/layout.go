package pipeline

import (
	"fmt"
	"slices"

	"github.com/mmeshcher/fuelcheck/internal/table"
)

// Layout описывает, в какие столбцы отчёта пишутся результаты проверок.
type Layout struct {
	// Message означает наличие столбца buy_validation_msg.
	Message bool
	// Detailed означает наличие тройки столбцов buy_validation_order/_fuel_type/_fuel_amount.
	Detailed bool
}

// DetectLayout определяет раскладку отчёта по его заголовку.
func DetectLayout(columns []string) (Layout, error) {
	if !slices.Contains(columns, table.ColumnOrderID) {
		return Layout{}, fmt.Errorf("%w: report has no %q column", table.ErrMalformedInput, table.ColumnOrderID)
	}

	l := Layout{
		Message: slices.Contains(columns, table.ColumnBuyValidationMsg),
		Detailed: slices.Contains(columns, table.ColumnValidationOrder) &&
			slices.Contains(columns, table.ColumnValidationFuel) &&
			slices.Contains(columns, table.ColumnValidationAmount),
	}
	if !l.Message && !l.Detailed {
		return Layout{}, fmt.Errorf("%w: report has no validation columns", table.ErrMalformedInput)
	}
	return l, nil
}
