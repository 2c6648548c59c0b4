// Package reconcile сверяет заявки на покупку со списком заказов сервиса.
package reconcile

import (
	"strings"
	"time"

	"github.com/mmeshcher/fuelcheck/internal/model"
)

// createdAtLayouts перечисляет форматы времени создания заказа, которые встречаются в ответах.
var createdAtLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	time.RFC3339Nano,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Reconcile сверяет заказ с номером orderID с заявкой intent.
// Пустой номер означает, что проверять нечего.
func Reconcile(intent model.PurchaseIntent, orderID string, orders []model.OrderRecord) model.Reconciliation {
	res := model.Reconciliation{
		OrderMatch:    model.StatusSkipped,
		FuelTypeMatch: model.StatusNotApplicable,
		QuantityMatch: model.StatusNotApplicable,
	}
	if orderID == "" {
		return res
	}

	order, ok := FindByID(orders, orderID)
	if !ok {
		res.OrderMatch = model.StatusFail
		return res
	}

	res.OrderMatch = model.StatusPass
	res.FuelTypeMatch = match(order.FuelName == intent.FuelID.Name())
	res.QuantityMatch = match(order.Quantity == intent.Quantity)
	return res
}

// FindByID ищет заказ по точному совпадению номера с учётом регистра.
func FindByID(orders []model.OrderRecord, id string) (model.OrderRecord, bool) {
	for _, o := range orders {
		if o.ID == id {
			return o, true
		}
	}
	return model.OrderRecord{}, false
}

// FindByContent ищет заказ с тем же видом топлива и количеством, что и в заявке, без учёта номера.
func FindByContent(orders []model.OrderRecord, intent model.PurchaseIntent) (model.OrderRecord, bool) {
	name := intent.FuelID.Name()
	for _, o := range orders {
		if o.FuelName == name && o.Quantity == intent.Quantity {
			return o, true
		}
	}
	return model.OrderRecord{}, false
}

// CountCreatedBefore считает заказы, созданные раньше текущих суток по UTC.
// Заказы с неразборчивым временем не учитываются.
func CountCreatedBefore(orders []model.OrderRecord, now time.Time) int {
	today := now.UTC().Truncate(24 * time.Hour)

	n := 0
	for _, o := range orders {
		created, ok := ParseCreatedAt(o.CreatedAt)
		if ok && created.UTC().Before(today) {
			n++
		}
	}
	return n
}

// ParseCreatedAt разбирает время создания заказа в одном из известных форматов.
func ParseCreatedAt(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func match(ok bool) model.ValidationStatus {
	if ok {
		return model.StatusPass
	}
	return model.StatusFail
}
