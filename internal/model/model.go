// Package model содержит доменные сущности проверки закупок топлива.
package model

import "time"

// FuelID идентифицирует вид топлива во входной таблице и в API сервиса.
type FuelID int

const (
	FuelGas      FuelID = 1
	FuelNuclear  FuelID = 2
	FuelElectric FuelID = 3
	FuelOil      FuelID = 4
)

// UnknownFuelName возвращается для идентификаторов вне перечисления.
const UnknownFuelName = "unknown"

var fuelNames = map[FuelID]string{
	FuelGas:      "gas",
	FuelNuclear:  "nuclear",
	FuelElectric: "electric",
	FuelOil:      "oil",
}

// Name возвращает имя топлива в том виде, в каком его отдаёт список заказов.
func (id FuelID) Name() string {
	if name, ok := fuelNames[id]; ok {
		return name
	}
	return UnknownFuelName
}

// Known сообщает, входит ли идентификатор в перечисление видов топлива.
func (id FuelID) Known() bool {
	_, ok := fuelNames[id]
	return ok
}

// ValidationStatus описывает результат одной проверки.
type ValidationStatus string

const (
	StatusPass    ValidationStatus = "pass"
	StatusFail    ValidationStatus = "fail"
	StatusSkipped ValidationStatus = "skipped"
	// StatusNotApplicable означает, что проверка не выполнялась.
	StatusNotApplicable ValidationStatus = "n/a"
)

// PurchaseIntent описывает одну заявку на покупку из входной таблицы.
type PurchaseIntent struct {
	FuelID          FuelID
	Quantity        int
	ExistingOrderID string
}

// PurchaseOutcome описывает классифицированный ответ сервиса на покупку.
type PurchaseOutcome struct {
	FuelID     FuelID
	RawMessage string
	OrderID    string
	Status     ValidationStatus
}

// OrderRecord описывает заказ из списка заказов сервиса.
type OrderRecord struct {
	ID        string
	FuelName  string
	Quantity  int
	CreatedAt string
}

// Reconciliation содержит результат сверки заказа с заявкой.
type Reconciliation struct {
	OrderMatch    ValidationStatus
	FuelTypeMatch ValidationStatus
	QuantityMatch ValidationStatus
}

// Verdict сворачивает классификацию и сверку в итоговый статус заявки.
func Verdict(classified ValidationStatus, rec Reconciliation) ValidationStatus {
	if classified == StatusSkipped {
		return StatusSkipped
	}
	if classified != StatusPass {
		return StatusFail
	}
	for _, s := range []ValidationStatus{rec.OrderMatch, rec.FuelTypeMatch, rec.QuantityMatch} {
		if s == StatusFail || s == StatusSkipped {
			return StatusFail
		}
	}
	return StatusPass
}

// IntentResult содержит полную историю проверки одной заявки.
type IntentResult struct {
	Intent         PurchaseIntent
	Outcome        PurchaseOutcome
	Reconciliation Reconciliation
	Verdict        ValidationStatus
}

// Summary содержит итоги прогона.
type Summary struct {
	Passed            int
	Failed            int
	Skipped           int
	OrdersBeforeToday int
	Results           []IntentResult
}

// Total возвращает количество обработанных заявок.
func (s Summary) Total() int {
	return s.Passed + s.Failed + s.Skipped
}

// Run описывает завершённый прогон для архива.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	ReportPath string
	Summary    Summary
}
