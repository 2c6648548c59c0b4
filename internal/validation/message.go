// Package validation классифицирует текстовые ответы сервиса на покупку топлива.
package validation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mmeshcher/fuelcheck/internal/model"
)

const (
	// UnavailablePhrase присутствует в ответе, когда топлива нет в продаже.
	UnavailablePhrase = "There is no nuclear fuel to purchase!"
	// PurchasedPhrase предшествует количеству купленного топлива в подтверждении.
	PurchasedPhrase = "You have purchased "
)

// orderIDPattern задаёт единственную грамматику извлечения номера заказа:
// литерал "id is ", UUID в каноническом виде и завершающая точка.
var orderIDPattern = regexp.MustCompile(`id is ([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})\.`)

// Classify определяет статус покупки по тексту ответа и извлекает номер заказа.
// Для недоступного топлива номер заказа не извлекается.
func Classify(message string, quantity int) (model.ValidationStatus, string) {
	if strings.Contains(message, UnavailablePhrase) {
		return model.StatusSkipped, ""
	}

	status := model.StatusFail
	if confirmsQuantity(message, quantity) {
		status = model.StatusPass
	}

	return status, ExtractOrderID(message)
}

// ExtractOrderID возвращает UUID заказа из текста ответа или пустую строку.
func ExtractOrderID(message string) string {
	m := orderIDPattern.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	return m[1]
}

// confirmsQuantity проверяет, что за фразой подтверждения стоит ровно запрошенное количество,
// а не число, которое лишь начинается с него.
func confirmsQuantity(message string, quantity int) bool {
	phrase := PurchasedPhrase + strconv.Itoa(quantity)

	for rest := message; ; {
		i := strings.Index(rest, phrase)
		if i < 0 {
			return false
		}
		rest = rest[i+len(phrase):]
		if rest == "" || !isDigit(rest[0]) {
			return true
		}
	}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
