package validation

import (
	"testing"

	"github.com/mmeshcher/fuelcheck/internal/model"
)

const sampleID = "123e4567-e89b-12d3-a456-426614174000"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		quantity int
		status   model.ValidationStatus
		orderID  string
	}{
		{
			name:     "exact quantity with id",
			message:  "You have purchased 23 m³ at a cost of 7.82 there are 2977 units remaining. Your order id is " + sampleID + ".",
			quantity: 23,
			status:   model.StatusPass,
			orderID:  sampleID,
		},
		{
			name:     "exact quantity without id",
			message:  "You have purchased 23 units of fuel 1.",
			quantity: 23,
			status:   model.StatusPass,
		},
		{
			name:     "different quantity",
			message:  "You have purchased 23 units...",
			quantity: 24,
			status:   model.StatusFail,
		},
		{
			name:     "requested quantity is a prefix of the purchased one",
			message:  "You have purchased 230 units. Your order id is " + sampleID + ".",
			quantity: 23,
			status:   model.StatusFail,
			orderID:  sampleID,
		},
		{
			name:     "unknown message still yields id",
			message:  "Something odd happened, id is " + sampleID + ".",
			quantity: 5,
			status:   model.StatusFail,
			orderID:  sampleID,
		},
		{
			name:     "unavailable fuel",
			message:  "There is no nuclear fuel to purchase!",
			quantity: 15,
			status:   model.StatusSkipped,
		},
		{
			name:     "unavailable fuel ignores embedded id",
			message:  "There is no nuclear fuel to purchase! Your order id is " + sampleID + ".",
			quantity: 15,
			status:   model.StatusSkipped,
		},
		{
			name:     "empty message",
			message:  "",
			quantity: 1,
			status:   model.StatusFail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, id := Classify(tt.message, tt.quantity)
			if status != tt.status {
				t.Fatalf("Classify(%q, %d) status = %q, want %q", tt.message, tt.quantity, status, tt.status)
			}
			if id != tt.orderID {
				t.Fatalf("Classify(%q, %d) id = %q, want %q", tt.message, tt.quantity, id, tt.orderID)
			}
		})
	}
}

func TestClassify_UnavailableIgnoresQuantity(t *testing.T) {
	for _, q := range []int{0, 1, 15, 1000} {
		status, id := Classify("Oops. There is no nuclear fuel to purchase!", q)
		if status != model.StatusSkipped || id != "" {
			t.Fatalf("quantity %d: got (%q, %q), want (skipped, \"\")", q, status, id)
		}
	}
}

func TestExtractOrderID(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{name: "canonical", message: "...your order id is " + sampleID + ".", want: sampleID},
		{name: "glued orderid", message: "Your orderid is " + sampleID + ".", want: sampleID},
		{name: "upper case hex", message: "id is 123E4567-E89B-12D3-A456-426614174000.", want: "123E4567-E89B-12D3-A456-426614174000"},
		{name: "no prefix", message: "order " + sampleID + ".", want: ""},
		{name: "no terminating period", message: "id is " + sampleID, want: ""},
		{name: "truncated uuid", message: "id is 123e4567-e89b-12d3-a456.", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractOrderID(tt.message); got != tt.want {
				t.Fatalf("ExtractOrderID(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}
