package fee

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestProtectionFee(t *testing.T) {
	tests := []struct {
		name  string
		price string
		want  string
	}{
		{"zero", "0", "0.70"},
		{"round price", "100", "5.70"},
		{"cents", "19.99", "1.6995"},
		{"one", "1", "0.75"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProtectionFee(dec(tt.price))
			if !got.Equal(dec(tt.want)) {
				t.Fatalf("got=%s want=%s", got, tt.want)
			}
		})
	}
}

func TestShippingCost(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		want     string
	}{
		{"mondial relay", "Mondial Relay", "3.99"},
		{"home delivery", "Home Delivery", "6.99"},
		{"ups access point", "UPS Access Point", "4.50"},
		// Unknown labels fall through to the default on purpose; this pins
		// the policy so it cannot regress silently.
		{"unknown provider defaults", "Carrier Pigeon", "5.00"},
		{"empty provider defaults", "", "5.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShippingCost(tt.provider)
			if !got.Equal(dec(tt.want)) {
				t.Fatalf("got=%s want=%s", got, tt.want)
			}
		})
	}
}

func TestTotal(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		provider string
		want     string
	}{
		{"round hundred", "100", "Home Delivery", "112.69"},
		{"zero price default shipping", "0", "", "5.70"},
		{"offer price mondial", "90", "Mondial Relay", "99.19"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Total(dec(tt.price), tt.provider)
			if !got.Equal(dec(tt.want)) {
				t.Fatalf("got=%s want=%s", got, tt.want)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	q := Quote(dec("100"), "Home Delivery")
	if !q.ProtectionFee.Equal(dec("5.70")) {
		t.Fatalf("fee=%s want 5.70", q.ProtectionFee)
	}
	if !q.ShippingCost.Equal(dec("6.99")) {
		t.Fatalf("shipping=%s want 6.99", q.ShippingCost)
	}
	if !q.Total.Equal(q.Price.Add(q.ProtectionFee).Add(q.ShippingCost)) {
		t.Fatalf("total=%s inconsistent with parts", q.Total)
	}
}
