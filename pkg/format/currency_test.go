package format

import "testing"

func TestMoney(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		currency string
		expected string
	}{
		{"Cents", 123456, "USD", "1,234.56 USD"},
		{"Negative", -123456, "usd", "-1,234.56 USD"},
		{"Small", 5, "EUR", "0.05 EUR"},
		{"Zero decimal currency", 1500000, "JPY", "1,500,000 JPY"},
		{"Three decimal currency", 12345, "KWD", "12.345 KWD"},
		{"Zero", 0, "USD", "0.00 USD"},
		{"Millions", 123456789012, "USD", "1,234,567,890.12 USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Money(tt.amount, tt.currency); got != tt.expected {
				t.Errorf("Money(%d, %s) = %q, expected %q", tt.amount, tt.currency, got, tt.expected)
			}
		})
	}
}

func TestMajor(t *testing.T) {
	if got := Major(27000, "USD").String(); got != "270" {
		t.Errorf("Major(27000, USD) = %s, expected 270", got)
	}
	if got := Major(-7, "USD").StringFixed(2); got != "-0.07" {
		t.Errorf("Major(-7, USD) = %s, expected -0.07", got)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		ratio    float64
		expected string
	}{
		{0.25, "25.0%"},
		{1, "100.0%"},
		{-0.1234, "-12.3%"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := Percent(tt.ratio); got != tt.expected {
				t.Errorf("Percent(%v) = %q, expected %q", tt.ratio, got, tt.expected)
			}
		})
	}
}

func TestParseMajor(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		currency  string
		expected  int64
		expectErr bool
	}{
		{name: "cents", amount: "1234.56", currency: "USD", expected: 123456},
		{name: "grouped", amount: "1,234.5", currency: "USD", expected: 123450},
		{name: "negative", amount: "-0.07", currency: "EUR", expected: -7},
		{name: "zero decimal currency", amount: "1500", currency: "JPY", expected: 1500},
		{name: "three decimal currency", amount: "1.234", currency: "KWD", expected: 1234},
		{name: "empty", amount: "", currency: "USD", expected: 0},
		{name: "too precise", amount: "1.005", currency: "USD", expectErr: true},
		{name: "not a number", amount: "ten", currency: "USD", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMajor(tt.amount, tt.currency)
			if tt.expectErr {
				if err == nil {
					t.Errorf("ParseMajor(%q) expected error", tt.amount)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMajor(%q) error = %v", tt.amount, err)
			}
			if got != tt.expected {
				t.Errorf("ParseMajor(%q, %s) = %d, expected %d", tt.amount, tt.currency, got, tt.expected)
			}
		})
	}
}
