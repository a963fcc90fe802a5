package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestValidAddress(t *testing.T) {
	valid := []string{
		"0x1111111111111111111111111111111111111111",
		"0xAbCdEf0123456789aBcDeF0123456789abcdef01",
		ZeroAddress,
	}
	for _, addr := range valid {
		if !ValidAddress(addr) {
			t.Errorf("ValidAddress(%q) = false", addr)
		}
	}

	invalid := []string{
		"",
		"0x",
		"1111111111111111111111111111111111111111",
		"0x111111111111111111111111111111111111111",   // 39 digits
		"0x11111111111111111111111111111111111111111", // 41 digits
		"0xg111111111111111111111111111111111111111",
		"0X1111111111111111111111111111111111111111",
	}
	for _, addr := range invalid {
		if ValidAddress(addr) {
			t.Errorf("ValidAddress(%q) = true", addr)
		}
	}
}

func TestValidateOrderAmount(t *testing.T) {
	for _, v := range []string{"0.1", "1", "9999.99", "10000"} {
		if err := ValidateOrderAmount(dec(v)); err != nil {
			t.Errorf("amount %s rejected: %v", v, err)
		}
	}
	for _, v := range []string{"0", "0.09", "-1", "10000.01"} {
		if err := ValidateOrderAmount(dec(v)); err == nil {
			t.Errorf("amount %s accepted", v)
		}
	}
}

func TestValidatePrice(t *testing.T) {
	for _, v := range []string{"0.01", "0.5", "999.99", "1000"} {
		if err := ValidatePrice(dec(v)); err != nil {
			t.Errorf("price %s rejected: %v", v, err)
		}
	}
	for _, v := range []string{"0", "0.009", "-0.01", "1000.01"} {
		if err := ValidatePrice(dec(v)); err == nil {
			t.Errorf("price %s accepted", v)
		}
	}
}

func TestOrderRemainingKwh(t *testing.T) {
	o := Order{RequestedKwh: dec("10"), FilledKwh: dec("3.5")}
	if !o.RemainingKwh().Equal(dec("6.5")) {
		t.Errorf("remaining = %s, want 6.5", o.RemainingKwh())
	}
}
