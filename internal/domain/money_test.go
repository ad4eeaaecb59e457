package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    Money
		wantErr bool
	}{
		{"1250.50", 125050, false},
		{"1250.5", 125050, false},
		{"12000", 1200000, false},
		{" 0.01 ", 1, false},
		{"-5", -500, false},
		{"1.005", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "55097.39", Money(5509739).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "100.00", Money(10000).String())
}

func TestMoneyFromMinorDecimal_RoundsHalfUp(t *testing.T) {
	assert.Equal(t, Money(3), MoneyFromMinorDecimal(decimal.RequireFromString("2.5")))
	assert.Equal(t, Money(2), MoneyFromMinorDecimal(decimal.RequireFromString("2.49999")))
	assert.Equal(t, Money(950000), MoneyFromMinorDecimal(decimal.RequireFromString("949999.5")))
}

func TestMonthlyRate(t *testing.T) {
	assert.True(t, MonthlyRate(decimal.NewFromInt(12)).Equal(decimal.RequireFromString("0.01")))
	assert.True(t, MonthlyRate(decimal.Zero).IsZero())
}
