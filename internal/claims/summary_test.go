package claims

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	records := []ClaimRecord{
		{Charge: "1,234.50", Payment: "$1,000.00"},
		{Charge: "(12.00)", Payment: "5.25-"},
		{Charge: "", Payment: "N/A"},
		{Charge: "0.10", Payment: ""},
	}

	s := Summarize(records)
	assert.Equal(t, 4, s.Records)
	assert.True(t, decimal.RequireFromString("1222.60").Equal(s.ChargeTotal), s.ChargeTotal.String())
	assert.True(t, decimal.RequireFromString("994.75").Equal(s.PaymentTotal), s.PaymentTotal.String())
	assert.Equal(t, 1, s.Skipped)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Records)
	assert.True(t, s.ChargeTotal.IsZero())
	assert.True(t, s.PaymentTotal.IsZero())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
		bad  bool
	}{
		{raw: "80.00", want: "80", ok: true},
		{raw: " $1,050.25 ", want: "1050.25", ok: true},
		{raw: "(3.50)", want: "-3.5", ok: true},
		{raw: "3.50-", want: "-3.5", ok: true},
		{raw: "", want: "0"},
		{raw: "PAID", want: "0", bad: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v, ok, bad := parseAmount(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.bad, bad)
			assert.Equal(t, tt.want, v.String())
		})
	}
}
