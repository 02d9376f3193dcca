package claims

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Summary totals the monetary fields of a record set. Skipped counts
// non-empty amounts that could not be parsed.
type Summary struct {
	Records      int             `json:"records"`
	ChargeTotal  decimal.Decimal `json:"charge_total"`
	PaymentTotal decimal.Decimal `json:"payment_total"`
	Skipped      int             `json:"skipped_amounts"`
}

// Summarize totals Charge and Payment across records. Empty amounts are
// ignored; unparsable ones are counted in Skipped.
func Summarize(records []ClaimRecord) Summary {
	s := Summary{
		Records:      len(records),
		ChargeTotal:  decimal.Zero,
		PaymentTotal: decimal.Zero,
	}
	for _, r := range records {
		if v, ok, bad := parseAmount(r.Charge); ok {
			s.ChargeTotal = s.ChargeTotal.Add(v)
		} else if bad {
			s.Skipped++
		}
		if v, ok, bad := parseAmount(r.Payment); ok {
			s.PaymentTotal = s.PaymentTotal.Add(v)
		} else if bad {
			s.Skipped++
		}
	}
	return s
}

// parseAmount reads a remittance amount such as "1,234.50", "$80.00",
// "(12.00)" or "12.00-". ok is false for empty input; bad is set when the
// input is non-empty but not an amount.
func parseAmount(raw string) (v decimal.Decimal, ok bool, bad bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false, false
	}

	negative := false
	switch {
	case strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"):
		negative = true
		s = s[1 : len(s)-1]
	case strings.HasSuffix(s, "-"):
		negative = true
		s = strings.TrimSuffix(s, "-")
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, true
	}
	if negative {
		d = d.Neg()
	}
	return d, true, false
}
