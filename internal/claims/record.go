package claims

import "strings"

// ClaimRecord is one flat output row. Every field is always present and
// defaults to the empty string.
type ClaimRecord struct {
	PatientName   string `csv:"Patient Name" json:"Patient Name"`
	PatientID     string `csv:"Patient ID" json:"Patient ID"`
	ProviderName  string `csv:"Provider Name" json:"Provider Name"`
	ProviderID    string `csv:"Provider ID" json:"Provider ID"`
	PatientCtrl   string `csv:"Patient CTRL" json:"Patient CTRL"`
	ProviderCtrl  string `csv:"Provider CTRL" json:"Provider CTRL"`
	Charge        string `csv:"Charge" json:"Charge"`
	Payment       string `csv:"Payment" json:"Payment"`
	PayeeID       string `csv:"PAYEE ID" json:"PAYEE ID"`
	ClaimNumber   string `csv:"Claim Number" json:"Claim Number"`
	OrigRefNum    string `csv:"Orig Ref Num" json:"Orig Ref Num"`
	ClaimStatus   string `csv:"CLAIM STATUS" json:"CLAIM STATUS"`
	Payee         string `csv:"PAYEE" json:"PAYEE"`
	Vendor        string `csv:"VENDOR" json:"VENDOR"`
	PayDate       string `csv:"Pay Date" json:"Pay Date"`
	CheckEFT      string `csv:"CHECK/EFT" json:"CHECK/EFT"`
	CheckEFTDate  string `csv:"CHECK/EFT Date" json:"CHECK/EFT Date"`
	DateOfService string `csv:"Date Of Service" json:"Date Of Service"`
	ServiceCode   string `csv:"Service Code" json:"Service Code"`
	Modifier      string `csv:"Modifier" json:"Modifier"`
}

func (r *ClaimRecord) field(f Field) *string {
	switch f {
	case FieldPatientName:
		return &r.PatientName
	case FieldPatientID:
		return &r.PatientID
	case FieldProviderName:
		return &r.ProviderName
	case FieldProviderID:
		return &r.ProviderID
	case FieldPatientCtrl:
		return &r.PatientCtrl
	case FieldProviderCtrl:
		return &r.ProviderCtrl
	case FieldCharge:
		return &r.Charge
	case FieldPayment:
		return &r.Payment
	case FieldPayeeID:
		return &r.PayeeID
	case FieldClaimNumber:
		return &r.ClaimNumber
	case FieldOrigRefNum:
		return &r.OrigRefNum
	case FieldClaimStatus:
		return &r.ClaimStatus
	case FieldPayee:
		return &r.Payee
	case FieldVendor:
		return &r.Vendor
	case FieldPayDate:
		return &r.PayDate
	case FieldCheckEFT:
		return &r.CheckEFT
	case FieldCheckEFTDate:
		return &r.CheckEFTDate
	case FieldDateOfService:
		return &r.DateOfService
	case FieldServiceCode:
		return &r.ServiceCode
	case FieldModifier:
		return &r.Modifier
	}
	return nil
}

// Get returns the value of f, or "" for an unknown field.
func (r ClaimRecord) Get(f Field) string {
	if p := r.field(f); p != nil {
		return *p
	}
	return ""
}

// Set assigns v to f. Unknown fields are ignored.
func (r *ClaimRecord) Set(f Field, v string) {
	if p := r.field(f); p != nil {
		*p = v
	}
}

// Values returns the record's values in the given field order.
func (r ClaimRecord) Values(order []Field) []string {
	out := make([]string, len(order))
	for i, f := range order {
		out[i] = r.Get(f)
	}
	return out
}

// IsEmpty reports whether every field is blank.
func (r ClaimRecord) IsEmpty() bool {
	for _, f := range RecordFields {
		if r.Get(f) != "" {
			return false
		}
	}
	return true
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
