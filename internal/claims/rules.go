package claims

import "regexp"

// Field names a column of a claim record.
type Field string

const (
	FieldPatientName   Field = "Patient Name"
	FieldPatientID     Field = "Patient ID"
	FieldProviderName  Field = "Provider Name"
	FieldProviderID    Field = "Provider ID"
	FieldPatientCtrl   Field = "Patient CTRL"
	FieldProviderCtrl  Field = "Provider CTRL"
	FieldCharge        Field = "Charge"
	FieldPayment       Field = "Payment"
	FieldPayeeID       Field = "PAYEE ID"
	FieldClaimNumber   Field = "Claim Number"
	FieldOrigRefNum    Field = "Orig Ref Num"
	FieldClaimStatus   Field = "CLAIM STATUS"
	FieldPayee         Field = "PAYEE"
	FieldVendor        Field = "VENDOR"
	FieldPayDate       Field = "Pay Date"
	FieldCheckEFT      Field = "CHECK/EFT"
	FieldCheckEFTDate  Field = "CHECK/EFT Date"
	FieldDateOfService Field = "Date Of Service"
	FieldServiceCode   Field = "Service Code"
	FieldModifier      Field = "Modifier"
)

// RecordFields is the canonical field order of a record.
var RecordFields = []Field{
	FieldPatientName, FieldPatientID, FieldProviderName, FieldProviderID,
	FieldPatientCtrl, FieldProviderCtrl, FieldCharge, FieldPayment,
	FieldPayeeID, FieldClaimNumber, FieldOrigRefNum, FieldClaimStatus,
	FieldPayee, FieldVendor, FieldPayDate, FieldCheckEFT, FieldCheckEFTDate,
	FieldDateOfService, FieldServiceCode, FieldModifier,
}

// ReportFields is the column order used for spreadsheet reports.
var ReportFields = []Field{
	FieldPatientName, FieldPatientID, FieldProviderName, FieldProviderID,
	FieldClaimStatus, FieldClaimNumber, FieldOrigRefNum, FieldPatientCtrl,
	FieldProviderCtrl, FieldDateOfService, FieldServiceCode, FieldModifier,
	FieldCharge, FieldPayment, FieldPayee, FieldPayeeID, FieldVendor,
	FieldPayDate, FieldCheckEFT, FieldCheckEFTDate,
}

// TagRule extracts one field as the first capture group of Pattern.
type TagRule struct {
	Field   Field
	Pattern *regexp.Regexp
}

// Extract applies the rule to text and returns the trimmed capture, or ""
// when the pattern does not match.
func (r TagRule) Extract(text string) string {
	return firstGroup(r.Pattern, text)
}

// Landmark locates a column header whose padded horizontal extent bounds
// a geometry-derived field. ClipInset narrows the right edge when the
// column is clipped.
type Landmark struct {
	Field     Field
	Literal   string
	PadLeft   float64
	PadRight  float64
	ClipInset float64
}

// Rules is the frozen configuration of the extraction engine: every
// pattern, landmark and crop offset it uses. Construct it once with
// DefaultRules and share it; it is never mutated.
type Rules struct {
	PatientTag  *regexp.Regexp
	CloseMarker *regexp.Regexp
	ClaimNumber *regexp.Regexp
	OrigRef     *regexp.Regexp

	BlockTags  []TagRule
	HeaderTags []TagRule
	Landmarks  []Landmark

	PatientLabel  string
	StatusLabel   string
	ResponseLabel string

	// Single-page crop offsets.
	ClaimTopPad     float64
	NextClaimMargin float64

	// Continuation crop offsets.
	OriginTopPad    float64
	ContinuationTop float64
	RegionEdgeNudge float64
	DashRun         *regexp.Regexp
}

// DefaultRules returns the rule set for the remittance layout.
func DefaultRules() *Rules {
	return &Rules{
		PatientTag:  regexp.MustCompile(`\nPATIENT\s*:`),
		CloseMarker: regexp.MustCompile(`\n\s*PAT\s*RESP\s*:`),
		ClaimNumber: regexp.MustCompile(`(?s)CLM\s*#:(.+?)\n`),
		OrigRef:     regexp.MustCompile(`ORIG\s*REF\s*NBR\s*:([^\n]+)`),

		BlockTags: []TagRule{
			{FieldPatientName, regexp.MustCompile(`(?s)PATIENT\s*:(.+?)\s*PATIENT`)},
			{FieldPatientID, regexp.MustCompile(`(?s)PATIENT\s*ID\s*#:(.+?)\s*CONTRACT\s*`)},
			{FieldProviderName, regexp.MustCompile(`(?s)REND\s*PROV\s*:(.+?)REND`)},
			{FieldProviderID, regexp.MustCompile(`(?s)PROV\s*ID\s*:(.+?)PROV`)},
			{FieldPatientCtrl, regexp.MustCompile(`(?s)PAT\s*CTRL\s*#\s*:(.+?)CLM`)},
			{FieldProviderCtrl, regexp.MustCompile(`PROV\s*CTRL\s*NBR\s*:([^\n]+)`)},
			{FieldCharge, regexp.MustCompile(`(?s)TOTAL\s*CHARGE\s*:(.+?)TOTAL`)},
			{FieldPayment, regexp.MustCompile(`(?s)TOTAL\s*PAYMENT\s*:(.+?)(?:ORIG|\n|$)`)},
			{FieldPayeeID, regexp.MustCompile(`(?s)PAYEE\s*ID\s*:(.+?)AUTH`)},
		},
		HeaderTags: []TagRule{
			{FieldClaimStatus, regexp.MustCompile(`(?s)CLAIM\s*STATUS\s*:(.+?)\n`)},
			{FieldPayee, regexp.MustCompile(`(?s)PAYEE\s*:(.+?)NPI`)},
			{FieldVendor, regexp.MustCompile(`(?s)VENDOR\s*NBR\s*:(.+?)PROD`)},
			{FieldPayDate, regexp.MustCompile(`(?s)PROD\s*DATE\s*:(.+?)CH`)},
			{FieldCheckEFT, regexp.MustCompile(`(?s)CHECK\s*/\s*EFT\s*NBR\s*:(.+?)CHK`)},
			{FieldCheckEFTDate, regexp.MustCompile(`(?s)CHK\s*/\s*EFT\s*DT\s*:(.+?)\n`)},
		},
		Landmarks: []Landmark{
			{Field: FieldDateOfService, Literal: " DOS ", PadLeft: 30, PadRight: 30, ClipInset: 35},
			{Field: FieldServiceCode, Literal: "ADJ/PROD", PadLeft: 2, PadRight: 10},
			{Field: FieldModifier, Literal: " MOD ", PadLeft: 20, PadRight: 20},
		},

		PatientLabel:  "PATIENT:",
		StatusLabel:   "CLAIM STATUS",
		ResponseLabel: "PAT RESP:",

		ClaimTopPad:     30,
		NextClaimMargin: 20,

		OriginTopPad:    10,
		ContinuationTop: 63,
		RegionEdgeNudge: 20,
		DashRun:         regexp.MustCompile(`-{2,}`),
	}
}

// GeometryFields are the fields derived from page position.
func (r *Rules) GeometryFields() []Field {
	out := make([]Field, len(r.Landmarks))
	for i, l := range r.Landmarks {
		out[i] = l.Field
	}
	return out
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return trim(m[1])
}
