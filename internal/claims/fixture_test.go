package claims

import (
	"errors"

	"github.com/a3tai/mcp-remit-reader/internal/pdf"
)

const (
	fixtureSize    = 10.0
	fixtureAdvance = 6.0
	pageWidth      = 612.0
	pageHeight     = 792.0
)

// text places s with its baseline at y, starting at x.
type text struct {
	x, y float64
	s    string
}

// layoutPage lays out fixed-pitch text on a letter page. Every rune is
// fixtureAdvance wide and occupies y-8..y+2.
func layoutPage(index int, items ...text) *pdf.Page {
	var glyphs []pdf.Glyph
	for _, it := range items {
		x := it.x
		for _, r := range it.s {
			if r != ' ' {
				glyphs = append(glyphs, pdf.Glyph{
					Text:     string(r),
					Box:      pdf.Rect{X0: x, Y0: it.y - 8, X1: x + fixtureAdvance, Y1: it.y + 2},
					Baseline: it.y,
					Size:     fixtureSize,
				})
			}
			x += fixtureAdvance
		}
	}
	return pdf.NewPage(index, pageWidth, pageHeight, 1, 0, glyphs)
}

// fakeDocument serves prepared pages and records every page access.
type fakeDocument struct {
	pages   []*pdf.Page
	failAt  int
	visited []int
}

func newFakeDocument(pages ...*pdf.Page) *fakeDocument {
	return &fakeDocument{pages: pages, failAt: -1}
}

func (d *fakeDocument) PageCount() int { return len(d.pages) }

func (d *fakeDocument) Page(i int) (Page, error) {
	d.visited = append(d.visited, i)
	if i == d.failAt {
		return nil, errors.New("corrupt page")
	}
	if i < 0 || i >= len(d.pages) {
		return nil, pdf.ErrInvalidPage
	}
	return d.pages[i], nil
}

// headerRows are the page header lines carried by every fixture page.
func headerRows() []text {
	return []text{
		{20, 40, "CLAIM STATUS: PAID"},
		{20, 52, "PAYEE: ACME CLINIC NPI: 1234567890"},
		{20, 64, "VENDOR NBR: V001 PROD DATE: 01/20/2024 CHECK/EFT NBR: 998877 CHK/EFT DT: 01/21/2024"},
	}
}

// columnRow is the column header line holding the three landmarks.
func columnRow(y float64) []text {
	return []text{
		{20, y, "LINE"},
		{100, y, "DOS"},
		{200, y, "ADJ/PROD"},
		{300, y, "MOD"},
		{400, y, "BILLED"},
	}
}

// serviceRow is one service line under the column header.
func serviceRow(y float64, line, dos, code, mod, billed string) []text {
	row := []text{
		{20, y, line},
		{70, y, dos},
		{200, y, code},
		{400, y, billed},
	}
	if mod != "" {
		row = append(row, text{300, y, mod})
	}
	return row
}

// patientRows are the identifying lines of a block starting at y.
func patientRows(y float64, name, id, claim string) []text {
	return []text{
		{20, y, "PATIENT: " + name + " PATIENT ID #: " + id + " CONTRACT: C1"},
		{20, y + 12, "REND PROV: SMITH JANE REND NPI: 111 PROV ID: P77 PROV CTRL NBR: PC9"},
		{20, y + 24, "PAT CTRL #: PCN" + id + " CLM #: " + claim},
		{20, y + 36, "PAYEE ID: PY1 AUTH: A1"},
	}
}

func concat(parts ...[]text) []text {
	var out []text
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// singleBlockPage is a complete one-page remittance with one closed block.
func singleBlockPage() *pdf.Page {
	return layoutPage(0, concat(
		headerRows(),
		columnRow(90),
		patientRows(110, "DOE JOHN", "555001", "20240001"),
		serviceRow(180, "1", "01/15/24", "99213", "25", "150.00"),
		serviceRow(192, "2", "01/15/24", "85025", "", "30.00"),
		[]text{
			{20, 210, "ORIG REF NBR: OR1"},
			{20, 222, "TOTAL CHARGE: 180.00 TOTAL PAYMENT: 120.00"},
			{20, 234, "PAT RESP: 60.00"},
		},
	)...)
}

// fakePage is a blank page; embed it to override individual methods.
type fakePage struct{}

func (fakePage) Index() int                          { return 0 }
func (fakePage) Text() string                        { return "" }
func (fakePage) Search(string, *pdf.Rect) []pdf.Rect { return nil }
func (fakePage) ClippedText(pdf.Rect) string         { return "" }
func (fakePage) ContentWidth() float64               { return pageWidth }
func (fakePage) Height() float64                     { return pageHeight }
