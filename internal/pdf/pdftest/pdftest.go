// Package pdftest generates small, fully predictable PDF files for tests.
//
// Text is set in Courier at 10pt with explicit 600-unit widths, so every
// character advances exactly 6pt.
package pdftest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// PageHeight is the height of every generated page.
const PageHeight = 792.0

// Line is a single run of text placed at an absolute position using
// bottom-origin PDF coordinates.
type Line struct {
	X, Y float64
	Text string
}

// At places text with its baseline y points below the top of the page.
func At(x, y float64, text string) Line {
	return Line{X: x, Y: PageHeight - y, Text: text}
}

// Generate builds a minimal PDF with one letter-size page per entry in
// pages. The MediaBox is inherited from the page tree.
func Generate(pages [][]Line) []byte {
	n := len(pages)
	fontObj := 3 + 2*n

	var sb strings.Builder
	offsets := make([]int, 0, fontObj)
	obj := func(body string) {
		offsets = append(offsets, sb.Len())
		fmt.Fprintf(&sb, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	sb.WriteString("%PDF-1.4\n")
	obj("<<\n/Type /Catalog\n/Pages 2 0 R\n>>")

	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	obj(fmt.Sprintf("<<\n/Type /Pages\n/Kids [%s]\n/Count %d\n/MediaBox [0 0 612 792]\n>>",
		strings.Join(kids, " "), n))

	escape := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	for i, lines := range pages {
		obj(fmt.Sprintf("<<\n/Type /Page\n/Parent 2 0 R\n/Contents %d 0 R\n/Resources <<\n/Font <<\n/F1 %d 0 R\n>>\n>>\n>>",
			4+2*i, fontObj))

		var content strings.Builder
		for _, l := range lines {
			fmt.Fprintf(&content, "BT\n/F1 10 Tf\n1 0 0 1 %.2f %.2f Tm\n(%s) Tj\nET\n", l.X, l.Y, escape.Replace(l.Text))
		}
		obj(fmt.Sprintf("<<\n/Length %d\n>>\nstream\n%sendstream", content.Len(), content.String()))
	}

	widths := strings.TrimSpace(strings.Repeat("600 ", 95))
	obj(fmt.Sprintf("<<\n/Type /Font\n/Subtype /Type1\n/BaseFont /Courier\n/FirstChar 32\n/LastChar 126\n/Widths [%s]\n>>", widths))

	xrefStart := sb.Len()
	fmt.Fprintf(&sb, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&sb, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&sb, "trailer\n<<\n/Size %d\n/Root 1 0 R\n>>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefStart)

	return []byte(sb.String())
}

// Write generates pages into name under a fresh temporary directory and
// returns the file path.
func Write(t testing.TB, name string, pages [][]Line) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, Generate(pages), 0o600); err != nil {
		t.Fatalf("write test pdf: %v", err)
	}
	return path
}

// Remittance is a one-page remittance advice with a single closed patient
// block for claim 20240001: two service lines, dates of service 01/15/24,
// codes 99213 and 85025, modifier 25, charge 180.00 and payment 120.00.
func Remittance() [][]Line {
	return [][]Line{{
		At(20, 40, "CLAIM STATUS: PAID"),
		At(20, 52, "PAYEE: ACME CLINIC NPI: 1234567890"),
		At(20, 64, "VENDOR NBR: V001 PROD DATE: 01/20/2024 CHECK/EFT NBR: 998877 CHK/EFT DT: 01/21/2024"),

		At(20, 90, "LINE"),
		At(100, 90, "DOS"),
		At(200, 90, "ADJ/PROD"),
		At(300, 90, "MOD"),
		At(400, 90, "BILLED"),

		At(20, 110, "PATIENT: DOE JOHN PATIENT ID #: 555001 CONTRACT: C1"),
		At(20, 122, "REND PROV: SMITH JANE REND NPI: 111 PROV ID: P77 PROV CTRL NBR: PC9"),
		At(20, 134, "PAT CTRL #: PCN555001 CLM #: 20240001"),
		At(20, 146, "PAYEE ID: PY1 AUTH: A1"),

		At(20, 180, "1"), At(70, 180, "01/15/24"), At(200, 180, "99213"), At(300, 180, "25"), At(400, 180, "150.00"),
		At(20, 192, "2"), At(70, 192, "01/15/24"), At(200, 192, "85025"), At(400, 192, "30.00"),

		At(20, 210, "ORIG REF NBR: OR1"),
		At(20, 222, "TOTAL CHARGE: 180.00 TOTAL PAYMENT: 120.00"),
		At(20, 234, "PAT RESP: 60.00"),
	}}
}
