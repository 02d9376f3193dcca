package claims

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-remit-reader/internal/pdf"
)

func quietStitcher() *Stitcher {
	return NewStitcher(DefaultRules(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func firstBlock(t *testing.T, doc *fakeDocument) Block {
	t.Helper()
	page, err := doc.Page(0)
	require.NoError(t, err)
	blocks := Segment(DefaultRules().PatientTag, page, Profile{})
	require.NotEmpty(t, blocks)
	return blocks[0]
}

func TestStitch_StopsAtNextPatientLabel(t *testing.T) {
	doc := twoPageDocument()
	// A third page proves the walk ends on the page holding the next label.
	doc.pages = append(doc.pages, layoutPage(2, text{20, 100, "PATIENT: LATER"}))

	block := firstBlock(t, doc)
	doc.visited = nil

	cont, err := quietStitcher().Stitch(context.Background(), doc, block)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, doc.visited)
	assert.Equal(t, 1, cont.Pages)
	assert.False(t, cont.Truncated)

	require.Len(t, cont.Regions, 2)
	origin := cont.Regions[0]
	assert.Equal(t, 0, origin.Page.Index())
	// Claim number row spans y 126..136, so the tail starts at 136+10.
	assert.Equal(t, pdf.Rect{X0: 0, Y0: 146, X1: pageWidth, Y1: pageHeight}, origin.Rect)

	next := cont.Regions[1]
	assert.Equal(t, 1, next.Page.Index())
	assert.Equal(t, pdf.Rect{X0: 0, Y0: 63, X1: pageWidth, Y1: 100}, next.Rect)

	assert.Contains(t, cont.Text, "01/16/24")
	assert.Contains(t, cont.Text, "PAT RESP: 10.00")
	assert.NotContains(t, cont.Text, "ROE JANE")
}

func TestStitch_UsesClaimStatusAsTop(t *testing.T) {
	page0 := layoutPage(0, concat(
		headerRows(),
		patientRows(110, "DOE JOHN", "555001", "20240001"),
	)...)
	page1 := layoutPage(1, concat(
		headerRows(),
		serviceRow(100, "3", "01/16/24", "99214", "59", "80.00"),
		[]text{{20, 120, "PATIENT: ROE JANE"}},
	)...)
	doc := newFakeDocument(page0, page1)

	cont, err := quietStitcher().Stitch(context.Background(), doc, firstBlock(t, doc))
	require.NoError(t, err)
	require.Len(t, cont.Regions, 2)

	// CLAIM STATUS occupies y 32..42 on the continuation page.
	assert.Equal(t, pdf.Rect{X0: 0, Y0: 42, X1: pageWidth, Y1: 112}, cont.Regions[1].Rect)
}

func TestStitch_IgnoresClaimStatusBelowPatientLabel(t *testing.T) {
	page0 := layoutPage(0, concat(
		[]text{{20, 40, "REMITTANCE ADVICE"}},
		patientRows(110, "DOE JOHN", "555001", "20240001"),
	)...)
	page1 := layoutPage(1,
		text{20, 90, "4 01/17/24 99215"},
		text{20, 120, "PATIENT: ROE JANE"},
		text{20, 300, "CLAIM STATUS: DENIED"},
	)
	doc := newFakeDocument(page0, page1)

	cont, err := quietStitcher().Stitch(context.Background(), doc, firstBlock(t, doc))
	require.NoError(t, err)
	require.Len(t, cont.Regions, 2)
	assert.Equal(t, pdf.Rect{X0: 0, Y0: 63, X1: pageWidth, Y1: 112}, cont.Regions[1].Rect)
}

func TestStitch_RunsOffEndOfDocument(t *testing.T) {
	page0 := layoutPage(0, concat(
		headerRows(),
		patientRows(110, "DOE JOHN", "555001", "20240001"),
	)...)
	doc := newFakeDocument(
		page0,
		layoutPage(1, serviceRow(100, "3", "01/16/24", "99214", "", "80.00")...),
		layoutPage(2, serviceRow(100, "4", "01/17/24", "99215", "", "90.00")...),
	)
	block := firstBlock(t, doc)
	doc.visited = nil

	cont, err := quietStitcher().Stitch(context.Background(), doc, block)
	require.NoError(t, err)

	assert.True(t, cont.Truncated)
	assert.Equal(t, 2, cont.Pages)
	assert.LessOrEqual(t, cont.Pages, doc.PageCount())
	assert.Equal(t, []int{1, 2}, doc.visited)
	require.Len(t, cont.Regions, 3)
	for _, r := range cont.Regions[1:] {
		assert.Equal(t, pdf.Rect{X0: 0, Y0: 63, X1: pageWidth, Y1: pageHeight}, r.Rect)
	}
	assert.Contains(t, cont.Text, "01/16/24")
	assert.Contains(t, cont.Text, "01/17/24")
}

func TestStitch_KeepsEmptyClosingRegion(t *testing.T) {
	page0 := layoutPage(0, concat(
		headerRows(),
		patientRows(110, "DOE JOHN", "555001", "20240001"),
	)...)
	// The next label sits above the continuation top, so the closing
	// page contributes nothing but still ends the walk.
	page2 := layoutPage(2, concat(
		[]text{{20, 30, "REMITTANCE ADVICE"}},
		patientRows(50, "ROE JANE", "555002", "20240002"),
	)...)
	doc := newFakeDocument(
		page0,
		layoutPage(1, serviceRow(780, "3", "01/16/24", "99214", "", "80.00")...),
		page2,
	)
	block := firstBlock(t, doc)

	cont, err := quietStitcher().Stitch(context.Background(), doc, block)
	require.NoError(t, err)

	assert.False(t, cont.Truncated)
	assert.Equal(t, 2, cont.Pages)
	require.Len(t, cont.Regions, 3)
	assert.Equal(t, pdf.Rect{X0: 0, Y0: 63, X1: pageWidth, Y1: pageHeight}, cont.Regions[1].Rect)

	closing := cont.Regions[2]
	assert.Equal(t, 2, closing.Page.Index())
	assert.True(t, closing.Rect.IsEmpty())
	assert.Equal(t, pdf.Rect{X0: 0, Y0: 63, X1: pageWidth, Y1: 42}, closing.Rect)

	assert.Contains(t, cont.Text, "01/16/24")
	assert.NotContains(t, cont.Text, "ROE JANE")
}

func TestStitch_LastPageOrigin(t *testing.T) {
	page0 := layoutPage(0, concat(
		[]text{{20, 40, "REMITTANCE ADVICE"}},
		patientRows(110, "DOE JOHN", "555001", "20240001"),
	)...)
	doc := newFakeDocument(page0)

	cont, err := quietStitcher().Stitch(context.Background(), doc, firstBlock(t, doc))
	require.NoError(t, err)
	assert.True(t, cont.Truncated)
	assert.Zero(t, cont.Pages)
	assert.Len(t, cont.Regions, 1)
	assert.Empty(t, cont.Text)
}

func TestStitch_CollapsesDashRuns(t *testing.T) {
	page0 := layoutPage(0, concat(
		[]text{{20, 40, "REMITTANCE ADVICE"}},
		patientRows(110, "DOE JOHN", "555001", "20240001"),
	)...)
	page1 := layoutPage(1,
		text{20, 90, "LINE----DOS-----CODE"},
		text{20, 120, "PATIENT: NEXT"},
	)
	doc := newFakeDocument(page0, page1)

	cont, err := quietStitcher().Stitch(context.Background(), doc, firstBlock(t, doc))
	require.NoError(t, err)
	assert.Equal(t, "\nLINE DOS CODE", cont.Text)
}
