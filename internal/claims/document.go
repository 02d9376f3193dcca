package claims

import "github.com/a3tai/mcp-remit-reader/internal/pdf"

// Page is the read-only view of a page the engine works against.
type Page interface {
	Index() int
	Text() string
	Search(literal string, clip *pdf.Rect) []pdf.Rect
	ClippedText(r pdf.Rect) string
	ContentWidth() float64
	Height() float64
}

// Document is an ordered sequence of pages.
type Document interface {
	PageCount() int
	Page(i int) (Page, error)
}

var _ Page = (*pdf.Page)(nil)

type pdfDocument struct {
	doc *pdf.Document
}

// FromPDF adapts an open PDF document to the engine's Document interface.
// The caller keeps ownership of doc and must close it.
func FromPDF(doc *pdf.Document) Document {
	return pdfDocument{doc: doc}
}

func (d pdfDocument) PageCount() int {
	return d.doc.PageCount()
}

func (d pdfDocument) Page(i int) (Page, error) {
	p, err := d.doc.Page(i)
	if err != nil {
		return nil, err
	}
	return p, nil
}
