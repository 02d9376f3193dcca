package pdf

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const (
	// Glyph boxes are derived from the baseline using a fixed ascent and
	// descent since the content stream only reports the font size.
	ascentRatio  = 0.8
	descentRatio = 0.2

	letterWidth  = 612.0
	letterHeight = 792.0
)

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger used for non-fatal decoding diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Document is an open PDF file. It must be closed by the caller.
type Document struct {
	path   string
	file   *os.File
	reader *lpdf.Reader
	dims   []types.Dim
	logger *slog.Logger

	mu     sync.Mutex
	pages  map[int]*Page
	closed bool
}

// Open opens the PDF at path. Page text is decoded with ledongthuc/pdf;
// declared page dimensions come from pdfcpu when it can read the file.
func Open(path string, opts ...Option) (*Document, error) {
	f, reader, err := lpdf.Open(path)
	if err != nil {
		return nil, &AccessError{Op: "open", Path: path, Err: err}
	}

	doc := &Document{
		path:   path,
		file:   f,
		reader: reader,
		logger: slog.Default(),
		pages:  make(map[int]*Page),
	}
	for _, opt := range opts {
		opt(doc)
	}

	dims, err := readPageDims(path)
	switch {
	case err != nil:
		doc.logger.Debug("pdf.dims.fallback", "path", path, "error", err)
	case len(dims) != reader.NumPage():
		doc.logger.Debug("pdf.dims.mismatch", "path", path, "dims", len(dims), "pages", reader.NumPage())
	default:
		doc.dims = dims
	}

	return doc, nil
}

// Path returns the file the document was opened from.
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.reader.NumPage()
}

// Page returns the zero-based page i, decoding it on first access.
func (d *Document) Page(i int) (*Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, &AccessError{Op: "page", Path: d.path, Err: ErrDocumentClosed}
	}
	if i < 0 || i >= d.reader.NumPage() {
		return nil, &AccessError{
			Op:   "page",
			Path: d.path,
			Err:  fmt.Errorf("%w: %d (document has %d pages)", ErrInvalidPage, i, d.reader.NumPage()),
		}
	}
	if p, ok := d.pages[i]; ok {
		return p, nil
	}

	p := d.decodePage(i)
	d.pages[i] = p
	return p, nil
}

// Close releases the underlying file. It is safe to call more than once.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	if d.file != nil {
		if err := d.file.Close(); err != nil {
			return &AccessError{Op: "close", Path: d.path, Err: err}
		}
	}
	return nil
}

func (d *Document) decodePage(i int) *Page {
	lp := d.reader.Page(i + 1)
	if lp.V.IsNull() {
		d.logger.Warn("pdf.page.missing", "path", d.path, "page", i)
		return NewPage(i, letterWidth, letterHeight, 1, 0, nil)
	}

	llx, lly, urx, ury := mediaBox(lp.V)
	width, height := urx-llx, ury-lly
	if i < len(d.dims) && d.dims[i].Width > 0 && d.dims[i].Height > 0 {
		width, height = d.dims[i].Width, d.dims[i].Height
	}
	userUnit := lp.V.Key("UserUnit").Float64()

	content, err := pageContent(lp)
	if err != nil {
		d.logger.Warn("pdf.page.decode_failed", "path", d.path, "page", i, "error", err)
		return NewPage(i, width, height, userUnit, 0, nil)
	}

	glyphs := make([]Glyph, 0, len(content.Text))
	var extentX float64
	for _, t := range content.Text {
		g := toGlyph(t, llx, ury)
		extentX = max(extentX, g.Box.X1)
		glyphs = append(glyphs, g)
	}
	for _, r := range content.Rect {
		extentX = max(extentX, r.Max.X-llx, r.Min.X-llx)
	}

	return NewPage(i, width, height, userUnit, extentX, glyphs)
}

// pageContent decodes the content stream, converting a library panic on
// malformed input into an error.
func pageContent(p lpdf.Page) (content lpdf.Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("content stream: %v", r)
		}
	}()
	return p.Content(), nil
}

// toGlyph converts a bottom-origin text item into top-origin page space.
func toGlyph(t lpdf.Text, llx, ury float64) Glyph {
	size := t.FontSize
	if size <= 0 {
		size = fallbackFontSize
	}
	w := t.W
	if w <= 0 {
		w = size * 0.5
	}
	x0 := t.X - llx
	base := ury - t.Y
	return Glyph{
		Text:     t.S,
		Box:      Rect{X0: x0, Y0: base - size*ascentRatio, X1: x0 + w, Y1: base + size*descentRatio},
		Baseline: base,
		Size:     size,
	}
}

// mediaBox resolves the possibly inherited MediaBox of a page object.
func mediaBox(v lpdf.Value) (llx, lly, urx, ury float64) {
	for node := v; !node.IsNull(); node = node.Key("Parent") {
		box := node.Key("MediaBox")
		if box.Len() == 4 {
			return box.Index(0).Float64(), box.Index(1).Float64(), box.Index(2).Float64(), box.Index(3).Float64()
		}
	}
	return 0, 0, letterWidth, letterHeight
}

// readPageDims returns the declared size of every page as seen by pdfcpu.
func readPageDims(path string) ([]types.Dim, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(file, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}
	return dims, nil
}
