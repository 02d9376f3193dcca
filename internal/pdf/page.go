package pdf

// Page is a read-only view of one page of a Document. Pages do not own
// any resources; they remain valid after the Document is closed because
// their content is decoded eagerly.
type Page struct {
	index    int
	width    float64
	height   float64
	userUnit float64
	extentX  float64
	lines    []Line
	text     string
}

// NewPage builds a page from already positioned glyphs. width and height
// are the declared page dimensions in user space; extentX is the
// right-most x coordinate reached by any drawing on the page.
func NewPage(index int, width, height, userUnit, extentX float64, glyphs []Glyph) *Page {
	if userUnit <= 0 {
		userUnit = 1
	}
	lines := BuildLines(glyphs)
	for _, l := range lines {
		extentX = max(extentX, l.Box.X1)
	}
	return &Page{
		index:    index,
		width:    width,
		height:   height,
		userUnit: userUnit,
		extentX:  extentX,
		lines:    lines,
		text:     JoinLines(lines),
	}
}

// Index returns the zero-based page number.
func (p *Page) Index() int { return p.index }

// Text returns the page text in reading order, one line per row.
func (p *Page) Text() string { return p.text }

// Height returns the declared page height.
func (p *Page) Height() float64 { return p.height }

// Lines returns the reading-order rows of the page.
func (p *Page) Lines() []Line { return p.lines }

// ContentWidth returns the usable width of the page: the declared width
// scaled by the page's user unit, widened to cover any text or graphics
// drawn beyond it.
func (p *Page) ContentWidth() float64 {
	return max(p.width*p.userUnit, p.extentX)
}

// Search returns the rectangles of every case-insensitive occurrence of
// literal on the page, restricted to clip when it is non-nil.
func (p *Page) Search(literal string, clip *Rect) []Rect {
	return SearchLines(p.lines, literal, clip)
}

// ClippedText returns the text of the characters inside r.
func (p *Page) ClippedText(r Rect) string {
	if r.IsEmpty() {
		return ""
	}
	return JoinLines(ClipLines(p.lines, r))
}
