package pdf

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// rowToleranceRatio is the fraction of the font size two glyph
	// baselines may differ by and still share a row.
	rowToleranceRatio = 0.5
	// minRowTolerance applies to glyphs with no usable font size.
	minRowTolerance = 2.0
	// wordGapRatio is the gap, relative to font size, above which a space
	// is inserted between neighbouring glyphs.
	wordGapRatio = 0.3
	// fallbackFontSize is used when the content stream reports size 0.
	fallbackFontSize = 10.0
)

// Glyph is a positioned run of text as reported by the content stream,
// already converted to top-left page coordinates.
type Glyph struct {
	Text     string
	Box      Rect
	Baseline float64
	Size     float64
}

// charBox is a single rune with its bounding box. Synthetic marks spaces
// that were inferred from glyph gaps rather than drawn.
type charBox struct {
	r         rune
	box       Rect
	synthetic bool
}

// Line is one reading-order row of text.
type Line struct {
	chars    []charBox
	baseline float64
	Box      Rect
}

// String returns the text of the line.
func (l Line) String() string {
	var sb strings.Builder
	sb.Grow(len(l.chars))
	for _, c := range l.chars {
		sb.WriteRune(c.r)
	}
	return sb.String()
}

// BuildLines groups glyphs into rows by baseline and orders each row left
// to right, inserting spaces where the horizontal gap between glyphs
// exceeds the word gap threshold. Rows are returned top to bottom.
func BuildLines(glyphs []Glyph) []Line {
	if len(glyphs) == 0 {
		return nil
	}

	sorted := make([]Glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.Text == "" {
			continue
		}
		if g.Size <= 0 {
			g.Size = fallbackFontSize
		}
		sorted = append(sorted, g)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Baseline < sorted[j].Baseline
	})

	type rowBucket struct {
		baseline float64
		tol      float64
		glyphs   []Glyph
	}

	var buckets []*rowBucket
	for _, g := range sorted {
		var target *rowBucket
		for _, b := range buckets {
			if abs(g.Baseline-b.baseline) <= b.tol {
				target = b
				break
			}
		}
		if target == nil {
			tol := max(g.Size*rowToleranceRatio, minRowTolerance)
			target = &rowBucket{baseline: g.Baseline, tol: tol}
			buckets = append(buckets, target)
		}
		target.glyphs = append(target.glyphs, g)
	}

	lines := make([]Line, 0, len(buckets))
	for _, b := range buckets {
		sort.SliceStable(b.glyphs, func(i, j int) bool {
			return b.glyphs[i].Box.X0 < b.glyphs[j].Box.X0
		})
		line := buildLine(b.glyphs)
		line.baseline = b.baseline
		if len(line.chars) > 0 {
			lines = append(lines, line)
		}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].baseline < lines[j].baseline
	})
	return lines
}

// buildLine merges the glyphs of one row, which must already be sorted by X.
func buildLine(glyphs []Glyph) Line {
	var line Line
	var prev *charBox
	var prevSize float64

	for _, g := range glyphs {
		runes := splitGlyph(g)
		if len(runes) == 0 {
			continue
		}

		if prev != nil {
			gap := runes[0].box.X0 - prev.box.X1
			size := max(prevSize, g.Size)
			if gap > size*wordGapRatio && prev.r != ' ' && runes[0].r != ' ' {
				space := charBox{
					r:         ' ',
					box:       NewRect(prev.box.X1, min(prev.box.Y0, runes[0].box.Y0), runes[0].box.X0, max(prev.box.Y1, runes[0].box.Y1)),
					synthetic: true,
				}
				line.chars = append(line.chars, space)
			}
		}

		for _, c := range runes {
			line.chars = append(line.chars, c)
			line.Box = line.Box.Union(c.box)
		}
		prev = &line.chars[len(line.chars)-1]
		prevSize = g.Size
	}

	return line
}

// splitGlyph spreads a multi-rune glyph evenly over its box.
func splitGlyph(g Glyph) []charBox {
	n := utf8.RuneCountInString(g.Text)
	if n == 0 {
		return nil
	}
	step := g.Box.Width() / float64(n)
	out := make([]charBox, 0, n)
	i := 0
	for _, r := range g.Text {
		x0 := g.Box.X0 + step*float64(i)
		out = append(out, charBox{r: r, box: Rect{X0: x0, Y0: g.Box.Y0, X1: x0 + step, Y1: g.Box.Y1}})
		i++
	}
	return out
}

// JoinLines renders lines the way page text is exposed: one row per line,
// each terminated by a newline.
func JoinLines(lines []Line) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// SearchLines finds every case-insensitive occurrence of literal within a
// single line and returns the bounding box of each hit in reading order.
// When clip is non-nil only hits whose center lies inside it are kept.
func SearchLines(lines []Line, literal string, clip *Rect) []Rect {
	needle := []rune(literal)
	if len(needle) == 0 {
		return nil
	}

	var hits []Rect
	for _, l := range lines {
		if len(l.chars) < len(needle) {
			continue
		}
		for i := 0; i+len(needle) <= len(l.chars); i++ {
			if !matchAt(l.chars, i, needle) {
				continue
			}
			hit := matchBox(l.chars[i : i+len(needle)])
			if clip != nil && !clip.ContainsCenter(hit) {
				continue
			}
			hits = append(hits, hit)
			i += len(needle) - 1
		}
	}
	return hits
}

// matchBox bounds the drawn characters of a hit. Inferred spaces at either
// end widen the box by one average character instead of spanning the
// whole gap they stand for.
func matchBox(chars []charBox) Rect {
	var box Rect
	var width float64
	drawn := 0
	for _, c := range chars {
		if !c.synthetic {
			box = box.Union(c.box)
			width += c.box.Width()
			drawn++
		}
	}
	if drawn == 0 {
		for _, c := range chars {
			box = box.Union(c.box)
		}
		return box
	}

	avg := width / float64(drawn)
	for _, c := range chars {
		if !c.synthetic {
			break
		}
		box.X0 -= avg
	}
	for i := len(chars) - 1; i >= 0 && chars[i].synthetic; i-- {
		box.X1 += avg
	}
	return box
}

func matchAt(chars []charBox, at int, needle []rune) bool {
	for j, r := range needle {
		if !strings.EqualFold(string(chars[at+j].r), string(r)) {
			return false
		}
	}
	return true
}

// ClipLines keeps the drawn characters whose centers fall inside clip and
// rebuilds the surviving rows, dropping rows left empty.
func ClipLines(lines []Line, clip Rect) []Line {
	var out []Line
	for _, l := range lines {
		var kept []Glyph
		for _, c := range l.chars {
			if c.synthetic || !clip.ContainsCenter(c.box) {
				continue
			}
			kept = append(kept, Glyph{
				Text:     string(c.r),
				Box:      c.box,
				Baseline: l.baseline,
				Size:     c.box.Height(),
			})
		}
		if len(kept) == 0 {
			continue
		}
		line := buildLine(kept)
		line.baseline = l.baseline
		out = append(out, line)
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
