package claims

import (
	"log/slog"
	"math"
	"strings"

	"github.com/a3tai/mcp-remit-reader/internal/pdf"
)

// FieldExtractor fills record fields from block text and page geometry.
type FieldExtractor struct {
	rules  *Rules
	logger *slog.Logger
}

// NewFieldExtractor creates an extractor for rules.
func NewFieldExtractor(rules *Rules, logger *slog.Logger) *FieldExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldExtractor{rules: rules, logger: logger}
}

// ApplyTags sets every field in tags from text. A field whose pattern
// does not match is set to "".
func (e *FieldExtractor) ApplyTags(rec *ClaimRecord, tags []TagRule, text string) {
	for _, tag := range tags {
		rec.Set(tag.Field, tag.Extract(text))
	}
}

// ClaimReferences sets the claim number and original reference number
// found in text.
func (e *FieldExtractor) ClaimReferences(rec *ClaimRecord, text string) {
	rec.ClaimNumber = firstGroup(e.rules.ClaimNumber, text)
	rec.OrigRefNum = firstGroup(e.rules.OrigRef, text)
}

// SinglePage fills the geometry fields of a block that closes on its
// origin page. It reports false when no crop rectangle could be resolved,
// in which case the geometry fields stay empty.
func (e *FieldExtractor) SinglePage(rec *ClaimRecord, block Block) bool {
	crop, ok := e.CropRect(block.Page, rec.ClaimNumber, rec.OrigRefNum)
	if !ok {
		e.logger.Warn("claims.crop.unresolved",
			"claim_number", rec.ClaimNumber,
			"page", block.PageIndex)
		return false
	}

	for _, f := range e.rules.GeometryFields() {
		b, ok := block.Profile.Bounds(f)
		if !ok {
			continue
		}
		col := pdf.Rect{X0: b.Left, Y0: crop.Y0, X1: b.ClipRight, Y1: crop.Y1}
		var c columnCollector
		c.add(block.Page.ClippedText(col))
		rec.Set(f, c.String())
	}
	return true
}

// MultiPage fills the geometry fields of a stitched block from its crop
// regions. Only the first region's top is nudged down, past the column
// header row; only the last region's bottom is nudged up, clear of the
// next block. Inner edges are used as-is.
func (e *FieldExtractor) MultiPage(rec *ClaimRecord, profile Profile, regions []Region) {
	if len(regions) == 0 {
		return
	}
	nudge := e.rules.RegionEdgeNudge

	for _, f := range e.rules.GeometryFields() {
		b, ok := profile.Bounds(f)
		if !ok {
			continue
		}
		var c columnCollector
		for i, r := range regions {
			y0, y1 := r.Rect.Y0, r.Rect.Y1
			if i == 0 {
				y0 += nudge
			}
			if i == len(regions)-1 {
				y1 -= nudge
			}
			col := pdf.Rect{X0: b.Left, Y0: y0, X1: b.ClipRight, Y1: y1}
			c.add(r.Page.ClippedText(col))
		}
		rec.Set(f, c.String())
	}
}

// CropRect locates the tabular section of a single-page block: from just
// below the claim number down to the original reference number, the next
// claim number, or the last patient responsibility label, whichever is
// found first in that order.
func (e *FieldExtractor) CropRect(page Page, claimNumber, origRef string) (pdf.Rect, bool) {
	if claimNumber == "" {
		return pdf.Rect{}, false
	}
	hits := page.Search(claimNumber, nil)
	if len(hits) == 0 {
		return pdf.Rect{}, false
	}
	claim := hits[0]
	top := math.Trunc(claim.Y1) + e.rules.ClaimTopPad

	bottom, ok := e.refBottom(page, origRef)
	if !ok {
		bottom, ok = e.nextClaimBottom(page, claimNumber)
	}
	if !ok {
		bottom, ok = e.responseBottom(page, claim)
	}
	if !ok || bottom <= top {
		return pdf.Rect{}, false
	}

	return pdf.Rect{X0: 0, Y0: top, X1: page.ContentWidth(), Y1: bottom}, true
}

func (e *FieldExtractor) refBottom(page Page, origRef string) (float64, bool) {
	if origRef == "" {
		return 0, false
	}
	hits := page.Search(origRef, nil)
	if len(hits) == 0 {
		return 0, false
	}
	return math.Trunc(hits[0].Y0), true
}

func (e *FieldExtractor) nextClaimBottom(page Page, claimNumber string) (float64, bool) {
	numbers := claimNumbers(e.rules, page.Text())
	if len(numbers) < 2 {
		return 0, false
	}
	idx := -1
	for i, n := range numbers {
		if n == claimNumber {
			idx = i
			break
		}
	}
	if idx < 0 || idx == len(numbers)-1 {
		return 0, false
	}
	hits := page.Search(numbers[idx+1], nil)
	if len(hits) == 0 {
		return 0, false
	}
	return math.Trunc(hits[0].Y0) - e.rules.NextClaimMargin, true
}

func (e *FieldExtractor) responseBottom(page Page, claim pdf.Rect) (float64, bool) {
	clip := pdf.Rect{X0: 0, Y0: claim.Y0, X1: page.ContentWidth(), Y1: page.Height()}
	hits := page.Search(e.rules.ResponseLabel, &clip)
	if len(hits) == 0 {
		return 0, false
	}
	bottom := hits[0].Y0
	for _, h := range hits[1:] {
		bottom = max(bottom, h.Y0)
	}
	return bottom, true
}

// claimNumbers returns every trimmed claim number in text, in order.
func claimNumbers(rules *Rules, text string) []string {
	matches := rules.ClaimNumber.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, trim(m[1]))
	}
	return out
}

// columnCollector keeps the distinct non-blank lines of a column in the
// order they are first seen.
type columnCollector struct {
	seen   map[string]struct{}
	values []string
}

func (c *columnCollector) add(text string) {
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	for _, line := range strings.Split(text, "\n") {
		line = trim(line)
		if line == "" {
			continue
		}
		if _, dup := c.seen[line]; dup {
			continue
		}
		c.seen[line] = struct{}{}
		c.values = append(c.values, line)
	}
}

func (c *columnCollector) String() string {
	return strings.Join(c.values, ",")
}
