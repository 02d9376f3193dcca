package claims

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/a3tai/mcp-remit-reader/internal/pdf"
)

// Region is a crop rectangle on a specific page.
type Region struct {
	Page Page
	Rect pdf.Rect
}

// Continuation is the part of a block that spills past its origin page.
type Continuation struct {
	// Text is appended to the block text; every visited page contributes
	// a newline followed by its cleaned crop text.
	Text string
	// Regions holds the origin tail followed by one region per visited
	// page. The last entry belongs to the last visited page even when its
	// rect is empty.
	Regions []Region
	// Pages counts the pages visited after the origin page.
	Pages int
	// Truncated is set when the document ended before the next patient
	// label was seen.
	Truncated bool
}

// Stitcher follows a block that has no closing marker across pages.
type Stitcher struct {
	rules  *Rules
	logger *slog.Logger
}

// NewStitcher creates a stitcher for rules.
func NewStitcher(rules *Rules, logger *slog.Logger) *Stitcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stitcher{rules: rules, logger: logger}
}

// Stitch collects the crop regions of block: the tail of the origin page
// below its last claim number, then every following page up to the next
// patient label or the end of the document.
func (s *Stitcher) Stitch(ctx context.Context, doc Document, block Block) (Continuation, error) {
	var cont Continuation

	if r, ok := s.originRegion(block.Page); ok {
		cont.Regions = append(cont.Regions, r)
	}

	var sb strings.Builder
	found := false
	for i := block.PageIndex + 1; i < doc.PageCount(); i++ {
		if err := ctx.Err(); err != nil {
			return cont, err
		}
		page, err := doc.Page(i)
		if err != nil {
			return cont, fmt.Errorf("continuation page %d: %w", i, err)
		}
		cont.Pages++

		var rect pdf.Rect
		rect, found = s.pageRegion(page)
		cont.Regions = append(cont.Regions, Region{Page: page, Rect: rect})

		sb.WriteByte('\n')
		sb.WriteString(s.cleanCrop(page.ClippedText(rect)))

		if found {
			break
		}
	}

	cont.Text = sb.String()
	cont.Truncated = !found
	if cont.Truncated {
		s.logger.Warn("claims.stitch.truncated",
			"page", block.PageIndex,
			"pages_visited", cont.Pages,
			"regions", len(cont.Regions))
	}
	return cont, nil
}

// originRegion covers the origin page below its last claim number.
func (s *Stitcher) originRegion(page Page) (Region, bool) {
	numbers := claimNumbers(s.rules, page.Text())
	if len(numbers) == 0 {
		return Region{}, false
	}
	last := numbers[len(numbers)-1]
	if last == "" {
		return Region{}, false
	}
	hits := page.Search(last, nil)
	if len(hits) == 0 {
		return Region{}, false
	}

	top := math.Trunc(hits[0].Y1) + s.rules.OriginTopPad
	rect := pdf.Rect{X0: 0, Y0: top, X1: page.ContentWidth(), Y1: page.Height()}
	if rect.IsEmpty() {
		return Region{}, false
	}
	return Region{Page: page, Rect: rect}, true
}

// pageRegion returns the crop rectangle of a continuation page and whether
// the page holds the next patient label, which ends the continuation.
func (s *Stitcher) pageRegion(page Page) (pdf.Rect, bool) {
	width := page.ContentWidth()
	bottom := page.Height()

	patient := page.Search(s.rules.PatientLabel, nil)
	found := len(patient) > 0
	if found {
		bottom = patient[0].Y0
	}

	top := s.rules.ContinuationTop
	for _, hit := range page.Search(s.rules.StatusLabel, nil) {
		if hit.Y1 <= bottom {
			top = hit.Y1
			break
		}
	}

	return pdf.Rect{X0: 0, Y0: top, X1: width, Y1: bottom}, found
}

func (s *Stitcher) cleanCrop(text string) string {
	return trim(s.rules.DashRun.ReplaceAllString(text, " "))
}
