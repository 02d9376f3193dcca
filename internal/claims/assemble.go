package claims

import (
	"context"
	"log/slog"
)

// Outcome describes how a block's geometry fields were obtained.
type Outcome struct {
	Stitched   bool
	Truncated  bool
	Unresolved bool
	Pages      int
}

// Assembler turns a block into a record.
type Assembler struct {
	rules     *Rules
	extractor *FieldExtractor
	stitcher  *Stitcher
	logger    *slog.Logger
}

// NewAssembler creates an assembler for rules.
func NewAssembler(rules *Rules, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		rules:     rules,
		extractor: NewFieldExtractor(rules, logger),
		stitcher:  NewStitcher(rules, logger),
		logger:    logger,
	}
}

// Header extracts the page header fields shared by every block on a page.
func (a *Assembler) Header(pageText string) ClaimRecord {
	var header ClaimRecord
	a.extractor.ApplyTags(&header, a.rules.HeaderTags, pageText)
	return header
}

// Assemble builds the record for block. A block without a closing marker
// is first extended across the following pages of doc. header supplies
// the page-level fields.
func (a *Assembler) Assemble(ctx context.Context, doc Document, block Block, header ClaimRecord) (ClaimRecord, Outcome, error) {
	var rec ClaimRecord
	var out Outcome
	text := block.Text

	if a.rules.CloseMarker.MatchString(text) {
		a.extractor.ClaimReferences(&rec, text)
		out.Unresolved = !a.extractor.SinglePage(&rec, block)
	} else {
		cont, err := a.stitcher.Stitch(ctx, doc, block)
		if err != nil {
			return ClaimRecord{}, out, err
		}
		text += cont.Text
		out.Stitched = true
		out.Truncated = cont.Truncated
		out.Pages = cont.Pages

		a.extractor.ClaimReferences(&rec, text)
		a.extractor.MultiPage(&rec, block.Profile, cont.Regions)
	}

	a.extractor.ApplyTags(&rec, a.rules.BlockTags, text)
	for _, tag := range a.rules.HeaderTags {
		rec.Set(tag.Field, header.Get(tag.Field))
	}

	a.logger.Debug("claims.block.assembled",
		"claim_number", rec.ClaimNumber,
		"page", block.PageIndex,
		"stitched", out.Stitched)
	return rec, out, nil
}
