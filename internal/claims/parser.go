package claims

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Stats summarizes one run.
type Stats struct {
	Pages        int           `json:"pages"`
	Blocks       int           `json:"blocks"`
	Stitched     int           `json:"stitched"`
	Truncated    int           `json:"truncated"`
	Unresolved   int           `json:"unresolved"`
	ProfilePage  int           `json:"profile_page"`
	ProfileWidth int           `json:"profile_columns"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Result is the output of a run: one record per patient block in page
// then text order.
type Result struct {
	Records []ClaimRecord `json:"records"`
	Stats   Stats         `json:"stats"`
}

// Option configures a Parser.
type Option func(*Parser)

// WithRules replaces the default rule set.
func WithRules(rules *Rules) Option {
	return func(p *Parser) {
		if rules != nil {
			p.rules = rules
		}
	}
}

// WithLogger sets the logger used for run diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Parser extracts claim records from a document. It holds no per-run
// state and may be reused and shared.
type Parser struct {
	rules  *Rules
	logger *slog.Logger

	calibrator *Calibrator
	assembler  *Assembler
}

// NewParser creates a parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		rules:  DefaultRules(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.calibrator = NewCalibrator(p.rules, p.logger)
	p.assembler = NewAssembler(p.rules, p.logger)
	return p
}

// Run processes doc sequentially. Pages are visited in ascending order and
// blocks in text order. The context is checked between pages; a page that
// cannot be read aborts the run with no partial output.
func (p *Parser) Run(ctx context.Context, doc Document) (*Result, error) {
	start := time.Now()

	profile, profilePage, err := p.calibrator.Calibrate(ctx, doc)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Records: []ClaimRecord{},
		Stats: Stats{
			Pages:        doc.PageCount(),
			ProfilePage:  profilePage,
			ProfileWidth: len(profile),
		},
	}

	for i := 0; i < doc.PageCount(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := doc.Page(i)
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", i, err)
		}

		blocks := Segment(p.rules.PatientTag, page, profile)
		if len(blocks) == 0 {
			continue
		}
		header := p.assembler.Header(page.Text())

		for _, block := range blocks {
			rec, out, err := p.assembler.Assemble(ctx, doc, block, header)
			if err != nil {
				return nil, err
			}
			res.Records = append(res.Records, rec)
			res.Stats.Blocks++
			if out.Stitched {
				res.Stats.Stitched++
			}
			if out.Truncated {
				res.Stats.Truncated++
			}
			if out.Unresolved {
				res.Stats.Unresolved++
			}
		}
	}

	res.Stats.Elapsed = time.Since(start)
	p.logger.Info("claims.run.ok",
		"pages", res.Stats.Pages,
		"records", len(res.Records),
		"stitched", res.Stats.Stitched,
		"unresolved", res.Stats.Unresolved,
		"elapsed", res.Stats.Elapsed)
	return res, nil
}
