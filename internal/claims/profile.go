package claims

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// ColumnBounds is the padded horizontal extent of one column. ClipRight
// is the right edge used when clipping the column's text.
type ColumnBounds struct {
	Left      float64
	Right     float64
	ClipRight float64
}

// Profile maps geometry-derived fields to their column bounds. A missing
// entry means the field cannot be located and is always empty.
type Profile map[Field]ColumnBounds

// Bounds returns the column bounds for f.
func (p Profile) Bounds(f Field) (ColumnBounds, bool) {
	b, ok := p[f]
	return b, ok
}

// Calibrator derives the document's column profile from landmark labels.
type Calibrator struct {
	rules  *Rules
	logger *slog.Logger
}

// NewCalibrator creates a calibrator for rules.
func NewCalibrator(rules *Rules, logger *slog.Logger) *Calibrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calibrator{rules: rules, logger: logger}
}

// Calibrate scans pages in order and builds the profile from the first
// page that carries a patient tag and at least one landmark. It returns
// the page index the profile came from, or -1 with an empty profile when
// no page qualifies.
func (c *Calibrator) Calibrate(ctx context.Context, doc Document) (Profile, int, error) {
	for i := 0; i < doc.PageCount(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, -1, err
		}
		page, err := doc.Page(i)
		if err != nil {
			return nil, -1, fmt.Errorf("calibrate page %d: %w", i, err)
		}
		if !c.rules.PatientTag.MatchString(page.Text()) {
			continue
		}

		profile := c.Measure(page)
		if len(profile) > 0 {
			c.logger.Info("claims.calibrate.ok", "page", i, "columns", len(profile))
			return profile, i, nil
		}
		c.logger.Debug("claims.calibrate.no_landmarks", "page", i)
	}

	c.logger.Info("claims.calibrate.miss", "pages", doc.PageCount())
	return Profile{}, -1, nil
}

// Measure locates each landmark on page and pads its box into column
// bounds. Landmarks that are not found are left out of the profile.
func (c *Calibrator) Measure(page Page) Profile {
	profile := make(Profile, len(c.rules.Landmarks))
	for _, lm := range c.rules.Landmarks {
		hits := page.Search(lm.Literal, nil)
		if len(hits) == 0 {
			continue
		}
		box := hits[0]
		b := ColumnBounds{
			Left:  math.Trunc(box.X0) - lm.PadLeft,
			Right: math.Trunc(box.X1) + lm.PadRight,
		}
		b.ClipRight = b.Right - lm.ClipInset
		profile[lm.Field] = b
	}
	return profile
}
