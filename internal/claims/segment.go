package claims

import (
	"regexp"
	"strings"
)

// Block is the text of one patient entry on its origin page.
type Block struct {
	Text      string
	PageIndex int
	PageText  string
	Page      Page
	Profile   Profile
}

// Segment splits the page text into patient blocks at every match of tag.
// Each block runs from one match start up to the next (the last to the end
// of the text) with leading newlines removed. A page without tags yields
// no blocks.
func Segment(tag *regexp.Regexp, page Page, profile Profile) []Block {
	text := page.Text()
	locs := tag.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	blocks := make([]Block, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, Block{
			Text:      strings.TrimLeft(text[loc[0]:end], "\n"),
			PageIndex: page.Index(),
			PageText:  text,
			Page:      page,
			Profile:   profile,
		})
	}
	return blocks
}
