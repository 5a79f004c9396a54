package integration

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/abelzeko/travel-times/internal/entities"
)

// colorRatings maps the report's font colors (upper case) to ratings
var colorRatings = map[string]entities.Rating{
	"#006600": entities.RatingGood,
	"#0000FF": entities.RatingAverage,
	"#FF0000": entities.RatingBad,
}

var styleColorRe = regexp.MustCompile(`(?i)(?:^|;)\s*color\s*:\s*([^;]+)`)

// Cell is the extracted content of a single report table cell
type Cell struct {
	Text  string   // Inner text of the cell
	Color string   // Color marker of a nested font/span element, if any
	Icons []string // Alt text of nested images, in document order
}

// ClassifyCell interprets a travel time cell. Non-numeric text means the
// segment has no data and yields (0, RatingNone).
func ClassifyCell(text, color string) (int, entities.Rating) {
	value, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, entities.RatingNone
	}
	return value, RatingForColor(color)
}

// RatingForColor looks up a color marker; unknown or empty colors have no rating
func RatingForColor(color string) entities.Rating {
	if rating, ok := colorRatings[strings.ToUpper(strings.TrimSpace(color))]; ok {
		return rating
	}
	return entities.RatingNone
}

// newCell extracts text, color marker and icon names from a td selection
func newCell(s *goquery.Selection) Cell {
	cell := Cell{Text: s.Text()}

	if color, ok := s.Find("font[color]").First().Attr("color"); ok {
		cell.Color = color
	} else if style, ok := s.Find("span[style]").First().Attr("style"); ok {
		if m := styleColorRe.FindStringSubmatch(style); len(m) == 2 {
			cell.Color = m[1]
		}
	}

	s.Find("img").Each(func(_ int, img *goquery.Selection) {
		if alt, ok := img.Attr("alt"); ok {
			cell.Icons = append(cell.Icons, strings.TrimSpace(alt))
		}
	})

	return cell
}

// NormalizeWhitespace collapses runs of whitespace into single spaces and trims the result
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
