package integration

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/abelzeko/travel-times/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCell(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		color      string
		wantValue  int
		wantRating entities.Rating
	}{
		{"good", "45", "#006600", 45, entities.RatingGood},
		{"average", "45", "#0000FF", 45, entities.RatingAverage},
		{"bad", "45", "#FF0000", 45, entities.RatingBad},
		{"lower case color", "45", "#ff0000", 45, entities.RatingBad},
		{"padded text", " 17\n", "#006600", 17, entities.RatingGood},
		{"unknown color", "45", "#123456", 45, entities.RatingNone},
		{"no color", "45", "", 45, entities.RatingNone},
		{"no data", "n/a", "#006600", 0, entities.RatingNone},
		{"empty", "", "", 0, entities.RatingNone},
		{"decimal", "4.5", "#006600", 0, entities.RatingNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			value, rating := ClassifyCell(tc.text, tc.color)
			assert.Equal(t, tc.wantValue, value)
			assert.Equal(t, tc.wantRating, rating)
		})
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "Seattle to Bellevue", NormalizeWhitespace("  Seattle \n\t to   Bellevue "))
	assert.Equal(t, "Via Express Lanes", NormalizeWhitespace("Via Express Lanes"))
	assert.Equal(t, "", NormalizeWhitespace(" \n "))
}

func firstCell(t *testing.T, html string) Cell {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table><tr>" + html + "</tr></table>"))
	require.NoError(t, err)
	td := doc.Find("td").First()
	require.Equal(t, 1, td.Length())
	return newCell(td)
}

func TestNewCell(t *testing.T) {
	t.Run("font color", func(t *testing.T) {
		cell := firstCell(t, `<td><font color="#0000ff">22</font></td>`)
		assert.Equal(t, "22", cell.Text)
		assert.Equal(t, "#0000ff", cell.Color)
	})

	t.Run("span style color", func(t *testing.T) {
		cell := firstCell(t, `<td><span style="font-weight: bold; color: #006600">9</span></td>`)
		assert.Equal(t, "#006600", cell.Color)
	})

	t.Run("road icons in document order", func(t *testing.T) {
		cell := firstCell(t, `<td><img src="i5.gif" alt="I-5"> <img src="sr520.gif" alt=" SR 520 "><img src="x.gif"></td>`)
		assert.Equal(t, []string{"I-5", "SR 520"}, cell.Icons)
	})

	t.Run("plain text", func(t *testing.T) {
		cell := firstCell(t, `<td>12.3</td>`)
		assert.Equal(t, "12.3", cell.Text)
		assert.Empty(t, cell.Color)
		assert.Nil(t, cell.Icons)
	})
}
