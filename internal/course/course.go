package course

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	ErrNoScorecard = errors.New("no scorecard table with a par row found")
	ErrBadPar      = errors.New("scorecard par out of range")
)

// DefaultPars is the layout the new-round form starts from.
var DefaultPars = []int{4, 4, 3, 4, 5, 4, 4, 3, 4, 4, 4, 3, 4, 5, 4, 4, 3, 4}

// ParPreset builds an 18-hole layout totalling 70, 71 or 72. Anything
// at or below 70 gets the 70 layout, anything above 71 the 72 layout.
func ParPreset(total int) []int {
	pars := make([]int, 18)
	for i := range pars {
		pars[i] = 4
	}
	var threes, fives []int
	switch {
	case total <= 70:
		threes, fives = []int{2, 7, 11, 16}, []int{4, 13}
	case total == 71:
		threes, fives = []int{2, 7, 16}, []int{4, 13}
	default:
		threes, fives = []int{2, 7, 11, 16}, []int{4, 8, 13, 17}
	}
	for _, i := range threes {
		pars[i] = 3
	}
	for _, i := range fives {
		pars[i] = 5
	}
	return pars
}

func Total(pars []int) int {
	t := 0
	for _, p := range pars {
		t += p
	}
	return t
}

type Scorecard struct {
	CourseName string `json:"course_name,omitempty"`
	Pars       []int  `json:"pars"`
}

// ImportScorecard reads hole pars out of an HTML scorecard. It understands
// the usual horizontal card, with a "Hole" row and a "Par" row, and the
// vertical form with "Hole" and "Par" column headers. Total columns such
// as Out, In and Tot are skipped.
func ImportScorecard(r io.Reader) (Scorecard, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Scorecard{}, fmt.Errorf("parse scorecard: %w", err)
	}

	var card Scorecard
	card.CourseName = strings.TrimSpace(doc.Find("h1").First().Text())
	if card.CourseName == "" {
		card.CourseName = strings.TrimSpace(doc.Find("title").First().Text())
	}

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := tableRows(table)
		if pars, ok := horizontalPars(rows); ok {
			card.Pars = pars
			return false
		}
		if pars, ok := verticalPars(rows); ok {
			card.Pars = pars
			return false
		}
		return true
	})
	if len(card.Pars) == 0 {
		return Scorecard{}, ErrNoScorecard
	}
	for i, p := range card.Pars {
		if p < 3 || p > 5 {
			return Scorecard{}, fmt.Errorf("%w: hole %d par %d", ErrBadPar, i+1, p)
		}
	}
	return card, nil
}

func tableRows(table *goquery.Selection) [][]string {
	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, c *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(c.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return rows
}

func isLabel(cell, label string) bool {
	return strings.EqualFold(strings.TrimSpace(cell), label)
}

func horizontalPars(rows [][]string) ([]int, bool) {
	var holeRow, parRow []string
	for _, row := range rows {
		switch {
		case holeRow == nil && isLabel(row[0], "hole"):
			holeRow = row
		case parRow == nil && isLabel(row[0], "par"):
			parRow = row
		}
	}
	if parRow == nil {
		return nil, false
	}

	var pars []int
	for i := 1; i < len(parRow); i++ {
		if holeRow != nil {
			if i >= len(holeRow) {
				break
			}
			if _, err := strconv.Atoi(holeRow[i]); err != nil {
				continue
			}
		}
		p, err := strconv.Atoi(parRow[i])
		if err != nil {
			continue
		}
		if holeRow == nil && p > 5 {
			// Without hole headers a large number can only be a total.
			continue
		}
		pars = append(pars, p)
	}
	return pars, len(pars) > 0
}

func verticalPars(rows [][]string) ([]int, bool) {
	if len(rows) < 2 {
		return nil, false
	}
	holeCol, parCol := -1, -1
	for i, c := range rows[0] {
		switch {
		case isLabel(c, "hole"):
			holeCol = i
		case isLabel(c, "par"):
			parCol = i
		}
	}
	if holeCol < 0 || parCol < 0 {
		return nil, false
	}

	var pars []int
	for _, row := range rows[1:] {
		if holeCol >= len(row) || parCol >= len(row) {
			continue
		}
		if _, err := strconv.Atoi(row[holeCol]); err != nil {
			continue
		}
		p, err := strconv.Atoi(row[parCol])
		if err != nil {
			continue
		}
		pars = append(pars, p)
	}
	return pars, len(pars) > 0
}
