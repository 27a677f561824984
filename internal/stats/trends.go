package stats

import (
	"fmt"
	"math"

	"github.com/antigravity/fairwaylog/internal/models"
)

// TrendPoint is one round on the trends chart.
type TrendPoint struct {
	RoundID           string  `json:"round_id"`
	Date              string  `json:"date"`
	Score             int     `json:"score"`
	VsPar             int     `json:"vs_par"`
	GIRPercent        int     `json:"gir_percent"`
	PuttsPerHole      float64 `json:"putts_per_hole"`
	ScramblingPercent int     `json:"scrambling_percent"`
}

type TrendSummary struct {
	Rounds          int     `json:"rounds"`
	AvgScore        int     `json:"avg_score"`
	AvgGIRPercent   int     `json:"avg_gir_percent"`
	AvgPuttsPerHole float64 `json:"avg_putts_per_hole"`
	AvgScrambling   int     `json:"avg_scrambling_percent"`
	BestScore       int     `json:"best_score"`
	WorstScore      int     `json:"worst_score"`
	BestVsPar       int     `json:"best_vs_par"`
}

func TrendFromRound(r models.Round, player int) TrendPoint {
	if player < 0 || player >= len(r.Players) {
		return TrendPoint{RoundID: r.ID, Date: r.Date.Format("Jan 2")}
	}
	s := Round(r.Played(player))
	return TrendPoint{
		RoundID:           r.ID,
		Date:              r.Date.Format("Jan 2"),
		Score:             s.TotalScore,
		VsPar:             s.VsPar,
		GIRPercent:        s.GIRPercent,
		PuttsPerHole:      math.Round(s.PuttsPerHole*100) / 100,
		ScramblingPercent: s.ScramblingPercent,
	}
}

// Trends averages a run of rounds. Scores and percentages are rounded to
// whole numbers, putts per hole to two decimals.
func Trends(points []TrendPoint) TrendSummary {
	if len(points) == 0 {
		return TrendSummary{}
	}
	var score, gir, scrambling int
	var putts float64
	sum := TrendSummary{
		Rounds:     len(points),
		BestScore:  points[0].Score,
		WorstScore: points[0].Score,
		BestVsPar:  points[0].VsPar,
	}
	for _, p := range points {
		score += p.Score
		gir += p.GIRPercent
		scrambling += p.ScramblingPercent
		putts += p.PuttsPerHole
		sum.BestScore = min(sum.BestScore, p.Score)
		sum.WorstScore = max(sum.WorstScore, p.Score)
		sum.BestVsPar = min(sum.BestVsPar, p.VsPar)
	}
	n := len(points)
	sum.AvgScore = roundDiv(score, n)
	sum.AvgGIRPercent = roundDiv(gir, n)
	sum.AvgScrambling = roundDiv(scrambling, n)
	sum.AvgPuttsPerHole = math.Round(putts/float64(n)*100) / 100
	return sum
}

// RoundSummary is a row of the round history list.
type RoundSummary struct {
	ID           string             `json:"id"`
	CourseName   string             `json:"course_name"`
	Date         string             `json:"date"`
	Score        int                `json:"score"`
	VsPar        int                `json:"vs_par"`
	GIRPercent   int                `json:"gir_percent"`
	FWPercent    int                `json:"fw_percent"`
	Putts        int                `json:"putts"`
	Status       models.RoundStatus `json:"status"`
	HoleProgress string             `json:"hole_progress,omitempty"`
}

// Summarize builds the history row for one player from the holes played.
func Summarize(r models.Round, player int) RoundSummary {
	sum := RoundSummary{
		ID:         r.ID,
		CourseName: r.CourseName,
		Date:       r.Date.Format("Jan 2, 2006"),
		Status:     r.Status,
	}
	if player < 0 || player >= len(r.Players) {
		return sum
	}
	if r.Status == models.StatusActive {
		sum.HoleProgress = fmt.Sprintf("%d of %d", r.Thru, r.HoleCount)
	}
	s := Round(r.Played(player))
	sum.Score = s.TotalScore
	sum.VsPar = s.VsPar
	sum.GIRPercent = s.GIRPercent
	sum.FWPercent = s.FWPercent
	sum.Putts = s.TotalPutts
	return sum
}

// FormatVsPar renders a relative score the way a scoreboard does: E, +3, -2.
func FormatVsPar(vsPar int) string {
	switch {
	case vsPar == 0:
		return "E"
	case vsPar > 0:
		return fmt.Sprintf("+%d", vsPar)
	}
	return fmt.Sprintf("%d", vsPar)
}

func ScoreLabel(score, par int) string {
	switch diff := score - par; {
	case diff <= -2:
		return "EAGLE"
	case diff == -1:
		return "BIRDIE"
	case diff == 0:
		return "PAR"
	case diff == 1:
		return "BOGEY"
	case diff == 2:
		return "DOUBLE"
	default:
		return fmt.Sprintf("+%d", diff)
	}
}
