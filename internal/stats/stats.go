// Package stats folds hole records into round, club and trend summaries.
// Every function here is pure: inputs are never modified and nothing is
// cached between calls.
package stats

import (
	"cmp"
	"slices"

	"github.com/antigravity/fairwaylog/internal/models"
)

type RoundStats struct {
	TotalScore          int     `json:"total_score"`
	TotalPar            int     `json:"total_par"`
	VsPar               int     `json:"vs_par"`
	TotalPutts          int     `json:"total_putts"`
	PuttsPerHole        float64 `json:"putts_per_hole"`
	GIRCount            int     `json:"gir_count"`
	GIRTotal            int     `json:"gir_total"`
	GIRPercent          int     `json:"gir_percent"`
	FWHit               int     `json:"fw_hit"`
	FWTotal             int     `json:"fw_total"`
	FWPercent           int     `json:"fw_percent"`
	ScramblingConverted int     `json:"scrambling_converted"`
	ScramblingAttempts  int     `json:"scrambling_attempts"`
	ScramblingPercent   int     `json:"scrambling_percent"`
	Penalties           int     `json:"penalties"`
	SandSaveConverted   int     `json:"sand_save_converted"`
	SandSaveAttempts    int     `json:"sand_save_attempts"`
}

// Round summarizes a sequence of holes. An empty sequence gives the zero value.
func Round(holes []models.HoleRecord) RoundStats {
	var s RoundStats
	for _, h := range holes {
		s.TotalScore += h.Score
		s.TotalPar += h.Par
		s.TotalPutts += h.Putts
		s.Penalties += h.Penalties

		s.GIRTotal++
		if h.GIR == models.GIRHit {
			s.GIRCount++
		}

		if h.Par >= 4 && h.Fairway != models.FairwayNone {
			s.FWTotal++
			if h.Fairway == models.FairwayHit {
				s.FWHit++
			}
		}

		if h.GIR == models.GIRMiss {
			s.ScramblingAttempts++
			if h.Score <= h.Par {
				s.ScramblingConverted++
			}
		}

		if h.SandSave != nil {
			s.SandSaveAttempts++
			if *h.SandSave {
				s.SandSaveConverted++
			}
		}
	}

	s.VsPar = s.TotalScore - s.TotalPar
	if len(holes) > 0 {
		s.PuttsPerHole = float64(s.TotalPutts) / float64(len(holes))
	}
	s.GIRPercent = Percent(s.GIRCount, s.GIRTotal)
	s.FWPercent = Percent(s.FWHit, s.FWTotal)
	s.ScramblingPercent = Percent(s.ScramblingConverted, s.ScramblingAttempts)
	return s
}

// Percent is n/d as a whole percentage rounded half up, or 0 when d is 0.
func Percent(n, d int) int {
	if d <= 0 {
		return 0
	}
	return roundDiv(100*n, d)
}

// roundDiv divides non-negative n by positive d, rounding half up.
func roundDiv(n, d int) int {
	return (2*n + d) / (2 * d)
}

const NoMiss = "—"

type ClubStat struct {
	Club       string `json:"club"`
	Approaches int    `json:"approaches"`
	GIRHit     int    `json:"gir_hit"`
	GIRPercent int    `json:"gir_percent"`
	AvgMiss    string `json:"avg_miss"`
}

type clubTally struct {
	club       string
	approaches int
	girHit     int
	misses     []models.MissDirection
}

// Clubs groups holes by the club hit into the green. Holes without a club
// are skipped. The result is ordered by approaches, most first; clubs with
// equal counts keep the order they were first seen in.
func Clubs(holes []models.HoleRecord) []ClubStat {
	var tallies []*clubTally
	byClub := make(map[string]*clubTally)
	for _, h := range holes {
		if h.Club == nil {
			continue
		}
		t, ok := byClub[*h.Club]
		if !ok {
			t = &clubTally{club: *h.Club}
			byClub[*h.Club] = t
			tallies = append(tallies, t)
		}
		t.approaches++
		if h.GIR == models.GIRHit {
			t.girHit++
		} else {
			t.misses = append(t.misses, h.MissDirections...)
		}
	}

	out := make([]ClubStat, 0, len(tallies))
	for _, t := range tallies {
		out = append(out, ClubStat{
			Club:       t.club,
			Approaches: t.approaches,
			GIRHit:     t.girHit,
			GIRPercent: Percent(t.girHit, t.approaches),
			AvgMiss:    mostCommonMiss(t.misses),
		})
	}
	slices.SortStableFunc(out, func(a, b ClubStat) int {
		return cmp.Compare(b.Approaches, a.Approaches)
	})
	return out
}

// mostCommonMiss picks the most frequent direction; on a tie the one seen
// first wins.
func mostCommonMiss(misses []models.MissDirection) string {
	if len(misses) == 0 {
		return NoMiss
	}
	var order []models.MissDirection
	freq := make(map[models.MissDirection]int)
	for _, m := range misses {
		if freq[m] == 0 {
			order = append(order, m)
		}
		freq[m]++
	}
	best, bestCount := order[0], 0
	for _, m := range order {
		if freq[m] > bestCount {
			best, bestCount = m, freq[m]
		}
	}
	return best.Symbol()
}
