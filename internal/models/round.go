package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Player struct {
	Name  string       `json:"name"`
	Holes []HoleRecord `json:"holes"`
}

type Round struct {
	ID           string      `json:"id"`
	CourseName   string      `json:"course_name"`
	Date         time.Time   `json:"date"`
	Slope        *int        `json:"slope"`
	CourseRating *float64    `json:"course_rating"`
	HoleCount    int         `json:"hole_count"`
	Status       RoundStatus `json:"status"`
	Thru         int         `json:"thru"`
	Players      []Player    `json:"players"`
}

// NewRoundParams is what the new-round form collects.
type NewRoundParams struct {
	CourseName   string    `json:"course_name"`
	Date         time.Time `json:"date"`
	Slope        *int      `json:"slope"`
	CourseRating *float64  `json:"course_rating"`
	HoleCount    int       `json:"hole_count"`
	Pars         []int     `json:"pars"`
	Players      []string  `json:"players"`
}

// NewRound starts an active round with every hole of every player
// defaulted. Blank player names are dropped.
func NewRound(p NewRoundParams) (*Round, error) {
	name := strings.TrimSpace(p.CourseName)
	if name == "" {
		return nil, ErrNoCourse
	}
	if p.HoleCount != FrontNine && p.HoleCount != FullRound {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHoleCount, p.HoleCount)
	}
	if len(p.Players) > MaxPlayers {
		return nil, ErrTooManyPlayers
	}
	for i, par := range p.Pars {
		if par < 3 || par > 5 {
			return nil, fmt.Errorf("hole %d: %w", i+1, ErrInvalidPar)
		}
	}

	var players []Player
	for _, n := range p.Players {
		if n = strings.TrimSpace(n); n != "" {
			players = append(players, Player{Name: n})
		}
	}
	if len(players) == 0 {
		return nil, ErrNoPlayers
	}

	date := p.Date
	if date.IsZero() {
		date = time.Now()
	}

	r := &Round{
		ID:           uuid.NewString(),
		CourseName:   name,
		Date:         date.UTC().Truncate(time.Second),
		Slope:        p.Slope,
		CourseRating: p.CourseRating,
		HoleCount:    p.HoleCount,
		Status:       StatusActive,
		Players:      players,
	}
	r.padWith(p.Pars)
	return r, nil
}

// Pad fills every player's holes up to HoleCount using the first
// player's pars, so aggregations never see a partial round.
func (r *Round) Pad() {
	r.padWith(r.Pars())
}

func (r *Round) padWith(pars []int) {
	for i := range r.Players {
		holes := r.Players[i].Holes
		for len(holes) < r.HoleCount {
			par := DefaultPar
			if len(holes) < len(pars) {
				par = pars[len(holes)]
			}
			holes = append(holes, DefaultHole(len(holes)+1, par))
		}
		r.Players[i].Holes = holes
	}
}

func (r Round) Pars() []int {
	if len(r.Players) == 0 {
		return nil
	}
	pars := make([]int, len(r.Players[0].Holes))
	for i, h := range r.Players[0].Holes {
		pars[i] = h.Par
	}
	return pars
}

// Hole returns the record for a 1-based hole number of the given player.
func (r *Round) Hole(player, number int) (*HoleRecord, error) {
	if player < 0 || player >= len(r.Players) {
		return nil, fmt.Errorf("%w: %d", ErrPlayerNotFound, player)
	}
	holes := r.Players[player].Holes
	if number < 1 || number > len(holes) {
		return nil, fmt.Errorf("%w: %d", ErrHoleNotFound, number)
	}
	return &holes[number-1], nil
}

// UpdateHole applies u to one hole. Completed rounds are read-only.
func (r *Round) UpdateHole(player, number int, u HoleUpdate) (*HoleRecord, error) {
	if r.Status == StatusCompleted {
		return nil, ErrRoundCompleted
	}
	h, err := r.Hole(player, number)
	if err != nil {
		return nil, err
	}
	next := *h
	next.MissDirections = slices.Clone(h.MissDirections)
	if err := u.Apply(&next); err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	*h = next
	r.Thru = max(r.Thru, number)
	return h, nil
}

func (r *Round) Finish() error {
	if r.Status == StatusCompleted {
		return ErrRoundCompleted
	}
	r.Status = StatusCompleted
	return nil
}

// Played returns the holes a player has a score on. Rounds are always
// padded, so untouched holes count at their par defaults.
func (r Round) Played(player int) []HoleRecord {
	if player < 0 || player >= len(r.Players) {
		return nil
	}
	var out []HoleRecord
	for _, h := range r.Players[player].Holes {
		if h.Score > 0 {
			out = append(out, h)
		}
	}
	return out
}

// PlayerIndex finds a player by name, case-insensitively.
func (r Round) PlayerIndex(name string) (int, bool) {
	for i, p := range r.Players {
		if strings.EqualFold(p.Name, name) {
			return i, true
		}
	}
	return -1, false
}
