package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidPar       = errors.New("par must be 3, 4 or 5")
	ErrInvalidHole      = errors.New("invalid hole record")
	ErrInvalidHoleCount = errors.New("hole count must be 9 or 18")
	ErrNoCourse         = errors.New("course name is required")
	ErrNoPlayers        = errors.New("at least one named player is required")
	ErrTooManyPlayers   = errors.New("a round allows at most 4 players")
	ErrRoundCompleted   = errors.New("round is already completed")
	ErrHoleNotFound     = errors.New("hole not found")
	ErrPlayerNotFound   = errors.New("player not found")
)

const (
	MaxPlayers   = 4
	MaxNotesLen  = 200
	MinScore     = 1
	MaxScore     = 15
	MaxPutts     = 6
	MaxPenalties = 10
	DefaultPar   = 4
	DefaultPutts = 2
	FrontNine    = 9
	FullRound    = 18
)

type Fairway string

const (
	FairwayNone  Fairway = "none"
	FairwayLeft  Fairway = "left"
	FairwayHit   Fairway = "hit"
	FairwayRight Fairway = "right"
)

func (f Fairway) Valid() bool {
	switch f {
	case FairwayNone, FairwayLeft, FairwayHit, FairwayRight:
		return true
	}
	return false
}

// MarshalJSON writes FairwayNone as null.
func (f Fairway) MarshalJSON() ([]byte, error) {
	if f == FairwayNone || f == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(f))
}

func (f *Fairway) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = FairwayNone
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v := Fairway(s)
	if v == "" {
		v = FairwayNone
	}
	if !v.Valid() {
		return fmt.Errorf("unknown fairway %q", s)
	}
	*f = v
	return nil
}

type GIR string

const (
	GIRHit  GIR = "hit"
	GIRMiss GIR = "miss"
)

func (g GIR) Valid() bool {
	return g == GIRHit || g == GIRMiss
}

type PinPosition string

const (
	PinFront  PinPosition = "front"
	PinCenter PinPosition = "center"
	PinBack   PinPosition = "back"
)

func (p PinPosition) Valid() bool {
	switch p {
	case PinFront, PinCenter, PinBack:
		return true
	}
	return false
}

type MissDirection string

const (
	MissShort MissDirection = "short"
	MissLong  MissDirection = "long"
	MissLeft  MissDirection = "left"
	MissRight MissDirection = "right"
)

func (m MissDirection) Valid() bool {
	switch m {
	case MissShort, MissLong, MissLeft, MissRight:
		return true
	}
	return false
}

// Symbol is the short form used in the club table.
func (m MissDirection) Symbol() string {
	switch m {
	case MissShort:
		return "S"
	case MissLong:
		return "L"
	case MissLeft:
		return "←"
	case MissRight:
		return "→"
	}
	return string(m)
}

type RoundStatus string

const (
	StatusActive    RoundStatus = "active"
	StatusCompleted RoundStatus = "completed"
)

// HoleRecord is one player's result on one hole.
type HoleRecord struct {
	HoleNumber     int             `json:"hole_number"`
	Par            int             `json:"par"`
	Score          int             `json:"score"`
	Putts          int             `json:"putts"`
	Fairway        Fairway         `json:"fairway"`
	GIR            GIR             `json:"gir"`
	MissDirections []MissDirection `json:"miss_directions"`
	PinPosition    PinPosition     `json:"pin_position"`
	Penalties      int             `json:"penalties"`
	Club           *string         `json:"club"`
	UpAndDown      *bool           `json:"up_and_down"`
	SandSave       *bool           `json:"sand_save"`
	Notes          string          `json:"notes"`
}

// DeriveGIR reports a green in regulation when the strokes taken before
// putting are at most par minus two.
func DeriveGIR(score, putts, par int) GIR {
	if score-putts <= par-2 {
		return GIRHit
	}
	return GIRMiss
}

func DefaultHole(number, par int) HoleRecord {
	if par == 0 {
		par = DefaultPar
	}
	return HoleRecord{
		HoleNumber:     number,
		Par:            par,
		Score:          par,
		Putts:          DefaultPutts,
		Fairway:        FairwayNone,
		GIR:            DeriveGIR(par, DefaultPutts, par),
		MissDirections: []MissDirection{},
		PinPosition:    PinCenter,
	}
}

func (h *HoleRecord) SetScore(score int) {
	h.Score = score
	h.rederive()
}

func (h *HoleRecord) SetPutts(putts int) {
	h.Putts = putts
	h.rederive()
}

func (h *HoleRecord) rederive() {
	h.SetGIR(DeriveGIR(h.Score, h.Putts, h.Par))
}

// SetGIR is the manual toggle. A hit clears any recorded miss directions.
func (h *HoleRecord) SetGIR(g GIR) {
	h.GIR = g
	if g == GIRHit {
		h.MissDirections = []MissDirection{}
	}
}

// SetMissDirections stores the unique directions in the given order.
// Nothing is stored while the green was hit.
func (h *HoleRecord) SetMissDirections(dirs []MissDirection) {
	out := make([]MissDirection, 0, len(dirs))
	if h.GIR == GIRHit {
		h.MissDirections = out
		return
	}
	for _, d := range dirs {
		if !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	h.MissDirections = out
}

func (h *HoleRecord) SetFairway(f Fairway) {
	if h.Par == 3 {
		f = FairwayNone
	}
	h.Fairway = f
}

func (h *HoleRecord) SetNotes(notes string) {
	if utf8.RuneCountInString(notes) > MaxNotesLen {
		notes = string([]rune(notes)[:MaxNotesLen])
	}
	h.Notes = notes
}

func (h HoleRecord) Validate() error {
	switch {
	case h.Par < 3 || h.Par > 5:
		return fmt.Errorf("hole %d: %w", h.HoleNumber, ErrInvalidPar)
	case h.HoleNumber < 1:
		return fmt.Errorf("%w: hole number %d", ErrInvalidHole, h.HoleNumber)
	case h.Score < 0 || h.Putts < 0 || h.Penalties < 0:
		return fmt.Errorf("%w: hole %d has negative counts", ErrInvalidHole, h.HoleNumber)
	case !h.Fairway.Valid() || !h.GIR.Valid() || !h.PinPosition.Valid():
		return fmt.Errorf("%w: hole %d has an unknown category", ErrInvalidHole, h.HoleNumber)
	case h.Par == 3 && h.Fairway != FairwayNone:
		return fmt.Errorf("%w: hole %d is a par 3 with a fairway result", ErrInvalidHole, h.HoleNumber)
	case h.GIR == GIRHit && len(h.MissDirections) > 0:
		return fmt.Errorf("%w: hole %d hit the green but has misses", ErrInvalidHole, h.HoleNumber)
	case utf8.RuneCountInString(h.Notes) > MaxNotesLen:
		return fmt.Errorf("%w: hole %d notes too long", ErrInvalidHole, h.HoleNumber)
	}
	for _, d := range h.MissDirections {
		if !d.Valid() {
			return fmt.Errorf("%w: hole %d miss direction %q", ErrInvalidHole, h.HoleNumber, d)
		}
	}
	return nil
}

// HoleUpdate is a partial edit of a hole. Nil fields are left alone.
// ClearClub, ClearUpAndDown and ClearSandSave reset the optional fields.
type HoleUpdate struct {
	Score          *int             `json:"score,omitempty"`
	Putts          *int             `json:"putts,omitempty"`
	Fairway        *Fairway         `json:"fairway,omitempty"`
	GIR            *GIR             `json:"gir,omitempty"`
	MissDirections *[]MissDirection `json:"miss_directions,omitempty"`
	PinPosition    *PinPosition     `json:"pin_position,omitempty"`
	Penalties      *int             `json:"penalties,omitempty"`
	Club           *string          `json:"club,omitempty"`
	ClearClub      bool             `json:"clear_club,omitempty"`
	UpAndDown      *bool            `json:"up_and_down,omitempty"`
	ClearUpAndDown bool             `json:"clear_up_and_down,omitempty"`
	SandSave       *bool            `json:"sand_save,omitempty"`
	ClearSandSave  bool             `json:"clear_sand_save,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
}

// UnmarshalJSON reads "fairway": null as a reset to FairwayNone, matching
// how records marshal, rather than leaving the fairway alone.
func (u *HoleUpdate) UnmarshalJSON(b []byte) error {
	type plain HoleUpdate
	aux := struct {
		*plain
		Fairway json.RawMessage `json:"fairway"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.Fairway != nil {
		var f Fairway
		if err := f.UnmarshalJSON(aux.Fairway); err != nil {
			return err
		}
		u.Fairway = &f
	}
	return nil
}

// Apply runs the update through the hole's setters. Score and putts are
// applied before an explicit GIR so a manual toggle in the same update wins.
func (u HoleUpdate) Apply(h *HoleRecord) error {
	if u.Score != nil {
		h.SetScore(ClampScore(*u.Score))
	}
	if u.Putts != nil {
		h.SetPutts(ClampPutts(*u.Putts))
	}
	if u.GIR != nil {
		if !u.GIR.Valid() {
			return fmt.Errorf("%w: gir %q", ErrInvalidHole, *u.GIR)
		}
		h.SetGIR(*u.GIR)
	}
	if u.MissDirections != nil {
		for _, d := range *u.MissDirections {
			if !d.Valid() {
				return fmt.Errorf("%w: miss direction %q", ErrInvalidHole, d)
			}
		}
		h.SetMissDirections(*u.MissDirections)
	}
	if u.Fairway != nil {
		if !u.Fairway.Valid() {
			return fmt.Errorf("%w: fairway %q", ErrInvalidHole, *u.Fairway)
		}
		h.SetFairway(*u.Fairway)
	}
	if u.PinPosition != nil {
		if !u.PinPosition.Valid() {
			return fmt.Errorf("%w: pin position %q", ErrInvalidHole, *u.PinPosition)
		}
		h.PinPosition = *u.PinPosition
	}
	if u.Penalties != nil {
		h.Penalties = ClampPenalties(*u.Penalties)
	}
	if u.ClearClub {
		h.Club = nil
	} else if u.Club != nil {
		club := strings.TrimSpace(*u.Club)
		if club == "" {
			h.Club = nil
		} else {
			h.Club = &club
		}
	}
	if u.ClearUpAndDown {
		h.UpAndDown = nil
	} else if u.UpAndDown != nil {
		v := *u.UpAndDown
		h.UpAndDown = &v
	}
	if u.ClearSandSave {
		h.SandSave = nil
	} else if u.SandSave != nil {
		v := *u.SandSave
		h.SandSave = &v
	}
	if u.Notes != nil {
		h.SetNotes(*u.Notes)
	}
	return nil
}

func ClampScore(n int) int     { return clamp(n, MinScore, MaxScore) }
func ClampPutts(n int) int     { return clamp(n, 0, MaxPutts) }
func ClampPenalties(n int) int { return clamp(n, 0, MaxPenalties) }

func clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}
