package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/antigravity/fairwaylog/internal/models"
)

// CreateRound inserts a round with its players and every hole.
func (s *Store) CreateRound(ctx context.Context, r *models.Round) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO rounds (id, course_name, played_at, slope, course_rating, hole_count, status, thru)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CourseName, r.Date.Unix(), nullInt(r.Slope), nullFloat(r.CourseRating), r.HoleCount, string(r.Status), r.Thru)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert round: %w", err)
	}

	for i, p := range r.Players {
		if _, err := tx.ExecContext(ctx, "INSERT INTO players (round_id, position, name) VALUES (?, ?, ?)", r.ID, i, p.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert player: %w", err)
		}
		for _, h := range p.Holes {
			if err := upsertHole(ctx, tx, r.ID, i, h); err != nil {
				tx.Rollback()
				return err
			}
		}
	}

	return tx.Commit()
}

// SaveHole writes one hole back and moves the round's progress marker.
func (s *Store) SaveHole(ctx context.Context, roundID string, player int, thru int, h models.HoleRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := upsertHole(ctx, tx, roundID, player, h); err != nil {
		tx.Rollback()
		return err
	}
	res, err := tx.ExecContext(ctx, "UPDATE rounds SET thru = MAX(thru, ?) WHERE id = ?", thru, roundID)
	if err != nil {
		tx.Rollback()
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		tx.Rollback()
		return ErrNotFound
	}

	return tx.Commit()
}

func upsertHole(ctx context.Context, tx *sql.Tx, roundID string, player int, h models.HoleRecord) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO holes (round_id, player_position, hole_number, par, score, putts, fairway, gir,
			miss_directions, pin_position, penalties, club, up_and_down, sand_save, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (round_id, player_position, hole_number) DO UPDATE SET
			par = excluded.par,
			score = excluded.score,
			putts = excluded.putts,
			fairway = excluded.fairway,
			gir = excluded.gir,
			miss_directions = excluded.miss_directions,
			pin_position = excluded.pin_position,
			penalties = excluded.penalties,
			club = excluded.club,
			up_and_down = excluded.up_and_down,
			sand_save = excluded.sand_save,
			notes = excluded.notes`,
		roundID, player, h.HoleNumber, h.Par, h.Score, h.Putts, string(h.Fairway), string(h.GIR),
		joinMisses(h.MissDirections), string(h.PinPosition), h.Penalties,
		nullString(h.Club), nullBool(h.UpAndDown), nullBool(h.SandSave), h.Notes)
	if err != nil {
		return fmt.Errorf("save hole %d: %w", h.HoleNumber, err)
	}
	return nil
}

func (s *Store) SetStatus(ctx context.Context, roundID string, status models.RoundStatus) error {
	res, err := s.db.ExecContext(ctx, "UPDATE rounds SET status = ? WHERE id = ?", string(status), roundID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteRound(ctx context.Context, roundID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM rounds WHERE id = ?", roundID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRound loads a full round. Missing holes are padded with defaults.
func (s *Store) GetRound(ctx context.Context, id string) (*models.Round, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, course_name, played_at, slope, course_rating, hole_count, status, thru
		FROM rounds WHERE id = ?`, id)
	r, err := scanRound(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadPlayers(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRounds returns every round, most recent first.
func (s *Store) ListRounds(ctx context.Context) ([]*models.Round, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, course_name, played_at, slope, course_rating, hole_count, status, thru
		FROM rounds ORDER BY played_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []*models.Round
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for _, r := range rounds {
		if err := s.loadPlayers(ctx, r); err != nil {
			return nil, err
		}
	}
	return rounds, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRound(sc scanner) (*models.Round, error) {
	var (
		r        models.Round
		playedAt int64
		slope    sql.NullInt64
		rating   sql.NullFloat64
		status   string
	)
	if err := sc.Scan(&r.ID, &r.CourseName, &playedAt, &slope, &rating, &r.HoleCount, &status, &r.Thru); err != nil {
		return nil, err
	}
	r.Date = time.Unix(playedAt, 0).UTC()
	r.Status = models.RoundStatus(status)
	if slope.Valid {
		v := int(slope.Int64)
		r.Slope = &v
	}
	if rating.Valid {
		v := rating.Float64
		r.CourseRating = &v
	}
	return &r, nil
}

func (s *Store) loadPlayers(ctx context.Context, r *models.Round) error {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM players WHERE round_id = ? ORDER BY position", r.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.Name); err != nil {
			rows.Close()
			return err
		}
		r.Players = append(r.Players, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT player_position, hole_number, par, score, putts, fairway, gir, miss_directions,
			pin_position, penalties, club, up_and_down, sand_save, notes
		FROM holes WHERE round_id = ? ORDER BY player_position, hole_number`, r.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pos                     int
			h                       models.HoleRecord
			fairway, gir, pin, miss string
			club                    sql.NullString
			upAndDown, sandSave     sql.NullBool
		)
		if err := rows.Scan(&pos, &h.HoleNumber, &h.Par, &h.Score, &h.Putts, &fairway, &gir, &miss,
			&pin, &h.Penalties, &club, &upAndDown, &sandSave, &h.Notes); err != nil {
			return err
		}
		if pos < 0 || pos >= len(r.Players) {
			continue
		}
		h.Fairway = models.Fairway(fairway)
		h.GIR = models.GIR(gir)
		h.PinPosition = models.PinPosition(pin)
		h.MissDirections = splitMisses(miss)
		if club.Valid {
			v := club.String
			h.Club = &v
		}
		if upAndDown.Valid {
			v := upAndDown.Bool
			h.UpAndDown = &v
		}
		if sandSave.Valid {
			v := sandSave.Bool
			h.SandSave = &v
		}
		if err := h.Validate(); err != nil {
			return fmt.Errorf("%w: round %s player %d: %v", ErrCorrupt, r.ID, pos, err)
		}
		r.Players[pos].Holes = append(r.Players[pos].Holes, h)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	r.Pad()
	return nil
}

func joinMisses(dirs []models.MissDirection) string {
	parts := make([]string, len(dirs))
	for i, d := range dirs {
		parts[i] = string(d)
	}
	return strings.Join(parts, ",")
}

func splitMisses(s string) []models.MissDirection {
	out := []models.MissDirection{}
	if s == "" {
		return out
	}
	for _, p := range strings.Split(s, ",") {
		out = append(out, models.MissDirection(p))
	}
	return out
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}

// SaveCourse stores the pars of a course under its name, replacing any
// previous layout.
func (s *Store) SaveCourse(ctx context.Context, name string, pars []int) error {
	parts := make([]string, len(pars))
	for i, p := range pars {
		parts[i] = strconv.Itoa(p)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO courses (name, pars) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET pars = excluded.pars`, name, strings.Join(parts, ","))
	return err
}

func (s *Store) GetCoursePars(ctx context.Context, name string) ([]int, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT pars FROM courses WHERE name = ?", name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var pars []int
	for _, p := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("course %q: bad par %q", name, p)
		}
		pars = append(pars, n)
	}
	return pars, nil
}
