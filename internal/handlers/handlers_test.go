package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/antigravity/fairwaylog/internal/db"
	"github.com/antigravity/fairwaylog/internal/models"
)

func setupServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := New(store, zaptest.NewLogger(t), "test")
	return s, s.Handler(5*time.Second, "")
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func createRound(t *testing.T, h http.Handler, body string) models.Round {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/api/rounds", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[models.Round](t, rr)
}

const nineHoles = `{"course_name":"Pebble Beach","date":"2026-02-09T10:00:00Z","hole_count":9,
	"pars":[4,4,3,4,5,4,3,4,4],"players":["Me","Dave"]}`

func TestHealthHandler(t *testing.T) {
	_, h := setupServer(t)
	rr := do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", rr.Header().Get("Cache-Control"))

	body := decode[map[string]any](t, rr)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

type downStore struct{ Store }

func (downStore) Ping(context.Context) error { return errors.New("disk gone") }

func TestHealthHandlerDegraded(t *testing.T) {
	s := New(downStore{}, zaptest.NewLogger(t), "test")
	rr := do(t, s.Routes(), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "degraded", decode[map[string]any](t, rr)["status"])
}

func TestCreateRound(t *testing.T) {
	_, h := setupServer(t)
	r := createRound(t, h, nineHoles)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, models.StatusActive, r.Status)
	require.Len(t, r.Players, 2)
	assert.Len(t, r.Players[1].Holes, 9)
	assert.Equal(t, 3, r.Players[0].Holes[2].Par)
	assert.Equal(t, 3, r.Players[0].Holes[2].Score)

	rr := do(t, h, http.MethodGet, "/api/rounds/"+r.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, r.ID, decode[models.Round](t, rr).ID)
}

func TestCreateRoundDefaultsPars(t *testing.T) {
	_, h := setupServer(t)
	r := createRound(t, h, `{"course_name":"Muni","hole_count":18,"players":["Me"]}`)
	assert.Equal(t, 70, sum(r.Pars()))
}

func TestCreateRoundValidation(t *testing.T) {
	_, h := setupServer(t)
	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"no course", `{"course_name":" ","hole_count":9,"players":["Me"]}`},
		{"bad hole count", `{"course_name":"X","hole_count":12,"players":["Me"]}`},
		{"no players", `{"course_name":"X","hole_count":9,"players":["", " "]}`},
		{"too many players", `{"course_name":"X","hole_count":9,"players":["a","b","c","d","e"]}`},
		{"bad par", `{"course_name":"X","hole_count":9,"pars":[4,6],"players":["Me"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/api/rounds", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			body := decode[errorBody](t, rr)
			assert.Equal(t, http.StatusBadRequest, body.Status)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestGetRoundNotFound(t *testing.T) {
	_, h := setupServer(t)
	rr := do(t, h, http.MethodGet, "/api/rounds/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, errorBody{Error: "round not found", Status: 404}, decode[errorBody](t, rr))
}

func TestUpdateHole(t *testing.T) {
	_, h := setupServer(t)
	r := createRound(t, h, nineHoles)

	rr := do(t, h, http.MethodPut, "/api/rounds/"+r.ID+"/players/0/holes/1",
		`{"score":5,"putts":2,"fairway":"left","miss_directions":["short","short","right"],"club":"7i"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	hole := decode[models.HoleRecord](t, rr)
	assert.Equal(t, 5, hole.Score)
	assert.Equal(t, models.GIRMiss, hole.GIR)
	assert.Equal(t, []models.MissDirection{models.MissShort, models.MissRight}, hole.MissDirections)
	assert.Equal(t, models.FairwayLeft, hole.Fairway)
	require.NotNil(t, hole.Club)
	assert.Equal(t, "7i", *hole.Club)

	rr = do(t, h, http.MethodGet, "/api/rounds/"+r.ID, "")
	got := decode[models.Round](t, rr)
	assert.Equal(t, 1, got.Thru)
	assert.Equal(t, hole, got.Players[0].Holes[0])
	assert.Equal(t, 4, got.Players[1].Holes[0].Score, "other players are untouched")
}

func TestUpdateHoleNullFairwayClears(t *testing.T) {
	_, h := setupServer(t)
	r := createRound(t, h, nineHoles)
	path := "/api/rounds/" + r.ID + "/players/0/holes/1"

	rr := do(t, h, http.MethodPut, path, `{"fairway":"left"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, models.FairwayLeft, decode[models.HoleRecord](t, rr).Fairway)

	rr = do(t, h, http.MethodPut, path, `{"fairway":null}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"fairway":null`)

	rr = do(t, h, http.MethodGet, "/api/rounds/"+r.ID, "")
	assert.Equal(t, models.FairwayNone, decode[models.Round](t, rr).Players[0].Holes[0].Fairway)
}

func TestUpdateHoleClampsScore(t *testing.T) {
	_, h := setupServer(t)
	r := createRound(t, h, nineHoles)

	rr := do(t, h, http.MethodPut, "/api/rounds/"+r.ID+"/players/1/holes/9", `{"score":40,"putts":-3}`)
	require.Equal(t, http.StatusOK, rr.Code)
	hole := decode[models.HoleRecord](t, rr)
	assert.Equal(t, models.MaxScore, hole.Score)
	assert.Equal(t, 0, hole.Putts)
}

func TestUpdateHoleErrors(t *testing.T) {
	_, h := setupServer(t)
	r := createRound(t, h, nineHoles)
	base := "/api/rounds/" + r.ID

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown round", "/api/rounds/nope/players/0/holes/1", `{"score":4}`, http.StatusNotFound},
		{"unknown player", base + "/players/5/holes/1", `{"score":4}`, http.StatusNotFound},
		{"unknown hole", base + "/players/0/holes/10", `{"score":4}`, http.StatusNotFound},
		{"player not a number", base + "/players/me/holes/1", `{"score":4}`, http.StatusBadRequest},
		{"hole not a number", base + "/players/0/holes/first", `{"score":4}`, http.StatusBadRequest},
		{"bad fairway", base + "/players/0/holes/1", `{"fairway":"bunker"}`, http.StatusBadRequest},
		{"bad body", base + "/players/0/holes/1", `[`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestFinishRound(t *testing.T) {
	_, h := setupServer(t)
	r := createRound(t, h, nineHoles)
	do(t, h, http.MethodPut, "/api/rounds/"+r.ID+"/players/0/holes/1", `{"score":5}`)

	rr := do(t, h, http.MethodPost, "/api/rounds/"+r.ID+"/finish", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	summary := decode[map[string]any](t, rr)
	assert.Equal(t, float64(36), summary["score"])

	rr = do(t, h, http.MethodPut, "/api/rounds/"+r.ID+"/players/0/holes/2", `{"score":3}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/rounds/"+r.ID+"/finish", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestDeleteRound(t *testing.T) {
	_, h := setupServer(t)
	r := createRound(t, h, nineHoles)

	rr := do(t, h, http.MethodDelete, "/api/rounds/"+r.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, h, http.MethodDelete, "/api/rounds/"+r.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListRounds(t *testing.T) {
	_, h := setupServer(t)
	rr := do(t, h, http.MethodGet, "/api/rounds", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	createRound(t, h, nineHoles)
	createRound(t, h, strings.Replace(nineHoles, "2026-02-09", "2026-02-15", 1))

	rr = do(t, h, http.MethodGet, "/api/rounds", "")
	list := decode[[]map[string]any](t, rr)
	require.Len(t, list, 2)
	assert.Equal(t, "Feb 15, 2026", list[0]["date"])
}

func TestStatsHandler(t *testing.T) {
	_, h := setupServer(t)
	r := createRound(t, h, nineHoles)
	base := "/api/rounds/" + r.ID

	// Nothing entered yet.
	rr := do(t, h, http.MethodGet, base+"/stats", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decode[map[string]any](t, rr)
	assert.Nil(t, body["miss_map"])
	assert.Equal(t, "Me", body["player"])

	do(t, h, http.MethodPut, base+"/players/0/holes/1", `{"score":4,"putts":2,"club":"8i"}`)
	do(t, h, http.MethodPut, base+"/players/0/holes/2", `{"score":5,"putts":2,"club":"7i","miss_directions":["short"]}`)

	rr = do(t, h, http.MethodGet, base+"/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Stats struct {
			TotalScore int `json:"total_score"`
			TotalPar   int `json:"total_par"`
			GIRPercent int `json:"gir_percent"`
		} `json:"stats"`
		Clubs   []map[string]any `json:"clubs"`
		MissMap *struct {
			Dots []map[string]any `json:"dots"`
		} `json:"miss_map"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 36, resp.Stats.TotalScore)
	assert.Equal(t, 35, resp.Stats.TotalPar)
	assert.Equal(t, 89, resp.Stats.GIRPercent) // 8 of 9, untouched holes count at par
	assert.Len(t, resp.Clubs, 2)
	require.NotNil(t, resp.MissMap)
	assert.Len(t, resp.MissMap.Dots, 1)

	rr = do(t, h, http.MethodGet, base+"/stats?player=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Dave", decode[map[string]any](t, rr)["player"])

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, base+"/stats?player=4", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, base+"/stats?player=x", "").Code)
}

func TestTrendsHandler(t *testing.T) {
	_, h := setupServer(t)

	first := createRound(t, h, nineHoles)
	second := createRound(t, h, strings.Replace(nineHoles, "2026-02-09", "2026-02-15", 1))
	createRound(t, h, strings.Replace(nineHoles, "2026-02-09", "2026-02-20", 1)) // stays active

	do(t, h, http.MethodPut, "/api/rounds/"+second.ID+"/players/1/holes/1", `{"score":6}`)
	for _, r := range []models.Round{first, second} {
		require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/rounds/"+r.ID+"/finish", "").Code)
	}

	rr := do(t, h, http.MethodGet, "/api/trends", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp trendsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Points, 2)
	assert.Equal(t, "Feb 9", resp.Points[0].Date)
	assert.Equal(t, "Feb 15", resp.Points[1].Date)
	assert.Equal(t, 35, resp.Summary.BestScore)

	rr = do(t, h, http.MethodGet, "/api/trends?player=dave", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 37, resp.Summary.WorstScore)

	rr = do(t, h, http.MethodGet, "/api/trends?player=nobody", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Empty(t, resp.Points)
	assert.Zero(t, resp.Summary.Rounds)
}

func multipartBody(t *testing.T, fields map[string]string, html string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", "card.html")
	require.NoError(t, err)
	_, err = fw.Write([]byte(html))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

const scorecard = `<html><body><h1>Spyglass Hill</h1><table>
<tr><th>Hole</th><th>1</th><th>2</th><th>3</th><th>4</th><th>5</th><th>6</th><th>7</th><th>8</th><th>9</th></tr>
<tr><td>Par</td><td>5</td><td>4</td><td>3</td><td>4</td><td>3</td><td>4</td><td>5</td><td>4</td><td>4</td></tr>
</table></body></html>`

func TestImportCourse(t *testing.T) {
	_, h := setupServer(t)

	body, ct := multipartBody(t, nil, scorecard)
	req := httptest.NewRequest(http.MethodPost, "/api/course/import", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"course_name":"Spyglass Hill","pars":[5,4,3,4,3,4,5,4,4]}`, rr.Body.String())

	// The stored layout is used when a round names the course.
	r := createRound(t, h, `{"course_name":"spyglass hill","hole_count":9,"players":["Me"]}`)
	assert.Equal(t, []int{5, 4, 3, 4, 3, 4, 5, 4, 4}, r.Pars())
}

func TestImportCourseErrors(t *testing.T) {
	_, h := setupServer(t)

	body, ct := multipartBody(t, map[string]string{"name": "Nowhere"}, `<p>no table</p>`)
	req := httptest.NewRequest(http.MethodPost, "/api/course/import", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/course/import", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestParPresetHandler(t *testing.T) {
	_, h := setupServer(t)
	rr := do(t, h, http.MethodGet, "/api/course/presets/71", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Total int   `json:"total"`
		Pars  []int `json:"pars"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 71, resp.Total)
	assert.Len(t, resp.Pars, 18)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/course/presets/abc", "").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	_, h := setupServer(t)
	rr := do(t, h, http.MethodPatch, "/api/rounds", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}
