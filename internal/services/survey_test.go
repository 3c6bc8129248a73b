package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/survey.ersn.net/server/internal/cache"
	"github.com/dpup/survey.ersn.net/server/internal/clients/routedefs"
	"github.com/dpup/survey.ersn.net/server/internal/config"
	"github.com/dpup/survey.ersn.net/server/internal/lib/kpcalc"
	"github.com/dpup/survey.ersn.net/server/internal/lib/units"
)

// newTestService loads a single north-bound 1km route from a temp file.
func newTestService(t *testing.T) *SurveyService {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "line.json")
	doc := []byte(`{"name": "Line 1", "segments": [{"kind": "straight", "start_easting": 0, "start_northing": 0, "end_easting": 0, "end_northing": 1000, "start_kp": 0, "length": 1.0}]}`)
	require.NoError(t, os.WriteFile(path, doc, 0o644))

	cfg := &config.SurveyConfig{
		OutputUnit:     "km",
		SampleCacheTTL: time.Minute,
		Routes: []config.RouteSource{
			{ID: "line1", Name: "Line 1", Path: path},
		},
	}

	svc := NewSurveyService(routedefs.NewLoader(), cache.New(), cfg)
	require.NoError(t, svc.LoadRoutes(context.Background()))
	return svc
}

func TestLoadRoutes_SkipsBadSources(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	doc := []byte(`{"name": "ok", "segments": [{"kind": "straight", "start_easting": 0, "start_northing": 0, "end_easting": 0, "end_northing": 100, "start_kp": 0, "length": 0.1}]}`)
	require.NoError(t, os.WriteFile(good, doc, 0o644))

	cfg := &config.SurveyConfig{
		OutputUnit: "km",
		Routes: []config.RouteSource{
			{ID: "good", Path: good},
			{ID: "missing", Path: filepath.Join(dir, "absent.json")},
		},
	}

	svc := NewSurveyService(routedefs.NewLoader(), cache.New(), cfg)
	require.NoError(t, svc.LoadRoutes(context.Background()))
	assert.Len(t, svc.ListRoutes(), 1)
}

func TestLoadRoutes_AllSourcesFail(t *testing.T) {
	cfg := &config.SurveyConfig{
		OutputUnit: "km",
		Routes:     []config.RouteSource{{ID: "nope", Path: "/does/not/exist.json"}},
	}

	svc := NewSurveyService(routedefs.NewLoader(), cache.New(), cfg)
	assert.Error(t, svc.LoadRoutes(context.Background()))
}

func TestCalculatePosition(t *testing.T) {
	svc := newTestService(t)

	pos, err := svc.CalculatePosition("line1", 50, 500)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pos.Kp, 1e-9)
	assert.InDelta(t, 50.0, pos.Dcc, 1e-9)
	assert.Equal(t, "km", pos.Unit)

	_, err = svc.CalculatePosition("nope", 0, 0)
	assert.Error(t, err)
}

func TestCalculatePositions_WritesBack(t *testing.T) {
	svc := newTestService(t)

	points := []*kpcalc.SurveyPoint{
		{Easting: -10, Northing: 250},
		{Easting: 10, Northing: 750},
	}
	require.NoError(t, svc.CalculatePositions("line1", points))

	assert.InDelta(t, 0.25, points[0].Kp, 1e-9)
	assert.InDelta(t, -10.0, points[0].Dcc, 1e-9)
	assert.InDelta(t, 0.75, points[1].Kp, 1e-9)
	assert.InDelta(t, 10.0, points[1].Dcc, 1e-9)
}

func TestSampleCenterline_UsesCache(t *testing.T) {
	svc := newTestService(t)

	samples, err := svc.SampleCenterline("line1", 250)
	require.NoError(t, err)
	require.Len(t, samples, 5)

	// Second call should be served from cache and remain identical
	again, err := svc.SampleCenterline("line1", 250)
	require.NoError(t, err)
	assert.Equal(t, samples, again)

	_, err = svc.SampleCenterline("line1", -1)
	assert.Error(t, err)
}

func TestOffsetPosition(t *testing.T) {
	svc := newTestService(t)

	res, ok, err := svc.OffsetPosition("line1", 0.5, 20)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 20.0, res.Easting, 1e-9)
	assert.InDelta(t, 500.0, res.Northing, 1e-9)

	// Outside the route: a miss, not an error
	_, ok, err = svc.OffsetPosition("line1", 9.9, 20)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOffsetPosition_ConvertsFromOutputUnit(t *testing.T) {
	svc := newTestService(t)
	svc.unit = units.Meter
	res, ok, err := svc.OffsetPosition("line1", 500, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 500.0, res.Northing, 1e-9)
}

func TestHandlePosition(t *testing.T) {
	svc := newTestService(t)

	req := httptest.NewRequest("GET", "/v1/position?route=line1&easting=50&northing=500", nil)
	rec := httptest.NewRecorder()
	svc.HandlePosition(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var pos Position
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pos))
	assert.InDelta(t, 0.5, pos.Kp, 1e-9)
	assert.InDelta(t, 50.0, pos.Dcc, 1e-9)
}

func TestHandlePosition_BadRequest(t *testing.T) {
	svc := newTestService(t)

	req := httptest.NewRequest("GET", "/v1/position?route=line1&easting=abc", nil)
	rec := httptest.NewRecorder()
	svc.HandlePosition(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePositions(t *testing.T) {
	svc := newTestService(t)

	body, _ := json.Marshal(map[string]interface{}{
		"route": "line1",
		"points": []map[string]float64{
			{"easting": 50, "northing": 500},
		},
	})
	req := httptest.NewRequest("POST", "/v1/positions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	svc.HandlePositions(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Points []kpcalc.SurveyPoint `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Points, 1)
	assert.InDelta(t, 0.5, resp.Points[0].Kp, 1e-9)
}

func TestHandleOffset_MissIsNotFound(t *testing.T) {
	svc := newTestService(t)

	req := httptest.NewRequest("GET", "/v1/offset?route=line1&kp=42&offset=5", nil)
	rec := httptest.NewRecorder()
	svc.HandleOffset(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRoutes(t *testing.T) {
	svc := newTestService(t)

	req := httptest.NewRequest("GET", "/v1/routes", nil)
	rec := httptest.NewRecorder()
	svc.HandleRoutes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Routes []RouteInfo `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Routes, 1)
	assert.Equal(t, "line1", resp.Routes[0].ID)
	assert.Equal(t, 1.0, resp.Routes[0].EndKp)
}
