package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/dpup/survey.ersn.net/server/internal/cache"
	"github.com/dpup/survey.ersn.net/server/internal/clients/routedefs"
	"github.com/dpup/survey.ersn.net/server/internal/config"
	"github.com/dpup/survey.ersn.net/server/internal/lib/kpcalc"
	"github.com/dpup/survey.ersn.net/server/internal/lib/route"
	"github.com/dpup/survey.ersn.net/server/internal/lib/units"
)

// SurveyService references survey points against the configured routes. It
// owns one calculator per loaded route and serves the HTTP JSON API.
type SurveyService struct {
	loader *routedefs.Loader
	cache  *cache.Cache
	config *config.SurveyConfig
	unit   units.Unit

	mutex       sync.RWMutex
	calculators map[string]kpcalc.Calculator
}

// RouteInfo is the API listing entry for a loaded route.
type RouteInfo struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	StartKp  float64 `json:"start_kp"`
	EndKp    float64 `json:"end_kp"`
	Segments int     `json:"segments"`
	Unit     string  `json:"unit"`
}

// Position is the API result for a referenced point.
type Position struct {
	Easting  float64 `json:"easting"`
	Northing float64 `json:"northing"`
	Kp       float64 `json:"kp"`
	Dcc      float64 `json:"dcc"`
	Unit     string  `json:"unit"`
}

// OffsetResult is the API result for an offset point lookup.
type OffsetResult struct {
	Easting  float64 `json:"easting"`
	Northing float64 `json:"northing"`
}

// NewSurveyService creates a SurveyService. Routes are not loaded until
// LoadRoutes is called.
func NewSurveyService(loader *routedefs.Loader, cacheInstance *cache.Cache, cfg *config.SurveyConfig) *SurveyService {
	return &SurveyService{
		loader:      loader,
		cache:       cacheInstance,
		config:      cfg,
		unit:        units.ParseUnit(cfg.OutputUnit),
		calculators: make(map[string]kpcalc.Calculator),
	}
}

// LoadRoutes loads every configured route source, replacing previously
// loaded routes that share an ID. A source that fails to load is logged and
// skipped so one bad file does not take down the rest of the campaign.
func (s *SurveyService) LoadRoutes(ctx context.Context) error {
	loaded := 0
	for _, src := range s.config.Routes {
		r, err := s.loadSource(ctx, src)
		if err != nil {
			log.Printf("Failed to load route %s: %v", src.ID, err)
			continue
		}
		if src.Name != "" {
			r.Name = src.Name
		}

		calc, err := kpcalc.NewCalculator(r, s.unit)
		if err != nil {
			log.Printf("Failed to build calculator for route %s: %v", src.ID, err)
			continue
		}

		s.mutex.Lock()
		s.calculators[src.ID] = calc
		s.mutex.Unlock()
		loaded++
		log.Printf("Loaded route %s (%q): %d segments, KP %.3f to %.3f",
			src.ID, r.Name, len(r.Segments), r.StartKp, r.EndKp)
	}

	if loaded == 0 && len(s.config.Routes) > 0 {
		return fmt.Errorf("no route sources could be loaded (%d configured)", len(s.config.Routes))
	}
	return nil
}

func (s *SurveyService) loadSource(ctx context.Context, src config.RouteSource) (*route.Route, error) {
	switch {
	case src.Path != "":
		return s.loader.LoadFile(src.Path)
	case src.URL != "":
		return s.loader.LoadURL(ctx, src.URL)
	default:
		return nil, fmt.Errorf("route source %s has neither path nor url", src.ID)
	}
}

// ListRoutes returns metadata for every loaded route.
func (s *SurveyService) ListRoutes() []RouteInfo {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	infos := make([]RouteInfo, 0, len(s.calculators))
	for id, calc := range s.calculators {
		r := calc.Route()
		infos = append(infos, RouteInfo{
			ID:       id,
			Name:     r.Name,
			StartKp:  units.ConvertKp(r.StartKp, s.unit),
			EndKp:    units.ConvertKp(r.EndKp, s.unit),
			Segments: len(r.Segments),
			Unit:     s.unit.String(),
		})
	}
	return infos
}

func (s *SurveyService) calculator(routeID string) (kpcalc.Calculator, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	calc, ok := s.calculators[routeID]
	if !ok {
		return nil, fmt.Errorf("unknown route %q", routeID)
	}
	return calc, nil
}

// CalculatePosition references a single point against a route.
func (s *SurveyService) CalculatePosition(routeID string, easting, northing float64) (Position, error) {
	calc, err := s.calculator(routeID)
	if err != nil {
		return Position{}, err
	}

	kp, dcc := calc.Calculate(easting, northing)
	return Position{
		Easting:  easting,
		Northing: northing,
		Kp:       kp,
		Dcc:      dcc,
		Unit:     s.unit.String(),
	}, nil
}

// CalculatePositions references a batch of points in order, logging progress
// for long runs.
func (s *SurveyService) CalculatePositions(routeID string, points []*kpcalc.SurveyPoint) error {
	calc, err := s.calculator(routeID)
	if err != nil {
		return err
	}

	calc.CalculateAll(points, func(pct int) {
		log.Printf("Route %s: batch calculation %d%% complete", routeID, pct)
	})
	return nil
}

// SampleCenterline generates centerline samples at the given interval,
// serving repeat requests from cache.
func (s *SurveyService) SampleCenterline(routeID string, intervalMeters float64) ([]kpcalc.SamplePoint, error) {
	calc, err := s.calculator(routeID)
	if err != nil {
		return nil, err
	}
	if intervalMeters <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %g", intervalMeters)
	}

	var cached []kpcalc.SamplePoint
	found, err := s.cache.GetSamples(routeID, intervalMeters, &cached)
	if err != nil {
		log.Printf("Sample cache read error for route %s: %v", routeID, err)
	}
	if found {
		return cached, nil
	}

	samples := calc.GeneratePointsAtInterval(intervalMeters)
	if err := s.cache.SetSamples(routeID, intervalMeters, samples, s.config.SampleCacheTTL); err != nil {
		log.Printf("Sample cache write error for route %s: %v", routeID, err)
	}
	return samples, nil
}

// OffsetPosition resolves the point at a chainage (in the configured output
// unit) displaced perpendicular from the centerline. ok is false when the
// route has no segment at that chainage; that is a normal miss, not an error.
func (s *SurveyService) OffsetPosition(routeID string, kp, offset float64) (OffsetResult, bool, error) {
	calc, err := s.calculator(routeID)
	if err != nil {
		return OffsetResult{}, false, err
	}

	e, n, ok := calc.OffsetPoint(units.ToKilometers(kp, s.unit), offset)
	if !ok {
		return OffsetResult{}, false, nil
	}
	return OffsetResult{Easting: e, Northing: n}, true, nil
}

// HTTP handlers

// HandleRoutes serves GET /v1/routes.
func (s *SurveyService) HandleRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{"routes": s.ListRoutes()})
}

// HandlePosition serves GET /v1/position?route=&easting=&northing=.
func (s *SurveyService) HandlePosition(w http.ResponseWriter, r *http.Request) {
	routeID := r.URL.Query().Get("route")
	easting, err1 := strconv.ParseFloat(r.URL.Query().Get("easting"), 64)
	northing, err2 := strconv.ParseFloat(r.URL.Query().Get("northing"), 64)
	if routeID == "" || err1 != nil || err2 != nil {
		httpError(w, http.StatusBadRequest, "route, easting and northing are required")
		return
	}

	pos, err := s.CalculatePosition(routeID, easting, northing)
	if err != nil {
		httpError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, pos)
}

// HandlePositions serves POST /v1/positions with a JSON body of
// {"route": "...", "points": [{"easting": ..., "northing": ...}, ...]}.
func (s *SurveyService) HandlePositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req struct {
		Route  string                `json:"route"`
		Points []*kpcalc.SurveyPoint `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if err := s.CalculatePositions(req.Route, req.Points); err != nil {
		httpError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"route":  req.Route,
		"unit":   s.unit.String(),
		"points": req.Points,
	})
}

// HandleSamples serves GET /v1/samples?route=&interval=.
func (s *SurveyService) HandleSamples(w http.ResponseWriter, r *http.Request) {
	routeID := r.URL.Query().Get("route")
	interval, err := strconv.ParseFloat(r.URL.Query().Get("interval"), 64)
	if routeID == "" || err != nil {
		httpError(w, http.StatusBadRequest, "route and interval are required")
		return
	}

	samples, err := s.SampleCenterline(routeID, interval)
	if err != nil {
		status := http.StatusNotFound
		if strings.Contains(err.Error(), "interval") {
			status = http.StatusBadRequest
		}
		httpError(w, status, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"route":    routeID,
		"interval": interval,
		"samples":  samples,
	})
}

// HandleOffset serves GET /v1/offset?route=&kp=&offset=.
func (s *SurveyService) HandleOffset(w http.ResponseWriter, r *http.Request) {
	routeID := r.URL.Query().Get("route")
	kp, err1 := strconv.ParseFloat(r.URL.Query().Get("kp"), 64)
	offset, err2 := strconv.ParseFloat(r.URL.Query().Get("offset"), 64)
	if routeID == "" || err1 != nil || err2 != nil {
		httpError(w, http.StatusBadRequest, "route, kp and offset are required")
		return
	}

	result, ok, err := s.OffsetPosition(routeID, kp, offset)
	if err != nil {
		httpError(w, http.StatusNotFound, err.Error())
		return
	}
	if !ok {
		httpError(w, http.StatusNotFound, fmt.Sprintf("route %s has no segment at KP %g", routeID, kp))
		return
	}
	writeJSON(w, result)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func httpError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
