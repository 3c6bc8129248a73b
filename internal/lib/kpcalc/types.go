package kpcalc

import "github.com/dpup/survey.ersn.net/server/internal/lib/route"

// SurveyPoint is a surveyed position to be referenced against the route.
// Easting/Northing are caller-supplied input; Kp and Dcc are written exactly
// once per point by CalculateAll and are otherwise untouched by this package.
type SurveyPoint struct {
	Easting  float64 `json:"easting"`
	Northing float64 `json:"northing"`
	Kp       float64 `json:"kp"`
	Dcc      float64 `json:"dcc"`
}

// SamplePoint is one centerline sample produced by interval generation. Kp is
// route-native kilometers.
type SamplePoint struct {
	Kp       float64 `json:"kp"`
	Easting  float64 `json:"easting"`
	Northing float64 `json:"northing"`
}

// projectionResult is the per-segment candidate: chainage at the closest
// point, signed offset, and unsigned euclidean distance. Created and
// discarded within a single point's evaluation.
type projectionResult struct {
	kp       float64
	dcc      float64
	distance float64
}

// ProgressFunc receives batch completion percentage, approximately every 100
// points. May be nil.
type ProgressFunc func(percentComplete int)

// Calculator references survey points against a route centerline: along-route
// chainage (KP) and signed offset from the line (DCC). Stateless across
// calls; safe for concurrent use over its immutable route.
type Calculator interface {
	// Calculate returns the chainage (in the configured output unit) and
	// signed DCC of the closest centerline position to the given point.
	Calculate(easting, northing float64) (kp, dcc float64)

	// CalculateAll references every point in order, writing Kp and Dcc back
	// onto each. Progress is reported approximately every 100 points.
	CalculateAll(points []*SurveyPoint, progress ProgressFunc)

	// GeneratePointsAtInterval samples the centerline from the route start to
	// its end at a fixed spacing given in meters.
	GeneratePointsAtInterval(intervalMeters float64) []SamplePoint

	// OffsetPoint resolves the position at a given route-native KP displaced
	// perpendicular to the centerline. ok is false when the route has no
	// segment at that chainage.
	OffsetPoint(kp, offset float64) (easting, northing float64, ok bool)

	// Route returns the underlying route model.
	Route() *route.Route
}
