package kpcalc

import (
	"errors"
	"math"

	"github.com/dpup/survey.ersn.net/server/internal/lib/route"
	"github.com/dpup/survey.ersn.net/server/internal/lib/units"
)

// progressGranularity is how many points pass between progress callbacks.
const progressGranularity = 100

// calculator implements the Calculator interface over an immutable route.
type calculator struct {
	route      *route.Route
	outputUnit units.Unit
}

// NewCalculator creates a Calculator for the given route and output unit. The
// route must not be nil; a route with zero segments is accepted and yields
// the sentinel result (kp 0, dcc +Inf) for every query.
func NewCalculator(r *route.Route, outputUnit units.Unit) (Calculator, error) {
	if r == nil {
		return nil, errors.New("invalid argument: route must not be nil")
	}
	return &calculator{route: r, outputUnit: outputUnit}, nil
}

func (c *calculator) Route() *route.Route {
	return c.route
}

// Calculate references a single point against every segment of the route and
// keeps the candidate with the smallest |dcc|. Selection is deliberately on
// |dcc| rather than euclidean distance: arc dcc is a radial measure while
// straight dcc is a true perpendicular distance, and certified outputs were
// produced under that comparison. Do not switch this to distance without
// re-certifying.
func (c *calculator) Calculate(easting, northing float64) (kp, dcc float64) {
	best := projectionResult{kp: 0, dcc: math.Inf(1), distance: math.Inf(1)}

	for i := range c.route.Segments {
		candidate := projectSegment(easting, northing, &c.route.Segments[i])
		if math.Abs(candidate.dcc) < math.Abs(best.dcc) {
			best = candidate
		}
	}

	return units.ConvertKp(best.kp, c.outputUnit), best.dcc
}

// CalculateAll references points sequentially, writing results back onto each
// point. Individual points cannot fail once the calculator is constructed.
func (c *calculator) CalculateAll(points []*SurveyPoint, progress ProgressFunc) {
	total := len(points)
	for i, p := range points {
		p.Kp, p.Dcc = c.Calculate(p.Easting, p.Northing)

		if progress != nil && (i+1)%progressGranularity == 0 {
			progress((i + 1) * 100 / total)
		}
	}
	if progress != nil && total > 0 {
		progress(100)
	}
}

// GeneratePointsAtInterval samples the centerline every intervalMeters from
// the route start through its end. Steps the route model cannot resolve are
// skipped rather than emitted as gaps.
func (c *calculator) GeneratePointsAtInterval(intervalMeters float64) []SamplePoint {
	if intervalMeters <= 0 {
		return nil
	}

	stepKm := intervalMeters / 1000
	var samples []SamplePoint
	for i := 0; ; i++ {
		kp := c.route.StartKp + float64(i)*stepKm
		if kp > c.route.EndKp {
			break
		}
		e, n, ok := c.route.CoordinatesAtKp(kp)
		if !ok {
			continue
		}
		samples = append(samples, SamplePoint{Kp: kp, Easting: e, Northing: n})
	}
	return samples
}

// OffsetPoint resolves the position offset perpendicular from the centerline
// at the given route-native KP. Positive offsets fall right of the direction
// of travel for both segment variants.
func (c *calculator) OffsetPoint(kp, offset float64) (easting, northing float64, ok bool) {
	seg, ok := c.route.FindSegmentAtKp(kp)
	if !ok {
		return 0, 0, false
	}
	centerlineE, centerlineN, ok := c.route.CoordinatesAtKp(kp)
	if !ok {
		return 0, 0, false
	}

	var perpE, perpN float64
	if !seg.IsArc() {
		dE := seg.EndEasting - seg.StartEasting
		dN := seg.EndNorthing - seg.StartNorthing
		segLen := math.Hypot(dE, dN)
		if segLen < degenerateLength {
			return 0, 0, false
		}
		perpE = dN / segLen
		perpN = -dE / segLen
	} else {
		centerE, centerN := route.ArcCenter(seg)
		radialLen := math.Hypot(centerlineE-centerE, centerlineN-centerN)
		if radialLen < degenerateLength {
			return 0, 0, false
		}
		perpE = (centerlineE - centerE) / radialLen
		perpN = (centerlineN - centerN) / radialLen
		// The radial points away from the center; for a clockwise arc the
		// center sits right of travel, so flip to keep positive offsets on
		// the right
		if seg.Arc.Clockwise {
			perpE = -perpE
			perpN = -perpN
		}
	}

	return centerlineE + offset*perpE, centerlineN + offset*perpN, true
}
