package route

import (
	"fmt"
	"math"
	"sort"
)

// kpTolerance bounds the chainage gap allowed between consecutive segments.
// Route files carry KPs rounded to sub-millimeter, so anything beyond this is
// a broken chain, not rounding noise.
const kpTolerance = 1e-6

// NewStraight builds a straight segment between two grid points.
func NewStraight(startE, startN, endE, endN, startKp, length float64) Segment {
	return Segment{
		StartEasting:  startE,
		StartNorthing: startN,
		EndEasting:    endE,
		EndNorthing:   endN,
		StartKp:       startKp,
		Length:        length,
	}
}

// NewArc builds a circular-arc segment. Radius is taken as a magnitude; the
// sign of curvature is expressed through clockwise.
func NewArc(startE, startN, endE, endN, startKp, length, radius float64, clockwise bool) Segment {
	return Segment{
		StartEasting:  startE,
		StartNorthing: startN,
		EndEasting:    endE,
		EndNorthing:   endN,
		StartKp:       startKp,
		Length:        length,
		Arc:           &Arc{Radius: math.Abs(radius), Clockwise: clockwise},
	}
}

// IsArc reports whether the segment is a circular arc.
func (s *Segment) IsArc() bool {
	return s.Arc != nil
}

// EndKp returns the chainage at the end of the segment.
func (s *Segment) EndKp() float64 {
	return s.StartKp + s.Length
}

// New builds a route from its segments, ordering them by start chainage and
// validating that consecutive segments are KP-contiguous. An empty segment
// list is a valid (if useless) route with zero bounds.
func New(name string, segments []Segment) (*Route, error) {
	segs := make([]Segment, len(segments))
	copy(segs, segments)
	sort.SliceStable(segs, func(i, j int) bool {
		return segs[i].StartKp < segs[j].StartKp
	})

	for i := 1; i < len(segs); i++ {
		gap := segs[i].StartKp - segs[i-1].EndKp()
		if math.Abs(gap) > kpTolerance {
			return nil, fmt.Errorf("route %q: segment %d starts at KP %.6f but previous segment ends at KP %.6f",
				name, i, segs[i].StartKp, segs[i-1].EndKp())
		}
	}

	r := &Route{Name: name, Segments: segs}
	if len(segs) > 0 {
		r.StartKp = segs[0].StartKp
		r.EndKp = segs[len(segs)-1].EndKp()
	}
	return r, nil
}

// FindSegmentAtKp returns the segment covering the given chainage, or false
// when the KP falls outside the route.
func (r *Route) FindSegmentAtKp(kp float64) (*Segment, bool) {
	if len(r.Segments) == 0 || kp < r.StartKp-kpTolerance || kp > r.EndKp+kpTolerance {
		return nil, false
	}
	// First segment whose end chainage reaches kp
	i := sort.Search(len(r.Segments), func(i int) bool {
		return r.Segments[i].EndKp() >= kp-kpTolerance
	})
	if i == len(r.Segments) {
		return nil, false
	}
	return &r.Segments[i], true
}

// CoordinatesAtKp resolves the centerline position at the given chainage, or
// false when the route has no segment there.
func (r *Route) CoordinatesAtKp(kp float64) (easting, northing float64, ok bool) {
	seg, ok := r.FindSegmentAtKp(kp)
	if !ok {
		return 0, 0, false
	}

	fraction := 0.0
	if seg.Length > 0 {
		fraction = (kp - seg.StartKp) / seg.Length
	}
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}

	if !seg.IsArc() {
		easting = seg.StartEasting + fraction*(seg.EndEasting-seg.StartEasting)
		northing = seg.StartNorthing + fraction*(seg.EndNorthing-seg.StartNorthing)
		return easting, northing, true
	}

	centerE, centerN := ArcCenter(seg)
	radius := seg.Arc.Radius
	startAngle := Bearing(seg.StartEasting-centerE, seg.StartNorthing-centerN)
	endAngle := Bearing(seg.EndEasting-centerE, seg.EndNorthing-centerN)
	span := AngularSpan(startAngle, endAngle, seg.Arc.Clockwise)

	angle := startAngle
	if seg.Arc.Clockwise {
		angle += fraction * span
	} else {
		angle -= fraction * span
	}
	easting = centerE + radius*math.Sin(angle)
	northing = centerN + radius*math.Cos(angle)
	return easting, northing, true
}

// ArcCenter derives the arc's center from its chord, radius and direction of
// curvature. For a clockwise (right-turning) arc the center lies to the right
// of the direction of travel. A chord longer than the diameter clamps the
// center onto the chord midpoint rather than producing NaN.
func ArcCenter(seg *Segment) (easting, northing float64) {
	midE := (seg.StartEasting + seg.EndEasting) / 2
	midN := (seg.StartNorthing + seg.EndNorthing) / 2

	dE := seg.EndEasting - seg.StartEasting
	dN := seg.EndNorthing - seg.StartNorthing
	chord := math.Hypot(dE, dN)
	if chord < 1e-10 || seg.Arc == nil {
		return midE, midN
	}

	radius := seg.Arc.Radius
	half := chord / 2
	sagitta := 0.0
	if radius > half {
		sagitta = math.Sqrt(radius*radius - half*half)
	}

	// Unit vector pointing right of travel along the chord
	rightE := dN / chord
	rightN := -dE / chord
	if seg.Arc.Clockwise {
		return midE + sagitta*rightE, midN + sagitta*rightN
	}
	return midE - sagitta*rightE, midN - sagitta*rightN
}

// Bearing computes the survey bearing of an offset vector: radians clockwise
// from grid north, atan2(easting, northing).
func Bearing(dEasting, dNorthing float64) float64 {
	return math.Atan2(dEasting, dNorthing)
}

// AngularSpan measures the rotation from one bearing to another in the given
// rotational sense, as a non-negative magnitude. The raw difference is
// normalized into (-pi, pi] and then corrected by a full turn when its sign
// disagrees with the requested direction.
func AngularSpan(from, to float64, clockwise bool) float64 {
	span := to - from
	for span > math.Pi {
		span -= 2 * math.Pi
	}
	for span <= -math.Pi {
		span += 2 * math.Pi
	}

	if clockwise {
		if span < 0 {
			span += 2 * math.Pi
		}
		return span
	}
	if span > 0 {
		span -= 2 * math.Pi
	}
	return -span
}
