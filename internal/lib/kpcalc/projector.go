package kpcalc

import (
	"math"

	"github.com/dpup/survey.ersn.net/server/internal/lib/route"
)

// degenerateLength is the threshold below which a segment is treated as a
// single point rather than a direction.
const degenerateLength = 1e-10

// projectStraight projects a point onto a straight segment, clamping to the
// segment's extent. DCC is signed positive when the point lies right of the
// direction of travel.
func projectStraight(easting, northing float64, seg *route.Segment) projectionResult {
	dE := seg.EndEasting - seg.StartEasting
	dN := seg.EndNorthing - seg.StartNorthing
	segLen := math.Hypot(dE, dN)

	if segLen < degenerateLength {
		// Point-like segment: no direction, so no side convention either
		d := math.Hypot(easting-seg.StartEasting, northing-seg.StartNorthing)
		return projectionResult{kp: seg.StartKp, dcc: d, distance: d}
	}

	uE := dE / segLen
	uN := dN / segLen

	along := (easting-seg.StartEasting)*uE + (northing-seg.StartNorthing)*uN
	clamped := along
	if clamped < 0 {
		clamped = 0
	} else if clamped > segLen {
		clamped = segLen
	}

	fraction := clamped / segLen
	kp := seg.StartKp + fraction*seg.Length

	closestE := seg.StartEasting + clamped*uE
	closestN := seg.StartNorthing + clamped*uN
	distance := math.Hypot(easting-closestE, northing-closestN)

	cross := (easting-closestE)*uN - (northing-closestN)*uE
	dcc := distance
	if cross < 0 {
		dcc = -distance
	}
	return projectionResult{kp: kp, dcc: dcc, distance: distance}
}

// projectArc projects a point onto an arc segment. The closest point is found
// by bearing relative to the arc center; when the point's bearing falls
// outside the arc's angular span the nearer endpoint wins. DCC for arcs is
// the radial deviation from the arc, not the distance to the closest point:
// positive inside a clockwise arc, positive outside a counter-clockwise one.
// Certified deliverables depend on that convention, including on the
// endpoint branch.
func projectArc(easting, northing float64, seg *route.Segment) projectionResult {
	centerE, centerN := route.ArcCenter(seg)
	radius := seg.Arc.Radius

	pointAngle := route.Bearing(easting-centerE, northing-centerN)
	startAngle := route.Bearing(seg.StartEasting-centerE, seg.StartNorthing-centerN)
	endAngle := route.Bearing(seg.EndEasting-centerE, seg.EndNorthing-centerN)

	fullSpan := route.AngularSpan(startAngle, endAngle, seg.Arc.Clockwise)
	angleFromStart := route.AngularSpan(startAngle, pointAngle, seg.Arc.Clockwise)

	var kp, closestE, closestN float64
	if angleFromStart <= fullSpan {
		// Point projects onto the arc interior, at its own bearing
		fraction := 0.0
		if fullSpan > 0 {
			fraction = angleFromStart / fullSpan
		}
		kp = seg.StartKp + fraction*seg.Length
		closestE = centerE + radius*math.Sin(pointAngle)
		closestN = centerN + radius*math.Cos(pointAngle)
	} else {
		// Outside the swept span: nearer endpoint wins
		distToStart := math.Hypot(easting-seg.StartEasting, northing-seg.StartNorthing)
		distToEnd := math.Hypot(easting-seg.EndEasting, northing-seg.EndNorthing)
		if distToStart <= distToEnd {
			kp = seg.StartKp
			closestE = seg.StartEasting
			closestN = seg.StartNorthing
		} else {
			kp = seg.EndKp()
			closestE = seg.EndEasting
			closestN = seg.EndNorthing
		}
	}

	distance := math.Hypot(easting-closestE, northing-closestN)

	distToCenter := math.Hypot(easting-centerE, northing-centerN)
	var dcc float64
	if seg.Arc.Clockwise {
		dcc = radius - distToCenter
	} else {
		dcc = distToCenter - radius
	}
	return projectionResult{kp: kp, dcc: dcc, distance: distance}
}

// projectSegment dispatches on the segment variant.
func projectSegment(easting, northing float64, seg *route.Segment) projectionResult {
	if seg.IsArc() {
		return projectArc(easting, northing, seg)
	}
	return projectStraight(easting, northing, seg)
}
