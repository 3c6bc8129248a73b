package route

// Arc carries the circular-arc parameters of a segment. Radius is stored as
// an unsigned magnitude in meters; direction of curvature is carried by
// Clockwise.
type Arc struct {
	Radius    float64 `json:"radius"`
	Clockwise bool    `json:"clockwise"`
}

// Segment is one piece of a route centerline, either a straight line or a
// circular arc. Coordinates are projected grid easting/northing in meters;
// StartKp and Length are route-native kilometers. A segment is immutable once
// the route is built.
type Segment struct {
	StartEasting  float64 `json:"start_easting"`
	StartNorthing float64 `json:"start_northing"`
	EndEasting    float64 `json:"end_easting"`
	EndNorthing   float64 `json:"end_northing"`

	StartKp float64 `json:"start_kp"`
	Length  float64 `json:"length"`

	// Arc is nil for straight segments
	Arc *Arc `json:"arc,omitempty"`
}

// Route is an ordered, KP-contiguous chain of segments with derived chainage
// bounds. Read-only after New returns; safe to share across goroutines.
type Route struct {
	Name     string
	Segments []Segment
	StartKp  float64
	EndKp    float64
}
