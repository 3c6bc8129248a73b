// Package routedefs loads route centerline definitions from the formats the
// survey office hands over: native JSON segment lists, KML centerlines, and
// encoded-polyline exports. All coordinates are projected grid
// easting/northing in meters.
package routedefs

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/twpayne/go-polyline"

	"github.com/dpup/survey.ersn.net/server/internal/lib/route"
)

// SegmentDef is one segment entry in a JSON route definition document.
type SegmentDef struct {
	Kind          string  `json:"kind"` // "straight" or "arc"
	StartEasting  float64 `json:"start_easting"`
	StartNorthing float64 `json:"start_northing"`
	EndEasting    float64 `json:"end_easting"`
	EndNorthing   float64 `json:"end_northing"`
	StartKp       float64 `json:"start_kp"`
	Length        float64 `json:"length,omitempty"`
	Radius        float64 `json:"radius,omitempty"`
	Clockwise     bool    `json:"clockwise,omitempty"`
}

// RouteDef is the JSON route definition document format.
type RouteDef struct {
	Name     string       `json:"name"`
	Segments []SegmentDef `json:"segments"`
}

// Loader fetches and parses route definitions.
type Loader struct {
	httpClient *http.Client
}

// NewLoader creates a route definition loader.
func NewLoader() *Loader {
	return &Loader{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// LoadFile parses a route definition from a local file, dispatching on the
// file extension (.json or .kml).
func (l *Loader) LoadFile(path string) (*route.Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route file: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".kml":
		return l.ParseKML(data, name)
	case ".json":
		return l.ParseJSON(data)
	default:
		return nil, fmt.Errorf("unsupported route file format: %s", filepath.Ext(path))
	}
}

// LoadURL downloads a route definition document and parses it the same way
// LoadFile does.
func (l *Loader) LoadURL(ctx context.Context, url string) (*route.Route, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download route definition: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d downloading route definition from %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read route definition response: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(url), filepath.Ext(url))
	if strings.HasSuffix(strings.ToLower(url), ".kml") {
		return l.ParseKML(data, name)
	}
	return l.ParseJSON(data)
}

// ParseJSON builds a route from a JSON route definition document. Segment
// lengths omitted from the document are derived from the geometry.
func (l *Loader) ParseJSON(data []byte) (*route.Route, error) {
	var def RouteDef
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse route definition JSON: %w", err)
	}
	if def.Name == "" {
		return nil, fmt.Errorf("route definition is missing a name")
	}

	segments := make([]route.Segment, 0, len(def.Segments))
	for i, sd := range def.Segments {
		seg, err := sd.toSegment()
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		segments = append(segments, seg)
	}

	return route.New(def.Name, segments)
}

func (sd SegmentDef) toSegment() (route.Segment, error) {
	length := sd.Length
	switch strings.ToLower(sd.Kind) {
	case "straight", "":
		if length == 0 {
			length = math.Hypot(sd.EndEasting-sd.StartEasting, sd.EndNorthing-sd.StartNorthing) / 1000
		}
		return route.NewStraight(sd.StartEasting, sd.StartNorthing, sd.EndEasting, sd.EndNorthing, sd.StartKp, length), nil
	case "arc":
		if sd.Radius == 0 {
			return route.Segment{}, fmt.Errorf("arc segment requires a radius")
		}
		if length == 0 {
			length = arcLengthFromChord(sd) / 1000
		}
		return route.NewArc(sd.StartEasting, sd.StartNorthing, sd.EndEasting, sd.EndNorthing, sd.StartKp, length, sd.Radius, sd.Clockwise), nil
	default:
		return route.Segment{}, fmt.Errorf("unknown segment kind %q", sd.Kind)
	}
}

// arcLengthFromChord recovers the swept arc length from the chord and radius.
func arcLengthFromChord(sd SegmentDef) float64 {
	chord := math.Hypot(sd.EndEasting-sd.StartEasting, sd.EndNorthing-sd.StartNorthing)
	radius := math.Abs(sd.Radius)
	if chord < 1e-10 || radius < chord/2 {
		return chord
	}
	return 2 * radius * math.Asin(chord/2/radius)
}

// kmlDocument mirrors the subset of KML this loader consumes: LineString
// centerlines in Placemarks, possibly nested in Folders. Coordinates in
// survey-package KML exports are projected easting/northing meters, not
// geodetic degrees.
type kmlDocument struct {
	XMLName  xml.Name `xml:"kml"`
	Document struct {
		Name       string         `xml:"name"`
		Placemarks []kmlPlacemark `xml:"Placemark"`
		Folders    []struct {
			Placemarks []kmlPlacemark `xml:"Placemark"`
		} `xml:"Folder"`
	} `xml:"Document"`
}

type kmlPlacemark struct {
	Name       string `xml:"name"`
	LineString *struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"LineString"`
}

// ParseKML builds a route from the first LineString centerline found in a
// KML document. Consecutive coordinate pairs become straight segments with
// chainage accumulated from zero.
func (l *Loader) ParseKML(data []byte, fallbackName string) (*route.Route, error) {
	var doc kmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse KML: %w", err)
	}

	placemarks := doc.Document.Placemarks
	for _, folder := range doc.Document.Folders {
		placemarks = append(placemarks, folder.Placemarks...)
	}

	for _, pm := range placemarks {
		if pm.LineString == nil {
			continue
		}
		coords, err := parseKMLCoordinates(pm.LineString.Coordinates)
		if err != nil {
			return nil, err
		}
		if len(coords) < 2 {
			continue
		}

		name := pm.Name
		if name == "" {
			name = doc.Document.Name
		}
		if name == "" {
			name = fallbackName
		}
		return routeFromVertices(name, coords)
	}

	return nil, fmt.Errorf("KML document contains no LineString centerline")
}

// ParsePolyline builds a route from an encoded polyline centerline. Encoded
// pairs are (northing, easting) in meters, packed through the standard 1e-5
// fixed-point encoding.
func (l *Loader) ParsePolyline(encoded []byte, name string) (*route.Route, error) {
	if len(encoded) == 0 {
		return nil, fmt.Errorf("encoded centerline is empty")
	}

	coords, _, err := polyline.DecodeCoords(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode centerline polyline: %w", err)
	}

	vertices := make([][2]float64, len(coords))
	for i, c := range coords {
		vertices[i] = [2]float64{c[1], c[0]} // easting, northing
	}
	return routeFromVertices(name, vertices)
}

// routeFromVertices chains straight segments through a vertex list,
// accumulating chainage from zero. Zero-length edges are dropped so the
// resulting route has no accidental degenerate segments.
func routeFromVertices(name string, vertices [][2]float64) (*route.Route, error) {
	var segments []route.Segment
	kp := 0.0
	for i := 0; i < len(vertices)-1; i++ {
		e0, n0 := vertices[i][0], vertices[i][1]
		e1, n1 := vertices[i+1][0], vertices[i+1][1]
		length := math.Hypot(e1-e0, n1-n0) / 1000
		if length < 1e-12 {
			continue
		}
		segments = append(segments, route.NewStraight(e0, n0, e1, n1, kp, length))
		kp += length
	}
	return route.New(name, segments)
}

// parseKMLCoordinates splits a KML coordinate blob ("x,y[,z]" tuples
// separated by whitespace) into easting/northing pairs.
func parseKMLCoordinates(raw string) ([][2]float64, error) {
	var coords [][2]float64
	for _, tuple := range strings.Fields(raw) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("malformed KML coordinate tuple %q", tuple)
		}
		e, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed easting in %q: %w", tuple, err)
		}
		n, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed northing in %q: %w", tuple, err)
		}
		coords = append(coords, [2]float64{e, n})
	}
	return coords, nil
}
