package routedefs

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-kml/v2"
	"github.com/twpayne/go-polyline"
)

func TestParseJSON_MixedSegments(t *testing.T) {
	loader := NewLoader()

	doc := []byte(`{
		"name": "pipeline-12",
		"segments": [
			{"kind": "straight", "start_easting": 0, "start_northing": 0, "end_easting": 0, "end_northing": 1000, "start_kp": 0, "length": 1.0},
			{"kind": "arc", "start_easting": 0, "start_northing": 1000, "end_easting": 100, "end_northing": 1100, "start_kp": 1.0, "length": 0.15707963267948966, "radius": 100, "clockwise": true}
		]
	}`)

	r, err := loader.ParseJSON(doc)
	require.NoError(t, err)

	assert.Equal(t, "pipeline-12", r.Name)
	require.Len(t, r.Segments, 2)
	assert.False(t, r.Segments[0].IsArc())
	assert.True(t, r.Segments[1].IsArc())
	assert.Equal(t, 100.0, r.Segments[1].Arc.Radius)
	assert.True(t, r.Segments[1].Arc.Clockwise)
	assert.InDelta(t, 1.157079632, r.EndKp, 1e-6)
}

func TestParseJSON_DerivesOmittedLengths(t *testing.T) {
	loader := NewLoader()

	doc := []byte(`{
		"name": "short",
		"segments": [
			{"kind": "straight", "start_easting": 0, "start_northing": 0, "end_easting": 300, "end_northing": 400, "start_kp": 0}
		]
	}`)

	r, err := loader.ParseJSON(doc)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, r.Segments[0].Length, 1e-9, "length derived from the 300/400/500 triangle")
}

func TestParseJSON_Invalid(t *testing.T) {
	loader := NewLoader()

	_, err := loader.ParseJSON([]byte(`{"segments": []}`))
	assert.Error(t, err, "missing name should be rejected")

	_, err = loader.ParseJSON([]byte(`{"name": "x", "segments": [{"kind": "arc", "start_kp": 0}]}`))
	assert.Error(t, err, "arc without radius should be rejected")

	_, err = loader.ParseJSON([]byte(`{"name": "x", "segments": [{"kind": "spiral"}]}`))
	assert.Error(t, err, "unknown segment kind should be rejected")
}

func TestParseKML_LineStringCenterline(t *testing.T) {
	// Build the fixture with go-kml so it matches what the survey package
	// exports; coordinates are grid easting/northing in meters
	k := kml.KML(
		kml.Document(
			kml.Name("export"),
			kml.Placemark(
				kml.Name("centerline-a"),
				kml.LineString(
					kml.Coordinates(
						kml.Coordinate{Lon: 0, Lat: 0},
						kml.Coordinate{Lon: 0, Lat: 1000},
						kml.Coordinate{Lon: 300, Lat: 1400},
					),
				),
			),
		),
	)
	var buf bytes.Buffer
	require.NoError(t, k.Write(&buf))

	loader := NewLoader()
	r, err := loader.ParseKML(buf.Bytes(), "fallback")
	require.NoError(t, err)

	assert.Equal(t, "centerline-a", r.Name)
	require.Len(t, r.Segments, 2)
	assert.InDelta(t, 1.0, r.Segments[0].Length, 1e-9)
	assert.InDelta(t, 0.5, r.Segments[1].Length, 1e-9)
	assert.InDelta(t, 1.5, r.EndKp, 1e-9)
	assert.InDelta(t, 1.0, r.Segments[1].StartKp, 1e-9, "chainage accumulates through the vertex chain")
}

func TestParseKML_NoLineString(t *testing.T) {
	k := kml.KML(
		kml.Document(
			kml.Name("empty"),
			kml.Placemark(kml.Name("just-a-point")),
		),
	)
	var buf bytes.Buffer
	require.NoError(t, k.Write(&buf))

	loader := NewLoader()
	_, err := loader.ParseKML(buf.Bytes(), "fallback")
	assert.Error(t, err)
}

func TestParsePolyline(t *testing.T) {
	// Encoded pairs are (northing, easting)
	encoded := polyline.EncodeCoords([][]float64{
		{0, 0},
		{1000, 0},
		{1000, 500},
	})

	loader := NewLoader()
	r, err := loader.ParsePolyline(encoded, "encoded-line")
	require.NoError(t, err)

	assert.Equal(t, "encoded-line", r.Name)
	require.Len(t, r.Segments, 2)
	assert.InDelta(t, 1.0, r.Segments[0].Length, 1e-4)
	assert.InDelta(t, 0.5, r.Segments[1].Length, 1e-4)
	assert.InDelta(t, 500.0, r.Segments[1].EndEasting, 1e-4)
	assert.InDelta(t, 1000.0, r.Segments[1].EndNorthing, 1e-4)
}

func TestParsePolyline_Empty(t *testing.T) {
	loader := NewLoader()
	_, err := loader.ParsePolyline(nil, "x")
	assert.Error(t, err)
}

func TestLoadFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "survey-route.json")
	doc := []byte(`{"name": "survey-route", "segments": [{"kind": "straight", "start_easting": 0, "start_northing": 0, "end_easting": 0, "end_northing": 2000, "start_kp": 0, "length": 2.0}]}`)
	require.NoError(t, os.WriteFile(path, doc, 0o644))

	loader := NewLoader()
	r, err := loader.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "survey-route", r.Name)
	assert.Equal(t, 2.0, r.EndKp)
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "route.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b"), 0o644))

	loader := NewLoader()
	_, err := loader.LoadFile(path)
	assert.Error(t, err)
}

func TestLoadURL(t *testing.T) {
	doc := `{"name": "remote", "segments": [{"kind": "straight", "start_easting": 0, "start_northing": 0, "end_easting": 1000, "end_northing": 0, "start_kp": 0, "length": 1.0}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(doc))
	}))
	defer server.Close()

	loader := NewLoader()
	r, err := loader.LoadURL(t.Context(), server.URL+"/routes/remote.json")
	require.NoError(t, err)
	assert.Equal(t, "remote", r.Name)
}

func TestLoadURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	loader := NewLoader()
	_, err := loader.LoadURL(t.Context(), server.URL+"/missing.json")
	assert.Error(t, err)
}
