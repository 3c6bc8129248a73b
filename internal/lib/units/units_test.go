package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertKp(t *testing.T) {
	tests := []struct {
		name     string
		kpKm     float64
		target   Unit
		expected float64
	}{
		{"kilometer identity", 12.345, Kilometer, 12.345},
		{"meters", 1.5, Meter, 1500.0},
		{"us survey feet", 1.0, USSurveyFoot, 1000.0 / 0.3048006096012192},
		{"nautical miles", 1.852, NauticalMile, 1.0},
		{"zero", 0.0, Meter, 0.0},
		{"negative chainage", -0.25, Meter, -250.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ConvertKp(tt.kpKm, tt.target), 1e-9)
		})
	}
}

func TestConvertKp_UnknownUnitPassesThrough(t *testing.T) {
	assert.Equal(t, 7.25, ConvertKp(7.25, Unit(99)))
	assert.Equal(t, 7.25, ToKilometers(7.25, Unit(99)))
}

func TestConvertKp_RoundTrip(t *testing.T) {
	values := []float64{0, 0.001, 1, 12.3456789, 1000}
	unitsUnderTest := []Unit{Kilometer, Meter, USSurveyFoot, NauticalMile}

	for _, u := range unitsUnderTest {
		for _, v := range values {
			assert.InDelta(t, v, ToKilometers(ConvertKp(v, u), u), 1e-9,
				"round trip through %s should preserve %f", u, v)
		}
	}
}

func TestParseUnit(t *testing.T) {
	assert.Equal(t, Kilometer, ParseUnit("km"))
	assert.Equal(t, Meter, ParseUnit("meters"))
	assert.Equal(t, Meter, ParseUnit(" M "))
	assert.Equal(t, USSurveyFoot, ParseUnit("usft"))
	assert.Equal(t, NauticalMile, ParseUnit("nm"))
	assert.Equal(t, Kilometer, ParseUnit("furlongs"))
}

func TestUnitString(t *testing.T) {
	assert.Equal(t, "km", Kilometer.String())
	assert.Equal(t, "m", Meter.String())
	assert.Equal(t, "usft", USSurveyFoot.String())
	assert.Equal(t, "nm", NauticalMile.String())
}
