package units

import "strings"

// Unit identifies a supported chainage output unit
type Unit int

const (
	Kilometer Unit = iota
	Meter
	USSurveyFoot
	NauticalMile
)

// Conversion factors from kilometers, per unit
// US survey foot uses the pre-2023 definition (1200/3937 m) that survey
// deliverables in legacy state plane zones still require
const (
	metersPerKilometer = 1000.0
	usSurveyFootMeters = 0.3048006096012192
	nauticalMileKm     = 1.852
)

// ConvertKp converts a chainage value from route-native kilometers to the
// target unit. Unknown units pass the value through unchanged rather than
// failing; callers treat the unit as display configuration, not input to
// validate.
func ConvertKp(kpKm float64, target Unit) float64 {
	switch target {
	case Kilometer:
		return kpKm
	case Meter:
		return kpKm * metersPerKilometer
	case USSurveyFoot:
		return kpKm * metersPerKilometer / usSurveyFootMeters
	case NauticalMile:
		return kpKm / nauticalMileKm
	default:
		return kpKm
	}
}

// ToKilometers converts a chainage value expressed in the given unit back to
// route-native kilometers. Inverse of ConvertKp, with the same pass-through
// behavior for unknown units.
func ToKilometers(value float64, from Unit) float64 {
	switch from {
	case Kilometer:
		return value
	case Meter:
		return value / metersPerKilometer
	case USSurveyFoot:
		return value * usSurveyFootMeters / metersPerKilometer
	case NauticalMile:
		return value * nauticalMileKm
	default:
		return value
	}
}

// ParseUnit maps a configuration string to a Unit. Defaults to Kilometer for
// unrecognized values, matching ConvertKp's defensive pass-through policy.
func ParseUnit(s string) Unit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "meter", "meters", "metre", "metres":
		return Meter
	case "usft", "us-ft", "us_survey_foot", "us survey feet", "ussurveyfoot", "ussurveyfeet":
		return USSurveyFoot
	case "nm", "nmi", "nautical_mile", "nautical miles", "nauticalmile":
		return NauticalMile
	default:
		return Kilometer
	}
}

// String returns the short label used in logs and API responses.
func (u Unit) String() string {
	switch u {
	case Meter:
		return "m"
	case USSurveyFoot:
		return "usft"
	case NauticalMile:
		return "nm"
	default:
		return "km"
	}
}
