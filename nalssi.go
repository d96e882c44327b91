// Package nalssi fetches current weather from the OpenWeather service
// through a host-provided outbound HTTP capability.
//
// The pipeline is deliberately small and explicit: a request spec is
// assembled, submitted to the transport capability, the calling goroutine
// blocks until the transport signals readiness, the resolved outcome is
// unwrapped layer by layer, the body is drained in bounded chunks, and the
// payload is mapped into a typed weather response. Every failure along the
// way is classified into a single human-readable message; the public
// CheckWeather operation never lets an error escape as anything but a
// well-formed `{"error": ...}` JSON payload.
//
// Each invocation is independent: one request in flight, no cross-call
// state. An optional response cache and raw-payload archive can be wired
// in with options, but the default path is stateless.
package nalssi

import "strings"

const (
	// DefaultHost is the OpenWeather API endpoint authority.
	DefaultHost = "api.openweathermap.org"

	// weatherPath is the current-weather resource under DefaultHost.
	weatherPath = "/data/2.5/weather"

	// EnvAPIKey is the environment variable consulted when no credential
	// was configured explicitly.
	EnvAPIKey = "OPENWEATHER_API_KEY"
)

// Unit selects the measurement system for a weather request.
type Unit string

const (
	UnitMetric   Unit = "metric"
	UnitImperial Unit = "imperial"
)

// NormalizeUnit lower-cases the requested unit and defaults anything that
// is not exactly "imperial" to metric.
func NormalizeUnit(unit string) Unit {
	if strings.ToLower(unit) == string(UnitImperial) {
		return UnitImperial
	}
	return UnitMetric
}

// WeatherParams identifies one weather lookup.
type WeatherParams struct {
	Location string
	Unit     Unit
}

// WeatherResponse is the typed result of a successful fetch. Optional
// fields are pointers so that absent source data stays absent in the
// serialized form; no nulls are emitted. WeatherConditions is always
// non-nil so an empty list serializes as [].
type WeatherResponse struct {
	Location             string   `json:"location"`
	Temperature          float64  `json:"temperature"`
	FeelsLikeTemperature float64  `json:"feels_like_temperature"`
	WindSpeed            *float64 `json:"wind_speed,omitempty"`
	WindDegrees          *int     `json:"wind_degrees,omitempty"`
	Humidity             *int     `json:"humidity,omitempty"`
	Unit                 string   `json:"unit"`
	WeatherConditions    []string `json:"weather_conditions"`
}
