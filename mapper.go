package nalssi

import (
	"github.com/goccy/go-json"
)

// openWeatherPayload mirrors the subset of the OpenWeather current-weather
// body the mapper consumes. Pointer fields distinguish "absent" from
// zero values; any missing intermediate object yields absent, never an
// error, except for the required temperature pair.
type openWeatherPayload struct {
	Name string `json:"name"`
	Main *struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *int     `json:"humidity"`
	} `json:"main"`
	Wind *struct {
		Speed *float64 `json:"speed"`
		Deg   *int     `json:"deg"`
	} `json:"wind"`
	Weather []struct {
		Description *string `json:"description"`
	} `json:"weather"`
}

// mapPayload parses a raw OpenWeather body into a typed weather response.
// main.temp and main.feels_like are required; everything else is
// optional. The unit echoes the requested unit verbatim
// regardless of what the payload reports.
func mapPayload(raw []byte, params WeatherParams) (*WeatherResponse, error) {
	var payload openWeatherPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errParse(err)
	}

	if payload.Main == nil {
		return nil, errMissingField("main")
	}
	if payload.Main.Temp == nil {
		return nil, errMissingField("temp")
	}
	if payload.Main.FeelsLike == nil {
		return nil, errMissingField("feels_like")
	}

	resp := &WeatherResponse{
		Location:             payload.Name,
		Temperature:          *payload.Main.Temp,
		FeelsLikeTemperature: *payload.Main.FeelsLike,
		Humidity:             payload.Main.Humidity,
		Unit:                 string(params.Unit),
		WeatherConditions:    make([]string, 0),
	}
	if payload.Wind != nil {
		resp.WindSpeed = payload.Wind.Speed
		resp.WindDegrees = payload.Wind.Deg
	}
	// Only entries that carry a description key contribute a condition;
	// entries without one are skipped silently.
	for _, w := range payload.Weather {
		if w.Description != nil {
			resp.WeatherConditions = append(resp.WeatherConditions, *w.Description)
		}
	}
	return resp, nil
}
