package domain

// WeatherSnapshot is the document served by GET /api-polling.
type WeatherSnapshot struct {
	Latitude     float64          `json:"latitude"`
	Longitude    float64          `json:"longitude"`
	Current      WeatherNow       `json:"current"`
	CurrentUnits TemperatureUnits `json:"current_units"`
	Hourly       WeatherSeries    `json:"hourly"`
	HourlyUnits  TemperatureUnits `json:"hourly_units"`
}

// WeatherNow is the current observation.
type WeatherNow struct {
	Time          string  `json:"time"`
	Temperature2m float64 `json:"temperature_2m"`
}

// WeatherSeries is the hourly forecast.
type WeatherSeries struct {
	Time          []string  `json:"time"`
	Temperature2m []float64 `json:"temperature_2m"`
}

// TemperatureUnits names the unit of the temperature fields.
type TemperatureUnits struct {
	Temperature2m string `json:"temperature_2m"`
}
