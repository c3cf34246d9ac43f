package views

import (
	"fmt"
	"time"

	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	. "maragu.dev/gomponents/html"

	"github.com/nfrund/realtimehub/internal/polling"
)

// hourlyRows caps the forecast table.
const hourlyRows = 12

// Polling is the weather page; the panel refreshes itself every interval.
func Polling(state polling.State, interval time.Duration) g.Node {
	return Div(
		ID("weather"),
		hx.Get("/polling/snapshot"),
		hx.Trigger(fmt.Sprintf("every %ds", int(interval.Seconds()))),
		hx.Swap("innerHTML"),
		WeatherPanel(state),
	)
}

// WeatherPanel renders the loading, error, empty or data view of state.
func WeatherPanel(state polling.State) g.Node {
	switch {
	case state.Loading:
		return P(Class("status"), g.Text("Loading weather data..."))
	case state.Snapshot == nil && state.Err != "":
		return P(Class("status error"), g.Text("Error: "+state.Err))
	case state.Snapshot == nil:
		return P(Class("status"), g.Text("No weather data available"))
	}

	s := state.Snapshot
	unit := s.CurrentUnits.Temperature2m
	if unit == "" {
		unit = "°C"
	}

	return Div(
		H1(g.Text("Weather Forecast")),
		P(g.Textf("Location: %.3f°N, %.3f°E", s.Latitude, s.Longitude)),
		g.If(state.Err != "", P(Class("warning"), Role("alert"), g.Text("Failed to fetch latest data: "+state.Err))),
		Div(
			Class("current"),
			H2(g.Text("Current Weather")),
			Div(Class("temperature"), g.Textf("%v%s", s.Current.Temperature2m, unit)),
			P(g.Textf("Last updated: %s (%s)", FormatClock(s.Current.Time), time.Local.String())),
		),
		hourly(s.Hourly.Time, s.Hourly.Temperature2m, s.HourlyUnits.Temperature2m),
		P(Class("footnote"), g.Text("PS: This is fake")),
	)
}

func hourly(times []string, temps []float64, unit string) g.Node {
	n := min(len(times), len(temps), hourlyRows)
	if n == 0 {
		return nil
	}
	rows := make([]g.Node, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, Tr(Td(g.Text(FormatClock(times[i]))), Td(g.Textf("%v%s", temps[i], unit))))
	}
	return Table(
		Class("hourly"),
		THead(Tr(Th(g.Text("Time")), Th(g.Text("Temperature")))),
		TBody(rows...),
	)
}

var clockLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04"}

// FormatClock renders a backend timestamp as "03:04 PM", or returns it
// unchanged when it cannot be parsed.
func FormatClock(ts string) string {
	for _, layout := range clockLayouts {
		if t, err := time.ParseInLocation(layout, ts, time.Local); err == nil {
			return t.Local().Format("03:04 PM")
		}
	}
	return ts
}
