package views

import (
	"slices"

	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	. "maragu.dev/gomponents/html"

	"github.com/nfrund/realtimehub/internal/domain"
	"github.com/nfrund/realtimehub/internal/eventlog"
)

// ServerSentData is everything the server-sent page shows.
type ServerSentData struct {
	ClientID  string
	Status    domain.Status
	Connected bool
	Symbols   []string
	Selected  []string
	Quotes    []domain.StockQuote
	Logs      []eventlog.Entry
}

// ServerSent is the quote stream page.
func ServerSent(d ServerSentData) g.Node {
	return Div(
		H1(g.Text("SSE POC Client")),
		P(g.Text("Real-time data streaming with subscription management")),
		controls(d),
		Div(
			ID("quotes"),
			hx.Get("/server-sent/quotes"),
			hx.Trigger("every 1s"),
			hx.Swap("innerHTML"),
			QuoteGrid(d.Quotes),
		),
		H2(g.Text("Event Logs")),
		Div(
			ID("logs"),
			hx.Get("/server-sent/logs"),
			hx.Trigger("every 1s"),
			hx.Swap("innerHTML"),
			EventLogs(d.Logs),
		),
	)
}

func controls(d ServerSentData) g.Node {
	return Div(
		Class("controls"),
		Form(
			Method("post"), Action("/server-sent/connect"),
			Span(g.Text("Client ID: ")),
			Input(Type("text"), Name("client_id"), Value(d.ClientID), g.If(d.Connected, Disabled())),
			Button(Type("submit"), g.If(d.Connected, Disabled()), g.Text("Connect")),
		),
		Form(
			Method("post"), Action("/server-sent/disconnect"),
			Button(Type("submit"), g.If(!d.Connected, Disabled()), g.Text("Disconnect")),
		),
		Form(
			Method("post"), Action("/server-sent/subscribe"),
			Input(Type("hidden"), Name("client_id"), Value(d.ClientID)),
			g.Map(d.Symbols, func(sym string) g.Node {
				return Span(
					Class("symbol"),
					Input(Type("checkbox"), Name("symbols"), Value(sym), g.If(slices.Contains(d.Selected, sym), Checked())),
					g.Text(sym+" "),
				)
			}),
			Button(Type("submit"), g.If(!d.Connected, Disabled()), g.Text("Subscribe")),
			Button(Type("submit"), g.Attr("formaction", "/server-sent/unsubscribe"), g.If(!d.Connected, Disabled()), g.Text("Unsubscribe")),
		),
		StatusBadge(d.Status),
	)
}

// StatusBadge renders a connection status with its message.
func StatusBadge(s domain.Status) g.Node {
	return Div(Class("status status-"+string(s.Type)), g.Text("Status: "+s.Message))
}

// QuoteGrid renders one card per symbol.
func QuoteGrid(quotes []domain.StockQuote) g.Node {
	if len(quotes) == 0 {
		return P(Class("empty"), g.Text("No stock data available"))
	}
	return Div(Class("grid"), g.Map(quotes, stockCard))
}

func stockCard(q domain.StockQuote) g.Node {
	sign, class := "", "down"
	if q.Change >= 0 {
		sign, class = "+", "up"
	}
	return Div(
		Class("card "+class),
		Div(Class("symbol"), g.Text(q.Symbol)),
		Div(Class("price"), g.Textf("$%.2f", q.Price)),
		Span(g.Textf("%s%.2f", sign, q.Change)),
		g.Text(" "),
		Span(g.Textf("(%s%.2f%%)", sign, q.ChangePercent)),
	)
}

// EventLogs renders log entries oldest first.
func EventLogs(entries []eventlog.Entry) g.Node {
	return Div(
		Class("logs"),
		g.Map(entries, func(e eventlog.Entry) g.Node {
			return Div(
				Class("log log-"+string(e.Level)),
				Span(Class("time"), g.Text("["+e.Timestamp.Format("15:04:05")+"] ")),
				g.Text(e.Message),
			)
		}),
	)
}
