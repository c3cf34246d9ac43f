// Package views renders the dashboard pages with gomponents and htmx.
package views

import (
	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/components"
	. "maragu.dev/gomponents/html"
)

const htmxSrc = "https://unpkg.com/htmx.org@2.0.4"

// Flashes are the one-shot messages shown at the top of a page.
type Flashes struct {
	Success []string
	Error   []string
}

// Viewer describes who is looking at a page.
type Viewer struct {
	LoggedIn bool
	Username string
}

// Page wraps body in the shared document layout.
func Page(title string, viewer Viewer, flashes Flashes, body ...g.Node) g.Node {
	return components.HTML5(components.HTML5Props{
		Title:    title + " | RealtimeHub",
		Language: "en",
		Head: []g.Node{
			Script(Src(htmxSrc), Defer()),
			Link(Rel("stylesheet"), Href("https://cdn.jsdelivr.net/npm/water.css@2/out/water.css")),
		},
		Body: []g.Node{
			navBar(viewer),
			flashList(flashes),
			Main(ID("content"), g.Group(body)),
		},
	})
}

func navBar(v Viewer) g.Node {
	return Nav(
		Class("nav"),
		A(Href("/"), g.Text("Home")),
		g.Text(" · "),
		A(Href("/polling"), g.Text("Polling")),
		g.Text(" · "),
		A(Href("/server-sent"), g.Text("Server Sent")),
		g.Text(" · "),
		A(Href("/web-socket"), g.Text("WebSocket")),
		g.Text(" · "),
		g.If(v.LoggedIn,
			Form(Method("post"), Action("/logout"), Class("inline"),
				Span(g.Text(v.Username+" ")),
				Button(Type("submit"), g.Text("Log out")),
			),
		),
		g.If(!v.LoggedIn, A(Href("/login"), g.Text("Log in"))),
	)
}

func flashList(f Flashes) g.Node {
	if len(f.Success) == 0 && len(f.Error) == 0 {
		return nil
	}
	return Div(
		ID("flashes"),
		g.Map(f.Success, func(msg string) g.Node {
			return P(Class("flash flash-success"), g.Text(msg))
		}),
		g.Map(f.Error, func(msg string) g.Node {
			return P(Class("flash flash-error"), Role("alert"), g.Text(msg))
		}),
	)
}
