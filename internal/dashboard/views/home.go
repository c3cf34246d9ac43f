package views

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// Home is the landing page linking to the three demonstrations.
func Home() g.Node {
	return Div(
		Class("home"),
		H1(g.Text("📊 Welcome to the Real Time Session")),
		Div(
			Class("actions"),
			A(Href("/polling"), Class("button"), g.Text("Go to Polling Page")),
			g.Text(" "),
			A(Href("/web-socket"), Class("button"), g.Text("Go to WebSocket Page")),
			g.Text(" "),
			A(Href("/server-sent"), Class("button"), g.Text("Go to Server Sent Page")),
		),
	)
}

// Login is the sign-in form.
func Login(email string) g.Node {
	return Div(
		Class("login"),
		H1(g.Text("Welcome Back")),
		P(g.Text("Sign in to your account")),
		Form(
			Method("post"), Action("/login"),
			P(
				Span(g.Text("Email Address")),
				Input(Type("email"), Name("email"), Value(email), Placeholder("Enter your email"), Required()),
			),
			P(
				Span(g.Text("Password")),
				Input(Type("password"), Name("password"), Placeholder("Enter your password"), Required()),
			),
			Button(Type("submit"), g.Text("Sign In")),
		),
	)
}
