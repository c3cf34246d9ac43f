package views

import (
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	. "maragu.dev/gomponents/html"

	"github.com/nfrund/realtimehub/internal/domain"
)

// ChatData is everything the chat page shows.
type ChatData struct {
	Username    string
	DisplayName string
	Initials    string
	Contacts    []domain.Contact
	Selected    domain.Contact
	HasSelected bool
	Messages    []domain.ChatMessage
}

// Chat is the contact list plus the active conversation.
func Chat(d ChatData) g.Node {
	return Div(
		Class("chat"),
		Aside(
			Class("sidebar"),
			H3(g.Text("Contacts")),
			contactList(d),
			Div(
				Class("profile"),
				Div(Class("avatar"), g.Text(d.Initials)),
				Div(Class("name"), g.Text(d.DisplayName)),
			),
		),
		Div(
			Class("chat-area"),
			g.If(!d.HasSelected, P(Class("placeholder"), g.Text("Select a user to start chatting"))),
			g.If(d.HasSelected, conversation(d)),
		),
	)
}

func contactList(d ChatData) g.Node {
	if len(d.Contacts) == 0 {
		return P(Class("placeholder"), g.Text("No active users."))
	}
	return Ul(
		Class("contacts"),
		g.Map(d.Contacts, func(c domain.Contact) g.Node {
			class := "contact"
			if d.HasSelected && c.Email == d.Selected.Email {
				class += " selected"
			}
			dot := "offline"
			if c.Online {
				dot = "online"
			}
			return Li(
				Class(class),
				Form(
					Method("post"), Action("/web-socket/select"),
					Input(Type("hidden"), Name("email"), Value(c.Email)),
					Button(Type("submit"),
						Span(Class("dot "+dot)),
						g.Text(c.Name),
					),
				),
			)
		}),
	)
}

func conversation(d ChatData) g.Node {
	return g.Group{
		H3(g.Text("Chat with " + d.Selected.Name)),
		Div(
			ID("messages"),
			hx.Get("/web-socket/messages"),
			hx.Trigger("every 1s"),
			hx.Swap("innerHTML"),
			Messages(d.Messages, d.Username),
		),
		Form(
			Method("post"), Action("/web-socket/send"),
			Input(Type("text"), Name("message"), Placeholder("Type a message"), AutoComplete("off")),
			Button(Type("submit"), g.Text("Send")),
		),
	}
}

// Messages renders the visible message sequence; the user's own messages
// are marked so they align to the other side.
func Messages(msgs []domain.ChatMessage, username string) g.Node {
	return g.Map(msgs, func(m domain.ChatMessage) g.Node {
		class := "message other"
		if m.From == username {
			class = "message own"
		}
		return Div(
			Class(class),
			Div(Class("text"), g.Text(m.Message)),
			Div(Class("timestamp"), g.Text(FormatClock(m.Timestamp))),
		)
	})
}
