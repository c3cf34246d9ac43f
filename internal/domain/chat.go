package domain

// Contact is one entry of the `users` snapshot pushed by the chat socket.
type Contact struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Online bool   `json:"online"`
}

// ChatMessage is a single message as delivered live or by the history endpoint.
type ChatMessage struct {
	From      string `json:"from"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// OutgoingMessage is the payload of the client-to-server `message` event.
type OutgoingMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}
