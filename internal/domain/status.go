package domain

// StatusType is the lifecycle state of a connection client.
type StatusType string

const (
	StatusConnecting   StatusType = "connecting"
	StatusConnected    StatusType = "connected"
	StatusDisconnected StatusType = "disconnected"
)

// Status pairs a lifecycle state with the message shown next to it.
type Status struct {
	Type    StatusType `json:"type"`
	Message string     `json:"message"`
}
