package models

// LiveFrame is the payload a client writes to the WebSocket gateway to
// announce a freshly persisted message to the other party.
type LiveFrame struct {
	Action   string `json:"action"`
	ReportID string `json:"reportId"`
	Message  string `json:"message"`
	UserType string `json:"userType"`
}

// ActionSendMessage is the only action the gateway understands.
const ActionSendMessage = "sendMessage"

// LiveEvent is a transient, message-shaped payload received over the
// WebSocket. It carries no durable identifier; CreatedAt is assigned by the
// receiving client as "now" and is for display only.
type LiveEvent struct {
	Sender    MessageSender `json:"sender,omitempty"`
	UserType  string        `json:"userType,omitempty"`
	Message   string        `json:"message"`
	CreatedAt int64         `json:"createdAt,omitempty"`
}
