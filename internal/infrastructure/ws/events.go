package ws

// Client -> server events.
const (
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventSendMessage = "send_message"
)

// Server -> client events. Direct deliveries are named dynamically by the
// frame's "to" field and have no constant here.
const (
	EventReceiveMessage = "receive_message"
	EventJoined         = "joined"
	EventLeft           = "left"

	ErrorInvalid      = "error.invalid"
	ErrorUnauthorized = "error.unauthorized"
)
