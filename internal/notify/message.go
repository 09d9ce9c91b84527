package notify

type MessageType string

const (
	MessageTypeEvent       MessageType = "event"
	MessageTypeConnected   MessageType = "connected"
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypePing        MessageType = "ping"
	MessageTypePong        MessageType = "pong"
)

const (
	EventCommentCreated    = "comment_created"
	EventCommentUpdated    = "comment_updated"
	EventRevisionFinalized = "revision_finalized"
)

// Event is what review clients receive: something changed on a video
// they are watching.
type Event struct {
	Type    string      `json:"type"`
	VideoID string      `json:"videoId"`
	Payload interface{} `json:"payload,omitempty"`
}

type IncomingMessage struct {
	Type    MessageType `json:"type"`
	VideoID string      `json:"videoId,omitempty"`
}

type OutgoingMessage struct {
	Type   MessageType `json:"type"`
	UserID string      `json:"userId,omitempty"`
	Event  *Event      `json:"event,omitempty"`
}

// Broadcaster is the sending half of the hub; endpoints depend on it so
// tests can drop in a recorder.
type Broadcaster interface {
	BroadcastToVideo(videoID string, event *Event)
}
