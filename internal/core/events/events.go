package events

import "encoding/json"

const (
	TopicUserDeleted = "user.deleted"

	EventUserDeleted = "USER_DELETED"
)

type UserDeletedEvent struct {
	Event  string `json:"event"`
	UserID string `json:"user_id"`
}

func NewUserDeleted(userID string) UserDeletedEvent {
	return UserDeletedEvent{Event: EventUserDeleted, UserID: userID}
}

// Message is one entry read back from a topic stream.
type Message struct {
	ID      string
	Topic   string
	Payload json.RawMessage
}
