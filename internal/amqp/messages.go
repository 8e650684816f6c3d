package amqp

import (
	"encoding/json"
	"time"

	"paychart/internal/app"
)

// RenderEventMessage is the wire form of an app.Event.
type RenderEventMessage struct {
	app.Event
	PublishedAt time.Time `json:"published_at"`
}

// NewRenderEventMessage wraps e and stamps the publish time.
func NewRenderEventMessage(e app.Event) *RenderEventMessage {
	return &RenderEventMessage{Event: e, PublishedAt: time.Now().UTC()}
}

// ToJSON converts the message to JSON bytes
func (m *RenderEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RenderEventMessageFromJSON decodes a message body.
func RenderEventMessageFromJSON(data []byte) (*RenderEventMessage, error) {
	var msg RenderEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
