package models

import "github.com/google/uuid"

// Event is an outbound room-scoped notification. Type names are owned by the emitting package.
type Event struct {
	Type    string                 `json:"type"`
	Room    uuid.UUID              `json:"room"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Broadcaster delivers events to everyone in a room or to a single user.
type Broadcaster interface {
	Broadcast(room uuid.UUID, ev Event)
	SendTo(userID uuid.UUID, ev Event)
}

// BroadcastFuncs adapts two plain functions to Broadcaster. Nil functions drop the event.
type BroadcastFuncs struct {
	BroadcastFn func(room uuid.UUID, ev Event)
	SendToFn    func(userID uuid.UUID, ev Event)
}

func (b BroadcastFuncs) Broadcast(room uuid.UUID, ev Event) {
	if b.BroadcastFn != nil {
		b.BroadcastFn(room, ev)
	}
}

func (b BroadcastFuncs) SendTo(userID uuid.UUID, ev Event) {
	if b.SendToFn != nil {
		b.SendToFn(userID, ev)
	}
}
