/*
Package chat contains the real-time message dispatch core.

This file defines the WebSocket wire format: the event envelope exchanged in
both directions and the payloads of the individual event types.
*/
package chat

import (
	"encoding/json"
	"time"
)

// Event names carried in the envelope. The names match what the web client
// emits and listens for.
const (
	// EventSendMessage is the inbound submission of a chat message.
	EventSendMessage = "sendMessage"

	// EventReceiveMessage is the outbound push of a stored message.
	EventReceiveMessage = "receiveMessage"

	// EventMessageRejected tells the submitter that a message was refused
	// and was not stored.
	EventMessageRejected = "messageRejected"
)

// Envelope frames every message exchanged over a connection.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Submission is the payload of an inbound sendMessage event.
// ReceiverID and BilanID are both optional; when both are present the bilan
// takes precedence, and when both are absent only client-role senders are
// allowed (unscoped first contact).
type Submission struct {
	ReceiverID *int64    `json:"receiverId"`
	BilanID    *int64    `json:"bilanId"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp,omitzero"`
}

// RejectionPayload is the payload of a messageRejected event.
type RejectionPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// encodeEvent marshals an event envelope with its payload.
func encodeEvent(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{
		Event: event,
		Data:  data,
	})
}
