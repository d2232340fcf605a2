package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bilanchat/internal/app/user"
)

func TestEnvelope_DecodesClientSubmission(t *testing.T) {
	// A frame exactly as the web client emits it.
	raw := `{
		"event": "sendMessage",
		"data": {
			"receiverId": 7,
			"bilanId": null,
			"content": "bonjour",
			"timestamp": "2026-03-01T10:30:00Z"
		}
	}`

	var envelope Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &envelope))
	require.Equal(t, EventSendMessage, envelope.Event)

	var sub Submission
	require.NoError(t, json.Unmarshal(envelope.Data, &sub))

	require.NotNil(t, sub.ReceiverID)
	require.Equal(t, int64(7), *sub.ReceiverID)
	require.Nil(t, sub.BilanID)
	require.Equal(t, "bonjour", sub.Content)
	require.Equal(t, time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC), sub.Timestamp)
}

func TestEnvelope_DecodesSubmissionWithoutAddressing(t *testing.T) {
	raw := `{"event":"sendMessage","data":{"content":"premier contact"}}`

	var envelope Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &envelope))

	var sub Submission
	require.NoError(t, json.Unmarshal(envelope.Data, &sub))

	require.Nil(t, sub.ReceiverID)
	require.Nil(t, sub.BilanID)
	require.True(t, sub.Timestamp.IsZero())
}

func TestEncodeEvent_ReceiveMessageWireFormat(t *testing.T) {
	receiverID := int64(2)
	stored := StoredMessage{
		ID:         99,
		SenderID:   1,
		ReceiverID: &receiverID,
		Content:    "salut",
		Timestamp:  time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		Sender:     user.User{ID: 1, Prenom: "Marie", Nom: "Dupont", Email: "marie@example.com", Role: user.RoleClient},
		Receiver:   &user.User{ID: 2, Prenom: "Paul", Nom: "Martin", Email: "paul@example.com", Role: user.RoleConsultant},
	}

	frame, err := encodeEvent(EventReceiveMessage, stored)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(frame, &decoded))

	var event string
	require.NoError(t, json.Unmarshal(decoded["event"], &event))
	require.Equal(t, EventReceiveMessage, event)

	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(decoded["data"], &data))

	// The denormalized identity keys are capitalized on the wire.
	for _, key := range []string{"id", "senderId", "receiverId", "bilanId", "content", "timestamp", "Sender", "Receiver"} {
		require.Contains(t, data, key)
	}

	var sender user.User
	require.NoError(t, json.Unmarshal(data["Sender"], &sender))
	require.Equal(t, "Dupont", sender.Nom)
}

func TestEncodeEvent_NullReceiverOnBroadcast(t *testing.T) {
	stored := StoredMessage{
		ID:       1,
		SenderID: 1,
		Content:  "premier contact",
		Sender:   user.User{ID: 1, Role: user.RoleClient},
	}

	frame, err := encodeEvent(EventReceiveMessage, stored)
	require.NoError(t, err)

	var envelope struct {
		Data struct {
			ReceiverID *int64          `json:"receiverId"`
			BilanID    *int64          `json:"bilanId"`
			Receiver   json.RawMessage `json:"Receiver"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(frame, &envelope))

	require.Nil(t, envelope.Data.ReceiverID)
	require.Nil(t, envelope.Data.BilanID)
	require.Equal(t, "null", string(envelope.Data.Receiver))
}
