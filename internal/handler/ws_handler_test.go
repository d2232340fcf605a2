package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"bilanchat/internal/app/chat"
	"bilanchat/internal/pkg/errs"
)

func dialWS(t *testing.T, server *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) chat.Envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope chat.Envelope
	require.NoError(t, json.Unmarshal(frame, &envelope))
	return envelope
}

func TestWebSocket_RejectsMissingAndInvalidToken(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	server := httptest.NewServer(Router(deps))
	defer server.Close()

	baseURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(baseURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	_, resp, err = websocket.DefaultDialer.Dial(baseURL+"?token=not-a-token", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestWebSocket_DirectMessageReachesReceiverAndEchoesSender(t *testing.T) {
	deps, directory, messages := newTestDeps(t)
	server := httptest.NewServer(Router(deps))
	defer server.Close()

	clientConn := dialWS(t, server, tokenFor(t, directory.users[1]))
	consultantConn := dialWS(t, server, tokenFor(t, directory.users[2]))

	require.Eventually(t, func() bool {
		return deps.Registry.ConnectionCount(1) == 1 && deps.Registry.ConnectionCount(2) == 1
	}, 2*time.Second, 10*time.Millisecond)

	err := clientConn.WriteJSON(chat.Envelope{
		Event: chat.EventSendMessage,
		Data:  json.RawMessage(`{"receiverId":2,"content":"bonjour"}`),
	})
	require.NoError(t, err)

	received := readEvent(t, consultantConn)
	require.Equal(t, chat.EventReceiveMessage, received.Event)

	var delivered chat.StoredMessage
	require.NoError(t, json.Unmarshal(received.Data, &delivered))
	require.Equal(t, "bonjour", delivered.Content)
	require.Equal(t, int64(1), delivered.SenderID)
	require.NotZero(t, delivered.ID)

	// The sender gets the same stored message back.
	echoed := readEvent(t, clientConn)
	require.Equal(t, chat.EventReceiveMessage, echoed.Event)

	var echo chat.StoredMessage
	require.NoError(t, json.Unmarshal(echoed.Data, &echo))
	require.Equal(t, delivered.ID, echo.ID)

	// Persisted before delivery.
	require.Len(t, messages.stored(), 1)
}

func TestWebSocket_UnscopedClientMessageBroadcastsToConsultants(t *testing.T) {
	deps, directory, _ := newTestDeps(t)
	server := httptest.NewServer(Router(deps))
	defer server.Close()

	clientConn := dialWS(t, server, tokenFor(t, directory.users[1]))
	consultantConn := dialWS(t, server, tokenFor(t, directory.users[2]))

	require.Eventually(t, func() bool {
		return len(deps.Registry.OnlineConsultants()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	err := clientConn.WriteJSON(chat.Envelope{
		Event: chat.EventSendMessage,
		Data:  json.RawMessage(`{"content":"je cherche un consultant"}`),
	})
	require.NoError(t, err)

	received := readEvent(t, consultantConn)
	require.Equal(t, chat.EventReceiveMessage, received.Event)

	var delivered chat.StoredMessage
	require.NoError(t, json.Unmarshal(received.Data, &delivered))
	require.Nil(t, delivered.ReceiverID)
	require.Nil(t, delivered.BilanID)
}

func TestWebSocket_ConsultantUnscopedMessageIsRejected(t *testing.T) {
	deps, directory, messages := newTestDeps(t)
	server := httptest.NewServer(Router(deps))
	defer server.Close()

	consultantConn := dialWS(t, server, tokenFor(t, directory.users[2]))

	err := consultantConn.WriteJSON(chat.Envelope{
		Event: chat.EventSendMessage,
		Data:  json.RawMessage(`{"content":"à qui de droit"}`),
	})
	require.NoError(t, err)

	received := readEvent(t, consultantConn)
	require.Equal(t, chat.EventMessageRejected, received.Event)

	var rejection chat.RejectionPayload
	require.NoError(t, json.Unmarshal(received.Data, &rejection))
	require.Equal(t, errs.ErrInvalidAddressing, rejection.Code)

	// Nothing was stored.
	require.Empty(t, messages.stored())
}

func TestWebSocket_DisconnectRemovesConnection(t *testing.T) {
	deps, directory, _ := newTestDeps(t)
	server := httptest.NewServer(Router(deps))
	defer server.Close()

	conn := dialWS(t, server, tokenFor(t, directory.users[1]))

	require.Eventually(t, func() bool {
		return deps.Registry.ConnectionCount(1) == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return deps.Registry.ConnectionCount(1) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
