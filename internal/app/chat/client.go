/*
Package chat contains the real-time message dispatch core.

This file defines the Client struct, representing one live authenticated
WebSocket connection. It owns the connection's read and write loops and its
lifecycle: register on creation, deregister exactly once on close.
*/
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"bilanchat/internal/app/user"
	"bilanchat/internal/pkg/errs"
	"bilanchat/internal/pkg/logx"
)

const (
	// timeout for writing a frame to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time the server waits for a Pong before dropping the connection.
	pongWait = 60 * time.Second

	// frequency of server Ping frames.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound frame.
	maxMessageSize = 8192

	// MaxContentBytes caps the byte length of a message's text content.
	MaxContentBytes = 5000

	// sendQueueSize is the per-connection buffer of outbound frames.
	sendQueueSize = 256
)

// Client represents one authenticated WebSocket connection and its bound identity.
type Client struct {
	// id uniquely identifies this connection instance; a user connected from
	// several tabs holds several Clients with distinct ids.
	id uuid.UUID

	// underlying WebSocket connection.
	conn *websocket.Conn

	// user is the identity bound to the connection at authentication time.
	// It is never re-resolved for the life of the connection.
	user user.User

	// registry tracks this connection while it is open.
	registry *Registry

	// dispatcher routes this connection's submissions.
	dispatcher *Dispatcher

	// send queues outbound frames for the write pump.
	send chan []byte

	// closeOnce guards the send channel against double close.
	closeOnce sync.Once

	logger zerolog.Logger
}

// NewClient constructs a Client for an authenticated connection.
// The caller is responsible for registering it and starting both pumps.
func NewClient(conn *websocket.Conn, identity user.User, registry *Registry, dispatcher *Dispatcher) *Client {
	connID := uuid.New()

	clientLogger := logx.Logger().With().
		Str("conn_id", connID.String()).
		Int64("user_id", identity.ID).
		Str("role", identity.Role).
		Logger()

	return &Client{
		id:         connID,
		conn:       conn,
		user:       identity,
		registry:   registry,
		dispatcher: dispatcher,
		send:       make(chan []byte, sendQueueSize),
		logger:     clientLogger,
	}
}

// ID returns the opaque identifier of this connection instance.
func (c *Client) ID() uuid.UUID {
	return c.id
}

// User returns the identity bound to the connection.
func (c *Client) User() user.User {
	return c.user
}

// ReadPump reads frames from the connection until it closes, handling
// heartbeats and dispatching submissions in receipt order. Processing a
// submission synchronously here preserves ordering between one sender's
// successive messages; pushes to this connection keep flowing through the
// write pump in the meantime.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		c.processInbound(messageBytes)
	}
}

// cleanupOnDisconnect removes the connection from the registry and closes the
// socket. Deregistration is idempotent, so a second invocation is harmless.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Connection cleanup starting.")

	c.registry.Deregister(c)
	c.closeSend()

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Connection close error during cleanup")
	}
}

// processInbound decodes one inbound frame and routes it by event type.
func (c *Client) processInbound(messageBytes []byte) {
	var envelope Envelope

	if err := json.Unmarshal(messageBytes, &envelope); err != nil {
		c.logger.Warn().Err(err).
			Bytes("message_bytes", messageBytes).
			Msg("Client sent invalid JSON")
		return
	}

	switch envelope.Event {
	case EventSendMessage:
		c.handleSendMessage(envelope.Data)

	default:
		c.logger.Warn().Str("event", envelope.Event).Msg("Client sent unsupported event type")
	}
}

// handleSendMessage decodes a submission and hands it to the dispatcher.
// Addressing and persistence failures come back as coded errors and are
// reported to the submitter so the client knows the message was not sent.
func (c *Client) handleSendMessage(payload json.RawMessage) {
	var sub Submission
	if err := json.Unmarshal(payload, &sub); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid sendMessage payload")
		c.sendRejection(errs.NewError(errs.ErrInvalidParams))
		return
	}

	outcome, err := c.dispatcher.Dispatch(context.Background(), c, sub)
	if err != nil {
		var customErr *errs.CustomError
		if !errors.As(err, &customErr) {
			customErr = errs.NewError(errs.ErrUnknown, err)
		}
		c.sendRejection(customErr)
		return
	}

	c.logger.Debug().
		Int64("message_id", outcome.Message.ID).
		Str("mode", string(outcome.Mode)).
		Bool("degraded", outcome.Degraded).
		Int("delivered", outcome.Delivered).
		Msg("Submission dispatched.")
}

// WritePump writes queued frames to the connection and keeps the heartbeat
// alive. It exits when the send channel is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one queued frame. A false return terminates the pump.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a heartbeat Ping. A false return terminates the pump.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// enqueue queues an already-encoded frame for delivery to this connection.
// The queue never blocks the caller: a full queue drops the frame, which is
// acceptable because the message is already durably stored and retrievable
// via history.
func (c *Client) enqueue(messageBytes []byte) bool {
	defer func() {
		// send may be closed concurrently by cleanup; a drop is fine then.
		_ = recover()
	}()

	select {
	case c.send <- messageBytes:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, dropping frame")
		return false
	}
}

// sendRejection pushes a messageRejected event to the submitter.
func (c *Client) sendRejection(customErr *errs.CustomError) {
	payload := RejectionPayload{
		Code:    customErr.Code,
		Message: customErr.Message,
	}

	frame, err := encodeEvent(EventMessageRejected, payload)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to encode messageRejected event")
		return
	}

	c.enqueue(frame)
}

// closeSend closes the outbound queue exactly once, releasing the write pump.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}
