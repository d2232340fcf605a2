/*
Package chat contains the real-time message dispatch core: connection
registry, client lifecycle, and delivery routing across the three addressing
modes (bilan-scoped, direct, and unscoped first contact).

This file defines the collaborator interfaces the dispatch core consumes.
Their implementations live in the storage layer; the core only depends on
these contracts so it can be tested against in-memory fakes.
*/
package chat

import (
	"context"
	"errors"
	"time"

	"bilanchat/internal/app/user"
)

// ErrBilanNotFound is returned by a BilanResolver when the bilan id does not exist.
var ErrBilanNotFound = errors.New("bilan not found")

// ErrBilanIncomplete is returned by a BilanResolver when the bilan exists but
// has no assigned consultant yet, so its conversation has only one participant.
var ErrBilanIncomplete = errors.New("bilan has no assigned consultant")

// NewMessage carries the fields of a message submission to be persisted.
// The store assigns the authoritative id and timestamp; the client-supplied
// timestamp is only a hint used when present.
type NewMessage struct {
	SenderID   int64
	ReceiverID *int64
	BilanID    *int64
	Content    string
	Timestamp  time.Time
}

// StoredMessage is a durably persisted message enriched with the denormalized
// public identities of its sender and receiver, exactly as pushed to clients.
// The capitalized Sender/Receiver JSON keys match the web client's wire format.
type StoredMessage struct {
	ID         int64      `json:"id"`
	SenderID   int64      `json:"senderId"`
	ReceiverID *int64     `json:"receiverId"`
	BilanID    *int64     `json:"bilanId"`
	Content    string     `json:"content"`
	Timestamp  time.Time  `json:"timestamp"`
	Sender     user.User  `json:"Sender"`
	Receiver   *user.User `json:"Receiver"`
}

// MessageStore durably persists messages and answers historical lookups.
// Persist must complete successfully before any delivery is attempted;
// a Persist failure is fatal to that submission.
type MessageStore interface {
	// Persist stores msg and returns it with its server-assigned id and
	// authoritative timestamp, plus denormalized participant identities.
	Persist(ctx context.Context, msg NewMessage) (*StoredMessage, error)

	// ListByBilan returns every message of a bilan conversation in
	// chronological order.
	ListByBilan(ctx context.Context, bilanID int64) ([]StoredMessage, error)

	// ListBetween returns the unscoped messages exchanged between two users
	// (either direction, bilan-less only) in chronological order.
	ListBetween(ctx context.Context, userA, userB int64) ([]StoredMessage, error)
}

// BilanResolver resolves a bilan id to its two conversation participants.
type BilanResolver interface {
	// Participants returns the client and consultant user ids of the bilan.
	// It returns ErrBilanNotFound for an unknown id and ErrBilanIncomplete
	// when no consultant has been assigned yet.
	Participants(ctx context.Context, bilanID int64) (clientID, consultantID int64, err error)
}
