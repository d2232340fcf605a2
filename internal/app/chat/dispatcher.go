/*
Package chat contains the real-time message dispatch core.

This file defines the Dispatcher, the routing heart of the system. Given a
message submission from an authenticated connection it classifies the
addressing mode, persists the message, and pushes it to every connection of
every target user. Persistence always precedes delivery: a submission that
cannot be stored is never delivered, and a stored message that reaches no
live connection stays retrievable through history.
*/
package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bilanchat/internal/app/user"
	"bilanchat/internal/pkg/errs"
	"bilanchat/internal/pkg/logx"
)

// Mode identifies how a submission was addressed.
type Mode string

const (
	// ModeBilan delivers to both participants of a bilan conversation.
	ModeBilan Mode = "bilan"

	// ModeDirect delivers to an explicit receiver plus the sender's own sessions.
	ModeDirect Mode = "direct"

	// ModeBroadcast delivers a client's unscoped first contact to every
	// online consultant.
	ModeBroadcast Mode = "broadcast"
)

// DefaultPersistTimeout bounds the Message Store call. A store that does not
// answer within this window fails the submission; the client may resend.
const DefaultPersistTimeout = 5 * time.Second

// Outcome reports the result of a dispatched submission.
type Outcome struct {
	// Message is the stored message with its server-assigned id and
	// timestamp, for the submitter's optimistic-UI reconciliation.
	Message *StoredMessage

	// Mode is the addressing mode the submission resolved to.
	Mode Mode

	// Degraded is true when a bilan could not be resolved to two
	// participants and delivery fell back to the sender's own connections.
	Degraded bool

	// Delivered counts the connections the message was queued to.
	Delivered int
}

// Dispatcher routes message submissions to their target connections.
// It only reads the registry; connection lifecycle code owns all mutations.
type Dispatcher struct {
	registry *Registry
	store    MessageStore
	bilans   BilanResolver

	persistTimeout time.Duration

	logger zerolog.Logger
}

// NewDispatcher constructs a Dispatcher over the given registry and
// collaborator gateways.
func NewDispatcher(registry *Registry, store MessageStore, bilans BilanResolver) *Dispatcher {
	return &Dispatcher{
		registry:       registry,
		store:          store,
		bilans:         bilans,
		persistTimeout: DefaultPersistTimeout,
		logger:         logx.Logger().With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch validates, classifies, persists, and delivers one submission from
// sender. It returns a coded *errs.CustomError for rejected submissions
// (invalid addressing, empty content, persistence failure); in those cases
// nothing was stored except when the error is ErrMessageNotSaved, where the
// store call itself failed.
//
// Addressing-mode classification, in priority order:
//
//  1. bilanId present: deliver to the union of both participants' connections.
//     An unresolvable bilan degrades delivery to the sender's own connections
//     but still persists the message.
//  2. receiverId present: deliver to the receiver's and the sender's
//     connections, so the sender's other sessions see the echo.
//  3. neither present: client-role senders only; broadcast to every online
//     consultant, with no sender echo.
func (d *Dispatcher) Dispatch(ctx context.Context, sender *Client, sub Submission) (*Outcome, error) {
	identity := sender.User()

	if sub.Content == "" {
		return nil, errs.NewError(errs.ErrMessageContentMissing)
	}
	if len(sub.Content) > MaxContentBytes {
		return nil, errs.NewError(errs.ErrMessageContentTooLong)
	}

	if sub.BilanID == nil && sub.ReceiverID == nil && identity.Role != user.RoleClient {
		d.logger.Warn().
			Int64("sender_id", identity.ID).
			Str("role", identity.Role).
			Msg("Unscoped submission from non-client rejected.")
		return nil, errs.NewError(errs.ErrInvalidAddressing)
	}

	mode := d.classify(sub)

	if sub.BilanID != nil && sub.ReceiverID != nil {
		// Ambiguous addressing from the client; the bilan wins, but this
		// overlap is flagged rather than silently accepted.
		d.logger.Warn().
			Int64("sender_id", identity.ID).
			Int64("bilan_id", *sub.BilanID).
			Int64("receiver_id", *sub.ReceiverID).
			Msg("Submission carries both bilanId and receiverId; bilan scope takes precedence.")
	}

	// Resolve bilan participants before persisting so the outcome can report
	// degradation, but persist regardless of the resolution result.
	degraded := false
	var participantA, participantB int64
	if mode == ModeBilan {
		clientID, consultantID, err := d.bilans.Participants(ctx, *sub.BilanID)
		if err != nil {
			// The message still ships to the sender's own sessions and is
			// stored for the counterpart to fetch later. This log marks a
			// data-consistency gap in the bilan data, not a protocol bug.
			d.logger.Warn().
				Err(err).
				Int64("bilan_id", *sub.BilanID).
				Int64("sender_id", identity.ID).
				Msg("Bilan participants unresolved; delivery degraded to sender echo only.")
			degraded = true
		} else {
			participantA, participantB = clientID, consultantID
		}
	}

	persistCtx, cancel := context.WithTimeout(ctx, d.persistTimeout)
	defer cancel()

	stored, err := d.store.Persist(persistCtx, NewMessage{
		SenderID:   identity.ID,
		ReceiverID: sub.ReceiverID,
		BilanID:    sub.BilanID,
		Content:    sub.Content,
		Timestamp:  sub.Timestamp,
	})
	if err != nil {
		logx.Error(err, "Failed to persist message; no delivery attempted",
			"sender_id", identity.ID)
		return nil, errs.NewError(errs.ErrMessageNotSaved)
	}

	targets := d.resolveTargets(mode, degraded, sender, sub, participantA, participantB)

	outcome := &Outcome{
		Message:  stored,
		Mode:     mode,
		Degraded: degraded,
	}

	frame, err := encodeEvent(EventReceiveMessage, stored)
	if err != nil {
		// The message is stored; only the live push is lost.
		d.logger.Error().Err(err).Int64("message_id", stored.ID).Msg("Failed to encode receiveMessage event")
		return outcome, nil
	}

	for _, target := range targets {
		if target.enqueue(frame) {
			outcome.Delivered++
		}
	}

	return outcome, nil
}

// classify resolves the addressing mode of a validated submission.
// Bilan scope wins over an explicit receiver when both are present.
func (d *Dispatcher) classify(sub Submission) Mode {
	switch {
	case sub.BilanID != nil:
		return ModeBilan
	case sub.ReceiverID != nil:
		return ModeDirect
	default:
		return ModeBroadcast
	}
}

// resolveTargets computes the delivery target set as a union of connection
// sets, deduplicated by connection id. A target user with zero open
// connections contributes nothing; the stored message covers them.
func (d *Dispatcher) resolveTargets(mode Mode, degraded bool, sender *Client, sub Submission, participantA, participantB int64) map[uuid.UUID]*Client {
	targets := make(map[uuid.UUID]*Client)

	collect := func(clients []*Client) {
		for _, c := range clients {
			targets[c.id] = c
		}
	}

	switch mode {
	case ModeBilan:
		if degraded {
			collect(d.registry.ConnectionsFor(sender.User().ID))
		} else {
			collect(d.registry.ConnectionsFor(participantA))
			collect(d.registry.ConnectionsFor(participantB))
		}

	case ModeDirect:
		collect(d.registry.ConnectionsFor(sender.User().ID))
		collect(d.registry.ConnectionsFor(*sub.ReceiverID))

	case ModeBroadcast:
		// The sender holds the client role and is never in the consultant
		// set, so broadcast carries no loopback echo.
		collect(d.registry.OnlineConsultants())
	}

	return targets
}
