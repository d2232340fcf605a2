package store

import (
	"context"
	"fmt"
	"time"

	"bilanchat/internal/app/chat"
	"bilanchat/internal/app/user"
)

// messageColumns selects a message row joined with the denormalized public
// identities of its sender and (optional) receiver.
const messageColumns = `
	m.id, m.sender_id, m.receiver_id, m.bilan_id, m.content, m.timestamp,
	s.id, s.prenom, s.nom, s.email, s.role,
	r.id, r.prenom, r.nom, r.email, r.role`

const persistMessageQuery = `
WITH inserted AS (
	INSERT INTO messages (sender_id, receiver_id, bilan_id, content, timestamp)
	VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	RETURNING id, sender_id, receiver_id, bilan_id, content, timestamp
)
SELECT` + messageColumns + `
FROM inserted m
JOIN users s ON s.id = m.sender_id
LEFT JOIN users r ON r.id = m.receiver_id`

const listByBilanQuery = `
SELECT` + messageColumns + `
FROM messages m
JOIN users s ON s.id = m.sender_id
LEFT JOIN users r ON r.id = m.receiver_id
WHERE m.bilan_id = $1
ORDER BY m.timestamp ASC, m.id ASC`

const listBetweenQuery = `
SELECT` + messageColumns + `
FROM messages m
JOIN users s ON s.id = m.sender_id
LEFT JOIN users r ON r.id = m.receiver_id
WHERE m.bilan_id IS NULL
  AND ((m.sender_id = $1 AND m.receiver_id = $2)
    OR (m.sender_id = $2 AND m.receiver_id = $1))
ORDER BY m.timestamp ASC, m.id ASC`

// scannable covers both pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanStoredMessage reads one joined message row into a chat.StoredMessage.
func scanStoredMessage(row scannable) (chat.StoredMessage, error) {
	var (
		msg      chat.StoredMessage
		receiver struct {
			id     *int64
			prenom *string
			nom    *string
			email  *string
			role   *string
		}
	)

	err := row.Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.BilanID, &msg.Content, &msg.Timestamp,
		&msg.Sender.ID, &msg.Sender.Prenom, &msg.Sender.Nom, &msg.Sender.Email, &msg.Sender.Role,
		&receiver.id, &receiver.prenom, &receiver.nom, &receiver.email, &receiver.role,
	)
	if err != nil {
		return chat.StoredMessage{}, err
	}

	if receiver.id != nil {
		msg.Receiver = &user.User{
			ID:     *receiver.id,
			Prenom: *receiver.prenom,
			Nom:    *receiver.nom,
			Email:  *receiver.email,
			Role:   *receiver.role,
		}
	}

	return msg, nil
}

// Persist durably stores msg and returns it with the server-assigned id and
// authoritative timestamp. A zero client timestamp defers to the database clock.
func (s *Store) Persist(ctx context.Context, msg chat.NewMessage) (*chat.StoredMessage, error) {
	var clientTS *time.Time
	if !msg.Timestamp.IsZero() {
		clientTS = &msg.Timestamp
	}

	row := s.pool.QueryRow(ctx, persistMessageQuery,
		msg.SenderID, msg.ReceiverID, msg.BilanID, msg.Content, clientTS)

	stored, err := scanStoredMessage(row)
	if err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	return &stored, nil
}

// ListByBilan returns the full conversation of a bilan in chronological order.
func (s *Store) ListByBilan(ctx context.Context, bilanID int64) ([]chat.StoredMessage, error) {
	rows, err := s.pool.Query(ctx, listByBilanQuery, bilanID)
	if err != nil {
		return nil, fmt.Errorf("list messages by bilan: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// ListBetween returns the bilan-less messages exchanged between two users,
// in either direction, in chronological order.
func (s *Store) ListBetween(ctx context.Context, userA, userB int64) ([]chat.StoredMessage, error) {
	rows, err := s.pool.Query(ctx, listBetweenQuery, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("list messages between users: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

func collectMessages(rows interface {
	scannable
	Next() bool
	Err() error
}) ([]chat.StoredMessage, error) {
	messages := make([]chat.StoredMessage, 0)

	for rows.Next() {
		msg, err := scanStoredMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}

	return messages, nil
}
