package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"bilanchat/internal/app/chat"
	"bilanchat/internal/app/user"
)

// Bilan is one career-assessment engagement between a client and, once
// assigned, a consultant. Its id doubles as the conversation scope of the
// engagement's chat.
type Bilan struct {
	ID            int64      `json:"id"`
	ClientID      int64      `json:"clientId"`
	ConsultantID  *int64     `json:"consultantId"`
	Titre         *string    `json:"titre"`
	Description   *string    `json:"description"`
	Statut        string     `json:"statut"`
	DateDebut     *time.Time `json:"dateDebut"`
	DateFinPrevue *time.Time `json:"dateFinPrevue"`
	Objectifs     *string    `json:"objectifs"`
}

// Participants resolves a bilan to its two conversation participants.
// It implements chat.BilanResolver: an unknown id yields
// chat.ErrBilanNotFound and a bilan without an assigned consultant yields
// chat.ErrBilanIncomplete.
func (s *Store) Participants(ctx context.Context, bilanID int64) (int64, int64, error) {
	const query = `SELECT client_id, consultant_id FROM bilans WHERE id = $1`

	var (
		clientID     int64
		consultantID *int64
	)
	err := s.pool.QueryRow(ctx, query, bilanID).Scan(&clientID, &consultantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, chat.ErrBilanNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("resolve bilan participants: %w", err)
	}

	if consultantID == nil {
		return 0, 0, chat.ErrBilanIncomplete
	}

	return clientID, *consultantID, nil
}

// GetBilan returns one bilan by id.
func (s *Store) GetBilan(ctx context.Context, id int64) (Bilan, error) {
	const query = `
SELECT id, client_id, consultant_id, titre, description, statut,
       date_debut, date_fin_prevue, objectifs
FROM bilans
WHERE id = $1`

	var b Bilan
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.ClientID, &b.ConsultantID, &b.Titre, &b.Description, &b.Statut,
		&b.DateDebut, &b.DateFinPrevue, &b.Objectifs)
	if errors.Is(err, pgx.ErrNoRows) {
		return Bilan{}, ErrNotFound
	}
	if err != nil {
		return Bilan{}, fmt.Errorf("get bilan: %w", err)
	}

	return b, nil
}

// ListBilansForUser returns the bilans visible to a user: their own for
// clients, their assigned ones for consultants.
func (s *Store) ListBilansForUser(ctx context.Context, userID int64, role string) ([]Bilan, error) {
	const query = `
SELECT id, client_id, consultant_id, titre, description, statut,
       date_debut, date_fin_prevue, objectifs
FROM bilans
WHERE (($2 = $3 AND client_id = $1) OR ($2 = $4 AND consultant_id = $1))
ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query, userID, role, user.RoleClient, user.RoleConsultant)
	if err != nil {
		return nil, fmt.Errorf("list bilans for user: %w", err)
	}
	defer rows.Close()

	bilans := make([]Bilan, 0)
	for rows.Next() {
		var b Bilan
		err := rows.Scan(
			&b.ID, &b.ClientID, &b.ConsultantID, &b.Titre, &b.Description, &b.Statut,
			&b.DateDebut, &b.DateFinPrevue, &b.Objectifs)
		if err != nil {
			return nil, fmt.Errorf("scan bilan row: %w", err)
		}
		bilans = append(bilans, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bilan rows: %w", err)
	}

	return bilans, nil
}
