package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Note is a free-text annotation attached to a trade time.
type Note struct {
	ID        int64     `json:"id"`
	TradeTime time.Time `json:"trade_time"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaveNote inserts a note and returns its id.
func (r *Repository) SaveNote(ctx context.Context, tradeTime time.Time, text string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO trade_notes (trade_time, note) VALUES ($1, $2) RETURNING id`,
		tradeTime, text).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save note: %w", err)
	}
	return id, nil
}

// UpdateNote rewrites an existing note.
func (r *Repository) UpdateNote(ctx context.Context, id int64, text string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE trade_notes SET note = $2, updated_at = now() WHERE id = $1`, id, text)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("note %d not found", id)
	}
	return nil
}

// DeleteNote removes a note.
func (r *Repository) DeleteNote(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM trade_notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("note %d not found", id)
	}
	return nil
}

// ListNotes returns notes in a time range, oldest first.
func (r *Repository) ListNotes(ctx context.Context, from, to time.Time) ([]Note, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, trade_time, note, created_at, updated_at
		FROM trade_notes
		WHERE trade_time >= $1 AND trade_time <= $2
		ORDER BY trade_time, id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.TradeTime, &n.Note, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// GetNote fetches a single note.
func (r *Repository) GetNote(ctx context.Context, id int64) (*Note, error) {
	var n Note
	err := r.pool.QueryRow(ctx, `
		SELECT id, trade_time, note, created_at, updated_at
		FROM trade_notes WHERE id = $1`, id).
		Scan(&n.ID, &n.TradeTime, &n.Note, &n.CreatedAt, &n.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("note %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return &n, nil
}
