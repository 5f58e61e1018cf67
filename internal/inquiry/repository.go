package inquiry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, input Input) (Inquiry, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Inquiry{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	inq := Inquiry{
		ID:        id.String(),
		Name:      input.Name,
		Email:     input.Email,
		Subject:   input.Subject,
		Message:   input.Message,
		CreatedAt: time.Now().UTC(),
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO contact_inquiries (id, name, email, subject, message, created_at, is_resolved)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
	`, inq.ID, inq.Name, inq.Email, inq.Subject, inq.Message, inq.CreatedAt)
	if err != nil {
		return Inquiry{}, fmt.Errorf("insert inquiry: %w", err)
	}

	return inq, nil
}

func (r *Repository) List(ctx context.Context, offset, limit int) ([]Inquiry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, subject, message, created_at, is_resolved
		FROM contact_inquiries
		ORDER BY created_at DESC
		OFFSET $1
		LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query inquiries: %w", err)
	}
	defer rows.Close()

	inquiries := make([]Inquiry, 0)
	for rows.Next() {
		var inq Inquiry
		if err := rows.Scan(&inq.ID, &inq.Name, &inq.Email, &inq.Subject, &inq.Message, &inq.CreatedAt, &inq.IsResolved); err != nil {
			return nil, fmt.Errorf("scan inquiry: %w", err)
		}
		inquiries = append(inquiries, inq)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inquiries: %w", err)
	}

	return inquiries, nil
}

// Delete returns sql.ErrNoRows when no inquiry has the given id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contact_inquiries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete inquiry: %w", err)
	}

	return expectOneRow(res)
}

func (r *Repository) MarkResolved(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE contact_inquiries SET is_resolved = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("resolve inquiry: %w", err)
	}

	return expectOneRow(res)
}

func (r *Repository) DeleteResolvedBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	res, err := r.db.ExecContext(ctx, `
		WITH stale AS (
			SELECT id
			FROM contact_inquiries
			WHERE is_resolved AND created_at < $1
			ORDER BY created_at ASC
			LIMIT $2
		)
		DELETE FROM contact_inquiries t
		USING stale
		WHERE t.id = stale.id
	`, cutoff.UTC(), batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete resolved inquiries: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("resolved inquiries rows affected: %w", err)
	}

	return affected, nil
}

func expectOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
