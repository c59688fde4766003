package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumen-shop/storefront-service/internal/domain"
)

// ContactRepository stores messages from the contact form.
type ContactRepository interface {
	Create(ctx context.Context, msg *domain.ContactMessage) error
	List(ctx context.Context, limit, offset int) ([]domain.ContactMessage, error)
}

type contactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository returns a Postgres-backed implementation.
func NewContactRepository(pool *pgxpool.Pool) ContactRepository {
	return &contactRepository{pool: pool}
}

func (r *contactRepository) Create(ctx context.Context, msg *domain.ContactMessage) error {
	const query = `
        INSERT INTO contact_messages (name, email, subject, message, user_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		msg.Name,
		msg.Email,
		msg.Subject,
		msg.Message,
		msg.UserID,
	).Scan(&msg.ID, &msg.CreatedAt)
	return translate(err)
}

func (r *contactRepository) List(ctx context.Context, limit, offset int) ([]domain.ContactMessage, error) {
	const query = `
        SELECT id, name, email, subject, message, user_id, created_at
        FROM contact_messages
        ORDER BY created_at DESC, id DESC
        LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	messages := make([]domain.ContactMessage, 0)
	for rows.Next() {
		var m domain.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.UserID, &m.CreatedAt); err != nil {
			return nil, translate(err)
		}
		messages = append(messages, m)
	}
	return messages, translate(rows.Err())
}
