package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdesk/support-desk/internal/domain"
)

// FeedbackRepository stores ratings of assistant chat replies.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.AIFeedback) error
	ListByUser(ctx context.Context, userID string) ([]domain.AIFeedback, error)
}

type feedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository returns a Postgres-backed implementation.
func NewFeedbackRepository(pool *pgxpool.Pool) FeedbackRepository {
	return &feedbackRepository{pool: pool}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *domain.AIFeedback) error {
	const query = `
        INSERT INTO ai_feedback (id, user_id, message_id, rating, comment)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at`

	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	return r.pool.QueryRow(ctx, query,
		feedback.ID,
		feedback.UserID,
		feedback.MessageID,
		feedback.Rating,
		feedback.Comment,
	).Scan(&feedback.CreatedAt)
}

func (r *feedbackRepository) ListByUser(ctx context.Context, userID string) ([]domain.AIFeedback, error) {
	const query = `
        SELECT id::text, user_id::text, message_id, rating, comment, created_at
        FROM ai_feedback WHERE user_id=$1 ORDER BY created_at DESC`

	if !isUUID(userID) {
		return []domain.AIFeedback{}, nil
	}
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.AIFeedback{}
	for rows.Next() {
		var fb domain.AIFeedback
		if err := rows.Scan(&fb.ID, &fb.UserID, &fb.MessageID, &fb.Rating, &fb.Comment, &fb.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, fb)
	}
	return result, rows.Err()
}
