package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdesk/support-desk/internal/domain"
)

// TicketMessageRepository serves the flat message view. It reads through the
// embedded conversation and has no write path of its own.
type TicketMessageRepository interface {
	ListByTicket(ctx context.Context, ticketID string) ([]domain.ConversationEntry, error)
}

type ticketMessageRepository struct {
	pool *pgxpool.Pool
}

// NewTicketMessageRepository builds repository.
func NewTicketMessageRepository(pool *pgxpool.Pool) TicketMessageRepository {
	return &ticketMessageRepository{pool: pool}
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.ConversationEntry, error) {
	const query = `
        SELECT t.id::text, entry.position - 1, entry.value->>'sender', entry.value->>'message',
               (entry.value->>'sentAt')::timestamptz
        FROM tickets t
        CROSS JOIN LATERAL jsonb_array_elements(t.conversation) WITH ORDINALITY AS entry(value, position)
        WHERE t.id=$1
        ORDER BY entry.position ASC`

	if !isUUID(ticketID) {
		return []domain.ConversationEntry{}, nil
	}
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.ConversationEntry{}
	for rows.Next() {
		var entry domain.ConversationEntry
		if err := rows.Scan(
			&entry.TicketID,
			&entry.Position,
			&entry.Sender,
			&entry.Message,
			&entry.SentAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

