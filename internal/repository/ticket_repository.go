package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdesk/support-desk/internal/domain"
)

// AppendOptions tune the status side effect applied together with an append.
type AppendOptions struct {
	// ReopenIfClosed moves a closed ticket back to open.
	ReopenIfClosed bool
	// Status, when set, overrides the status after the append.
	Status *domain.TicketStatus
}

// TicketPatch lists the scalar columns to change. Nil fields keep the stored
// value, so a patch never writes back a status it did not mean to set.
type TicketPatch struct {
	Title       *string
	Description *string
	Category    *string
	Priority    *domain.TicketPriority
	Status      *domain.TicketStatus
}

// MessageFilter narrows conversation entry counts. Empty fields match everything.
type MessageFilter struct {
	Sender domain.Sender
	Text   string
}

// TicketRepository encapsulates ticket persistence. Conversation entries are only
// ever added through AppendMessages, which must be atomic per ticket.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, id string, patch TicketPatch) (*domain.Ticket, error)
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.Ticket, error)
	AppendMessages(ctx context.Context, id string, messages []domain.Message, opts AppendOptions) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[domain.TicketStatus]int64, error)
	CountMessages(ctx context.Context, filter MessageFilter) (int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id::text, title, description, status, priority, category, user_id::text, conversation, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, title, description, status, priority, category, user_id, conversation)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8::jsonb)
        RETURNING created_at, updated_at`

	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	conversation, err := encodeConversation(ticket.Conversation)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.OwnerID,
		conversation,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
}

// Update applies patch in one statement; the conversation column is never rewritten here.
func (r *ticketRepository) Update(ctx context.Context, id string, patch TicketPatch) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET
            title = COALESCE($2::text, title),
            description = COALESCE($3::text, description),
            category = COALESCE($4::text, category),
            priority = COALESCE($5::text, priority),
            status = COALESCE($6::text, status),
            updated_at = NOW()
        WHERE id=$1
        RETURNING ` + ticketColumns

	if !isUUID(id) {
		return nil, pgx.ErrNoRows
	}
	var priority, status *string
	if patch.Priority != nil {
		v := string(*patch.Priority)
		priority = &v
	}
	if patch.Status != nil {
		v := string(*patch.Status)
		status = &v
	}
	return scanTicket(r.pool.QueryRow(ctx, query, id, patch.Title, patch.Description, patch.Category, priority, status))
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`

	if !isUUID(id) {
		return nil, pgx.ErrNoRows
	}
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE user_id=$1 ORDER BY created_at DESC`

	if !isUUID(ownerID) {
		return []domain.Ticket{}, nil
	}
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// AppendMessages concatenates onto the stored array in a single statement, so
// concurrent writers never overwrite each other's entries.
func (r *ticketRepository) AppendMessages(ctx context.Context, id string, messages []domain.Message, opts AppendOptions) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET
            conversation = conversation || $2::jsonb,
            status = CASE
                WHEN $3::text <> '' THEN $3::text
                WHEN $4::bool AND status = 'closed' THEN 'open'
                ELSE status END,
            updated_at = NOW()
        WHERE id=$1
        RETURNING ` + ticketColumns

	if !isUUID(id) {
		return nil, pgx.ErrNoRows
	}
	payload, err := encodeConversation(messages)
	if err != nil {
		return nil, err
	}
	status := ""
	if opts.Status != nil {
		status = string(*opts.Status)
	}
	return scanTicket(r.pool.QueryRow(ctx, query, id, payload, status, opts.ReopenIfClosed))
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return pgx.ErrNoRows
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) CountByStatus(ctx context.Context) (map[domain.TicketStatus]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int64, len(domain.TicketStatuses))
	for rows.Next() {
		var status domain.TicketStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) CountMessages(ctx context.Context, filter MessageFilter) (int64, error) {
	const query = `
        SELECT COUNT(*)
        FROM tickets t, jsonb_array_elements(t.conversation) AS entry
        WHERE ($1 = '' OR entry->>'sender' = $1)
          AND ($2 = '' OR entry->>'message' = $2)`

	var count int64
	err := r.pool.QueryRow(ctx, query, string(filter.Sender), filter.Text).Scan(&count)
	return count, err
}

func encodeConversation(messages []domain.Message) (string, error) {
	if messages == nil {
		messages = []domain.Message{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("encode conversation: %w", err)
	}
	return string(raw), nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var conversation []byte
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Category,
		&ticket.OwnerID,
		&conversation,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(conversation, &ticket.Conversation); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
