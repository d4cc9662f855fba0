package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk/support-desk/internal/domain"
)

// MemoryStore is a process-local backend used when no Postgres DSN is configured
// and in tests. A single mutex guards every collection, so each call is atomic.
// Misses are reported with pgx.ErrNoRows to match the Postgres repositories.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	tickets  map[string]domain.Ticket
	feedback []domain.AIFeedback
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]domain.User),
		tickets: make(map[string]domain.Ticket),
	}
}

// Users returns the user repository view of the store.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Tickets returns the ticket repository view of the store.
func (s *MemoryStore) Tickets() TicketRepository { return memoryTickets{s} }

// Messages returns the flat message view of the store.
func (s *MemoryStore) Messages() TicketMessageRepository { return memoryMessages{s} }

// Feedback returns the feedback repository view of the store.
func (s *MemoryStore) Feedback() FeedbackRepository { return memoryFeedback{s} }

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, existing := range m.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrEmailTaken
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	m.s.users[user.ID] = *user
	return nil
}

func (m memoryUsers) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	user, ok := m.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	m.s.users[user.ID] = user
	return &user, nil
}

func (m memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	user, ok := m.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (m memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, user := range m.s.users {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m memoryUsers) List(_ context.Context) ([]domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	result := make([]domain.User, 0, len(m.s.users))
	for _, user := range m.s.users {
		result = append(result, user)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m memoryUsers) Count(_ context.Context) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return int64(len(m.s.users)), nil
}

type memoryTickets struct{ s *MemoryStore }

func (m memoryTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	ticket.CreatedAt, ticket.UpdatedAt = now, now
	m.s.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (m memoryTickets) Update(_ context.Context, id string, patch TicketPatch) (*domain.Ticket, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if patch.Title != nil {
		stored.Title = *patch.Title
	}
	if patch.Description != nil {
		stored.Description = *patch.Description
	}
	if patch.Category != nil {
		stored.Category = *patch.Category
	}
	if patch.Priority != nil {
		stored.Priority = *patch.Priority
	}
	if patch.Status != nil {
		stored.Status = *patch.Status
	}
	stored.UpdatedAt = time.Now().UTC()
	m.s.tickets[stored.ID] = stored

	clone := cloneTicket(stored)
	return &clone, nil
}

func (m memoryTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	ticket, ok := m.s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := cloneTicket(ticket)
	return &clone, nil
}

func (m memoryTickets) ListByOwner(_ context.Context, ownerID string) ([]domain.Ticket, error) {
	return m.list(func(t domain.Ticket) bool { return t.OwnerID == ownerID }), nil
}

func (m memoryTickets) ListAll(_ context.Context) ([]domain.Ticket, error) {
	return m.list(func(domain.Ticket) bool { return true }), nil
}

func (m memoryTickets) list(keep func(domain.Ticket) bool) []domain.Ticket {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	result := []domain.Ticket{}
	for _, ticket := range m.s.tickets {
		if keep(ticket) {
			result = append(result, cloneTicket(ticket))
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

func (m memoryTickets) AppendMessages(_ context.Context, id string, messages []domain.Message, opts AppendOptions) (*domain.Ticket, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	ticket, ok := m.s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket.Conversation = append(append([]domain.Message{}, ticket.Conversation...), messages...)
	switch {
	case opts.Status != nil:
		ticket.Status = *opts.Status
	case opts.ReopenIfClosed && ticket.Status == domain.TicketStatusClosed:
		ticket.Status = domain.TicketStatusOpen
	}
	ticket.UpdatedAt = time.Now().UTC()
	m.s.tickets[ticket.ID] = ticket

	clone := cloneTicket(ticket)
	return &clone, nil
}

func (m memoryTickets) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.s.tickets, id)
	return nil
}

func (m memoryTickets) CountByStatus(_ context.Context) (map[domain.TicketStatus]int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	counts := make(map[domain.TicketStatus]int64, len(domain.TicketStatuses))
	for _, ticket := range m.s.tickets {
		counts[ticket.Status]++
	}
	return counts, nil
}

func (m memoryTickets) CountMessages(_ context.Context, filter MessageFilter) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var count int64
	for _, ticket := range m.s.tickets {
		for _, msg := range ticket.Conversation {
			if filter.Sender != "" && msg.Sender != filter.Sender {
				continue
			}
			if filter.Text != "" && msg.Message != filter.Text {
				continue
			}
			count++
		}
	}
	return count, nil
}

type memoryMessages struct{ s *MemoryStore }

func (m memoryMessages) ListByTicket(_ context.Context, ticketID string) ([]domain.ConversationEntry, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	ticket, ok := m.s.tickets[ticketID]
	if !ok {
		return []domain.ConversationEntry{}, nil
	}
	return domain.FlattenConversation(&ticket), nil
}

type memoryFeedback struct{ s *MemoryStore }

func (m memoryFeedback) Create(_ context.Context, feedback *domain.AIFeedback) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	feedback.CreatedAt = time.Now().UTC()
	m.s.feedback = append(m.s.feedback, *feedback)
	return nil
}

func (m memoryFeedback) ListByUser(_ context.Context, userID string) ([]domain.AIFeedback, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	result := []domain.AIFeedback{}
	for i := len(m.s.feedback) - 1; i >= 0; i-- {
		if m.s.feedback[i].UserID == userID {
			result = append(result, m.s.feedback[i])
		}
	}
	return result, nil
}

func cloneTicket(ticket domain.Ticket) domain.Ticket {
	ticket.Conversation = append([]domain.Message(nil), ticket.Conversation...)
	if ticket.Conversation == nil {
		ticket.Conversation = []domain.Message{}
	}
	return ticket
}
