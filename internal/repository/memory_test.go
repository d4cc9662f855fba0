package repository

import (
	"context"
	"sync"
	"testing"
	"unsafe"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk/support-desk/internal/domain"
)

func newTicket(t *testing.T, repo TicketRepository, owner string) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		Title:        "VPN drops",
		Description:  "every hour",
		Status:       domain.TicketStatusOpen,
		Priority:     domain.TicketPriorityMedium,
		Category:     domain.DefaultCategory,
		OwnerID:      owner,
		Conversation: []domain.Message{domain.NewMessage(domain.SenderUser, "every hour")},
	}
	require.NoError(t, repo.Create(context.Background(), ticket))
	return ticket
}

func TestMemoryUsersRejectDuplicateEmail(t *testing.T) {
	users := NewMemoryStore().Users()
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &domain.User{Name: "A", Email: "a@example.com", Role: domain.RoleUser}))
	err := users.Create(ctx, &domain.User{Name: "B", Email: "A@example.com", Role: domain.RoleUser})
	assert.ErrorIs(t, err, ErrEmailTaken)

	count, err := users.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMemoryMissesReportNoRows(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Users().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	_, err = store.Users().UpdateRole(ctx, "missing", domain.RoleAdmin)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	_, err = store.Tickets().Update(ctx, "missing", TicketPatch{})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	_, err = store.Tickets().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.ErrorIs(t, store.Tickets().Delete(ctx, "missing"), pgx.ErrNoRows)
	_, err = store.Tickets().AppendMessages(ctx, "missing", nil, AppendOptions{})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestMemoryAppendReopensClosedTicket(t *testing.T) {
	tickets := NewMemoryStore().Tickets()
	ctx := context.Background()
	ticket := newTicket(t, tickets, "owner")

	closed := domain.TicketStatusClosed
	_, err := tickets.Update(ctx, ticket.ID, TicketPatch{Status: &closed})
	require.NoError(t, err)

	updated, err := tickets.AppendMessages(ctx, ticket.ID,
		[]domain.Message{domain.NewMessage(domain.SenderUser, "still broken")},
		AppendOptions{ReopenIfClosed: true})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, updated.Status)
	assert.Len(t, updated.Conversation, 2)
}

func TestMemoryAppendExplicitStatusWins(t *testing.T) {
	tickets := NewMemoryStore().Tickets()
	ctx := context.Background()
	ticket := newTicket(t, tickets, "owner")
	awaiting := domain.TicketStatusAwaitingResponse

	updated, err := tickets.AppendMessages(ctx, ticket.ID,
		[]domain.Message{domain.NewMessage(domain.SenderAdmin, "escalated")},
		AppendOptions{ReopenIfClosed: true, Status: &awaiting})
	require.NoError(t, err)
	assert.Equal(t, awaiting, updated.Status)
}

func TestMemoryConcurrentAppendsAllPersist(t *testing.T) {
	tickets := NewMemoryStore().Tickets()
	ctx := context.Background()
	ticket := newTicket(t, tickets, "owner")

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tickets.AppendMessages(ctx, ticket.ID,
				[]domain.Message{domain.NewMessage(domain.SenderUser, "ping")}, AppendOptions{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Conversation, writers+1)
}

func TestMemoryUpdateLeavesConversationAlone(t *testing.T) {
	tickets := NewMemoryStore().Tickets()
	ctx := context.Background()
	ticket := newTicket(t, tickets, "owner")

	awaiting := domain.TicketStatusAwaitingResponse
	_, err := tickets.AppendMessages(ctx, ticket.ID,
		[]domain.Message{domain.NewMessage(domain.SenderAdmin, "escalated")},
		AppendOptions{Status: &awaiting})
	require.NoError(t, err)

	title := "VPN drops hourly"
	updated, err := tickets.Update(ctx, ticket.ID, TicketPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, awaiting, updated.Status)

	stored, err := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "VPN drops hourly", stored.Title)
	assert.Equal(t, awaiting, stored.Status)
	assert.Equal(t, domain.TicketPriorityMedium, stored.Priority)
	assert.Len(t, stored.Conversation, 2)
}

func TestMemoryKeysSurviveCallerBufferReuse(t *testing.T) {
	tickets := NewMemoryStore().Tickets()
	ctx := context.Background()
	ticket := newTicket(t, tickets, "owner")

	buf := []byte(ticket.ID)
	aliased := unsafe.String(&buf[0], len(buf))
	_, err := tickets.AppendMessages(ctx, aliased,
		[]domain.Message{domain.NewMessage(domain.SenderUser, "hello")}, AppendOptions{})
	require.NoError(t, err)
	title := "renamed"
	_, err = tickets.Update(ctx, aliased, TicketPatch{Title: &title})
	require.NoError(t, err)

	for i := range buf {
		buf[i] = 'x'
	}

	stored, err := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Conversation, 2)
	assert.Equal(t, "renamed", stored.Title)
}

func TestMemoryReadsAreCopies(t *testing.T) {
	tickets := NewMemoryStore().Tickets()
	ctx := context.Background()
	ticket := newTicket(t, tickets, "owner")

	read, err := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	read.Conversation[0].Message = "tampered"
	read.Status = domain.TicketStatusResolved

	again, err := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "every hour", again.Conversation[0].Message)
	assert.Equal(t, domain.TicketStatusOpen, again.Status)
}

func TestMemoryCounts(t *testing.T) {
	store := NewMemoryStore()
	tickets := store.Tickets()
	ctx := context.Background()

	first := newTicket(t, tickets, "a")
	newTicket(t, tickets, "b")
	awaiting := domain.TicketStatusAwaitingResponse
	_, err := tickets.AppendMessages(ctx, first.ID, []domain.Message{
		domain.NewMessage(domain.SenderAI, "hello"),
		domain.NewMessage(domain.SenderAdmin, "notice"),
	}, AppendOptions{Status: &awaiting})
	require.NoError(t, err)

	counts, err := tickets.CountByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[domain.TicketStatusOpen])
	assert.EqualValues(t, 1, counts[domain.TicketStatusAwaitingResponse])

	ai, err := tickets.CountMessages(ctx, MessageFilter{Sender: domain.SenderAI})
	require.NoError(t, err)
	assert.EqualValues(t, 1, ai)

	notices, err := tickets.CountMessages(ctx, MessageFilter{Sender: domain.SenderAdmin, Text: "notice"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, notices)

	entries, err := store.Messages().ListByTicket(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 2, entries[2].Position)
	assert.Equal(t, first.ID, entries[2].TicketID)
}

func TestMemoryFeedbackNewestFirst(t *testing.T) {
	feedback := NewMemoryStore().Feedback()
	ctx := context.Background()

	require.NoError(t, feedback.Create(ctx, &domain.AIFeedback{UserID: "u", MessageID: "m1", Rating: 4}))
	require.NoError(t, feedback.Create(ctx, &domain.AIFeedback{UserID: "u", MessageID: "m2", Rating: 2}))
	require.NoError(t, feedback.Create(ctx, &domain.AIFeedback{UserID: "other", MessageID: "m3", Rating: 5}))

	list, err := feedback.ListByUser(ctx, "u")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "m2", list[0].MessageID)
}
