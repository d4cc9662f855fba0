package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanAccessTicket(t *testing.T) {
	ticket := &Ticket{ID: "t1", OwnerID: "owner"}

	assert.True(t, CanAccessTicket(ticket, Caller{UserID: "owner", Role: RoleUser}))
	assert.True(t, CanAccessTicket(ticket, Caller{UserID: "root", Role: RoleAdmin}))
	assert.False(t, CanAccessTicket(ticket, Caller{UserID: "other", Role: RoleUser}))
	assert.False(t, CanAccessTicket(ticket, Caller{UserID: "mod", Role: RoleModerator}))
	assert.False(t, CanAccessTicket(&Ticket{OwnerID: ""}, Caller{}))
	assert.False(t, CanAccessTicket(nil, Caller{UserID: "root", Role: RoleAdmin}))
}

func TestEnumValidation(t *testing.T) {
	for _, s := range TicketStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, TicketStatus("pending").Valid())
	assert.False(t, TicketStatus("OPEN").Valid())

	assert.True(t, TicketPriorityHigh.Valid())
	assert.False(t, TicketPriority("urgent").Valid())

	assert.True(t, RoleModerator.Valid())
	assert.False(t, Role("superuser").Valid())

	assert.True(t, SenderAI.Valid())
	assert.False(t, Sender("system").Valid())
}

func TestValidTitle(t *testing.T) {
	assert.True(t, ValidTitle("Printer on fire"))
	assert.True(t, ValidTitle(strings.Repeat("é", MaxTitleLength)))
	assert.False(t, ValidTitle(strings.Repeat("a", MaxTitleLength+1)))
	assert.False(t, ValidTitle(""))
}

func TestNewAdminStatsMergesAwaitingIntoInProgress(t *testing.T) {
	stats := NewAdminStats(map[TicketStatus]int64{
		TicketStatusOpen:             3,
		TicketStatusAwaitingResponse: 2,
		TicketStatusInProgress:       1,
		TicketStatusResolved:         4,
		TicketStatusClosed:           5,
	}, 7)

	assert.Equal(t, AdminStats{
		TotalTickets:      15,
		TotalUsers:        7,
		OpenTickets:       3,
		InProgressTickets: 3,
		ResolvedTickets:   4,
		ClosedTickets:     5,
	}, stats)
}

func TestUserJSONOmitsPasswordHash(t *testing.T) {
	raw, err := json.Marshal(User{ID: "u1", Name: "Ada", Email: "ada@example.com", PasswordHash: "$2a$12$secret", Role: RoleUser})
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, strings.ToLower(string(raw)), "password")
}
