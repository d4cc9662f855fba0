package domain

import (
	"time"
	"unicode/utf8"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen             TicketStatus = "open"
	TicketStatusAwaitingResponse TicketStatus = "awaiting_response"
	TicketStatusInProgress       TicketStatus = "in-progress"
	TicketStatusResolved         TicketStatus = "resolved"
	TicketStatusClosed           TicketStatus = "closed"
)

// TicketStatuses lists every status in dashboard order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusAwaitingResponse,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether s is a declared status.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// Valid reports whether p is a declared priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

const (
	DefaultCategory = "general"
	MaxTitleLength  = 100
)

// Sender tags who wrote a conversation entry.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAI    Sender = "ai"
	SenderAdmin Sender = "admin"
)

// Valid reports whether s is a declared sender tag.
func (s Sender) Valid() bool {
	switch s {
	case SenderUser, SenderAI, SenderAdmin:
		return true
	}
	return false
}

// Message is one immutable entry of a ticket conversation.
type Message struct {
	Sender  Sender    `json:"sender"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sentAt"`
}

// NewMessage stamps a conversation entry with the current time.
func NewMessage(sender Sender, text string) Message {
	return Message{Sender: sender, Message: text, SentAt: time.Now().UTC()}
}

// Ticket is the aggregate for support requests. Conversation is append-only.
type Ticket struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Status       TicketStatus   `json:"status"`
	Priority     TicketPriority `json:"priority"`
	Category     string         `json:"category"`
	OwnerID      string         `json:"user"`
	Conversation []Message      `json:"conversation"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// LastMessage returns the newest conversation entry.
func (t *Ticket) LastMessage() (Message, bool) {
	if t == nil || len(t.Conversation) == 0 {
		return Message{}, false
	}
	return t.Conversation[len(t.Conversation)-1], true
}

// CanAccessTicket is the single per-ticket authorization rule: the owner or any admin.
func CanAccessTicket(ticket *Ticket, caller Caller) bool {
	if ticket == nil {
		return false
	}
	return caller.IsAdmin() || (caller.UserID != "" && ticket.OwnerID == caller.UserID)
}

// ValidTitle reports whether title is non-empty and within the length limit.
func ValidTitle(title string) bool {
	n := utf8.RuneCountInString(title)
	return n > 0 && n <= MaxTitleLength
}

// TicketStats is the per-desk rollup exposed on /tickets/stats.
type TicketStats struct {
	TotalTickets    int64                  `json:"totalTickets"`
	PerStatusCounts map[TicketStatus]int64 `json:"perStatusCounts"`
	AIResponseCount int64                  `json:"aiResponseCount"`
	EscalationCount int64                  `json:"escalationCount"`
}

// AdminStats is the simplified dashboard taxonomy; awaiting_response folds into in-progress.
type AdminStats struct {
	TotalTickets      int64 `json:"totalTickets"`
	TotalUsers        int64 `json:"totalUsers"`
	OpenTickets       int64 `json:"openTickets"`
	InProgressTickets int64 `json:"inProgressTickets"`
	ResolvedTickets   int64 `json:"resolvedTickets"`
	ClosedTickets     int64 `json:"closedTickets"`
}

// NewAdminStats folds raw status counts into the dashboard buckets.
func NewAdminStats(counts map[TicketStatus]int64, totalUsers int64) AdminStats {
	stats := AdminStats{TotalUsers: totalUsers}
	for status, count := range counts {
		stats.TotalTickets += count
		switch status {
		case TicketStatusOpen:
			stats.OpenTickets += count
		case TicketStatusInProgress, TicketStatusAwaitingResponse:
			stats.InProgressTickets += count
		case TicketStatusResolved:
			stats.ResolvedTickets += count
		case TicketStatusClosed:
			stats.ClosedTickets += count
		}
	}
	return stats
}
