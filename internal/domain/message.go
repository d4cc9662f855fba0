package domain

import "time"

// ConversationEntry is the flat, queryable projection of one embedded message.
type ConversationEntry struct {
	TicketID string    `json:"ticketId"`
	Position int       `json:"position"`
	Sender   Sender    `json:"sender"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sentAt"`
}

// FlattenConversation projects a ticket's conversation into entries in chronological order.
func FlattenConversation(ticket *Ticket) []ConversationEntry {
	if ticket == nil {
		return nil
	}
	entries := make([]ConversationEntry, 0, len(ticket.Conversation))
	for i, msg := range ticket.Conversation {
		entries = append(entries, ConversationEntry{
			TicketID: ticket.ID,
			Position: i,
			Sender:   msg.Sender,
			Message:  msg.Message,
			SentAt:   msg.SentAt,
		})
	}
	return entries
}
