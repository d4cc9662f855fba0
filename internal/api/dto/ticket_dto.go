package dto

import (
	"github.com/helpdesk/support-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title" validate:"required,max=100"`
	Description string                `json:"description" validate:"required"`
	Category    string                `json:"category" validate:"max=50"`
	Priority    domain.TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
}

// Sanitize strips markup from free-text fields.
func (r *CreateTicketRequest) Sanitize() {
	r.Title = SanitizeText(r.Title)
	r.Description = SanitizeText(r.Description)
	r.Category = SanitizeText(r.Category)
}

// UpdateTicketRequest payload. Enum values are checked by the service so an
// invalid status and an unauthorized status change report distinct errors.
type UpdateTicketRequest struct {
	Title       *string                `json:"title" validate:"omitempty,max=100"`
	Description *string                `json:"description"`
	Category    *string                `json:"category" validate:"omitempty,max=50"`
	Priority    *domain.TicketPriority `json:"priority"`
	Status      *domain.TicketStatus   `json:"status"`
}

// Sanitize strips markup from free-text fields.
func (r *UpdateTicketRequest) Sanitize() {
	r.Title = SanitizePtr(r.Title)
	r.Description = SanitizePtr(r.Description)
	r.Category = SanitizePtr(r.Category)
}

// AddMessageRequest payload.
type AddMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

// ListResponse wraps a collection with its size.
type ListResponse struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Data    interface{} `json:"data"`
}

// DataResponse wraps a single payload.
type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
