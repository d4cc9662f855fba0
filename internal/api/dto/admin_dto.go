package dto

import (
	"github.com/helpdesk/support-desk/internal/domain"
	"github.com/helpdesk/support-desk/internal/service"
)

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// UpdateRoleRequest payload.
type UpdateRoleRequest struct {
	Role domain.Role `json:"role"`
}

// AdminTicketsResponse lists tickets joined with owner names.
type AdminTicketsResponse struct {
	Success bool                  `json:"success"`
	Count   int                   `json:"count"`
	Tickets []service.AdminTicket `json:"tickets"`
}

// AdminUsersResponse lists accounts.
type AdminUsersResponse struct {
	Success bool          `json:"success"`
	Count   int           `json:"count"`
	Users   []domain.User `json:"users"`
}

// AdminStatsResponse flattens the dashboard counters next to the success flag.
type AdminStatsResponse struct {
	Success bool `json:"success"`
	domain.AdminStats
}

// AdminTicketResponse returns one updated ticket.
type AdminTicketResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Ticket  *service.AdminTicket `json:"ticket"`
}

// AdminUserResponse returns one updated account.
type AdminUserResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}
