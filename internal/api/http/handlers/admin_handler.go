package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk/support-desk/internal/api/dto"
	"github.com/helpdesk/support-desk/internal/service"
)

// AdminHandler serves the admin console.
type AdminHandler struct {
	service *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{service: adminService}
}

// ListTickets GET /admin/tickets.
func (h *AdminHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.service.ListTickets(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.AdminTicketsResponse{Success: true, Count: len(tickets), Tickets: tickets})
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.AdminUsersResponse{Success: true, Count: len(users), Users: users})
}

// Stats GET /admin/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.AdminStatsResponse{Success: true, AdminStats: stats})
}

// UpdateTicketStatus PATCH /admin/tickets/:id/status.
func (h *AdminHandler) UpdateTicketStatus(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.UpdateTicketStatus(c.UserContext(), caller, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(dto.AdminTicketResponse{Success: true, Message: "Ticket status updated successfully", Ticket: ticket})
}

// DeleteTicket DELETE /admin/tickets/:id.
func (h *AdminHandler) DeleteTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.UserContext(), caller, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "Ticket deleted successfully"})
}

// UpdateUserRole PATCH /admin/users/:id/role.
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateRoleRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	user, err := h.service.UpdateUserRole(c.UserContext(), caller, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(dto.AdminUserResponse{Success: true, Message: "User role updated successfully", User: user})
}
