package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk/support-desk/internal/api/dto"
	"github.com/helpdesk/support-desk/internal/service"
)

// TicketsHandler manages ticket endpoints for owners and admins.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	req.Sanitize()

	ticket, err := h.service.CreateTicket(c.UserContext(), caller, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.DataResponse{Success: true, Data: ticket})
}

// ListAllTickets GET /tickets (admin).
func (h *TicketsHandler) ListAllTickets(c *fiber.Ctx) error {
	tickets, err := h.service.ListAllTickets(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.ListResponse{Success: true, Count: len(tickets), Data: tickets})
}

// ListMyTickets GET /tickets/my-tickets.
func (h *TicketsHandler) ListMyTickets(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListOwnTickets(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(dto.ListResponse{Success: true, Count: len(tickets), Data: tickets})
}

// Stats GET /tickets/stats (admin).
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.DataResponse{Success: true, Data: stats})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.DataResponse{Success: true, Data: ticket})
}

// UpdateTicket PUT /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	req.Sanitize()

	ticket, err := h.service.UpdateTicket(c.UserContext(), caller, c.Params("id"), service.TicketUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.DataResponse{Success: true, Data: ticket})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.UserContext(), caller, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "Ticket deleted successfully"})
}

// AddMessage POST /tickets/:id/message.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.AddMessageRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.AddMessage(c.UserContext(), caller, c.Params("id"), dto.SanitizeText(req.Message))
	if err != nil {
		return err
	}
	return c.JSON(dto.DataResponse{Success: true, Data: ticket})
}

// GenerateResponse POST /tickets/:id/generate-response.
func (h *TicketsHandler) GenerateResponse(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GenerateResponse(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.DataResponse{Success: true, Data: ticket})
}

// CloseTicket PATCH /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.CloseTicket(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.DataResponse{Success: true, Data: ticket})
}

// ListMessages GET /messages/:ticketId.
func (h *TicketsHandler) ListMessages(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	entries, err := h.service.ListMessages(c.UserContext(), caller, c.Params("ticketId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.ListResponse{Success: true, Count: len(entries), Data: entries})
}
