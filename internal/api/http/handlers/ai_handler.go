package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk/support-desk/internal/api/dto"
	"github.com/helpdesk/support-desk/internal/service"
)

// AIHandler serves the ticket-less assistant endpoints.
type AIHandler struct {
	service *service.AssistantService
}

// NewAIHandler constructs handler.
func NewAIHandler(assistant *service.AssistantService) *AIHandler {
	return &AIHandler{service: assistant}
}

// Chat POST /ai/chat.
func (h *AIHandler) Chat(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.ChatRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	reply, err := h.service.Chat(c.UserContext(), caller, dto.SanitizeText(req.Message), req.History())
	if err != nil {
		return err
	}
	return c.JSON(dto.DataResponse{Success: true, Data: reply})
}

// Suggestions GET /ai/suggestions.
func (h *AIHandler) Suggestions(c *fiber.Ctx) error {
	return c.JSON(dto.DataResponse{Success: true, Data: fiber.Map{"suggestions": h.service.Suggestions()}})
}

// Feedback POST /ai/feedback.
func (h *AIHandler) Feedback(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.FeedbackRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	if _, err := h.service.SubmitFeedback(c.UserContext(), caller, req.MessageID, req.Rating, dto.SanitizeText(req.Feedback)); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "Feedback received successfully"})
}

// Status GET /ai/status.
func (h *AIHandler) Status(c *fiber.Ctx) error {
	return c.JSON(dto.DataResponse{Success: true, Data: h.service.Status()})
}
