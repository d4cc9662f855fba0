package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/helpdesk/support-desk/internal/ai"
	"github.com/helpdesk/support-desk/internal/domain"
	"github.com/helpdesk/support-desk/internal/events"
	"github.com/helpdesk/support-desk/internal/observability"
	"github.com/helpdesk/support-desk/internal/repository"
	apperrors "github.com/helpdesk/support-desk/pkg/util/errorutil"
)

var tracer = otel.Tracer("support-desk/service")

const forbiddenTicket = "Not authorized to access this ticket"

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	messages   repository.TicketMessageRepository
	policy     *ai.Policy
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.TicketMessageRepository
	Policy      *ai.Policy
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    string
	Priority    domain.TicketPriority
}

// TicketUpdateInput carries the fields a caller wants to change. Nil fields are left alone.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Category    *string
	Priority    *domain.TicketPriority
	Status      *domain.TicketStatus
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		policy:     deps.Policy,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// CreateTicket opens a ticket for the caller. The first conversation entry is
// the description; the policy outcome is appended before the single insert.
func (s *TicketService) CreateTicket(ctx context.Context, caller domain.Caller, input TicketCreateInput) (*domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "TicketService.CreateTicket")
	defer span.End()

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = domain.DefaultCategory
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}

	details := map[string]any{}
	if !domain.ValidTitle(title) {
		details["title"] = "Title is required and must be at most 100 characters"
	}
	if description == "" {
		details["description"] = "Description is required"
	}
	if !priority.Valid() {
		details["priority"] = "Invalid priority value"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("Invalid ticket", details)
	}

	first := domain.NewMessage(domain.SenderUser, description)
	outcome := s.policy.Decide(ctx, description, nil)
	s.recordOutcome(span, "create", outcome)

	status := domain.TicketStatusOpen
	if outcome.AwaitingResponse() {
		status = domain.TicketStatusAwaitingResponse
	}

	ticket := &domain.Ticket{
		Title:        title,
		Description:  description,
		Status:       status,
		Priority:     priority,
		Category:     category,
		OwnerID:      caller.UserID,
		Conversation: []domain.Message{first, outcome.Reply},
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.ActorFromCaller(caller),
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Category: ticket.Category,
			Priority: ticket.Priority,
			Status:   ticket.Status,
		},
	})
	s.publishEscalation(ctx, caller, ticket.ID, outcome)
	return ticket, nil
}

// GetTicket returns a ticket the caller owns, or any ticket for an admin.
func (s *TicketService) GetTicket(ctx context.Context, caller domain.Caller, ticketID string) (*domain.Ticket, error) {
	return s.load(ctx, caller, ticketID)
}

// ListOwnTickets returns the caller's tickets, newest first.
func (s *TicketService) ListOwnTickets(ctx context.Context, caller domain.Caller) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListAllTickets returns every ticket, newest first.
func (s *TicketService) ListAllTickets(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// AddMessage appends the caller's message and reopens a closed ticket in the
// same store operation. For customer messages the policy then runs best
// effort; a provider failure leaves the conversation without an AI entry.
func (s *TicketService) AddMessage(ctx context.Context, caller domain.Caller, ticketID, text string) (*domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "TicketService.AddMessage")
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("Message is required", nil)
	}
	current, err := s.load(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}

	sender := domain.SenderUser
	if caller.IsAdmin() {
		sender = domain.SenderAdmin
	}
	updated, err := s.tickets.AppendMessages(ctx, ticketID,
		[]domain.Message{domain.NewMessage(sender, text)},
		repository.AppendOptions{ReopenIfClosed: true})
	if err != nil {
		return nil, s.ticketError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: ticketID,
		Actor:    events.ActorFromCaller(caller),
		Payload:  events.TicketMessageAddedPayload{Sender: sender, BodyPreview: stringPreview(text, 120)},
	})
	s.publishStatusChange(ctx, caller, ticketID, current.Status, updated.Status)

	if sender == domain.SenderAdmin {
		return updated, nil
	}

	history := updated.Conversation[:len(updated.Conversation)-1]
	outcome := s.policy.Decide(ctx, text, history)
	if outcome.Fallback {
		s.recordOutcomeLabel(span, "message", observability.OutcomeSkipped)
		s.logger.Warn("ai reply skipped", zap.String("ticket_id", ticketID), zap.Error(outcome.Err))
		return updated, nil
	}
	s.recordOutcome(span, "message", outcome)

	replied, err := s.appendOutcome(ctx, ticketID, outcome)
	if err != nil {
		s.logger.Warn("ai reply not stored", zap.String("ticket_id", ticketID), zap.Error(err))
		return updated, nil
	}
	s.publishStatusChange(ctx, caller, ticketID, updated.Status, replied.Status)
	s.publishEscalation(ctx, caller, ticketID, outcome)
	return replied, nil
}

// GenerateResponse runs the policy on demand against the latest conversation
// entry. Provider failures append the fallback reply, as at creation.
func (s *TicketService) GenerateResponse(ctx context.Context, caller domain.Caller, ticketID string) (*domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "TicketService.GenerateResponse")
	defer span.End()

	ticket, err := s.load(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}
	last, ok := ticket.LastMessage()
	if !ok {
		return nil, apperrors.NewValidationError("Ticket has no messages", nil)
	}

	outcome := s.policy.Decide(ctx, last.Message, ticket.Conversation[:len(ticket.Conversation)-1])
	s.recordOutcome(span, "generate", outcome)

	updated, err := s.appendOutcome(ctx, ticketID, outcome)
	if err != nil {
		return nil, s.ticketError(err)
	}
	s.publishStatusChange(ctx, caller, ticketID, ticket.Status, updated.Status)
	s.publishEscalation(ctx, caller, ticketID, outcome)
	return updated, nil
}

// UpdateTicket applies scalar edits. Only admins may change the status.
// Enum values are checked before the ticket is loaded.
func (s *TicketService) UpdateTicket(ctx context.Context, caller domain.Caller, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	details := map[string]any{}
	if input.Title != nil && !domain.ValidTitle(strings.TrimSpace(*input.Title)) {
		details["title"] = "Title is required and must be at most 100 characters"
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) == "" {
		details["description"] = "Description is required"
	}
	if input.Priority != nil && !input.Priority.Valid() {
		details["priority"] = "Invalid priority value"
	}
	if input.Status != nil && !input.Status.Valid() {
		details["status"] = "Invalid status value"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("Invalid ticket update", details)
	}

	ticket, err := s.load(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}
	if input.Status != nil && !caller.IsAdmin() {
		return nil, apperrors.NewForbidden("Only admins can change ticket status")
	}

	patch := repository.TicketPatch{Priority: input.Priority, Status: input.Status}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		patch.Title = &title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		patch.Description = &description
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			category = domain.DefaultCategory
		}
		patch.Category = &category
	}

	updated, err := s.tickets.Update(ctx, ticketID, patch)
	if err != nil {
		return nil, s.ticketError(err)
	}
	s.publishStatusChange(ctx, caller, ticketID, ticket.Status, updated.Status)
	return updated, nil
}

// CloseTicket sets the status to closed for the owner or an admin.
func (s *TicketService) CloseTicket(ctx context.Context, caller domain.Caller, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}
	closed := domain.TicketStatusClosed
	updated, err := s.tickets.Update(ctx, ticketID, repository.TicketPatch{Status: &closed})
	if err != nil {
		return nil, s.ticketError(err)
	}
	s.publishStatusChange(ctx, caller, ticketID, ticket.Status, updated.Status)
	return updated, nil
}

// DeleteTicket removes a ticket for the owner or an admin.
func (s *TicketService) DeleteTicket(ctx context.Context, caller domain.Caller, ticketID string) error {
	if _, err := s.load(ctx, caller, ticketID); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return s.ticketError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticketID,
		Actor:    events.ActorFromCaller(caller),
	})
	return nil
}

// ListMessages returns the flat view of a ticket's conversation.
func (s *TicketService) ListMessages(ctx context.Context, caller domain.Caller, ticketID string) ([]domain.ConversationEntry, error) {
	if _, err := s.load(ctx, caller, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// Stats aggregates status counts and conversation-wide AI counters.
func (s *TicketService) Stats(ctx context.Context) (domain.TicketStats, error) {
	var (
		counts      map[domain.TicketStatus]int64
		aiReplies   int64
		escalations int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.tickets.CountByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		aiReplies, err = s.tickets.CountMessages(gctx, repository.MessageFilter{Sender: domain.SenderAI})
		return err
	})
	g.Go(func() error {
		var err error
		escalations, err = s.tickets.CountMessages(gctx, repository.MessageFilter{
			Sender: domain.SenderAdmin,
			Text:   ai.EscalationNotice,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.TicketStats{}, apperrors.MapError(err)
	}

	stats := domain.TicketStats{
		PerStatusCounts: make(map[domain.TicketStatus]int64, len(domain.TicketStatuses)),
		AIResponseCount: aiReplies,
		EscalationCount: escalations,
	}
	for _, status := range domain.TicketStatuses {
		stats.PerStatusCounts[status] = counts[status]
		stats.TotalTickets += counts[status]
	}
	return stats, nil
}

func (s *TicketService) load(ctx context.Context, caller domain.Caller, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.ticketError(err)
	}
	if !domain.CanAccessTicket(ticket, caller) {
		return nil, apperrors.NewForbidden(forbiddenTicket)
	}
	return ticket, nil
}

func (s *TicketService) appendOutcome(ctx context.Context, ticketID string, outcome ai.Outcome) (*domain.Ticket, error) {
	opts := repository.AppendOptions{}
	if outcome.AwaitingResponse() {
		awaiting := domain.TicketStatusAwaitingResponse
		opts.Status = &awaiting
	}
	return s.tickets.AppendMessages(ctx, ticketID, []domain.Message{outcome.Reply}, opts)
}

func (s *TicketService) ticketError(err error) error {
	return notFoundAs("Ticket", err)
}

func (s *TicketService) recordOutcome(span trace.Span, source string, outcome ai.Outcome) {
	label := observability.OutcomeReply
	switch {
	case outcome.Fallback:
		label = observability.OutcomeFallback
		s.logger.Warn("ai provider failed; using fallback reply", zap.String("source", source), zap.Error(outcome.Err))
	case outcome.Escalated:
		label = observability.OutcomeEscalated
	}
	s.recordOutcomeLabel(span, source, label)
}

func (s *TicketService) recordOutcomeLabel(span trace.Span, source, label string) {
	span.SetAttributes(attribute.String("ai.outcome", label))
	s.metrics.RecordAIOutcome(source, label)
}

func (s *TicketService) publishEscalation(ctx context.Context, caller domain.Caller, ticketID string, outcome ai.Outcome) {
	if !outcome.AwaitingResponse() {
		return
	}
	reason := "keyword"
	switch {
	case outcome.Fallback:
		reason = "provider_unavailable"
	case outcome.Reply.Sender == domain.SenderAI:
		reason = "assistant_handoff"
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketEscalated,
		TicketID: ticketID,
		Actor:    events.ActorFromCaller(caller),
		Payload:  events.TicketEscalatedPayload{Reason: reason, Fallback: outcome.Fallback},
	})
}

func (s *TicketService) publishStatusChange(ctx context.Context, caller domain.Caller, ticketID string, from, to domain.TicketStatus) {
	if from == to {
		return
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticketID,
		Actor:    events.ActorFromCaller(caller),
		Payload:  events.TicketStatusChangedPayload{OldStatus: from, NewStatus: to},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, s.metrics, s.logger, event)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	// Events may be handled after the request returns; detach the id from
	// any caller-owned buffer.
	event.TicketID = strings.Clone(event.TicketID)
	metrics.RecordTicketEvent(string(event.Type))
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
