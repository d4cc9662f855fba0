package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/helpdesk/support-desk/internal/domain"
	"github.com/helpdesk/support-desk/internal/events"
	"github.com/helpdesk/support-desk/internal/observability"
	"github.com/helpdesk/support-desk/internal/repository"
	apperrors "github.com/helpdesk/support-desk/pkg/util/errorutil"
)

// UnknownUserName labels tickets whose owner no longer exists.
const UnknownUserName = "Unknown User"

// AdminTicket is a ticket joined with its owner's display name.
type AdminTicket struct {
	domain.Ticket
	UserName string `json:"userName"`
}

// AdminService backs the admin console.
type AdminService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// AdminDependencies bundles collaborators for the admin service.
type AdminDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewAdminService constructs the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// ListTickets returns every ticket with the owner's name, newest first.
func (s *AdminService) ListTickets(ctx context.Context) ([]AdminTicket, error) {
	ctx, span := tracer.Start(ctx, "AdminService.ListTickets")
	defer span.End()

	var (
		tickets []domain.Ticket
		users   []domain.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tickets, err = s.tickets.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.users.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.MapError(err)
	}

	names := make(map[string]string, len(users))
	for _, user := range users {
		names[user.ID] = user.Name
	}
	result := make([]AdminTicket, 0, len(tickets))
	for _, ticket := range tickets {
		name, ok := names[ticket.OwnerID]
		if !ok {
			name = UnknownUserName
		}
		result = append(result, AdminTicket{Ticket: ticket, UserName: name})
	}
	return result, nil
}

// ListUsers returns every account, newest first.
func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Stats computes the dashboard counters. The status grouping and the user
// count run concurrently.
func (s *AdminService) Stats(ctx context.Context) (domain.AdminStats, error) {
	var (
		counts     map[domain.TicketStatus]int64
		totalUsers int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.tickets.CountByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		totalUsers, err = s.users.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.AdminStats{}, apperrors.MapError(err)
	}
	return domain.NewAdminStats(counts, totalUsers), nil
}

// UpdateTicketStatus sets any declared status on a ticket and returns it joined
// with the owner's name.
func (s *AdminService) UpdateTicketStatus(ctx context.Context, caller domain.Caller, ticketID string, status domain.TicketStatus) (*AdminTicket, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("Invalid status value", map[string]any{"status": string(status)})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundAs("Ticket", err)
	}
	previous := ticket.Status
	ticket, err = s.tickets.Update(ctx, ticketID, repository.TicketPatch{Status: &status})
	if err != nil {
		return nil, notFoundAs("Ticket", err)
	}
	if previous != status {
		publishEvent(ctx, s.dispatcher, s.metrics, s.logger, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticketID,
			Actor:    events.ActorFromCaller(caller),
			Payload:  events.TicketStatusChangedPayload{OldStatus: previous, NewStatus: status},
		})
	}
	return &AdminTicket{Ticket: *ticket, UserName: s.ownerName(ctx, ticket.OwnerID)}, nil
}

func (s *AdminService) ownerName(ctx context.Context, ownerID string) string {
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return UnknownUserName
	}
	return owner.Name
}

// DeleteTicket removes any ticket.
func (s *AdminService) DeleteTicket(ctx context.Context, caller domain.Caller, ticketID string) error {
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return notFoundAs("Ticket", err)
	}
	publishEvent(ctx, s.dispatcher, s.metrics, s.logger, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticketID,
		Actor:    events.ActorFromCaller(caller),
	})
	return nil
}

// UpdateUserRole changes an account's role. An admin cannot demote themself;
// demoting another admin is allowed.
func (s *AdminService) UpdateUserRole(ctx context.Context, caller domain.Caller, userID string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("Invalid role value", map[string]any{"role": string(role)})
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, notFoundAs("User", err)
	}
	if userID == caller.UserID && role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("Cannot change your own admin role")
	}
	user, err := s.users.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, notFoundAs("User", err)
	}
	s.logger.Info("user role changed",
		zap.String("user_id", user.ID),
		zap.String("role", string(role)),
		zap.String("changed_by", caller.UserID))
	return user, nil
}

func notFoundAs(resource string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	return apperrors.MapError(err)
}
