package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpdesk/support-desk/internal/ai"
	"github.com/helpdesk/support-desk/internal/auth"
	"github.com/helpdesk/support-desk/internal/config"
	"github.com/helpdesk/support-desk/internal/domain"
	"github.com/helpdesk/support-desk/internal/events"
	"github.com/helpdesk/support-desk/internal/observability"
	"github.com/helpdesk/support-desk/internal/repository"
)

type fakeProvider struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	requests []ai.Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, req ai.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeProvider) fail() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = errors.New("provider down")
}

type harness struct {
	store      *repository.MemoryStore
	provider   *fakeProvider
	dispatcher events.Dispatcher
	events     *eventLog
	auth       *AuthService
	tickets    *TicketService
	admin      *AdminService
	assistant  *AssistantService
}

type eventLog struct {
	mu   sync.Mutex
	seen []events.Event
}

func (l *eventLog) record(_ context.Context, e events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, e)
	return nil
}

func (l *eventLog) types() []events.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]events.EventType, 0, len(l.seen))
	for _, e := range l.seen {
		out = append(out, e.Type)
	}
	return out
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := repository.NewMemoryStore()
	provider := &fakeProvider{reply: "Please try restarting the app."}
	policy := ai.NewPolicy(provider, time.Second)
	dispatcher := events.NewInMemoryDispatcher()
	log := &eventLog{}
	for _, et := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketEscalated,
		events.EventTicketStatusChanged,
		events.EventTicketMessageAdded,
		events.EventTicketDeleted,
	} {
		dispatcher.Subscribe(et, log.record)
	}
	metrics := observability.NewMetrics()
	logger := zap.NewNop()

	return &harness{
		store:      store,
		provider:   provider,
		dispatcher: dispatcher,
		events:     log,
		auth: NewAuthService(config.AuthConfig{BcryptCost: 4}, store.Users(),
			auth.NewTokenManager("test-secret", 5), logger),
		tickets: NewTicketService(TicketDependencies{
			TicketRepo:  store.Tickets(),
			MessageRepo: store.Messages(),
			Policy:      policy,
			Dispatcher:  dispatcher,
			Metrics:     metrics,
			Logger:      logger,
		}),
		admin: NewAdminService(AdminDependencies{
			TicketRepo: store.Tickets(),
			UserRepo:   store.Users(),
			Dispatcher: dispatcher,
			Metrics:    metrics,
			Logger:     logger,
		}),
		assistant: NewAssistantService(policy, store.Feedback(), metrics, logger),
	}
}

func (h *harness) user(t *testing.T, email string, role domain.Role) domain.Caller {
	t.Helper()
	user := &domain.User{Name: email, Email: email, Role: role}
	require.NoError(t, h.store.Users().Create(context.Background(), user))
	return domain.Caller{UserID: user.ID, Role: user.Role}
}

func (h *harness) ticket(t *testing.T, owner domain.Caller) *domain.Ticket {
	t.Helper()
	ticket, err := h.tickets.CreateTicket(context.Background(), owner, TicketCreateInput{
		Title:       "Printer jams",
		Description: "The office printer jams on every page",
	})
	require.NoError(t, err)
	return ticket
}
