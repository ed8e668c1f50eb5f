package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util"
)

// TicketService enforces the ticket lifecycle: create, close with the
// blocking guard, soft delete. Closed tickets are never reopened.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles requirements for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{tickets: deps.TicketRepo, dispatcher: deps.Dispatcher}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title      string
	AssignedTo string
	Status     domain.TicketStatus
	Priority   domain.TicketPriority
}

// Create persists a new ticket and re-fetches it with the assignee joined.
// An absent result on either step is an internal failure.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (*domain.TicketWithAssignee, error) {
	ticket := &domain.Ticket{
		Title:      strings.TrimSpace(input.Title),
		Status:     input.Status,
		Priority:   input.Priority,
		AssignedTo: input.AssignedTo,
	}
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusOpen
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityLow
	}
	if ticket.Title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if ticket.AssignedTo == "" {
		return nil, apperrors.NewValidationError("assignedTo required", nil)
	}
	if !domain.ValidStatus(ticket.Status) {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": ticket.Status})
	}
	if !domain.ValidPriority(ticket.Priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": ticket.Priority})
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	created, err := s.tickets.GetByIDWithAssignee(ctx, ticket.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInternalError(errors.New("ticket not created"))
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: created.ID,
		ActorID:  created.AssignedTo,
		Payload: events.TicketCreatedPayload{
			Title:      created.Title,
			Priority:   created.Priority,
			AssignedTo: created.AssignedTo,
		},
	})
	return created, nil
}

// List returns a paginated page of tickets matching the filter. Soft-deleted
// tickets are invisible through this path.
func (s *TicketService) List(ctx context.Context, filter repository.TicketFilter, opts repository.QueryOptions) (*repository.TicketPage, error) {
	return s.tickets.Query(ctx, filter, opts)
}

// GetByID fetches a single visible ticket with its assignee.
func (s *TicketService) GetByID(ctx context.Context, ticketID string) (*domain.TicketWithAssignee, error) {
	ticket, err := s.tickets.GetByIDWithAssignee(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Ticket", map[string]any{"ticketId": ticketID})
		}
		return nil, err
	}
	return ticket, nil
}

// Close transitions a ticket to closed on behalf of the acting user.
//
// Order of checks: existence, then admin-or-assignee ownership, then the
// blocking guard. The guard looks for any high-priority ticket assigned to
// the same user; it does not restrict by status and does not exclude the
// ticket being closed, so a high-priority ticket blocks its own close.
func (s *TicketService) Close(ctx context.Context, ticketID string, actor *domain.User) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Ticket", map[string]any{"ticketId": ticketID})
		}
		return nil, err
	}

	if actor.Role != domain.RoleAdmin && ticket.AssignedTo != actor.ID {
		return nil, apperrors.NewUnauthorized("Not Allowed")
	}

	high := domain.TicketPriorityHigh
	blocking, err := s.tickets.Query(ctx, repository.TicketFilter{
		AssignedTo: &ticket.AssignedTo,
		Priority:   &high,
	}, repository.QueryOptions{})
	if err != nil {
		return nil, err
	}
	if blocking.TotalResults > 0 {
		return nil, apperrors.NewCloseBlocked(blockingTicketList(blocking.Results))
	}

	ticket.Status = domain.TicketStatusClosed
	actorID := actor.ID
	ticket.ClosedBy = &actorID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Ticket", map[string]any{"ticketId": ticketID})
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketClosed,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketClosedPayload{
			AssignedTo: ticket.AssignedTo,
			ClosedBy:   actor.ID,
		},
	})
	return ticket, nil
}

// Delete soft-deletes a ticket. The record stays in storage but becomes
// invisible to every repository read.
func (s *TicketService) Delete(ctx context.Context, ticketID string, actor *domain.User) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("Ticket", map[string]any{"ticketId": ticketID})
		}
		return err
	}

	ticket.IsDeleted = true
	actorID := actor.ID
	ticket.DeletedBy = &actorID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("Ticket", map[string]any{"ticketId": ticketID})
		}
		return err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketDeletedPayload{DeletedBy: actor.ID},
	})
	return nil
}

func blockingTicketList(tickets []domain.TicketWithAssignee) []map[string]any {
	list := make([]map[string]any, 0, len(tickets))
	for _, t := range tickets {
		list = append(list, map[string]any{
			"id":         t.ID,
			"title":      t.Title,
			"status":     t.Status,
			"priority":   t.Priority,
			"assignedTo": t.AssignedTo,
		})
	}
	return list
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
