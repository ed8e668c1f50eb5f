package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// In-memory implementations back the service when no POSTGRES_DSN is
// configured and serve as fakes in tests. They apply the same soft-delete
// predicate, sorting and pagination contracts as the Postgres versions.

// MemoryUserRepository is a map-backed UserRepository.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserRepository builds an empty store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// MemoryTicketRepository is a map-backed TicketRepository. It resolves
// assignees through the user repository it is constructed with.
type MemoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
	users   *MemoryUserRepository
}

// NewMemoryTicketRepository builds an empty store.
func NewMemoryTicketRepository(users *MemoryUserRepository) *MemoryTicketRepository {
	return &MemoryTicketRepository{tickets: make(map[string]domain.Ticket), users: users}
}

func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok || ticket.IsDeleted {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r *MemoryTicketRepository) GetByIDWithAssignee(ctx context.Context, id string) (*domain.TicketWithAssignee, error) {
	ticket, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.withAssignee(ctx, *ticket), nil
}

func (r *MemoryTicketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok || stored.IsDeleted {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *MemoryTicketRepository) Query(ctx context.Context, filter TicketFilter, opts QueryOptions) (*TicketPage, error) {
	opts = opts.Normalize()

	r.mu.RLock()
	matched := make([]domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		if ticket.IsDeleted || !matchesFilter(ticket, filter) {
			continue
		}
		matched = append(matched, ticket)
	}
	r.mu.RUnlock()

	sortTickets(matched, ParseSortBy(opts.SortBy))

	total := len(matched)
	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	results := make([]domain.TicketWithAssignee, 0, end-start)
	for _, ticket := range matched[start:end] {
		results = append(results, *r.withAssignee(ctx, ticket))
	}

	return &TicketPage{
		Results:      results,
		Page:         opts.Page,
		Limit:        opts.Limit,
		TotalPages:   TotalPages(total, opts.Limit),
		TotalResults: total,
	}, nil
}

func (r *MemoryTicketRepository) withAssignee(ctx context.Context, ticket domain.Ticket) *domain.TicketWithAssignee {
	item := domain.TicketWithAssignee{Ticket: ticket}
	if r.users != nil {
		if user, err := r.users.GetByID(ctx, ticket.AssignedTo); err == nil {
			item.Assignee = &domain.Assignee{ID: user.ID, Name: user.Name, Email: user.Email}
		}
	}
	return &item
}

func matchesFilter(ticket domain.Ticket, filter TicketFilter) bool {
	if filter.ID != nil && ticket.ID != *filter.ID {
		return false
	}
	if filter.Title != nil && ticket.Title != *filter.Title {
		return false
	}
	if filter.Status != nil && ticket.Status != *filter.Status {
		return false
	}
	if filter.Priority != nil && ticket.Priority != *filter.Priority {
		return false
	}
	if filter.AssignedTo != nil && ticket.AssignedTo != *filter.AssignedTo {
		return false
	}
	return true
}

func sortTickets(tickets []domain.Ticket, keys []SortKey) {
	if len(keys) == 0 {
		sort.SliceStable(tickets, func(i, j int) bool {
			return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
		})
		return
	}
	sort.SliceStable(tickets, func(i, j int) bool {
		for _, key := range keys {
			cmp := compareField(tickets[i], tickets[j], key.Field)
			if cmp == 0 {
				continue
			}
			if key.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// compareField orders string columns lexicographically, the way the Postgres
// ORDER BY does, and timestamp columns chronologically.
func compareField(a, b domain.Ticket, field string) int {
	switch field {
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "status":
		return strings.Compare(string(a.Status), string(b.Status))
	case "priority":
		return strings.Compare(string(a.Priority), string(b.Priority))
	case "assignedTo":
		return strings.Compare(a.AssignedTo, b.AssignedTo)
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return 0
}

// MemoryRevokedTokenStore is a map-backed RevokedTokenStore.
type MemoryRevokedTokenStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewMemoryRevokedTokenStore builds an empty store.
func NewMemoryRevokedTokenStore() *MemoryRevokedTokenStore {
	return &MemoryRevokedTokenStore{revoked: make(map[string]time.Time)}
}

func (s *MemoryRevokedTokenStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = time.Now().Add(ttl)
	return nil
}

func (s *MemoryRevokedTokenStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
