package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// TicketFilter captures search parameters. Every query additionally
// conjoins is_deleted = FALSE; there is no way to see soft-deleted rows.
type TicketFilter struct {
	ID         *string
	Title      *string
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	AssignedTo *string
}

// TicketRepository encapsulates ticket persistence. Reads that miss return
// pgx.ErrNoRows.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByIDWithAssignee(ctx context.Context, id string) (*domain.TicketWithAssignee, error)
	Query(ctx context.Context, filter TicketFilter, opts QueryOptions) (*TicketPage, error)
	Update(ctx context.Context, ticket *domain.Ticket) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository returns a Postgres-backed implementation.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, status, priority, assigned_to)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedTo,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, title, status, priority, assigned_to, closed_by, is_deleted, deleted_by, created_at, updated_at
        FROM tickets t WHERE id=$1 AND is_deleted=FALSE`

	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Status,
		&ticket.Priority,
		&ticket.AssignedTo,
		&ticket.ClosedBy,
		&ticket.IsDeleted,
		&ticket.DeletedBy,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) GetByIDWithAssignee(ctx context.Context, id string) (*domain.TicketWithAssignee, error) {
	query := selectWithAssignee + ` WHERE t.id=$1 AND t.is_deleted=FALSE`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results, err := scanTicketsWithAssignee(rows)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &results[0], nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, status=$2, priority=$3, assigned_to=$4,
            closed_by=$5, is_deleted=$6, deleted_by=$7, updated_at=NOW()
        WHERE id=$8 AND is_deleted=FALSE`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedTo,
		ticket.ClosedBy,
		ticket.IsDeleted,
		ticket.DeletedBy,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const selectWithAssignee = `
    SELECT t.id, t.title, t.status, t.priority, t.assigned_to, t.closed_by,
           t.is_deleted, t.deleted_by, t.created_at, t.updated_at,
           u.id, u.name, u.email
    FROM tickets t
    LEFT JOIN users u ON u.id = t.assigned_to`

func (r *ticketRepository) Query(ctx context.Context, filter TicketFilter, opts QueryOptions) (*TicketPage, error) {
	opts = opts.Normalize()

	clauses := []string{"t.is_deleted=FALSE"}
	args := []any{}

	if filter.ID != nil {
		args = append(args, *filter.ID)
		clauses = append(clauses, fmt.Sprintf("t.id=$%d", len(args)))
	}
	if filter.Title != nil {
		args = append(args, *filter.Title)
		clauses = append(clauses, fmt.Sprintf("t.title=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("t.status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("t.priority=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("t.assigned_to=$%d", len(args)))
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM tickets t WHERE %s", where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	offset := (opts.Page - 1) * opts.Limit
	query := fmt.Sprintf("%s WHERE %s %s LIMIT %d OFFSET %d",
		selectWithAssignee, where, orderByClause(ParseSortBy(opts.SortBy)), opts.Limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results, err := scanTicketsWithAssignee(rows)
	if err != nil {
		return nil, err
	}

	return &TicketPage{
		Results:      results,
		Page:         opts.Page,
		Limit:        opts.Limit,
		TotalPages:   TotalPages(total, opts.Limit),
		TotalResults: total,
	}, nil
}

func scanTicketsWithAssignee(rows pgx.Rows) ([]domain.TicketWithAssignee, error) {
	results := []domain.TicketWithAssignee{}
	for rows.Next() {
		var item domain.TicketWithAssignee
		var assigneeID, assigneeName, assigneeEmail *string
		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Status,
			&item.Priority,
			&item.AssignedTo,
			&item.ClosedBy,
			&item.IsDeleted,
			&item.DeletedBy,
			&item.CreatedAt,
			&item.UpdatedAt,
			&assigneeID,
			&assigneeName,
			&assigneeEmail,
		); err != nil {
			return nil, err
		}
		if assigneeID != nil {
			item.Assignee = &domain.Assignee{ID: *assigneeID, Name: *assigneeName, Email: *assigneeEmail}
		}
		results = append(results, item)
	}
	return results, rows.Err()
}
