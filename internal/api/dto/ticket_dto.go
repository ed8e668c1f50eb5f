package dto

import (
	"time"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title      string                `json:"title"`
	AssignedTo string                `json:"assignedTo"`
	Status     domain.TicketStatus   `json:"status"`
	Priority   domain.TicketPriority `json:"priority"`
}

// AssigneeResponse carries joined assignment details.
type AssigneeResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TicketResponse is the public ticket shape. The internal identifier is
// exposed as id; control columns never leave the repository layer.
type TicketResponse struct {
	ID         string                `json:"id"`
	Title      string                `json:"title"`
	Status     domain.TicketStatus   `json:"status"`
	Priority   domain.TicketPriority `json:"priority"`
	AssignedTo string                `json:"assignedTo"`
	Assignee   *AssigneeResponse     `json:"assignee,omitempty"`
	ClosedBy   *string               `json:"closedBy,omitempty"`
	IsDeleted  bool                  `json:"isDeleted"`
	DeletedBy  *string               `json:"deletedBy,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

// TicketPageResponse is the paginated envelope.
type TicketPageResponse struct {
	Results      []TicketResponse `json:"results"`
	Page         int              `json:"page"`
	Limit        int              `json:"limit"`
	TotalPages   int              `json:"totalPages"`
	TotalResults int              `json:"totalResults"`
}
