package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "close"
)

// ValidStatus reports whether the value is a known status literal.
func ValidStatus(s TicketStatus) bool {
	return s == TicketStatusOpen || s == TicketStatusClosed
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// ValidPriority reports whether the value is a known priority literal.
func ValidPriority(p TicketPriority) bool {
	return p == TicketPriorityLow || p == TicketPriorityMedium || p == TicketPriorityHigh
}

// Ticket is the aggregate for tracked work items. A ticket is never
// physically removed; IsDeleted hides it from every repository read.
type Ticket struct {
	ID         string
	Title      string
	Status     TicketStatus
	Priority   TicketPriority
	AssignedTo string
	ClosedBy   *string
	IsDeleted  bool
	DeletedBy  *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Assignee carries the joined user details returned alongside a ticket.
type Assignee struct {
	ID    string
	Name  string
	Email string
}

// TicketWithAssignee pairs a ticket with its resolved assignee. The assignee
// is nil when the referenced user no longer exists.
type TicketWithAssignee struct {
	Ticket
	Assignee *Assignee
}
