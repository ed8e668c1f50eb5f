package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/api/dto"
	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	"github.com/spec-kit/ticket-tracker/internal/service"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" || req.AssignedTo == "" {
		return apperrors.NewValidationError("title, assignedTo required", nil)
	}

	ticket, err := h.service.Create(c.Context(), service.TicketCreateInput{
		Title:      req.Title,
		AssignedTo: req.AssignedTo,
		Status:     req.Status,
		Priority:   req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(ticketResponse(ticket))
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := repository.TicketFilter{}
	if v := c.Query("ticketId"); v != "" {
		filter.ID = &v
	}
	if v := c.Query("title"); v != "" {
		filter.Title = &v
	}
	if v := c.Query("status"); v != "" {
		status := domain.TicketStatus(v)
		filter.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := domain.TicketPriority(v)
		filter.Priority = &priority
	}
	if v := c.Query("assignedTo"); v != "" {
		filter.AssignedTo = &v
	}

	page, err := h.service.List(c.Context(), filter, queryOptions(c))
	if err != nil {
		return err
	}
	return c.JSON(ticketPageResponse(page))
}

// ListAllTickets GET /tickets/all.
func (h *TicketsHandler) ListAllTickets(c *fiber.Ctx) error {
	page, err := h.service.List(c.Context(), repository.TicketFilter{}, queryOptions(c))
	if err != nil {
		return err
	}
	return c.JSON(ticketPageResponse(page))
}

// GetTicket GET /tickets/:ticketId.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetByID(c.Context(), c.Params("ticketId"))
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// CloseTicket PATCH /tickets/markAsClosed/:ticketId.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if _, err := h.service.Close(c.Context(), c.Params("ticketId"), principal.User); err != nil {
		return err
	}
	return c.SendString("Ticket closed successfully")
}

// DeleteTicket DELETE /tickets/:ticketId.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Delete(c.Context(), c.Params("ticketId"), principal.User); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func queryOptions(c *fiber.Ctx) repository.QueryOptions {
	return repository.QueryOptions{
		SortBy: c.Query("sortBy"),
		Limit:  parseInt(c.Query("limit"), 0),
		Page:   parseInt(c.Query("page"), 0),
	}
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.TicketWithAssignee) dto.TicketResponse {
	resp := dto.TicketResponse{
		ID:         ticket.ID,
		Title:      ticket.Title,
		Status:     ticket.Status,
		Priority:   ticket.Priority,
		AssignedTo: ticket.AssignedTo,
		ClosedBy:   ticket.ClosedBy,
		IsDeleted:  ticket.IsDeleted,
		DeletedBy:  ticket.DeletedBy,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
	}
	if ticket.Assignee != nil {
		resp.Assignee = &dto.AssigneeResponse{
			ID:    ticket.Assignee.ID,
			Name:  ticket.Assignee.Name,
			Email: ticket.Assignee.Email,
		}
	}
	return resp
}

func ticketPageResponse(page *repository.TicketPage) dto.TicketPageResponse {
	results := make([]dto.TicketResponse, 0, len(page.Results))
	for i := range page.Results {
		results = append(results, ticketResponse(&page.Results[i]))
	}
	return dto.TicketPageResponse{
		Results:      results,
		Page:         page.Page,
		Limit:        page.Limit,
		TotalPages:   page.TotalPages,
		TotalResults: page.TotalResults,
	}
}
