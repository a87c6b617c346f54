// Handler wiring and shared request plumbing.
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Service dependencies are abstract
// interfaces so tests can swap fakes in without a database or network.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/reprice/go-reprice-backend/internal/catalog"
	"github.com/reprice/go-reprice-backend/internal/domain"
	"github.com/reprice/go-reprice-backend/internal/quote"
	"github.com/reprice/go-reprice-backend/internal/services"
	"github.com/reprice/go-reprice-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AuthService defines the account operations consumed by HTTP handlers.
type AuthService interface {
	// Signup registers an account and returns it with a signed token.
	Signup(ctx context.Context, name, phone, password, userType string) (*domain.User, string, error)
	// Login verifies credentials and returns the account with a signed token.
	Login(ctx context.Context, phone, password, userType string) (*domain.User, string, error)
	// Profile returns the account for the given user ID.
	Profile(ctx context.Context, id string) (*domain.User, error)
}

// PhoneResolver defines the device search operation consumed by HTTP handlers.
type PhoneResolver interface {
	// Resolve returns device listings for a free-text query.
	Resolve(ctx context.Context, query string) ([]catalog.Listing, error)
}

// QuoteService defines the quote session operations consumed by HTTP handlers.
type QuoteService interface {
	// Start opens a quote session and begins pricing.
	Start(ctx context.Context, modelName string, answers quote.ConditionAnswers) (string, quote.Snapshot, error)
	// Get returns the current snapshot for a session.
	Get(id string) (quote.Snapshot, error)
	// Update replaces the session inputs and re-prices when they changed.
	Update(ctx context.Context, id, modelName string, answers quote.ConditionAnswers) (quote.Snapshot, error)
	// Retry clears a failed or exhausted session and prices again.
	Retry(ctx context.Context, id string) (quote.Snapshot, error)
}

// OrderService defines the sell order operations consumed by HTTP handlers.
type OrderService interface {
	// Create places a new pending order.
	Create(ctx context.Context, userID string, in services.CreateOrderInput) (*domain.Order, error)
	// Get returns a single order subject to per-role visibility.
	Get(ctx context.Context, userID, userType, orderID string) (*domain.Order, error)
	// ListForUser pages through a customer's own orders.
	ListForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Order, int64, error)
	// ListPending pages through the unclaimed pool.
	ListPending(ctx context.Context, page, pageSize int) ([]domain.Order, int64, error)
	// ListForAgent pages through an agent's claimed orders.
	ListForAgent(ctx context.Context, agentID string, page, pageSize int) ([]domain.Order, int64, error)
	// Assign claims a pending order for an agent.
	Assign(ctx context.Context, orderID, agentID string) (*domain.Order, error)
	// UpdateStatus completes or cancels an order held by the agent.
	UpdateStatus(ctx context.Context, orderID, agentID, status string) (*domain.Order, error)
}

// Handlers groups the HTTP endpoints for accounts, phone search, quotes, and
// sell orders.
type Handlers struct {
	authSvc  AuthService
	phones   PhoneResolver
	quoteSvc QuoteService
	orderSvc OrderService
}

// New constructs a Handlers instance bound to the given services.
func New(authSvc AuthService, phones PhoneResolver, quoteSvc QuoteService, orderSvc OrderService) *Handlers {
	return &Handlers{authSvc: authSvc, phones: phones, quoteSvc: quoteSvc, orderSvc: orderSvc}
}

//
// Identity helpers
//

// identity extracts the authenticated user ID and type from Gin context (set
// by the bearer middleware). Both come back empty when unauthenticated.
func identity(c *gin.Context) (userID, userType string) {
	if v, ok := c.Get("userID"); ok {
		userID, _ = v.(string)
	}
	if v, ok := c.Get("userType"); ok {
		userType, _ = v.(string)
	}
	return
}

//
// Shared DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// newPagination derives the metadata block from a page window and total count.
func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}
