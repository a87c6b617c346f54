// Package services – OrderService
//
// This file implements the OrderService, which governs the lifecycle of sell
// orders: a customer places an order at a quoted price with a pickup address,
// agents browse the pending pool and claim orders, and a claiming agent can
// later complete or cancel. Claiming is a conditional update at the repository
// layer so that concurrent claims resolve to exactly one winner; the loser
// receives ErrOrderConflict.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/reprice/go-reprice-backend/internal/domain"
	"github.com/reprice/go-reprice-backend/internal/repo"
)

// CreateOrderInput carries everything needed to place a sell order.
type CreateOrderInput struct {
	PhoneModel  string
	QuotedPrice int
	PickupDate  string
	PickupSlot  string
	PaymentMode string

	Line1   string
	Line2   string
	City    string
	State   string
	Pincode string
}

// OrderService implements the use-cases around sell orders. It validates the
// operation (required fields, ownership, lifecycle) and persists through the
// provided GORM handle. Placement runs inside a transaction so the address
// and order rows are written atomically.
type OrderService struct {
	// DB is the database handle used for all order operations.
	DB *gorm.DB
}

// NewOrderService constructs an OrderService.
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{DB: db}
}

// Create places a new pending order for userID.
//
// Validation:
//   - PhoneModel, Line1, City, State, and Pincode must be non-blank.
//   - QuotedPrice must be non-negative.
//
// The pickup address and the order row are created in one transaction.
func (s *OrderService) Create(ctx context.Context, userID string, in CreateOrderInput) (*domain.Order, error) {
	in.PhoneModel = strings.TrimSpace(in.PhoneModel)
	in.Line1 = strings.TrimSpace(in.Line1)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.Pincode = strings.TrimSpace(in.Pincode)

	if in.PhoneModel == "" || in.Line1 == "" || in.City == "" || in.State == "" || in.Pincode == "" {
		return nil, ErrInvalidOrder
	}
	if in.QuotedPrice < 0 {
		return nil, ErrInvalidOrder
	}

	var out *domain.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		addr, err := repo.CreateAddress(ctx, tx, userID, domain.Address{
			Line1:   in.Line1,
			Line2:   strings.TrimSpace(in.Line2),
			City:    in.City,
			State:   in.State,
			Pincode: in.Pincode,
		})
		if err != nil {
			return err
		}
		o, err := repo.CreateOrder(ctx, tx, userID, domain.Order{
			PhoneModel:  in.PhoneModel,
			QuotedPrice: in.QuotedPrice,
			AddressID:   addr.ID,
			PickupDate:  strings.TrimSpace(in.PickupDate),
			PickupSlot:  strings.TrimSpace(in.PickupSlot),
			PaymentMode: strings.TrimSpace(in.PaymentMode),
		})
		if err != nil {
			return err
		}
		o.Address = *addr
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a single order, enforcing visibility: customers see their own
// orders; agents see any still-pending order plus the orders they hold.
func (s *OrderService) Get(ctx context.Context, userID, userType, orderID string) (*domain.Order, error) {
	o, err := repo.GetOrder(ctx, s.DB, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !visibleTo(o, userID, userType) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// ListForUser returns a page of the customer's own orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Order, int64, error) {
	offset, limit := pageWindow(page, pageSize)

	total, err := repo.CountOrdersByUser(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Order{}, 0, nil
	}
	items, err := repo.ListOrdersByUserPage(ctx, s.DB, userID, offset, limit)
	return items, total, err
}

// ListPending returns a page of unclaimed orders, oldest first, for agents
// browsing the pool.
func (s *OrderService) ListPending(ctx context.Context, page, pageSize int) ([]domain.Order, int64, error) {
	offset, limit := pageWindow(page, pageSize)

	total, err := repo.CountPendingOrders(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Order{}, 0, nil
	}
	items, err := repo.ListPendingOrdersPage(ctx, s.DB, offset, limit)
	return items, total, err
}

// ListForAgent returns a page of the orders held by agentID, newest first.
func (s *OrderService) ListForAgent(ctx context.Context, agentID string, page, pageSize int) ([]domain.Order, int64, error) {
	offset, limit := pageWindow(page, pageSize)

	total, err := repo.CountOrdersByAgent(ctx, s.DB, agentID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Order{}, 0, nil
	}
	items, err := repo.ListOrdersByAgentPage(ctx, s.DB, agentID, offset, limit)
	return items, total, err
}

// Assign claims a pending order for agentID.
//
// Semantics:
//   - An unknown order yields ErrOrderNotFound.
//   - An order that exists but is no longer pending (or was claimed between
//     the read and the update) yields ErrOrderConflict.
//
// The existence check and the conditional claim run in one transaction so the
// two error cases stay distinguishable under concurrency.
func (s *OrderService) Assign(ctx context.Context, orderID, agentID string) (*domain.Order, error) {
	var out *domain.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetOrder(ctx, tx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if err := repo.AssignOrder(ctx, tx, orderID, agentID); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return ErrOrderConflict
			}
			return err
		}
		o, err := repo.GetOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus moves an assigned order to completed or cancelled. Only the
// holding agent may do this; anyone else gets ErrOrderConflict.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, agentID, status string) (*domain.Order, error) {
	if status != domain.OrderStatusCompleted && status != domain.OrderStatusCancelled {
		return nil, ErrInvalidStatus
	}

	var out *domain.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetOrder(ctx, tx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if err := repo.UpdateOrderStatus(ctx, tx, orderID, agentID, status); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return ErrOrderConflict
			}
			return err
		}
		o, err := repo.GetOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// visibleTo applies the per-role read rule for single-order fetches.
func visibleTo(o *domain.Order, userID, userType string) bool {
	switch userType {
	case domain.UserTypeCustomer:
		return o.UserID == userID
	case domain.UserTypeAgent:
		if o.Status == domain.OrderStatusPending {
			return true
		}
		return o.AgentID != nil && *o.AgentID == userID
	default:
		return false
	}
}

// pageWindow converts 1-based page/pageSize to an offset/limit pair with
// defaults for out-of-range input.
func pageWindow(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return (page - 1) * pageSize, pageSize
}
