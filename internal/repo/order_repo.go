// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Order and
// Address models.
//
// Error semantics:
//   - Missing rows surface as ErrNotFound.
//   - A lost assignment race surfaces as ErrConflict: AssignOrder only
//     updates rows still pending with no agent, so the loser's UPDATE
//     affects zero rows.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reprice/go-reprice-backend/internal/domain"
)

// ErrConflict indicates a state-changing update matched no rows because the
// row was already claimed or moved out of the expected state.
var ErrConflict = errors.New("conflict")

// CreateAddress inserts a pickup address owned by userID.
func CreateAddress(ctx context.Context, db *gorm.DB, userID string, a domain.Address) (*domain.Address, error) {
	a.ID = uuid.NewString()
	a.UserID = userID
	a.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateOrder inserts a new pending Order row owned by userID. ID, owner,
// status, and creation time are stamped here regardless of the input.
func CreateOrder(ctx context.Context, db *gorm.DB, userID string, o domain.Order) (*domain.Order, error) {
	o.ID = uuid.NewString()
	o.UserID = userID
	o.AgentID = nil
	o.Status = domain.OrderStatusPending
	o.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Omit("Address").Create(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOrder fetches a single order by ID with its pickup address preloaded,
// or ErrNotFound if missing.
func GetOrder(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).
		Preload("Address").
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CountOrdersByUser returns the total number of orders placed by userID.
func CountOrdersByUser(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListOrdersByUserPage returns a paginated slice of orders placed by userID,
// ordered by creation time descending. Use CountOrdersByUser to obtain the
// total for pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListOrdersByUserPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Preload("Address").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountPendingOrders returns the number of unclaimed orders.
func CountPendingOrders(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("status = ? AND agent_id IS NULL", domain.OrderStatusPending).
		Count(&total).Error
	return total, err
}

// ListPendingOrdersPage returns a paginated slice of unclaimed orders,
// oldest first so agents work the backlog in arrival order.
func ListPendingOrdersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Preload("Address").
		Where("status = ? AND agent_id IS NULL", domain.OrderStatusPending).
		Order("created_at asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountOrdersByAgent returns the number of orders claimed by agentID.
func CountOrdersByAgent(ctx context.Context, db *gorm.DB, agentID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("agent_id = ?", agentID).
		Count(&total).Error
	return total, err
}

// ListOrdersByAgentPage returns a paginated slice of orders claimed by agentID,
// most recently updated first.
func ListOrdersByAgentPage(ctx context.Context, db *gorm.DB, agentID string, offset, limit int) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Preload("Address").
		Where("agent_id = ?", agentID).
		Order("updated_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// AssignOrder claims a pending order for agentID. The UPDATE is conditional
// on the order still being pending and unclaimed, so concurrent claims
// serialize in the database: exactly one wins, every other caller gets
// ErrConflict. A missing order also surfaces as ErrConflict since the
// WHERE clause cannot distinguish the two; callers that need the
// distinction should GetOrder first.
func AssignOrder(ctx context.Context, db *gorm.DB, orderID, agentID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status = ? AND agent_id IS NULL", orderID, domain.OrderStatusPending).
		Updates(map[string]any{
			"status":   domain.OrderStatusAssigned,
			"agent_id": agentID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// UpdateOrderStatus moves an order claimed by agentID to a new status.
// Returns ErrConflict when the order is not held by that agent.
func UpdateOrderStatus(ctx context.Context, db *gorm.DB, orderID, agentID, status string) error {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND agent_id = ?", orderID, agentID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
