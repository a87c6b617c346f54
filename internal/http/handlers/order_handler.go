// Sell order HTTP handlers.
//
// This file exposes REST endpoints for orders:
//   - POST  /orders              (customer places an order)
//   - GET   /orders              (customer: own orders; agent: ?scope=pending|mine)
//   - GET   /orders/{id}
//   - PATCH /orders/{id}/assign  (agent claims a pending order)
//   - PATCH /orders/{id}/status  (holding agent completes or cancels)
//
// All endpoints run behind the bearer middleware; role checks happen here and
// ownership checks in the service layer.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/reprice/go-reprice-backend/internal/domain"
	"github.com/reprice/go-reprice-backend/internal/http/middleware"
	"github.com/reprice/go-reprice-backend/internal/repo"
	"github.com/reprice/go-reprice-backend/internal/services"
)

// CreateOrderRequest is the JSON payload for placing a sell order.
type CreateOrderRequest struct {
	// PhoneModel is the full device label including variant.
	PhoneModel string `json:"phone_model" binding:"required,min=1,max=255" example:"Apple iPhone 13 4GB RAM / 128GB"`
	// QuotedPrice is the price shown to the customer, in whole rupees.
	QuotedPrice int    `json:"quoted_price" binding:"min=0" example:"32000"`
	PickupDate  string `json:"pickup_date" example:"2026-09-05"`
	PickupSlot  string `json:"pickup_slot" example:"10:00-12:00"`
	PaymentMode string `json:"payment_mode" example:"upi"`

	// Pickup address.
	Line1   string `json:"line1" binding:"required,max=255"`
	Line2   string `json:"line2" binding:"max=255"`
	City    string `json:"city" binding:"required,max=64"`
	State   string `json:"state" binding:"required,max=64"`
	Pincode string `json:"pincode" binding:"required,max=16" example:"560001"`
}

// UpdateOrderStatusRequest is the JSON payload for completing or cancelling.
type UpdateOrderStatusRequest struct {
	// Status must be "completed" or "cancelled".
	Status string `json:"status" binding:"required" example:"completed"`
}

// ListOrdersResponse wraps a page of orders and pagination information.
type ListOrdersResponse struct {
	Orders     []domain.Order `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}

// CreateOrder godoc
// @ID          createOrder
// @Summary     Place a sell order
// @Description Creates a pending order with its pickup address in one transaction. Customers only. Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       Authorization    header  string  true   "Bearer token"
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateOrderRequest  true  "Order payload"
//
// @Success     201  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Agents cannot place orders"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders [post]
func (h *Handlers) CreateOrder(c *gin.Context) {
	uid, utype := identity(c)
	if utype != domain.UserTypeCustomer {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "only customers can place orders")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ctx := c.Request.Context()

	// Idempotency (replay path) – read validated key if present.
	idemKey := strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
	if idemKey != "" {
		if svc, okSvc := h.orderSvc.(*services.OrderService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, uid, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := svc.Get(ctx, uid, utype, rec.OrderID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, prev)
					return
				}
			}
		}
	}

	o, err := h.orderSvc.Create(ctx, uid, services.CreateOrderInput{
		PhoneModel:  req.PhoneModel,
		QuotedPrice: req.QuotedPrice,
		PickupDate:  req.PickupDate,
		PickupSlot:  req.PickupSlot,
		PaymentMode: req.PaymentMode,
		Line1:       req.Line1,
		Line2:       req.Line2,
		City:        req.City,
		State:       req.State,
		Pincode:     req.Pincode,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidOrder) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if svc, okSvc := h.orderSvc.(*services.OrderService); okSvc && svc.DB != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, svc.DB, uid, idemKey, o.ID, http.StatusCreated, ttl)
		}
	}

	c.Header("Location", c.FullPath()+"/"+o.ID)
	ok(c, http.StatusCreated, o)
}

// ListOrders godoc
// @ID          listOrders
// @Summary     List orders (paginated)
// @Description Customers get their own orders. Agents get the pending pool by default, or their claimed orders with scope=mine.
// @Tags        Orders
// @Produce     json
//
// @Param       Authorization  header  string  true   "Bearer token"
// @Param       scope          query   string  false  "Agent scope: pending (default) or mine"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListOrdersResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders [get]
func (h *Handlers) ListOrders(c *gin.Context) {
	uid, utype := identity(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check for the customer scope (best effort).
	if utype == domain.UserTypeCustomer {
		if svc, okSvc := h.orderSvc.(*services.OrderService); okSvc && svc.DB != nil {
			count, maxTS, err := repo.OrdersStats(c.Request.Context(), svc.DB, uid)
			if err == nil {
				var ts int64
				if maxTS != nil {
					ts = maxTS.Unix()
				}
				etag := fmt.Sprintf(`W/"orders:%s:%d:%d"`, uid, count, ts)
				c.Header("ETag", etag)
				if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
					c.Status(http.StatusNotModified)
					return
				}
			}
		}
	}

	var (
		items []domain.Order
		total int64
		err   error
	)
	switch {
	case utype == domain.UserTypeAgent && c.Query("scope") == "mine":
		items, total, err = h.orderSvc.ListForAgent(c.Request.Context(), uid, page, pageSize)
	case utype == domain.UserTypeAgent:
		items, total, err = h.orderSvc.ListPending(c.Request.Context(), page, pageSize)
	default:
		items, total, err = h.orderSvc.ListForUser(c.Request.Context(), uid, page, pageSize)
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListOrdersResponse{
		Orders:     items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetOrder godoc
// @ID          getOrder
// @Summary     Fetch one order
// @Description Returns an order visible to the caller: customers see their own, agents see pending orders and their claims.
// @Tags        Orders
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       id             path    string  true  "Order ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Router      /orders/{id} [get]
func (h *Handlers) GetOrder(c *gin.Context) {
	orderID := c.Param("id")
	if _, err := uuid.Parse(orderID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order id must be a UUID")
		return
	}

	uid, utype := identity(c)
	o, err := h.orderSvc.Get(c.Request.Context(), uid, utype, orderID)
	if err != nil {
		failOrder(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// AssignOrder godoc
// @ID          assignOrder
// @Summary     Claim a pending order
// @Description Claims the order for the calling agent. Exactly one concurrent claim wins; losers get 409.
// @Tags        Orders
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       id             path    string  true  "Order ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Customers cannot claim orders"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Order already taken"
// @Router      /orders/{id}/assign [patch]
func (h *Handlers) AssignOrder(c *gin.Context) {
	orderID := c.Param("id")
	if _, err := uuid.Parse(orderID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order id must be a UUID")
		return
	}

	uid, utype := identity(c)
	if utype != domain.UserTypeAgent {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "only agents can claim orders")
		return
	}

	o, err := h.orderSvc.Assign(c.Request.Context(), orderID, uid)
	if err != nil {
		failOrder(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// UpdateOrderStatus godoc
// @ID          updateOrderStatus
// @Summary     Complete or cancel an order
// @Description Moves an order held by the calling agent to completed or cancelled.
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       id             path    string  true  "Order ID (UUID)"  format(uuid)
// @Param       body           body    handlers.UpdateOrderStatusRequest  true  "New status"
//
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Customers cannot update status"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Order not held by this agent"
// @Router      /orders/{id}/status [patch]
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	orderID := c.Param("id")
	if _, err := uuid.Parse(orderID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order id must be a UUID")
		return
	}

	uid, utype := identity(c)
	if utype != domain.UserTypeAgent {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "only agents can update order status")
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	o, err := h.orderSvc.UpdateStatus(c.Request.Context(), orderID, uid, req.Status)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		failOrder(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// failOrder maps order service errors to HTTP responses.
func failOrder(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "order not found")
	case errors.Is(err, services.ErrOrderConflict):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
