// Quote HTTP handlers.
//
// This file exposes REST endpoints for quote sessions:
//   - POST /quotes             (open a session, or update an existing one)
//   - GET  /quotes/{id}        (poll session state)
//   - POST /quotes/{id}/retry  (manual retry after failure or exhausted warm-up)
//
// A session survives across polls while the pricing engine warms up; the
// snapshot carries the state machine's current state, attempt counter, and
// quote when ready.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/reprice/go-reprice-backend/internal/quote"
	"github.com/reprice/go-reprice-backend/internal/services"
)

// QuoteRequest is the JSON payload for opening or updating a quote session.
type QuoteRequest struct {
	// SessionID targets an existing session; empty opens a new one.
	SessionID string `json:"session_id,omitempty" format:"uuid"`
	// ModelName is the full device label including variant.
	ModelName string `json:"model_name" binding:"required,min=1,max=255" example:"Apple iPhone 13 4GB RAM / 128GB"`
	// TurnsOn reports whether the device powers on.
	TurnsOn bool `json:"turns_on"`
	// ScreenCondition is one of good, minor-scratches, major-scratches, cracked, shattered.
	ScreenCondition string `json:"screen_condition" binding:"required" example:"good"`
	HasBox          bool   `json:"has_box"`
	HasBill         bool   `json:"has_bill"`
	IsUnderWarranty bool   `json:"is_under_warranty"`
}

func (r QuoteRequest) answers() quote.ConditionAnswers {
	return quote.ConditionAnswers{
		TurnsOn:         r.TurnsOn,
		ScreenCondition: quote.ScreenCondition(r.ScreenCondition),
		HasBox:          r.HasBox,
		HasBill:         r.HasBill,
		UnderWarranty:   r.IsUnderWarranty,
	}
}

// QuoteResponse wraps a session ID with its current snapshot.
type QuoteResponse struct {
	SessionID string         `json:"session_id"`
	Snapshot  quote.Snapshot `json:"snapshot"`
}

// EvaluateQuote godoc
// @ID          evaluateQuote
// @Summary     Open or update a quote session
// @Description Opens a pricing session for the device, or updates an existing session's inputs. Unchanged inputs keep the held quote; changed ones clear it and re-price.
// @Tags        Quotes
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.QuoteRequest  true  "Device and condition answers"
//
// @Success     200  {object}  handlers.QuoteResponse  "Updated existing session"
// @Success     201  {object}  handlers.QuoteResponse  "Opened new session"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /quotes [post]
func (h *Handlers) EvaluateQuote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if req.SessionID != "" {
		if _, err := uuid.Parse(req.SessionID); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session_id must be a UUID")
			return
		}
		snap, err := h.quoteSvc.Update(c.Request.Context(), req.SessionID, req.ModelName, req.answers())
		if err != nil {
			failQuote(c, err)
			return
		}
		ok(c, http.StatusOK, QuoteResponse{SessionID: req.SessionID, Snapshot: snap})
		return
	}

	id, snap, err := h.quoteSvc.Start(c.Request.Context(), req.ModelName, req.answers())
	if err != nil {
		failQuote(c, err)
		return
	}
	ok(c, http.StatusCreated, QuoteResponse{SessionID: id, Snapshot: snap})
}

// GetQuote godoc
// @ID          getQuote
// @Summary     Poll a quote session
// @Description Returns the session's current state, attempt counter, and quote when ready.
// @Tags        Quotes
// @Produce     json
//
// @Param       id  path  string  true  "Session ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.QuoteResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /quotes/{id} [get]
func (h *Handlers) GetQuote(c *gin.Context) {
	id := c.Param("id")
	snap, err := h.quoteSvc.Get(id)
	if err != nil {
		failQuote(c, err)
		return
	}
	ok(c, http.StatusOK, QuoteResponse{SessionID: id, Snapshot: snap})
}

// RetryQuote godoc
// @ID          retryQuote
// @Summary     Retry a quote session
// @Description Clears a failed or retry-exhausted session and prices again. No-op for sessions that are requesting or unsupported.
// @Tags        Quotes
// @Produce     json
//
// @Param       id  path  string  true  "Session ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.QuoteResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /quotes/{id}/retry [post]
func (h *Handlers) RetryQuote(c *gin.Context) {
	id := c.Param("id")
	snap, err := h.quoteSvc.Retry(c.Request.Context(), id)
	if err != nil {
		failQuote(c, err)
		return
	}
	ok(c, http.StatusOK, QuoteResponse{SessionID: id, Snapshot: snap})
}

// failQuote maps quote service errors to HTTP responses.
func failQuote(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrQuoteNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "quote session not found")
	case errors.Is(err, services.ErrInvalidQuote):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeQuoteFailed, err.Error())
	}
}
