// Unlock HTTP handlers.
//
// This file exposes the two entitlement-creating endpoints:
//   - POST /unlock-content   (fulfill a completed order)
//   - POST /redeem           (redeem an access key)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/studyvault/internal/domain"
	"github.com/tbourn/studyvault/internal/services"
)

// UnlockContentRequest is the JSON payload for POST /unlock-content.
type UnlockContentRequest struct {
	OrderID string `json:"orderId" binding:"required" example:"6f1c2a7e-1b7e-4c7e-9d55-0a8c0e6f2b11"`
}

// UnlockContentResponse reports a successful fulfillment.
type UnlockContentResponse struct {
	Success  bool `json:"success" example:"true"`
	Unlocked int  `json:"unlocked" example:"2"`
}

// RedeemRequest is the JSON payload for POST /redeem.
type RedeemRequest struct {
	Key string `json:"key" binding:"required,max=64" example:"LZ3K9Q-7HX2MPQ4RA"`
}

// RedeemResponse lists the records created by a redemption.
type RedeemResponse struct {
	Success      bool                 `json:"success" example:"true"`
	Entitlements []domain.Entitlement `json:"entitlements"`
}

// UnlockContent godoc
// @ID          unlockContent
// @Summary     Unlock the content of a completed order
// @Description Converts a completed, paid order into one entitlement per resolvable line item. Runs once per order.
// @Tags        Unlock
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.UnlockContentRequest  true  "Order to unlock"
// @Success     200  {object}  handlers.UnlockContentResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing orderId, order not completed or already unlocked"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the order owner"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Failure     422  {object}  handlers.ErrorResponse  "No line item could be resolved"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /unlock-content [post]
func (h *Handlers) UnlockContent(c *gin.Context) {
	var req UnlockContentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.OrderID) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "orderId is required")
		return
	}

	n, err := h.svc.Fulfillment.Fulfill(c.Request.Context(), strings.TrimSpace(req.OrderID), userID(c))
	if err != nil {
		// The caller is authenticated; an owner mismatch is a 403 here.
		if errors.Is(err, services.ErrUnauthorized) {
			fail(c, http.StatusForbidden, ErrCodeForbidden, "order belongs to another user")
			return
		}
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, UnlockContentResponse{Success: true, Unlocked: n})
}

// Redeem godoc
// @ID          redeemKey
// @Summary     Redeem an access key
// @Description Binds a single-use access key to the caller and unlocks every file part of its unit.
// @Tags        Unlock
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.RedeemRequest  true  "Access key"
// @Success     200  {object}  handlers.RedeemResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Key invalid"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     422  {object}  handlers.ErrorResponse  "Catalog item missing"
// @Failure     429  {object}  handlers.ErrorResponse  "Too many attempts"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /redeem [post]
func (h *Handlers) Redeem(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "key is required")
		return
	}

	ents, err := h.svc.Redemption.Redeem(c.Request.Context(), req.Key, userID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, RedeemResponse{Success: true, Entitlements: ents})
}
