// Order HTTP handlers.
//
//   - POST /orders        (checkout)
//   - GET  /orders        (caller's orders)
//   - GET  /orders/{id}   (one order, owner only)
//
// Orders are the upstream trigger for fulfillment; they never authorize a
// download by themselves.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/studyvault/internal/domain"
	"github.com/tbourn/studyvault/internal/services"
)

// CheckoutRequest is the JSON payload for POST /orders.
type CheckoutRequest struct {
	Items []services.CheckoutItem `json:"items" binding:"required,min=1,max=100,dive"`
}

// ListOrdersResponse wraps the caller's orders.
type ListOrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

// Checkout godoc
// @ID          checkout
// @Summary     Create an order
// @Description Records the requested unit variants and moves the order to pending_payment.
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.CheckoutRequest  true  "Line items"
// @Success     201  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders [post]
func (h *Handlers) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "items required: item_id, content_type, language")
		return
	}
	o, err := h.svc.Orders.Checkout(c.Request.Context(), userID(c), req.Items)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, o)
}

// ListOrders godoc
// @ID          listOrders
// @Summary     List the caller's orders
// @Tags        Orders
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.ListOrdersResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders [get]
func (h *Handlers) ListOrders(c *gin.Context) {
	orders, err := h.svc.Orders.ListForUser(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	ok(c, http.StatusOK, ListOrdersResponse{Orders: orders})
}

// GetOrder godoc
// @ID          getOrder
// @Summary     Get one of the caller's orders
// @Tags        Orders
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Order ID"
// @Success     200  {object}  domain.Order
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Router      /orders/{id} [get]
func (h *Handlers) GetOrder(c *gin.Context) {
	o, err := h.svc.Orders.Get(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}
