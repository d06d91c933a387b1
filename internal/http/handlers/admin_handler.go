// Administrator HTTP handlers, mounted behind middleware.RequireAdmin.
//
//   - POST /admin/keys                     (mint a batch of access keys)
//   - GET  /admin/keys                     (audit listing)
//   - POST /admin/orders/{id}/complete     (payment confirmed)
//   - POST /admin/orders/{id}/processing   (payment under review)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/studyvault/internal/domain"
	"github.com/tbourn/studyvault/internal/utils"
)

// MintKeysRequest is the JSON payload for POST /admin/keys.
type MintKeysRequest struct {
	ItemID      string             `json:"item_id"      binding:"required,max=64" example:"unit-07"`
	ContentType domain.ContentType `json:"content_type" binding:"required,oneof=note assignment" example:"note"`
	Count       int                `json:"count"        binding:"omitempty,min=1,max=500" example:"10"`
}

// KeysResponse wraps a list of access keys.
type KeysResponse struct {
	Keys []domain.AccessKey `json:"keys"`
}

// MintKeys godoc
// @ID          mintKeys
// @Summary     Mint access keys
// @Description Creates count independent single-use keys for one unit variant. The unit must exist.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.MintKeysRequest  true  "Batch"
// @Success     201  {object}  handlers.KeysResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Administrator only"
// @Failure     422  {object}  handlers.ErrorResponse  "Unit not in catalog"
// @Router      /admin/keys [post]
func (h *Handlers) MintKeys(c *gin.Context) {
	var req MintKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item_id and content_type (note|assignment) required")
		return
	}
	if req.Count == 0 {
		req.Count = 1
	}
	keys, err := h.svc.Keys.MintBatch(c.Request.Context(), req.ItemID, req.ContentType, req.Count)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, KeysResponse{Keys: keys})
}

// ListKeys godoc
// @ID          listKeys
// @Summary     List access keys
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Param       item_id  query  string  false  "Unit ID"
// @Param       status   query  string  false  "available or bound"
// @Param       limit    query  int     false  "Maximum rows"  default(100)
// @Success     200  {object}  handlers.KeysResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Administrator only"
// @Router      /admin/keys [get]
func (h *Handlers) ListKeys(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 100)
	keys, err := h.svc.Keys.ListKeys(c.Request.Context(), c.Query("item_id"), domain.KeyStatus(c.Query("status")), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	if keys == nil {
		keys = []domain.AccessKey{}
	}
	ok(c, http.StatusOK, KeysResponse{Keys: keys})
}

// CompleteOrder godoc
// @ID          completeOrder
// @Summary     Mark an order completed
// @Description Records out-of-band payment confirmation. Content is unlocked separately by the owner.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Order ID"
// @Success     200  {object}  domain.Order
// @Failure     403  {object}  handlers.ErrorResponse  "Administrator only"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Transition not allowed"
// @Router      /admin/orders/{id}/complete [post]
func (h *Handlers) CompleteOrder(c *gin.Context) {
	o, err := h.svc.Orders.MarkCompleted(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// MarkOrderProcessing godoc
// @ID          markOrderProcessing
// @Summary     Mark an order as processing
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Order ID"
// @Success     200  {object}  domain.Order
// @Failure     403  {object}  handlers.ErrorResponse  "Administrator only"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Transition not allowed"
// @Router      /admin/orders/{id}/processing [post]
func (h *Handlers) MarkOrderProcessing(c *gin.Context) {
	o, err := h.svc.Orders.MarkProcessing(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}
