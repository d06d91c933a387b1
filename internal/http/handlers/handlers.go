// Package handlers exposes the REST surface of the delivery pipeline.
//
// Handlers are transport-thin: they bind and validate input, take the caller
// identity established by middleware.RequireUser, call one service method and
// translate the result (see failErr for the error mapping).
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/studyvault/internal/domain"
	"github.com/tbourn/studyvault/internal/http/middleware"
	"github.com/tbourn/studyvault/internal/services"
	"github.com/tbourn/studyvault/internal/utils"
)

//
// Service contracts (context-aware)
//

// Fulfiller converts a completed order into entitlements.
type Fulfiller interface {
	Fulfill(ctx context.Context, orderID, userID string) (int, error)
}

// Redeemer converts an access key into entitlements.
type Redeemer interface {
	Redeem(ctx context.Context, token, userID string) ([]domain.Entitlement, error)
}

// EntitlementQuery is the read-only unlock listing.
type EntitlementQuery interface {
	ListPage(ctx context.Context, userID string, downloaded *bool, page, pageSize int) ([]domain.Entitlement, int64, error)
	Stats(ctx context.Context, userID string) (int64, *time.Time, error)
}

// DownloadIssuer authorizes downloads and serves watermarked notes.
type DownloadIssuer interface {
	AuthorizeDownload(ctx context.Context, entitlementID, userID string, confirmRedownload bool) (*services.DownloadGrant, error)
	Deliver(ctx context.Context, objectKey, ticket string) (*services.DeliveredFile, error)
}

// OrderManager covers checkout, owner reads and administrator transitions.
type OrderManager interface {
	Checkout(ctx context.Context, userID string, items []services.CheckoutItem) (*domain.Order, error)
	Get(ctx context.Context, orderID, userID string) (*domain.Order, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Order, error)
	MarkCompleted(ctx context.Context, orderID string) (*domain.Order, error)
	MarkProcessing(ctx context.Context, orderID string) (*domain.Order, error)
}

// KeyManager is the administrator's access-key inventory.
type KeyManager interface {
	MintBatch(ctx context.Context, itemID string, ct domain.ContentType, n int) ([]domain.AccessKey, error)
	ListKeys(ctx context.Context, itemID string, status domain.KeyStatus, limit int) ([]domain.AccessKey, error)
}

//
// Handler wiring
//

// Services bundles the collaborators of Handlers. A nil member disables
// nothing at construction time; the router only mounts what it wires.
type Services struct {
	Fulfillment  Fulfiller
	Redemption   Redeemer
	Entitlements EntitlementQuery
	Downloads    DownloadIssuer
	Orders       OrderManager
	Keys         KeyManager
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	svc Services
}

// New constructs Handlers bound to svc.
func New(svc Services) *Handlers {
	return &Handlers{svc: svc}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

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

// clampPagination parses page and page_size with defaults 1 and 20, capping
// page_size at 100.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = max(utils.AtoiDefault(c.Query("page"), defaultPage), 1)
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

func userID(c *gin.Context) string { return middleware.UserID(c) }
