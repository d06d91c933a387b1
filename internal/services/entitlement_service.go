// Package services – EntitlementService
//
// This file implements the read-only entitlement query surface consumed by
// client UIs: a user's unlock records, most recent first, optionally split
// into "ready to download" and "already downloaded".
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/studyvault/internal/domain"
	"github.com/tbourn/studyvault/internal/repo"
	"github.com/tbourn/studyvault/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// EntitlementRepo defines the read contract required by EntitlementService.
type EntitlementRepo interface {
	CountEntitlements(ctx context.Context, db *gorm.DB, userID string, f repo.EntitlementFilter) (int64, error)
	// ListEntitlementsPage returns records most recently unlocked first.
	ListEntitlementsPage(ctx context.Context, db *gorm.DB, userID string, f repo.EntitlementFilter, offset, limit int) ([]domain.Entitlement, error)
	EntitlementsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error)
}

// EntitlementService lists unlock records.
type EntitlementService struct {
	DB   *gorm.DB
	Repo EntitlementRepo
}

// NewEntitlementService wires an EntitlementService to db through r.
func NewEntitlementService(db *gorm.DB, r EntitlementRepo) *EntitlementService {
	return &EntitlementService{DB: db, Repo: r}
}

// ListPage returns a page of userID's entitlements and the total matching
// count. A nil downloaded matches both partitions.
func (s *EntitlementService) ListPage(ctx context.Context, userID string, downloaded *bool, page, pageSize int) ([]domain.Entitlement, int64, error) {
	tr := otel.Tracer("services/EntitlementService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := utils.Offset(page, pageSize)
	f := repo.EntitlementFilter{Downloaded: downloaded}

	total, err := s.Repo.CountEntitlements(ctx, s.DB, userID, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Entitlement{}, 0, nil
	}
	items, err := s.Repo.ListEntitlementsPage(ctx, s.DB, userID, f, offset, pageSize)
	return items, total, err
}

// Stats returns the record count and latest update time for ETag derivation.
func (s *EntitlementService) Stats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return s.Repo.EntitlementsStats(ctx, s.DB, userID)
}
