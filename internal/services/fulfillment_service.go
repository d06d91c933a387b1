// Package services – FulfillmentService
//
// This file implements the Order Fulfillment Engine. A completed order is
// converted into one entitlement per resolvable line item and its
// content_unlocked flag is flipped, both in a single transaction. The flag is
// re-checked by the UPDATE at commit time, so concurrent calls on the same
// order produce entitlements at most once.
//
// Lines whose unit is missing from the catalog are skipped and logged; the
// rest of the order is still fulfilled.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/studyvault/internal/domain"
	"github.com/tbourn/studyvault/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FulfillmentService converts completed orders into entitlements.
type FulfillmentService struct {
	DB  *gorm.DB
	Now func() time.Time
}

var fulfillOutcomes = map[error]string{
	ErrOrderNotFound:     "not_found",
	ErrUnauthorized:      "unauthorized",
	ErrOrderNotCompleted: "not_completed",
	ErrAlreadyUnlocked:   "already_unlocked",
	ErrItemMissing:       "item_missing",
}

// Fulfill unlocks orderID for userID and returns how many entitlements were
// created.
//
// Errors:
//   - ErrOrderNotFound when the order does not exist.
//   - ErrUnauthorized when the order belongs to another user.
//   - ErrOrderNotCompleted when payment has not been confirmed.
//   - ErrAlreadyUnlocked on any call after a successful one.
//   - ErrItemMissing when no line item resolves; the order stays locked so
//     the call can be retried once the catalog is repaired.
//
// Any failure leaves the order unchanged and safe to retry.
func (s *FulfillmentService) Fulfill(ctx context.Context, orderID, userID string) (created int, err error) {
	tr := otel.Tracer("services/FulfillmentService")
	ctx, span := tr.Start(ctx, "Fulfill",
		trace.WithAttributes(
			attribute.String("order.id", orderID),
			attribute.String("user.id", userID),
		),
	)
	defer func() {
		fulfillments.WithLabelValues(outcome(err, fulfillOutcomes)).Inc()
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := repo.GetOrder(ctx, tx, orderID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if o.UserID != userID {
			return ErrUnauthorized
		}
		if o.Status != domain.OrderCompleted {
			return ErrOrderNotCompleted
		}
		if o.ContentUnlocked {
			return ErrAlreadyUnlocked
		}

		ents, err := s.orderEntitlements(ctx, tx, o)
		if err != nil {
			return err
		}
		if len(ents) == 0 {
			return ErrItemMissing
		}
		if err := repo.CreateEntitlements(ctx, tx, ents); err != nil {
			return err
		}
		if err := repo.MarkOrderUnlocked(ctx, tx, o.ID); err != nil {
			if errors.Is(err, repo.ErrStale) {
				return ErrAlreadyUnlocked
			}
			return err
		}
		created = len(ents)
		return nil
	})
	if err != nil {
		return 0, err
	}

	span.SetAttributes(attribute.Int("entitlements", created))
	entitlementsGranted.WithLabelValues(string(domain.SourceOrder)).Add(float64(created))
	logger(ctx).Info().Str("order_id", orderID).Int("entitlements", created).Msg("order fulfilled")
	return created, nil
}

// orderEntitlements resolves each line item and builds one record per
// distinct (item, content type, language). Unresolvable lines are skipped.
func (s *FulfillmentService) orderEntitlements(ctx context.Context, tx *gorm.DB, o *domain.Order) ([]domain.Entitlement, error) {
	now := s.now()
	seen := make(map[string]struct{}, len(o.Items))
	out := make([]domain.Entitlement, 0, len(o.Items))

	for _, it := range o.Items {
		dedupe := it.ItemID + "\x00" + string(it.ContentType) + "\x00" + it.Language
		if _, dup := seen[dedupe]; dup {
			continue
		}
		seen[dedupe] = struct{}{}

		files, err := resolveFiles(ctx, tx, it.ItemID, it.ContentType, it.Language)
		if errors.Is(err, ErrItemMissing) {
			logger(ctx).Warn().
				Str("order_id", o.ID).
				Str("item_id", it.ItemID).
				Str("content_type", string(it.ContentType)).
				Str("language", it.Language).
				Msg("fulfillment skipped line: item missing from catalog")
			continue
		}
		if err != nil {
			return nil, err
		}

		// One record per line. Later parts of a multi-part unit are reachable
		// through access keys only.
		f := files[0]
		lang := it.Language
		out = append(out, domain.Entitlement{
			ID:          uuid.NewString(),
			UserID:      o.UserID,
			SourceKind:  domain.SourceOrder,
			SourceID:    o.ID,
			ItemID:      it.ItemID,
			ContentType: it.ContentType,
			Language:    &lang,
			Part:        f.Part,
			PartLabel:   partLabel(f),
			FileRef:     f.Path,
			UnlockedAt:  now,
			UpdatedAt:   now,
		})
	}
	return out, nil
}

func (s *FulfillmentService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
