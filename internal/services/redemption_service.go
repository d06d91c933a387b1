// Package services – RedemptionService
//
// This file implements the Key Redemption Engine. A redemption binds one
// available access key to the caller and writes one entitlement per file
// part of the key's unit variant. Both writes commit in a single transaction;
// the key's status is re-checked by the binding UPDATE itself so that, of two
// concurrent redemptions, exactly one wins and the other sees ErrKeyInvalid.
//
// Redemption is not idempotent: replaying a successful token fails with
// ErrKeyInvalid because the key is bound.
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

// AttemptLimiter bounds redemption attempts per user.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// RedemptionService converts access keys into entitlements.
type RedemptionService struct {
	DB *gorm.DB
	// Limiter is optional; nil disables throttling.
	Limiter AttemptLimiter
	Now     func() time.Time
}

var redeemOutcomes = map[error]string{
	ErrKeyInvalid:      "key_invalid",
	ErrItemMissing:     "item_missing",
	ErrRedeemThrottled: "throttled",
	ErrUnauthorized:    "unauthorized",
}

// Redeem binds token to userID and returns the entitlements created.
//
// Errors:
//   - ErrUnauthorized when userID is empty.
//   - ErrRedeemThrottled when the attempt quota is exhausted.
//   - ErrKeyInvalid when no available key matches, including a lost race.
//   - ErrItemMissing when the unit or its files are absent; the key stays
//     available.
func (s *RedemptionService) Redeem(ctx context.Context, token, userID string) (ents []domain.Entitlement, err error) {
	tr := otel.Tracer("services/RedemptionService")
	ctx, span := tr.Start(ctx, "Redeem", trace.WithAttributes(attribute.String("user.id", userID)))
	defer func() {
		redemptions.WithLabelValues(outcome(err, redeemOutcomes)).Inc()
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if userID == "" {
		return nil, ErrUnauthorized
	}
	if s.Limiter != nil && !s.Limiter.Allow(ctx, userID) {
		return nil, ErrRedeemThrottled
	}

	var key *domain.AccessKey
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Fresh read inside the transaction; rows are locked where supported.
		k, err := lookupAvailable(ctx, tx, token)
		if err != nil {
			return err
		}
		key = k

		files, err := resolveFiles(ctx, tx, k.ItemID, k.ContentType, "")
		if err != nil {
			return err
		}

		now := s.now()
		if err := repo.BindAccessKey(ctx, tx, k.ID, userID, now); err != nil {
			if errors.Is(err, repo.ErrStale) {
				return ErrKeyInvalid
			}
			return err
		}

		ents = keyEntitlements(k, userID, files, now)
		return repo.CreateEntitlements(ctx, tx, ents)
	})
	if err != nil {
		if errors.Is(err, ErrItemMissing) && key != nil {
			logger(ctx).Error().
				Str("key_id", key.ID).
				Str("item_id", key.ItemID).
				Str("content_type", string(key.ContentType)).
				Msg("redemption aborted: unit has no deliverable files")
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("key.id", key.ID), attribute.Int("entitlements", len(ents)))
	entitlementsGranted.WithLabelValues(string(domain.SourceKey)).Add(float64(len(ents)))
	logger(ctx).Info().
		Str("key_id", key.ID).
		Str("item_id", key.ItemID).
		Int("entitlements", len(ents)).
		Msg("access key redeemed")
	return ents, nil
}

// keyEntitlements builds one record per distinct file. Key-sourced records
// carry no language.
func keyEntitlements(k *domain.AccessKey, userID string, files []domain.UnitFile, at time.Time) []domain.Entitlement {
	seen := make(map[string]struct{}, len(files))
	out := make([]domain.Entitlement, 0, len(files))
	for _, f := range files {
		if _, dup := seen[f.Path]; dup {
			continue
		}
		seen[f.Path] = struct{}{}
		out = append(out, domain.Entitlement{
			ID:          uuid.NewString(),
			UserID:      userID,
			SourceKind:  domain.SourceKey,
			SourceID:    k.ID,
			ItemID:      k.ItemID,
			ContentType: k.ContentType,
			Part:        f.Part,
			PartLabel:   partLabel(f),
			FileRef:     f.Path,
			UnlockedAt:  at,
			UpdatedAt:   at,
		})
	}
	return out
}

func (s *RedemptionService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
