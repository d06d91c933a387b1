// Package services – AccessKeyService
//
// This file implements the Access Key Store: administrative minting of
// single-use tokens and the availability lookup used by redemption. Lookups
// never reveal why a token failed; unknown, bound and mistyped tokens all
// yield ErrKeyInvalid.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/studyvault/internal/domain"
	"github.com/tbourn/studyvault/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MaxMintBatch caps a single MintBatch call.
const MaxMintBatch = 500

// mintAttempts bounds retries when a generated token collides.
const mintAttempts = 3

// AccessKeyService mints and looks up access keys.
type AccessKeyService struct {
	DB  *gorm.DB
	Now func() time.Time
}

// NewAccessKeyService constructs an AccessKeyService using the wall clock.
func NewAccessKeyService(db *gorm.DB) *AccessKeyService {
	return &AccessKeyService{DB: db, Now: time.Now}
}

// Mint creates one available key for (itemID, ct). The unit must exist in
// the catalog; otherwise ErrItemMissing.
func (s *AccessKeyService) Mint(ctx context.Context, itemID string, ct domain.ContentType) (*domain.AccessKey, error) {
	keys, err := s.MintBatch(ctx, itemID, ct, 1)
	if err != nil {
		return nil, err
	}
	return &keys[0], nil
}

// MintBatch creates n independent keys for (itemID, ct) in one transaction.
func (s *AccessKeyService) MintBatch(ctx context.Context, itemID string, ct domain.ContentType, n int) ([]domain.AccessKey, error) {
	tr := otel.Tracer("services/AccessKeyService")
	ctx, span := tr.Start(ctx, "MintBatch",
		trace.WithAttributes(
			attribute.String("item.id", itemID),
			attribute.String("content_type", string(ct)),
			attribute.Int("count", n),
		),
	)
	defer span.End()

	if !ct.Valid() {
		return nil, ErrInvalidContentType
	}
	if n < 1 || n > MaxMintBatch {
		return nil, ErrInvalidCount
	}

	out := make([]domain.AccessKey, 0, n)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetUnit(ctx, tx, itemID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrItemMissing
			}
			return err
		}
		for i := 0; i < n; i++ {
			k, err := s.mintOne(ctx, tx, itemID, ct)
			if err != nil {
				return err
			}
			out = append(out, *k)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger(ctx).Info().Str("item_id", itemID).Str("content_type", string(ct)).Int("count", n).Msg("access keys minted")
	return out, nil
}

func (s *AccessKeyService) mintOne(ctx context.Context, tx *gorm.DB, itemID string, ct domain.ContentType) (*domain.AccessKey, error) {
	for attempt := 0; attempt < mintAttempts; attempt++ {
		token, err := newKeyToken(s.now())
		if err != nil {
			return nil, fmt.Errorf("generate token: %w", err)
		}
		k := &domain.AccessKey{
			ID:          uuid.NewString(),
			Key:         token,
			ItemID:      itemID,
			ContentType: ct,
			Status:      domain.KeyAvailable,
			CreatedAt:   s.now(),
		}
		err = repo.CreateAccessKey(ctx, tx, k)
		if errors.Is(err, repo.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return k, nil
	}
	return nil, errors.New("could not generate a unique access key")
}

// LookupAvailable returns the available key matching token exactly after
// normalization. Every miss is reported as ErrKeyInvalid.
func (s *AccessKeyService) LookupAvailable(ctx context.Context, token string) (*domain.AccessKey, error) {
	return lookupAvailable(ctx, s.DB, token)
}

func lookupAvailable(ctx context.Context, db *gorm.DB, token string) (*domain.AccessKey, error) {
	token = normalizeToken(token)
	if token == "" {
		return nil, ErrKeyInvalid
	}
	k, err := repo.GetAvailableAccessKey(ctx, db, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrKeyInvalid
		}
		return nil, err
	}
	return k, nil
}

// ListKeys returns keys newest first for auditing. Empty filters match all.
func (s *AccessKeyService) ListKeys(ctx context.Context, itemID string, status domain.KeyStatus, limit int) ([]domain.AccessKey, error) {
	switch status {
	case "", domain.KeyAvailable, domain.KeyBound:
	default:
		return nil, fmt.Errorf("%w: unknown key status %q", domain.ErrInvalidRecord, status)
	}
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	return repo.ListAccessKeys(ctx, s.DB, itemID, status, limit)
}

func (s *AccessKeyService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
