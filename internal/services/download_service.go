// Package services – DownloadService
//
// This file implements the Secure Download Issuer. Authorization always
// re-reads the entitlement ledger; order and key state are never consulted.
//
// Assignments are served by a time-limited signed URL straight from the blob
// store. Notes are never exposed that way: the caller receives a link to the
// /download endpoint carrying a short-lived ticket, and Deliver fetches the
// raw object, stamps the watermark and returns the derived bytes.
//
// Recording the download is fire-and-forget relative to issuing the URL: a
// failed ledger write is logged and counted as a reconciliation gap, and the
// URL is still returned.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/studyvault/internal/auth"
	"github.com/tbourn/studyvault/internal/domain"
	"github.com/tbourn/studyvault/internal/repo"
	"github.com/tbourn/studyvault/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultSignedURLTTL is the validity of an issued download URL.
const DefaultSignedURLTTL = 15 * time.Minute

// defaultMaxSourceBytes caps how much of a note is buffered for stamping.
const defaultMaxSourceBytes = 100 << 20

// BlobStore is the subset of the object store used for delivery.
type BlobStore interface {
	Bucket() string
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	Open(ctx context.Context, key string) (*storage.Object, error)
	Stat(ctx context.Context, key string) (int64, error)
}

// Watermarker stamps a document.
type Watermarker interface {
	Apply(src []byte) ([]byte, error)
}

// TicketSigner mints and checks /download tickets.
type TicketSigner interface {
	Issue(userID, objectKey string, ttl time.Duration) (string, error)
	Verify(ticket, objectKey string) (string, error)
}

// DownloadGrant is the result of a successful authorization.
type DownloadGrant struct {
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expires_at"`
	Watermarked bool      `json:"watermarked"`
	FileName    string    `json:"file_name"`
}

// DeliveredFile is a watermarked document ready to stream.
type DeliveredFile struct {
	Name  string
	Bytes []byte
}

// DownloadService authorizes and serves entitlement downloads.
type DownloadService struct {
	DB      *gorm.DB
	Blobs   BlobStore
	Marker  Watermarker
	Tickets TicketSigner

	// TTL of issued URLs and tickets; zero means DefaultSignedURLTTL.
	TTL time.Duration
	// PublicBaseURL prefixes the /download link handed out for notes.
	PublicBaseURL  string
	MaxSourceBytes int64
	Now            func() time.Time
}

// AuthorizeDownload issues a URL for entitlementID on behalf of userID.
//
// Errors:
//   - ErrEntitlementNotFound when the record does not exist.
//   - ErrForbidden when it belongs to another user.
//   - ErrRedownloadNotConfirmed when it was downloaded before and
//     confirmRedownload is false.
//   - ErrItemMissing when the stored file reference cannot be resolved.
//   - ErrObjectNotFound when a note's object is absent from the store.
//   - ErrStorageUnavailable when the blob store cannot sign a URL.
func (s *DownloadService) AuthorizeDownload(ctx context.Context, entitlementID, userID string, confirmRedownload bool) (*DownloadGrant, error) {
	tr := otel.Tracer("services/DownloadService")
	ctx, span := tr.Start(ctx, "AuthorizeDownload",
		trace.WithAttributes(
			attribute.String("entitlement.id", entitlementID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	e, err := repo.GetEntitlement(ctx, s.DB, entitlementID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEntitlementNotFound
		}
		return nil, err
	}
	if e.UserID != userID {
		return nil, ErrForbidden
	}
	if e.Downloaded && !confirmRedownload {
		return nil, ErrRedownloadNotConfirmed
	}

	key, err := storage.ObjectKeyFromRef(e.FileRef, s.Blobs.Bucket())
	if err != nil {
		logger(ctx).Error().Str("entitlement_id", e.ID).Err(err).Msg("unresolvable file reference")
		return nil, fmt.Errorf("%w: %v", ErrItemMissing, err)
	}

	now := s.now()
	ttl := s.ttl()
	grant := &DownloadGrant{ExpiresAt: now.Add(ttl), FileName: path.Base(key)}

	if e.ContentType == domain.ContentNote {
		// The ticket link never touches the store, so confirm the object first.
		if _, err := s.Blobs.Stat(ctx, key); err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				logger(ctx).Error().Str("entitlement_id", e.ID).Str("object_key", key).Msg("note object missing")
				return nil, ErrObjectNotFound
			}
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		ticket, err := s.Tickets.Issue(userID, key, ttl)
		if err != nil {
			return nil, err
		}
		q := url.Values{}
		q.Set("file", key)
		q.Set("ticket", ticket)
		grant.URL = s.PublicBaseURL + "/download?" + q.Encode()
		grant.Watermarked = true
	} else {
		signed, err := s.Blobs.PresignGet(ctx, key, ttl)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		grant.URL = signed
	}

	downloadAuthorizations.WithLabelValues(string(e.ContentType)).Inc()
	s.recordDownload(ctx, e, now)
	return grant, nil
}

// recordDownload flips the downloaded flag once. Failures never reach the
// caller.
func (s *DownloadService) recordDownload(ctx context.Context, e *domain.Entitlement, at time.Time) {
	if e.Downloaded {
		return
	}
	if _, err := repo.MarkEntitlementDownloaded(ctx, s.DB, e.ID, at); err != nil {
		downloadBookkeepingFailures.Inc()
		logger(ctx).Error().
			Err(err).
			Str("entitlement_id", e.ID).
			Str("user_id", e.UserID).
			Msg("reconciliation gap: download issued but not recorded")
	}
}

// Deliver verifies ticket for objectKey, fetches the raw note and returns it
// watermarked. It never returns unstamped bytes.
//
// Errors:
//   - ErrTicketInvalid for a missing, expired or forged ticket.
//   - ErrForbidden for a ticket minted for another object.
//   - ErrObjectNotFound when the key does not exist.
//   - ErrStorageUnavailable for blob store failures.
//   - ErrCorruptSource when the source cannot be parsed or stamped.
func (s *DownloadService) Deliver(ctx context.Context, objectKey, ticket string) (*DeliveredFile, error) {
	tr := otel.Tracer("services/DownloadService")
	ctx, span := tr.Start(ctx, "Deliver", trace.WithAttributes(attribute.String("object.key", objectKey)))
	defer span.End()

	key, err := storage.ObjectKeyFromRef(objectKey, s.Blobs.Bucket())
	if err != nil {
		return nil, ErrObjectNotFound
	}
	if _, err := s.Tickets.Verify(ticket, key); err != nil {
		if errors.Is(err, auth.ErrTicketObjectMismatch) {
			return nil, ErrForbidden
		}
		return nil, ErrTicketInvalid
	}

	raw, err := s.fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	out, err := s.Marker.Apply(raw)
	if err != nil {
		watermarkFailures.Inc()
		logger(ctx).Error().Err(err).Str("object_key", key).Msg("watermark failed")
		if errors.Is(err, ErrCorruptSource) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptSource, err)
	}
	return &DeliveredFile{Name: path.Base(key), Bytes: out}, nil
}

func (s *DownloadService) fetch(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.Blobs.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	defer obj.Body.Close()

	limit := s.MaxSourceBytes
	if limit <= 0 {
		limit = defaultMaxSourceBytes
	}
	raw, err := io.ReadAll(io.LimitReader(obj.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("%w: source exceeds %d bytes", ErrCorruptSource, limit)
	}
	return raw, nil
}

func (s *DownloadService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultSignedURLTTL
	}
	return s.TTL
}

func (s *DownloadService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
