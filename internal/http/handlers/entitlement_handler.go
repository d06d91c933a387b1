// Entitlement HTTP handlers.
//
// This file exposes the read surface and the download path:
//   - GET  /entitlements                 (list, paginated, weak ETag)
//   - POST /entitlements/{id}/download   (issue a time-limited URL)
//   - GET  /download                     (serve a watermarked note)
package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/studyvault/internal/domain"
)

// ListEntitlementsResponse wraps a page of unlock records.
type ListEntitlementsResponse struct {
	Entitlements []domain.Entitlement `json:"entitlements"`
	Pagination   Pagination           `json:"pagination"`
}

// AuthorizeDownloadRequest is the optional JSON payload for an authorization.
type AuthorizeDownloadRequest struct {
	// ConfirmRedownload must be true for an entitlement downloaded before.
	ConfirmRedownload bool `json:"confirmRedownload" example:"false"`
}

// ListEntitlements godoc
// @ID          listEntitlements
// @Summary     List the caller's entitlements
// @Description Most recent unlock first. downloaded=false lists "ready to download", downloaded=true "already downloaded". Supports weak ETag via If-None-Match.
// @Tags        Entitlements
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Param       downloaded     query   bool    false  "Filter by download state"
// @Success     200  {object}  handlers.ListEntitlementsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /entitlements [get]
func (h *Handlers) ListEntitlements(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	var downloaded *bool
	filter := "all"
	if raw := c.Query("downloaded"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "downloaded must be true or false")
			return
		}
		downloaded = &b
		filter = raw
	}

	// ETag pre-check (best effort).
	if count, maxTS, err := h.svc.Entitlements.Stats(ctx, uid); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"ents:%s:%d:%d:%s:%d:%d"`, uid, count, ts, filter, page, pageSize)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.svc.Entitlements.ListPage(ctx, uid, downloaded, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListEntitlementsResponse{
		Entitlements: items,
		Pagination:   newPagination(page, pageSize, total),
	})
}

// AuthorizeDownload godoc
// @ID          authorizeDownload
// @Summary     Issue a download URL for an entitlement
// @Description Assignments get a signed storage URL; notes get a /download link that serves a watermarked copy. A second download needs confirmRedownload=true.
// @Tags        Entitlements
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string                             true   "Entitlement ID"
// @Param       body  body  handlers.AuthorizeDownloadRequest  false  "Re-download confirmation"
// @Success     200  {object}  services.DownloadGrant
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the owner"
// @Failure     404  {object}  handlers.ErrorResponse  "Entitlement or note file not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Re-download not confirmed"
// @Failure     422  {object}  handlers.ErrorResponse  "File reference unresolvable"
// @Failure     503  {object}  handlers.ErrorResponse  "Storage unavailable"
// @Router      /entitlements/{id}/download [post]
func (h *Handlers) AuthorizeDownload(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "entitlement id required")
		return
	}

	var req AuthorizeDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	grant, err := h.svc.Downloads.AuthorizeDownload(c.Request.Context(), id, userID(c), req.ConfirmRedownload)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, grant)
}

// Download godoc
// @ID          downloadNote
// @Summary     Download a watermarked note
// @Description Streams the note named by file with a diagonal watermark on every page. The ticket comes from an authorization.
// @Tags        Entitlements
// @Produce     application/pdf
// @Param       file    query  string  true  "Object path"
// @Param       ticket  query  string  true  "Download ticket"
// @Success     200  {file}    file
// @Failure     400  {object}  handlers.ErrorResponse  "Missing file parameter"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid ticket"
// @Failure     403  {object}  handlers.ErrorResponse  "Ticket issued for another file"
// @Failure     404  {object}  handlers.ErrorResponse  "Object not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Watermarking failed"
// @Failure     503  {object}  handlers.ErrorResponse  "Storage unavailable"
// @Router      /download [get]
func (h *Handlers) Download(c *gin.Context) {
	file := strings.TrimSpace(c.Query("file"))
	if file == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "file parameter is required")
		return
	}

	out, err := h.svc.Downloads.Deliver(c.Request.Context(), file, c.Query("ticket"))
	if err != nil {
		failErr(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.Name}))
	c.Data(http.StatusOK, "application/pdf", out.Bytes)
}
