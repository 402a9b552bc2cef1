package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/file-manager-grev/file-service/internal/share"
)

// ShareFile issues an expiring share link for a file and mails it to the
// recipient.
//
// POST /api/share {file_id, shared_with_email, role}
func (h *Handler) ShareFile(c *gin.Context) {
	var req share.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_id, shared_with_email, and role are required"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	grant, err := h.shares.Issue(ctx, req)
	if err != nil {
		if errors.Is(err, share.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("share issuance failed", zap.String("file_id", req.FileID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.publish("files.shared", gin.H{
		"file_id":     grant.Permission.FileID,
		"shared_with": grant.Permission.SharedWith,
		"role":        grant.Permission.Role,
		"expires_at":  grant.Permission.ExpiresAt,
	})

	message := "File shared & email sent successfully"
	if !grant.EmailSent {
		message = "File shared; email delivery failed"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    message,
		"permission": grant.Permission,
		"share_link": grant.ShareLink,
		"email_sent": grant.EmailSent,
	})
}

// ValidateShare redeems a share token into a time-limited signed download
// URL.
//
// GET /api/share/validate/:token?email=
func (h *Handler) ValidateShare(c *gin.Context) {
	token := c.Param("token")
	email := c.Query("email")

	ctx, cancel := requestContext(c)
	defer cancel()

	signedURL, err := h.shares.Validate(ctx, token, email)
	if err != nil {
		switch {
		case errors.Is(err, share.ErrInvalidLink):
			c.JSON(http.StatusNotFound, gin.H{"error": "Invalid link"})
		case errors.Is(err, share.ErrUnauthorizedEmail):
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized email"})
		case errors.Is(err, share.ErrLinkExpired):
			c.JSON(http.StatusGone, gin.H{"error": "Link expired"})
		default:
			h.log.Error("share validation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"signedUrl": signedURL})
}
