package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/file-manager-grev/file-service/internal/services"
)

// ListFiles returns every files row not in the trash.
func (h *Handler) ListFiles(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	files, err := h.store.ListFiles(ctx)
	if err != nil {
		h.log.Error("list files failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, files)
}

// ListFolders returns every folders row not in the trash.
func (h *Handler) ListFolders(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	folders, err := h.store.ListFolders(ctx)
	if err != nil {
		h.log.Error("list folders failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, folders)
}

func entityKind(c *gin.Context) (services.EntityKind, bool) {
	kind := services.EntityKind(c.Param("type"))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be 'folder' or 'files'"})
		return "", false
	}
	return kind, true
}

type renameRequest struct {
	NewName string `json:"new_name" binding:"required"`
}

// Rename changes the display name of a file or folder.
func (h *Handler) Rename(c *gin.Context) {
	kind, ok := entityKind(c)
	if !ok {
		return
	}

	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new_name is required"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.store.Rename(ctx, kind, c.Param("id"), req.NewName); err != nil {
		h.editError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Renamed", "id": c.Param("id")})
}

// SoftDelete moves a file or folder to the trash.
func (h *Handler) SoftDelete(c *gin.Context) {
	kind, ok := entityKind(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.store.SoftDelete(ctx, kind, c.Param("id"), time.Now()); err != nil {
		h.editError(c, err)
		return
	}

	h.publish("files.trashed", gin.H{"type": string(kind), "id": c.Param("id")})
	c.JSON(http.StatusOK, gin.H{"message": "Moved to trash", "id": c.Param("id")})
}

// Restore brings a trashed file or folder back.
func (h *Handler) Restore(c *gin.Context) {
	kind, ok := entityKind(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.store.Restore(ctx, kind, c.Param("id")); err != nil {
		h.editError(c, err)
		return
	}

	h.publish("files.restored", gin.H{"type": string(kind), "id": c.Param("id")})
	c.JSON(http.StatusOK, gin.H{"message": "Restored", "id": c.Param("id")})
}

// PermanentDelete removes the row for good; for files, the stored object is
// removed from the bucket first.
func (h *Handler) PermanentDelete(c *gin.Context) {
	kind, ok := entityKind(c)
	if !ok {
		return
	}
	id := c.Param("id")

	ctx, cancel := requestContext(c)
	defer cancel()

	if kind == services.KindFiles {
		file, err := h.store.GetFile(ctx, id)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if key := h.storage.KeyFromURL(file.FileURL); key != "" {
			if err := h.storage.Remove(ctx, key); err != nil {
				h.log.Error("failed to delete object", zap.String("key", key), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete file from storage"})
				return
			}
		}
	}

	if err := h.store.HardDelete(ctx, kind, id); err != nil {
		h.editError(c, err)
		return
	}

	h.publish("files.deleted", gin.H{"type": string(kind), "id": id})
	c.JSON(http.StatusOK, gin.H{"message": "Permanently deleted"})
}

func (h *Handler) editError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	h.log.Error("edit operation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
