package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/file-manager-grev/file-service/cmd/middleware"
	"github.com/file-manager-grev/file-service/internal/models"
	"github.com/file-manager-grev/file-service/uploads/previews"
)

const maxUploadSize = 200 << 20 // per file

func (h *Handler) uploader(c *gin.Context) (string, bool) {
	if id, ok := middleware.UserID(c); ok {
		return id, true
	}
	if id := c.PostForm("userId"); id != "" {
		return id, true
	}
	return "", false
}

// UploadFile stores a single multipart file in the bucket and records its
// metadata row.
func (h *Handler) UploadFile(c *gin.Context) {
	userID, ok := h.uploader(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large: " + fileHeader.Filename})
		return
	}

	objectKey := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), fileHeader.Filename)
	meta, err := h.storeObject(c, fileHeader, objectKey, nil, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if strings.HasPrefix(meta.Format, "image/") {
		h.generatePreview(c, fileHeader, &meta)
	}

	if h.scanner != nil {
		go h.scanner.ScanObject(meta.ID, objectKey)
	}

	h.publish("files.uploaded", gin.H{
		"action":      "uploaded",
		"file_id":     meta.ID,
		"object_name": objectKey,
		"size":        meta.Size,
		"user_id":     userID,
		"uploaded_at": meta.UploadedAt.UTC().Format(time.RFC3339),
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":  "File uploaded successfully",
		"file_url": meta.FileURL,
		"file":     meta,
	})
}

// UploadFolder stores a batch of files under one folder prefix, recording a
// folder row and one files row per object.
func (h *Handler) UploadFolder(c *gin.Context) {
	userID, ok := h.uploader(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}
	files := form.File["files"]

	folderName := c.PostForm("folderName")
	if folderName == "" {
		folderName = fmt.Sprintf("folder-%d", time.Now().UnixMilli())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	folder := models.Folder{
		ID:         uuid.New().String(),
		FolderName: folderName,
		FolderURL:  h.storage.ObjectURL(folderName),
		UserID:     userID,
		UploadedAt: time.Now(),
	}
	if err := h.store.InsertFolder(ctx, folder); err != nil {
		h.log.Error("failed to save folder", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save folder details"})
		return
	}

	uploaded := make([]models.File, 0, len(files))
	for _, fh := range files {
		objectKey := folderName + "/" + fh.Filename
		meta, err := h.storeObject(c, fh, objectKey, &folder.ID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if h.scanner != nil {
			go h.scanner.ScanObject(meta.ID, objectKey)
		}
		uploaded = append(uploaded, meta)
	}

	h.publish("files.uploaded", gin.H{
		"action":    "folder_uploaded",
		"folder_id": folder.ID,
		"files":     len(uploaded),
		"user_id":   userID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message":    "Folder uploaded successfully",
		"folderId":   folder.ID,
		"folderName": folderName,
		"folderUrl":  folder.FolderURL,
		"files":      uploaded,
	})
}

// storeObject streams one multipart file into the bucket and inserts its
// metadata row, removing the object again if the insert fails.
func (h *Handler) storeObject(c *gin.Context, fh *multipart.FileHeader, objectKey string, folderID *string, userID string) (models.File, error) {
	ctx, cancel := requestContext(c)
	defer cancel()

	src, err := fh.Open()
	if err != nil {
		return models.File{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := h.storage.Upload(ctx, src, fh.Size, objectKey, contentType); err != nil {
		return models.File{}, fmt.Errorf("failed to upload to storage: %w", err)
	}

	meta := models.File{
		ID:         uuid.New().String(),
		FolderID:   folderID,
		FileName:   objectKey,
		FileURL:    h.storage.ObjectURL(objectKey),
		Size:       fh.Size,
		Format:     contentType,
		ScanStatus: "pending",
		UserID:     userID,
		UploadedAt: time.Now(),
	}

	if err := h.store.InsertFile(ctx, meta); err != nil {
		// keep bucket and table consistent
		if delErr := h.storage.Remove(ctx, objectKey); delErr != nil {
			h.log.Warn("failed to clean up object after metadata failure",
				zap.String("object", objectKey), zap.Error(delErr))
		}
		return models.File{}, fmt.Errorf("failed to save file metadata: %w", err)
	}

	return meta, nil
}

func (h *Handler) generatePreview(c *gin.Context, fh *multipart.FileHeader, meta *models.File) {
	ctx, cancel := requestContext(c)
	defer cancel()

	src, err := fh.Open()
	if err != nil {
		h.log.Warn("preview: reopen upload failed", zap.Error(err))
		return
	}
	defer src.Close()

	buf, err := previews.GenerateImagePreview(src, 200)
	if err != nil {
		h.log.Warn("preview generation failed", zap.String("file_id", meta.ID), zap.Error(err))
		return
	}

	previewKey := "previews/" + meta.ID + ".jpg"
	if err := h.storage.Upload(ctx, buf, int64(buf.Len()), previewKey, "image/jpeg"); err != nil {
		h.log.Warn("preview upload failed", zap.String("file_id", meta.ID), zap.Error(err))
		return
	}
	if err := h.store.UpdateFilePreview(ctx, meta.ID, previewKey); err != nil {
		h.log.Warn("preview metadata update failed", zap.String("file_id", meta.ID), zap.Error(err))
		return
	}
	meta.PreviewPath = previewKey
}

// GetPreview redeems a file id for a short-lived signed URL of its thumbnail.
func (h *Handler) GetPreview(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	file, err := h.store.GetFile(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	if file.PreviewPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Preview not available for this file type"})
		return
	}

	url, err := h.storage.PresignedGet(ctx, file.PreviewPath, previewURLTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign preview URL"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"previewUrl": url})
}
