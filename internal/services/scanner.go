package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	clamd "github.com/dutchcoders/go-clamd"
	"go.uber.org/zap"
)

// Scanner runs uploaded objects through ClamAV and records the verdict on
// the files row. Infected objects are removed from the bucket.
type Scanner struct {
	clamURL string
	store   *Store
	storage *StorageService
	log     *zap.Logger
}

func NewScanner(clamURL string, store *Store, storage *StorageService, log *zap.Logger) *Scanner {
	return &Scanner{clamURL: clamURL, store: store, storage: storage, log: log}
}

// ScanObject downloads the object to a temp file, scans it and updates
// scan_status. Meant to run in its own goroutine after upload; errors are
// logged, never surfaced to the uploader.
func (s *Scanner) ScanObject(fileID, objectName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	tempPath := filepath.Join(os.TempDir(), fmt.Sprintf("scan-%s", fileID))
	if err := s.storage.Download(ctx, objectName, tempPath); err != nil {
		s.log.Error("failed to download object for scanning", zap.String("file_id", fileID), zap.Error(err))
		return
	}
	defer os.Remove(tempPath)

	c := clamd.NewClamd(s.clamURL)
	response, err := c.ScanFile(tempPath)
	if err != nil {
		s.log.Error("scan failed", zap.String("file_id", fileID), zap.Error(err))
		return
	}

	status := "clean"
	for res := range response {
		if res.Status == clamd.RES_FOUND {
			s.log.Warn("virus detected",
				zap.String("file_id", fileID),
				zap.String("signature", res.Description))
			status = "infected"

			if err := s.storage.Remove(ctx, objectName); err != nil {
				s.log.Error("failed to delete infected object", zap.String("object", objectName), zap.Error(err))
				return
			}
		}
	}

	if err := s.store.UpdateFileScanStatus(ctx, fileID, status, time.Now()); err != nil {
		s.log.Error("failed to update scan status", zap.String("file_id", fileID), zap.Error(err))
		return
	}
	s.log.Info("scan finished", zap.String("file_id", fileID), zap.String("status", status))
}
