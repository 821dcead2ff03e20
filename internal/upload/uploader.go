// Package upload pushes cycle artifacts to a configured blob store.
// Uploads are fire and forget: a failed push is logged and reported as a
// boolean outcome, never a cycle failure.
package upload

import (
	"context"
	"fmt"
	"os"
	"path"

	"go.uber.org/zap"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/catalog"
)

// Uploader copies local cycle artifacts into a blob store.
type Uploader struct {
	store  catalog.BlobStore
	logger *zap.Logger
}

// New creates an Uploader.
func New(store catalog.BlobStore, logger *zap.Logger) *Uploader {
	return &Uploader{store: store, logger: logger}
}

// PushCycle uploads the catalog snapshot and the cycle report under a
// per-cycle prefix. Returns true only if every artifact landed.
func (u *Uploader) PushCycle(ctx context.Context, cycleID, catalogPath, reportPath string) bool {
	ok := u.pushFile(ctx, cycleID, catalogPath, "text/csv")
	if reportPath != "" {
		ok = u.pushFile(ctx, cycleID, reportPath, "application/json") && ok
	}
	return ok
}

func (u *Uploader) pushFile(ctx context.Context, cycleID, localPath, contentType string) bool {
	f, err := os.Open(localPath)
	if err != nil {
		u.logger.Warn("upload skipped, artifact unreadable",
			zap.String("path", localPath),
			zap.Error(err),
		)
		return false
	}
	defer f.Close()

	object := fmt.Sprintf("cycles/%s/%s", cycleID, path.Base(localPath))
	uri, err := u.store.PutObject(ctx, object, contentType, f)
	if err != nil {
		u.logger.Warn("upload failed",
			zap.String("object", object),
			zap.Error(err),
		)
		return false
	}
	u.logger.Info("artifact uploaded", zap.String("uri", uri))
	return true
}
