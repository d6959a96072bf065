package images

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

const (
	stagingPrefix = "staging/"
	updatesPrefix = "updates/"
)

// Store manages update images in the cloud storage bucket. Uploads land under
// a staging prefix and are promoted to their final location when the update
// commits, so abandoned drafts never leak into the public path.
type Store struct {
	bucket *storage.BucketHandle
	logger *zap.Logger
}

func NewStore(bucket *storage.BucketHandle, logger *zap.Logger) *Store {
	return &Store{bucket: bucket, logger: logger}
}

// Promote moves staged objects to their final location under the update's
// folder and returns the promoted refs. A per-object failure is logged and the
// object skipped; the update keeps the refs that did promote.
func (s *Store) Promote(ctx context.Context, updateID string, stagedRefs []string) []string {
	if s.bucket == nil || len(stagedRefs) == 0 {
		return nil
	}

	promoted := make([]string, 0, len(stagedRefs))
	for _, ref := range stagedRefs {
		if !strings.HasPrefix(ref, stagingPrefix) {
			// Already in final form, nothing to move.
			promoted = append(promoted, ref)
			continue
		}
		dst := fmt.Sprintf("%s%s/%s", updatesPrefix, updateID, strings.TrimPrefix(ref, stagingPrefix))

		src := s.bucket.Object(ref)
		if _, err := s.bucket.Object(dst).CopierFrom(src).Run(ctx); err != nil {
			s.logger.Warn("image promotion failed",
				zap.String("ref", ref),
				zap.String("update_id", updateID),
				zap.Error(err))
			continue
		}
		if err := src.Delete(ctx); err != nil {
			s.logger.Warn("staged image cleanup failed", zap.String("ref", ref), zap.Error(err))
		}
		promoted = append(promoted, dst)
	}
	return promoted
}

// Remove deletes the given objects, used when their update is deleted.
// Best effort, failures are logged and skipped.
func (s *Store) Remove(ctx context.Context, refs []string) {
	if s.bucket == nil {
		return
	}
	for _, ref := range refs {
		if err := s.bucket.Object(ref).Delete(ctx); err != nil && err != storage.ErrObjectNotExist {
			s.logger.Warn("image deletion failed", zap.String("ref", ref), zap.Error(err))
		}
	}
}
