package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/pawgraph/core"
	"github.com/poiesic/pawgraph/metrics"
	"github.com/poiesic/pawgraph/storage"
)

// BatchProcessor recounts the counters of one batch of posts or comments.
type BatchProcessor struct {
	interactions   storage.InteractionRepository
	metrics        *metrics.Reconcile
	logger         *slog.Logger
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts per record on transaction conflicts
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(interactions storage.InteractionRepository, m *metrics.Reconcile, logger *slog.Logger, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		interactions:   interactions,
		metrics:        m,
		logger:         logger,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// ProcessPosts recounts every post in the batch and returns how many were repaired.
// Posts deleted since the batch was read are skipped.
func (bp *BatchProcessor) ProcessPosts(ctx context.Context, posts []*core.Post) (int, error) {
	repaired := 0
	for _, post := range posts {
		var fixed *core.Post
		err := RetryWithBackoff(ctx, func() error {
			var err error
			fixed, err = bp.interactions.RecountPost(ctx, post.Id)
			return err
		}, bp.maxRetries, bp.retryBaseDelay)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return repaired, fmt.Errorf("recount post %d: %w", post.Id, err)
		}

		changed := fixed.LikesCount != post.LikesCount || fixed.CommentsCount != post.CommentsCount
		if changed {
			repaired++
			bp.logger.Info("repaired post counters", "post", post.Id,
				"likes", post.LikesCount, "likesNow", fixed.LikesCount,
				"comments", post.CommentsCount, "commentsNow", fixed.CommentsCount)
		}
		bp.metrics.Checked("post", changed)
	}
	return repaired, nil
}

// ProcessComments recounts every comment in the batch and returns how many were repaired.
func (bp *BatchProcessor) ProcessComments(ctx context.Context, comments []*core.Comment) (int, error) {
	repaired := 0
	for _, comment := range comments {
		var fixed *core.Comment
		err := RetryWithBackoff(ctx, func() error {
			var err error
			fixed, err = bp.interactions.RecountComment(ctx, comment.Id)
			return err
		}, bp.maxRetries, bp.retryBaseDelay)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return repaired, fmt.Errorf("recount comment %d: %w", comment.Id, err)
		}

		changed := fixed.LikesCount != comment.LikesCount
		if changed {
			repaired++
			bp.logger.Info("repaired comment counter", "comment", comment.Id,
				"likes", comment.LikesCount, "likesNow", fixed.LikesCount)
		}
		bp.metrics.Checked("comment", changed)
	}
	return repaired, nil
}
