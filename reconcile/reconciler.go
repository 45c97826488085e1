// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reconcile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/pawgraph/core"
	"github.com/poiesic/pawgraph/metrics"
	"github.com/poiesic/pawgraph/storage"
)

// Checkpoint processor types.
const (
	PostsProcessor    = "reconcile_posts"
	CommentsProcessor = "reconcile_comments"
)

// Config holds configuration for the reconcile operation.
type Config struct {
	// BatchSize is the number of records to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per record on transaction conflicts
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     100 * time.Millisecond,
	}
}

// Report summarizes a reconcile run.
type Report struct {
	PostsChecked     int
	PostsRepaired    int
	CommentsChecked  int
	CommentsRepaired int
}

// Reconciler walks all posts and comments and rewrites drifted counters.
type Reconciler struct {
	posts       storage.PostRepository
	comments    storage.CommentRepository
	checkpoints storage.CheckpointRepository
	config      *Config
	progress    io.Writer
	metrics     *metrics.Reconcile
	logger      *slog.Logger
	processor   *BatchProcessor
}

// Option configures a Reconciler.
type Option func(*Reconciler) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithMetrics records checked and repaired records on m.
func WithMetrics(m *metrics.Reconcile) Option {
	return func(r *Reconciler) error {
		r.metrics = m
		return nil
	}
}

// NewReconciler creates a new reconciler.
// progress: where to write progress output (typically os.Stderr); nil discards it
func NewReconciler(
	posts storage.PostRepository,
	comments storage.CommentRepository,
	interactions storage.InteractionRepository,
	checkpoints storage.CheckpointRepository,
	config *Config,
	progress io.Writer,
	opts ...Option,
) (*Reconciler, error) {
	if posts == nil {
		return nil, ErrPostRepositoryRequired
	}
	if comments == nil {
		return nil, ErrCommentRepositoryRequired
	}
	if interactions == nil {
		return nil, ErrInteractionRepositoryRequired
	}
	if checkpoints == nil {
		return nil, ErrCheckpointRepositoryRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	r := &Reconciler{
		posts:       posts,
		comments:    comments,
		checkpoints: checkpoints,
		config:      config,
		progress:    progress,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	r.processor = NewBatchProcessor(interactions, r.metrics, r.logger, config.MaxRetries, config.RetryDelay)
	return r, nil
}

// Run reconciles every post, then every comment.
// Each pass resumes after its checkpoint and clears it once complete.
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if err := r.runPosts(ctx, report); err != nil {
		return report, err
	}
	if err := r.runComments(ctx, report); err != nil {
		return report, err
	}

	fmt.Fprintf(r.progress, "Reconcile complete. Posts: %d checked, %d repaired. Comments: %d checked, %d repaired\n",
		report.PostsChecked, report.PostsRepaired, report.CommentsChecked, report.CommentsRepaired)
	return report, nil
}

func (r *Reconciler) runPosts(ctx context.Context, report *Report) error {
	start, err := r.resumeFrom(ctx, PostsProcessor)
	if err != nil {
		return err
	}

	all, err := r.posts.GetAllPosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to query posts: %w", err)
	}
	done := 0
	for _, post := range all {
		if post.Id <= start {
			done++
		}
	}

	fmt.Fprintf(r.progress, "Reconciling %d posts (batch size: %d)\n", len(all)-done, r.config.BatchSize)
	tracker := NewProgressTracker(r.progress, "Posts", len(all), r.config.ReportInterval)
	tracker.Start(done)

	it := NewPostIterator(r.posts.GetPostsAfterID, r.config.BatchSize)
	err = it.ForEach(ctx, start, func(batch []*core.Post, last core.ID) error {
		repaired, err := r.processor.ProcessPosts(ctx, batch)
		report.PostsRepaired += repaired
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		report.PostsChecked += len(batch)
		tracker.Increment(len(batch))
		return r.save(ctx, PostsProcessor, last)
	})
	if err != nil {
		return err
	}

	tracker.Finish()
	return r.checkpoints.ClearCheckpoint(ctx, PostsProcessor)
}

func (r *Reconciler) runComments(ctx context.Context, report *Report) error {
	start, err := r.resumeFrom(ctx, CommentsProcessor)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.progress, "Reconciling comments (batch size: %d)\n", r.config.BatchSize)
	tracker := NewProgressTracker(r.progress, "Comments", 0, r.config.ReportInterval)
	tracker.Start(0)

	it := NewCommentIterator(r.comments.GetCommentsAfterID, r.config.BatchSize)
	err = it.ForEach(ctx, start, func(batch []*core.Comment, last core.ID) error {
		repaired, err := r.processor.ProcessComments(ctx, batch)
		report.CommentsRepaired += repaired
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		report.CommentsChecked += len(batch)
		tracker.Increment(len(batch))
		return r.save(ctx, CommentsProcessor, last)
	})
	if err != nil {
		return err
	}

	tracker.Finish()
	return r.checkpoints.ClearCheckpoint(ctx, CommentsProcessor)
}

func (r *Reconciler) resumeFrom(ctx context.Context, processor string) (core.ID, error) {
	cp, err := r.checkpoints.LoadCheckpoint(ctx, processor)
	if err != nil {
		return 0, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if cp == nil {
		return 0, nil
	}
	r.logger.Info("resuming from checkpoint", "processor", processor, "after", cp.LastId)
	return cp.LastId, nil
}

func (r *Reconciler) save(ctx context.Context, processor string, last core.ID) error {
	err := r.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{ProcessorType: processor, LastId: last})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
