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


package pawgraph

import (
	"io"
	"log/slog"

	"github.com/poiesic/pawgraph/feed"
	"github.com/poiesic/pawgraph/interaction"
	"github.com/poiesic/pawgraph/metrics"
	"github.com/poiesic/pawgraph/reconcile"
	"github.com/poiesic/pawgraph/storage"
	"github.com/poiesic/pawgraph/storage/badger"
	"github.com/prometheus/client_golang/prometheus"
)

// Database is one open social graph store. Open it once per directory and
// share it; every repository and the interaction store hang off it.
type Database struct {
	repos            *badger.Repositories
	store            *interaction.Store
	reconcileMetrics *metrics.Reconcile
	logger           *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	inMemory bool
	logger   *slog.Logger
	registry prometheus.Registerer
}

// WithInMemory keeps the store in memory. The path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithLogger sets the logger for the database and everything it creates.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetricsRegisterer registers interaction and reconcile metrics on reg.
// Metrics are disabled by default.
func WithMetricsRegisterer(reg prometheus.Registerer) DatabaseOption {
	return func(o *databaseOptions) {
		o.registry = reg
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	interactionMetrics, err := metrics.NewInteractions(options.registry)
	if err != nil {
		return nil, err
	}
	reconcileMetrics, err := metrics.NewReconcile(options.registry)
	if err != nil {
		return nil, err
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory, badger.WithLogger(options.logger))
	if err != nil {
		return nil, err
	}

	repos, err := badger.NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	store, err := interaction.NewStore(repos.Users, repos.Posts, repos.Comments, repos.Interactions,
		interaction.WithLogger(options.logger),
		interaction.WithMetrics(interactionMetrics),
	)
	if err != nil {
		repos.Close()
		return nil, err
	}

	return &Database{
		repos:            repos,
		store:            store,
		reconcileMetrics: reconcileMetrics,
		logger:           options.logger,
	}, nil
}

func (db *Database) Close() error {
	if err := db.repos.Close(); err != nil {
		db.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}

// Interactions returns the interaction store: toggles, comments and follow queries.
func (db *Database) Interactions() *interaction.Store {
	return db.store
}

func (db *Database) UserRepository() storage.UserRepository {
	return db.repos.Users
}

func (db *Database) PetRepository() storage.PetRepository {
	return db.repos.Pets
}

func (db *Database) PostRepository() storage.PostRepository {
	return db.repos.Posts
}

func (db *Database) CommentRepository() storage.CommentRepository {
	return db.repos.Comments
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.repos.Checkpoints
}

// NewFeedBuilder creates a view builder. Callers must Release it.
func (db *Database) NewFeedBuilder(opts ...feed.Option) (*feed.Builder, error) {
	opts = append([]feed.Option{feed.WithLogger(db.logger)}, opts...)
	return feed.NewBuilder(db.store, db.repos.Pets, db.repos.Posts, opts...)
}

// NewReconciler creates a counter reconciler writing progress to progress.
func (db *Database) NewReconciler(config *reconcile.Config, progress io.Writer) (*reconcile.Reconciler, error) {
	return reconcile.NewReconciler(db.repos.Posts, db.repos.Comments, db.repos.Interactions, db.repos.Checkpoints,
		config, progress,
		reconcile.WithLogger(db.logger),
		reconcile.WithMetrics(db.reconcileMetrics),
	)
}
