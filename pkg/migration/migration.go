// Package migration runs ordered, tracked changes against the MongoDB
// database: index builds, backfills and the like.
//
// Usage (in database/migrations):
//
//	func init() {
//	    migration.Register("20260101000000_product_indexes", &ProductIndexes{})
//	}
//
//	type ProductIndexes struct{}
//	func (m *ProductIndexes) Up(ctx context.Context, db *mongo.Database) error { … }
//	func (m *ProductIndexes) Down(ctx context.Context, db *mongo.Database) error { … }
//
// Run from CLI:
//
//	storefront migrate             // run all pending
//	storefront migrate:rollback    // rollback last batch
package migration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Collection tracks which migrations have run.
const Collection = "migrations"

// Migration is the interface every migration must implement.
type Migration interface {
	// Up applies the migration.
	Up(ctx context.Context, db *mongo.Database) error
	// Down reverses the migration.
	Down(ctx context.Context, db *mongo.Database) error
}

type record struct {
	Name  string    `bson:"name"`
	Batch int       `bson:"batch"`
	RunAt time.Time `bson:"runAt"`
}

// ------------------- Registry -------------------

type registered struct {
	name string
	m    Migration
}

var registry []registered

// Register adds a migration to the global registry.
// name should be timestamp-prefixed so names sort chronologically.
func Register(name string, m Migration) {
	registry = append(registry, registered{name: name, m: m})
}

// Names lists registered migrations in run order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for _, reg := range sorted(registry) {
		out = append(out, reg.name)
	}
	return out
}

func sorted(in []registered) []registered {
	out := append([]registered(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// ------------------- Runner -------------------

// Runner executes and tracks migrations.
type Runner struct {
	db  *mongo.Database
	col *mongo.Collection
}

// New creates a Runner for db.
func New(db *mongo.Database) *Runner {
	return &Runner{db: db, col: db.Collection(Collection)}
}

// Pending returns the migrations that have not yet been run.
func (r *Runner) Pending(ctx context.Context) ([]registered, error) {
	cur, err := r.col.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	var ran []record
	if err := cur.All(ctx, &ran); err != nil {
		return nil, err
	}

	done := make(map[string]bool, len(ran))
	for _, rec := range ran {
		done[rec.Name] = true
	}

	var pending []registered
	for _, reg := range sorted(registry) {
		if !done[reg.name] {
			pending = append(pending, reg)
		}
	}
	return pending, nil
}

// PendingNames lists the migrations Run would apply, in order.
func (r *Runner) PendingNames(ctx context.Context) ([]string, error) {
	pending, err := r.Pending(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(pending))
	for i, reg := range pending {
		names[i] = reg.name
	}
	return names, nil
}

// Run executes all pending migrations in a single batch and returns the
// names it ran.
func (r *Runner) Run(ctx context.Context) ([]string, error) {
	pending, err := r.Pending(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration: fetch pending: %w", err)
	}
	if len(pending) == 0 {
		logger.Info("migration: nothing to migrate")
		return nil, nil
	}

	batch, err := r.lastBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration: last batch: %w", err)
	}
	batch++

	var ran []string
	for _, reg := range pending {
		logger.Info("migration: running", "name", reg.name)

		if err := reg.m.Up(ctx, r.db); err != nil {
			return ran, fmt.Errorf("migration: %s up: %w", reg.name, err)
		}
		if _, err := r.col.InsertOne(ctx, record{Name: reg.name, Batch: batch, RunAt: time.Now().UTC()}); err != nil {
			return ran, fmt.Errorf("migration: record %s: %w", reg.name, err)
		}
		ran = append(ran, reg.name)
	}

	logger.Info("migration: done", "ran", len(ran), "batch", batch)
	return ran, nil
}

// Rollback reverses all migrations from the most recent batch and returns
// the names it rolled back.
func (r *Runner) Rollback(ctx context.Context) ([]string, error) {
	batch, err := r.lastBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration: last batch: %w", err)
	}
	if batch == 0 {
		return nil, nil
	}

	cur, err := r.col.Find(ctx, bson.D{{Key: "batch", Value: batch}},
		options.Find().SetSort(bson.D{{Key: "name", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var records []record
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}

	byName := make(map[string]Migration, len(registry))
	for _, reg := range registry {
		byName[reg.name] = reg.m
	}

	var rolled []string
	for _, rec := range records {
		m, ok := byName[rec.Name]
		if !ok {
			return rolled, fmt.Errorf("migration: cannot rollback %s: not registered", rec.Name)
		}

		logger.Info("migration: rolling back", "name", rec.Name)
		if err := m.Down(ctx, r.db); err != nil {
			return rolled, fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		if _, err := r.col.DeleteOne(ctx, bson.D{{Key: "name", Value: rec.Name}}); err != nil {
			return rolled, err
		}
		rolled = append(rolled, rec.Name)
	}
	return rolled, nil
}

func (r *Runner) lastBatch(ctx context.Context) (int, error) {
	var rec record
	err := r.col.FindOne(ctx, bson.D{}, options.FindOne().SetSort(bson.D{{Key: "batch", Value: -1}})).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.Batch, nil
}
