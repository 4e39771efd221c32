// Package store persists positioned diagrams for the HTTP service.
//
// Two implementations back the Store interface: MongoStore for
// deployments and MemoryStore for tests and single-process usage. Both
// upsert on save, so PUT semantics fall out naturally.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/archflowhq/archflow/pkg/graph"
)

// Record is a stored diagram plus its metadata.
type Record struct {
	ID        string         `json:"id" bson:"_id"`
	Name      string         `json:"name,omitempty" bson:"name,omitempty"`
	Diagram   *graph.Diagram `json:"diagram" bson:"diagram"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at"`
}

// Store saves and loads diagram records.
type Store interface {
	// Save upserts a record by ID, stamping CreatedAt on first save and
	// UpdatedAt always.
	Save(ctx context.Context, rec *Record) error

	// Get loads a record. Returns an error with code DIAGRAM_NOT_FOUND
	// when the ID is unknown.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns up to limit records, newest first. A non-positive
	// limit returns everything.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Delete removes a record. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// NewID returns a fresh diagram ID.
func NewID() string {
	return uuid.NewString()
}
