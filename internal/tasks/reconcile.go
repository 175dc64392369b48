package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// BatchSize is the number of releases written per upsert transaction.
const BatchSize = 50

// ReleaseStore is the part of repositories.ReleaseRepository reconciliation needs.
type ReleaseStore interface {
	InstanceIndex(ctx context.Context, userID string) (map[int64]string, error)
	UpsertBatch(ctx context.Context, userID string, releases []models.Release) error
	Delete(ctx context.Context, userID, id string) error
}

// Reconciler makes a user's local releases mirror a fetched collection, keyed by instance id.
type Reconciler struct {
	store     ReleaseStore
	batchSize int
}

// NewReconciler creates a [Reconciler] writing [BatchSize] rows per batch.
func NewReconciler(store ReleaseStore) *Reconciler {
	return &Reconciler{store: store, batchSize: BatchSize}
}

// Apply upserts every fetched release and deletes local rows whose instance id was not fetched.
//
// Added and updated are decided against the index read before any write. Batches commit
// independently, so a failure leaves earlier batches applied; rerunning converges.
// ID and UserID are filled in on the elements of fetched.
func (r *Reconciler) Apply(ctx context.Context, userID string, fetched []models.Release, progress chan<- ProgressUpdate) (models.SyncSummary, error) {
	summary := models.SyncSummary{Total: len(fetched)}

	existing, err := r.store.InstanceIndex(ctx, userID)
	if err != nil {
		return summary, fmt.Errorf("failed to load local releases: %w", err)
	}

	incoming := make(map[int64]struct{}, len(fetched))
	for i := range fetched {
		rel := &fetched[i]
		incoming[rel.DiscogsInstanceID] = struct{}{}

		if id, ok := existing[rel.DiscogsInstanceID]; ok {
			rel.ID = id
			summary.Updated++
		} else {
			rel.ID = shared.GenerateID()
			summary.Added++
		}
		rel.UserID = userID
	}

	for start := 0; start < len(fetched); start += r.batchSize {
		end := min(start+r.batchSize, len(fetched))
		if err := r.store.UpsertBatch(ctx, userID, fetched[start:end]); err != nil {
			return summary, fmt.Errorf("failed to upsert releases %d-%d: %w", start+1, end, err)
		}
		sendProgress(progress, upsertUpdate(end, len(fetched)))
	}

	stale := make([]int64, 0)
	for instanceID := range existing {
		if _, ok := incoming[instanceID]; !ok {
			stale = append(stale, instanceID)
		}
	}
	slices.Sort(stale)

	for _, instanceID := range stale {
		err := r.store.Delete(ctx, userID, existing[instanceID])
		if errors.Is(err, shared.ErrNotFound) {
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("failed to remove release (instance %d): %w", instanceID, err)
		}
		summary.Removed++
	}
	if summary.Removed > 0 {
		sendProgress(progress, removeUpdate(summary.Removed))
	}

	return summary, nil
}
