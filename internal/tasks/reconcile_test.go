package tasks

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/repositories"
	"github.com/desertthunder/bookshelf/internal/shared"
	tu "github.com/desertthunder/bookshelf/internal/testing"
)

// memoryStore is a [ReleaseStore] keyed by instance id that records batch sizes.
type memoryStore struct {
	rows      map[int64]string
	batches   []int
	upsertErr error
	failAfter int
}

func newMemoryStore(instanceIDs ...int64) *memoryStore {
	s := &memoryStore{rows: map[int64]string{}}
	for _, id := range instanceIDs {
		s.rows[id] = shared.GenerateID()
	}
	return s
}

func (s *memoryStore) InstanceIndex(context.Context, string) (map[int64]string, error) {
	out := make(map[int64]string, len(s.rows))
	for k, v := range s.rows {
		out[k] = v
	}
	return out, nil
}

func (s *memoryStore) UpsertBatch(_ context.Context, _ string, releases []models.Release) error {
	if s.upsertErr != nil && len(s.batches) >= s.failAfter {
		return s.upsertErr
	}
	s.batches = append(s.batches, len(releases))
	for _, r := range releases {
		if _, ok := s.rows[r.DiscogsInstanceID]; !ok {
			s.rows[r.DiscogsInstanceID] = r.ID
		}
	}
	return nil
}

func (s *memoryStore) Delete(_ context.Context, _ string, id string) error {
	for k, v := range s.rows {
		if v == id {
			delete(s.rows, k)
			return nil
		}
	}
	return shared.ErrReleaseNotFound
}

func releasesFor(instanceIDs ...int64) []models.Release {
	out := make([]models.Release, len(instanceIDs))
	for i, id := range instanceIDs {
		out[i] = models.Release{DiscogsInstanceID: id, DiscogsReleaseID: id * 10, Title: "r", ArtistName: "a"}
	}
	return out
}

func TestReconciler(t *testing.T) {
	ctx := context.Background()

	t.Run("Batches Of Fifty", func(t *testing.T) {
		store := newMemoryStore()
		ids := make([]int64, 120)
		for i := range ids {
			ids[i] = int64(i + 1)
		}

		summary, err := NewReconciler(store).Apply(ctx, "u1", releasesFor(ids...), nil)
		require.NoError(t, err)
		assert.Equal(t, []int{50, 50, 20}, store.batches)
		assert.Equal(t, models.SyncSummary{Added: 120, Total: 120}, summary)
	})

	t.Run("Classification Uses Pre-Run Snapshot", func(t *testing.T) {
		store := newMemoryStore(1, 2)
		r := NewReconciler(store)
		r.batchSize = 1

		summary, err := r.Apply(ctx, "u1", releasesFor(3, 1, 4), nil)
		require.NoError(t, err)
		assert.Equal(t, models.SyncSummary{Added: 2, Updated: 1, Removed: 1, Total: 3}, summary)
		assert.Len(t, store.rows, 3)
	})

	t.Run("Existing Rows Keep Local Id", func(t *testing.T) {
		store := newMemoryStore(7)
		localID := store.rows[7]
		fetched := releasesFor(7)

		_, err := NewReconciler(store).Apply(ctx, "u1", fetched, nil)
		require.NoError(t, err)
		assert.Equal(t, localID, fetched[0].ID)
		assert.Equal(t, "u1", fetched[0].UserID)
	})

	t.Run("Upsert Failure Stops Before Deletes", func(t *testing.T) {
		store := newMemoryStore(99)
		store.upsertErr = errors.New("disk full")
		store.failAfter = 1
		r := NewReconciler(store)
		r.batchSize = 1

		_, err := r.Apply(ctx, "u1", releasesFor(1, 2), nil)
		assert.ErrorContains(t, err, "disk full")
		assert.Contains(t, store.rows, int64(99), "stale rows are only removed after all upserts succeed")
		assert.Contains(t, store.rows, int64(1), "earlier batches stay applied")
	})

	t.Run("Partition Property", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(42, 7))
		for round := range 50 {
			existing := map[int64]bool{}
			fetched := map[int64]bool{}
			for id := int64(1); id <= 30; id++ {
				if rng.IntN(2) == 0 {
					existing[id] = true
				}
				if rng.IntN(2) == 0 {
					fetched[id] = true
				}
			}

			var existingIDs, fetchedIDs []int64
			wantAdded, wantUpdated, wantRemoved := 0, 0, 0
			for id := int64(1); id <= 30; id++ {
				if existing[id] {
					existingIDs = append(existingIDs, id)
				}
				if fetched[id] {
					fetchedIDs = append(fetchedIDs, id)
				}
				switch {
				case existing[id] && fetched[id]:
					wantUpdated++
				case fetched[id]:
					wantAdded++
				case existing[id]:
					wantRemoved++
				}
			}

			store := newMemoryStore(existingIDs...)
			summary, err := NewReconciler(store).Apply(ctx, "u1", releasesFor(fetchedIDs...), nil)
			require.NoError(t, err, "round %d", round)
			assert.Equal(t, models.SyncSummary{
				Added: wantAdded, Updated: wantUpdated, Removed: wantRemoved, Total: len(fetchedIDs),
			}, summary, "round %d", round)

			assert.Len(t, store.rows, len(fetchedIDs), "round %d", round)
			for _, id := range fetchedIDs {
				assert.Contains(t, store.rows, id, "round %d", round)
			}
		}
	})
}

func TestReconcilerWithSQLite(t *testing.T) {
	ctx := context.Background()
	db := tu.NewTestDB(t)
	users := repositories.NewUserRepository(db)
	releases := repositories.NewReleaseRepository(db)

	_, err := users.Ensure(ctx, "u1", "u1@example.com")
	require.NoError(t, err)
	_, err = users.Ensure(ctx, "u2", "u2@example.com")
	require.NoError(t, err)

	r := NewReconciler(releases)

	_, err = r.Apply(ctx, "u2", releasesFor(1, 500), nil)
	require.NoError(t, err)

	t.Run("End To End", func(t *testing.T) {
		summary, err := r.Apply(ctx, "u1", releasesFor(1, 2), nil)
		require.NoError(t, err)
		assert.Equal(t, models.SyncSummary{Added: 2, Updated: 0, Removed: 0, Total: 2}, summary)

		summary, err = r.Apply(ctx, "u1", releasesFor(1, 2), nil)
		require.NoError(t, err)
		assert.Equal(t, models.SyncSummary{Added: 0, Updated: 2, Removed: 0, Total: 2}, summary)

		summary, err = r.Apply(ctx, "u1", releasesFor(2), nil)
		require.NoError(t, err)
		assert.Equal(t, models.SyncSummary{Added: 0, Updated: 1, Removed: 1, Total: 1}, summary)

		index, err := releases.InstanceIndex(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, index, 1)
		assert.Contains(t, index, int64(2))
	})

	t.Run("Other Users Untouched", func(t *testing.T) {
		index, err := releases.InstanceIndex(ctx, "u2")
		require.NoError(t, err)
		assert.Len(t, index, 2)
		assert.Contains(t, index, int64(1))
		assert.Contains(t, index, int64(500))
	})

	t.Run("Ids Stable Across Runs", func(t *testing.T) {
		before, err := releases.InstanceIndex(ctx, "u1")
		require.NoError(t, err)

		_, err = r.Apply(ctx, "u1", releasesFor(2), nil)
		require.NoError(t, err)

		after, err := releases.InstanceIndex(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}
