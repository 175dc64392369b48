package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// UserStore loads the user whose credential drives a sync.
type UserStore interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// SyncEngine runs a full collection sync for one user: credential lookup, fetch, reconcile.
//
// Syncs for the same user are serialized; different users proceed in parallel.
type SyncEngine struct {
	users      UserStore
	reader     *CollectionReader
	reconciler *Reconciler
	logger     *log.Logger
	locks      *keyedMutex
}

// NewSyncEngine creates a [SyncEngine] from its collaborators.
func NewSyncEngine(users UserStore, source CollectionSource, releases ReleaseStore, logger *log.Logger) *SyncEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "task", "sync")
	return &SyncEngine{
		users:      users,
		reader:     NewCollectionReader(source, logger),
		reconciler: NewReconciler(releases),
		logger:     logger,
		locks:      newKeyedMutex(),
	}
}

// Sync mirrors the user's Discogs collection into the local store.
//
// Returns [shared.ErrNotConnected] when the user has no credential and an error wrapping
// [shared.ErrCollectionFetch] when the collection cannot be listed.
func (e *SyncEngine) Sync(ctx context.Context, userID string, progress chan<- ProgressUpdate) (*models.SyncSummary, error) {
	unlock := e.locks.Lock(userID)
	defer unlock()

	user, err := e.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Connected() {
		return nil, shared.ErrNotConnected
	}

	started := time.Now()
	fetched, err := e.reader.FetchAll(ctx, *user.Credential, progress)
	if err != nil {
		return nil, err
	}

	summary, err := e.reconciler.Apply(ctx, userID, fetched.Releases, progress)
	if err != nil {
		return nil, err
	}
	summary.Skipped = fetched.Skipped

	e.logger.Info("collection synced",
		"user_id", userID,
		"added", summary.Added,
		"updated", summary.Updated,
		"removed", summary.Removed,
		"total", summary.Total,
		"skipped", summary.Skipped,
		"elapsed", time.Since(started),
	)
	sendProgress(progress, completeUpdate(&summary, summary.Added, summary.Updated, summary.Removed))
	return &summary, nil
}

// keyedMutex hands out one mutex per key and drops it once no goroutine holds or waits on it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
