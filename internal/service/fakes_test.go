package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/braydenidzenga/ZettaNote-sub001/internal/domain"
	"github.com/braydenidzenga/ZettaNote-sub001/internal/store"
)

// fakeMediaStore is an in-memory MediaStore used by service tests.
// It mirrors the registry semantics on domain.MediaItem methods: idempotent
// reference add, revival of pending items, last-reference transition.
type fakeMediaStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]*domain.MediaItem

	// now overrides the reclaim cutoff clock when non-nil.
	now func() time.Time

	// markDeletedErr, when set, is returned by MarkDeleted for the given ID.
	markDeletedErr map[uuid.UUID]error
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{
		items:          make(map[uuid.UUID]*domain.MediaItem),
		markDeletedErr: make(map[uuid.UUID]error),
	}
}

func (f *fakeMediaStore) clock() time.Time {
	if f.now != nil {
		return f.now()
	}
	return time.Now().UTC()
}

func (f *fakeMediaStore) Create(ctx context.Context, item *domain.MediaItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.items[item.ID]; ok {
		return store.ErrMediaExists
	}

	clone := *item
	f.items[item.ID] = &clone
	return nil
}

func (f *fakeMediaStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.items[id]
	if !ok {
		return nil, store.ErrMediaNotFound
	}
	clone := *item
	return &clone, nil
}

func (f *fakeMediaStore) AddReferences(
	ctx context.Context,
	documentID uuid.UUID,
	ids []uuid.UUID,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range ids {
		item, ok := f.items[id]
		if !ok || item.Status == domain.MediaStatusDeleted {
			continue
		}
		if err := item.AddUsage(documentID); err != nil {
			return fmt.Errorf("add usage for %s: %w", id, err)
		}
	}
	return nil
}

func (f *fakeMediaStore) RemoveReferences(
	ctx context.Context,
	documentID uuid.UUID,
	ids []uuid.UUID,
	gracePeriod time.Duration,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range ids {
		item, ok := f.items[id]
		if !ok || !item.HasUsage(documentID) {
			continue
		}
		item.RemoveUsage(documentID, gracePeriod)
	}
	return nil
}

func (f *fakeMediaStore) FindOrphaned(ctx context.Context) ([]*domain.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var orphans []*domain.MediaItem
	for _, item := range f.items {
		if item.IsOrphaned() {
			clone := *item
			orphans = append(orphans, &clone)
		}
	}
	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].LastReferencedAt.Before(orphans[j].LastReferencedAt)
	})
	return orphans, nil
}

func (f *fakeMediaStore) MarkPending(
	ctx context.Context,
	id uuid.UUID,
	gracePeriod time.Duration,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.items[id]
	if !ok || !item.IsOrphaned() {
		return nil
	}
	return item.MarkPending(gracePeriod)
}

func (f *fakeMediaStore) FindReclaimable(
	ctx context.Context,
	limit int,
) ([]*domain.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}

	now := f.clock()
	var due []*domain.MediaItem
	for _, item := range f.items {
		if item.Status == domain.MediaStatusPendingDeletion &&
			item.DeleteAfter != nil && !item.DeleteAfter.After(now) {
			clone := *item
			due = append(due, &clone)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].DeleteAfter.Before(*due[j].DeleteAfter)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (f *fakeMediaStore) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.markDeletedErr[id]; ok {
		return err
	}

	item, ok := f.items[id]
	if !ok || item.Status != domain.MediaStatusPendingDeletion {
		return store.ErrMediaNotFound
	}
	return item.MarkDeleted()
}

func (f *fakeMediaStore) WithTx(tx *sql.Tx) store.MediaStore {
	return f
}

// get returns the live item for assertions.
func (f *fakeMediaStore) get(id uuid.UUID) *domain.MediaItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id]
}

// seed inserts an item directly, bypassing Create.
func (f *fakeMediaStore) seed(item *domain.MediaItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[item.ID] = item
}
