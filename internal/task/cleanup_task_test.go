package task

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braydenidzenga/ZettaNote-sub001/internal/service"
)

// fakeCleanupRunner records calls made by cleanup jobs.
type fakeCleanupRunner struct {
	mu sync.Mutex

	cleanupCalls    []int
	orphanScanCalls int

	cleanupResult service.CleanupResult
	cleanupErr    error
	orphanMarked  int
	orphanErr     error
}

func (f *fakeCleanupRunner) RunCleanup(ctx context.Context, batchSize int) (service.CleanupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanupCalls = append(f.cleanupCalls, batchSize)
	return f.cleanupResult, f.cleanupErr
}

func (f *fakeCleanupRunner) RunOrphanScan(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orphanScanCalls++
	return f.orphanMarked, f.orphanErr
}

func (f *fakeCleanupRunner) batchSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.cleanupCalls...)
}

func TestCleanupTask(t *testing.T) {
	t.Parallel()

	t.Run("runs cleanup with payload batch size", func(t *testing.T) {
		t.Parallel()

		svc := &fakeCleanupRunner{
			cleanupResult: service.CleanupResult{MarkedPending: 2, Deleted: 1, Processed: 1},
		}

		job, err := NewCleanupTask(svc, 50, nil)
		require.NoError(t, err)

		assert.Equal(t, JobTypeCleanup, job.Type())
		assert.Equal(t, TaskStatusPending, job.Status())

		require.NoError(t, job.Execute(context.Background()))
		assert.Equal(t, []int{50}, svc.batchSizes())
	})

	t.Run("propagates cleanup failure for retry", func(t *testing.T) {
		t.Parallel()

		svc := &fakeCleanupRunner{cleanupErr: errors.New("registry unavailable")}

		job, err := NewCleanupTask(svc, 10, nil)
		require.NoError(t, err)

		err = job.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "registry unavailable")
	})

	t.Run("rejects nil service", func(t *testing.T) {
		t.Parallel()

		_, err := NewCleanupTask(nil, 10, nil)
		require.Error(t, err)
	})

	t.Run("payload round-trips through factory", func(t *testing.T) {
		t.Parallel()

		svc := &fakeCleanupRunner{}

		original, err := NewCleanupTask(svc, 25, nil)
		require.NoError(t, err)

		record := &JobRecord{
			ID:      original.ID(),
			Type:    JobTypeCleanup,
			Payload: original.Payload(),
			Status:  TaskStatusPending,
		}

		factory := NewCleanupTaskFactory(svc, nil)
		rebuilt, err := factory(record)
		require.NoError(t, err)

		assert.Equal(t, original.ID(), rebuilt.ID())

		require.NoError(t, rebuilt.Execute(context.Background()))
		assert.Equal(t, []int{25}, svc.batchSizes())
	})

	t.Run("factory rejects foreign job type", func(t *testing.T) {
		t.Parallel()

		factory := NewCleanupTaskFactory(&fakeCleanupRunner{}, nil)
		_, err := factory(&JobRecord{Type: JobTypeOrphanScan})
		require.Error(t, err)
	})
}

func TestOrphanScanTask(t *testing.T) {
	t.Parallel()

	t.Run("runs orphan scan", func(t *testing.T) {
		t.Parallel()

		svc := &fakeCleanupRunner{orphanMarked: 3}

		job, err := NewOrphanScanTask(svc, nil)
		require.NoError(t, err)

		assert.Equal(t, JobTypeOrphanScan, job.Type())
		require.NoError(t, job.Execute(context.Background()))

		svc.mu.Lock()
		defer svc.mu.Unlock()
		assert.Equal(t, 1, svc.orphanScanCalls)
	})

	t.Run("propagates scan failure", func(t *testing.T) {
		t.Parallel()

		svc := &fakeCleanupRunner{orphanErr: errors.New("query timeout")}

		job, err := NewOrphanScanTask(svc, nil)
		require.NoError(t, err)
		require.Error(t, job.Execute(context.Background()))
	})
}

func TestCleanupPayloadShape(t *testing.T) {
	t.Parallel()

	svc := &fakeCleanupRunner{}
	job, err := NewCleanupTask(svc, 75, nil)
	require.NoError(t, err)

	var p map[string]any
	require.NoError(t, json.Unmarshal(job.Payload(), &p))
	assert.Equal(t, float64(75), p["batch_size"])
}
