package task

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingExecutor counts executions per task.
type recordingExecutor struct {
	mu    sync.Mutex
	runs  map[uuid.UUID]int
	delay time.Duration
}

func (r *recordingExecutor) Execute(_ context.Context, id uuid.UUID) Disposition {
	time.Sleep(r.delay)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[id]++
	return DispositionCompleted
}

func (r *recordingExecutor) count(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[id]
}

func TestWorkerPool_DrainsQueueOnClose(t *testing.T) {
	t.Parallel()

	exec := &recordingExecutor{runs: make(map[uuid.UUID]int), delay: 5 * time.Millisecond}
	queue := NewJobQueue(10, testLogger())
	pool := NewWorkerPool(queue, exec, WorkerPoolConfig{WorkerCount: 3}, testLogger())

	var mu sync.Mutex
	var finished []Disposition
	pool.SetDoneHook(func(_ Job, d Disposition) {
		mu.Lock()
		defer mu.Unlock()
		finished = append(finished, d)
	})

	ids := make([]uuid.UUID, 6)
	for i := range ids {
		ids[i] = uuid.New()
		require.NoError(t, queue.Enqueue(Job{TaskID: ids[i], Origin: OriginEvent}))
	}

	pool.Start(context.Background())
	pool.Start(context.Background())
	queue.Close()
	pool.Wait()

	for _, id := range ids {
		assert.Equal(t, 1, exec.count(id))
	}
	assert.Len(t, finished, len(ids))
}

func TestWorkerPool_InvalidWorkerCount(t *testing.T) {
	t.Parallel()

	pool := NewWorkerPool(NewJobQueue(1, testLogger()), &recordingExecutor{}, WorkerPoolConfig{}, testLogger())
	assert.Equal(t, 1, pool.workerCount)
	assert.Equal(t, 2, DefaultWorkerPoolConfig().WorkerCount)
}

func TestRunner_ProcessesCreatedTasks(t *testing.T) {
	t.Parallel()

	f := newExecutorFixture()
	feed := events.NewFeed(8, testLogger())

	cfg := DefaultRunnerConfig()
	cfg.TaskType = domain.TaskTypeGenerateAudio
	cfg.BackfillInterval = 0
	runner := NewRunner(WatcherDeps{Source: feed, Store: f.tasks}, f.executor, cfg, testLogger())

	completed := make(chan uuid.UUID, 4)
	runner.Pool().SetDoneHook(func(job Job, d Disposition) {
		if d == DispositionCompleted {
			completed <- job.TaskID
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	task := pendingAudioTask(t, "post-42", "Hello")
	require.NoError(t, f.tasks.Create(ctx, task))
	require.NoError(t, feed.Publish(ctx, taskEvent(t, task)))

	select {
	case id := <-completed:
		assert.Equal(t, task.ID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("task was not processed")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}

	stored := f.tasks.Snapshot(task.ID)
	assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
	post, err := f.posts.Get(context.Background(), "post-42")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/audio/post-42.wav", post.AudioURL)
}

