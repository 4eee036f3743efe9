package master

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingTask struct {
	ran      bool
	finished bool
	doneCh   chan struct{}
}

func (t *recordingTask) Run() {
	t.ran = true
	close(t.doneCh)
}

func (t *recordingTask) Finish(ctx *Context) {
	t.finished = true
}

func newRecordingTask() *recordingTask {
	return &recordingTask{doneCh: make(chan struct{})}
}

func TestWorkerQueueRunsThenFinishesOnDrain(t *testing.T) {
	q := NewWorkerQueue()
	defer q.Stop()

	task := newRecordingTask()
	q.Enqueue(task)

	select {
	case <-task.doneCh:
	case <-time.After(time.Second):
		t.Fatal("task.Run never executed")
	}
	require.True(t, task.ran)
	require.False(t, task.finished, "Finish must not run until Drain is called")

	require.Eventually(t, func() bool {
		q.Drain(nil)
		return task.finished
	}, time.Second, time.Millisecond)
}

func TestWorkerQueueDrainIsNonBlockingWhenEmpty(t *testing.T) {
	q := NewWorkerQueue()
	defer q.Stop()

	done := make(chan struct{})
	go func() {
		q.Drain(nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Drain blocked on an empty result queue")
	}
}

func TestWorkerQueueDropsTaskWhenSubmitQueueFull(t *testing.T) {
	q := NewWorkerQueue()
	defer q.Stop()

	blocker := &blockingTask{unblock: make(chan struct{})}
	q.Enqueue(blocker)
	time.Sleep(20 * time.Millisecond) // let the worker goroutine pick blocker off submit

	for i := 0; i < workerQueueSize+1; i++ {
		q.Enqueue(newRecordingTask())
	}
	require.Equal(t, workerQueueSize, q.Pending(), "the (workerQueueSize+1)th task must be dropped, not queued")

	close(blocker.unblock)
}

type blockingTask struct {
	unblock chan struct{}
}

func (t *blockingTask) Run()              { <-t.unblock }
func (t *blockingTask) Finish(ctx *Context) {}
