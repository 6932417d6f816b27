package webview

import "sync"

// task is one unit of UI-goroutine work. A nonzero gen ties the task to a
// renderer connection; the task is dropped if that connection has since
// been replaced.
type task struct {
	gen uint64
	fn  func()
}

// taskQueue hands work from background goroutines to the UI goroutine.
type taskQueue struct {
	mu    sync.Mutex
	tasks []task
	wake  chan struct{}
}

func newTaskQueue() *taskQueue {
	return &taskQueue{wake: make(chan struct{}, 1)}
}

func (q *taskQueue) post(gen uint64, fn func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task{gen: gen, fn: fn})
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// drain removes and returns everything queued so far.
func (q *taskQueue) drain() []task {
	q.mu.Lock()
	defer q.mu.Unlock()
	tasks := q.tasks
	q.tasks = nil
	return tasks
}

func (q *taskQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
