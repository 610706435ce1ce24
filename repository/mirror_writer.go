package repository

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"villageOrderTracking/internal/logging"
)

const (
	mirrorQueueSize   = 64
	mirrorTaskTimeout = 5 * time.Second
)

// mirrorTask is one fire-and-forget remote write.
type mirrorTask struct {
	op  string
	run func(ctx context.Context) error
}

// mirrorWriter drains mirror tasks on a single worker goroutine. Delivery is
// best-effort: a full queue drops the task, a failed task is logged and never
// retried, and neither case ever reaches the caller that enqueued it.
type mirrorWriter struct {
	log   *logrus.Logger
	tasks chan mirrorTask
	wg    sync.WaitGroup
	once  sync.Once
}

func newMirrorWriter(log *logrus.Logger) *mirrorWriter {
	w := &mirrorWriter{
		log:   log,
		tasks: make(chan mirrorTask, mirrorQueueSize),
	}
	w.wg.Add(1)
	go w.worker()
	return w
}

func (w *mirrorWriter) worker() {
	defer w.wg.Done()
	for task := range w.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTaskTimeout)
		if err := task.run(ctx); err != nil {
			logging.Error(w.log, "repository", task.op, err, nil)
		}
		cancel()
	}
}

// enqueue hands a task to the worker without blocking the mutation path.
func (w *mirrorWriter) enqueue(op string, run func(ctx context.Context) error) {
	select {
	case w.tasks <- mirrorTask{op: op, run: run}:
	default:
		if w.log != nil {
			w.log.WithField("module", "repository").
				Warnf("mirror queue full, dropping %s", op)
		}
	}
}

// close stops accepting tasks and waits for the outstanding ones to finish.
func (w *mirrorWriter) close() {
	w.once.Do(func() {
		close(w.tasks)
	})
	w.wg.Wait()
}
