package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/pokemarket-backend/internal/goroutine"
	"github.com/ignatzorin/pokemarket-backend/internal/logger"
)

// Handler выполняет задачу одного типа.
type Handler func(ctx context.Context, task Task) error

// DispatcherConfig параметры воркеров и повторов.
type DispatcherConfig struct {
	Workers     int
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// Dispatcher разбирает очередь пулом воркеров и повторяет упавшие задачи с экспоненциальной задержкой.
type Dispatcher struct {
	queue    Queue
	cfg      DispatcherConfig
	handlers map[string]Handler
	mu       sync.RWMutex
	log      *logrus.Entry
	retries  sync.WaitGroup
}

func NewDispatcher(queue Queue, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = time.Second
	}
	if cfg.MaxBackoff < cfg.BaseBackoff {
		cfg.MaxBackoff = cfg.BaseBackoff
	}
	return &Dispatcher{
		queue:    queue,
		cfg:      cfg,
		handlers: make(map[string]Handler),
		log:      logger.WithComponent("outbox"),
	}
}

// Register назначает обработчик типу задачи.
func (d *Dispatcher) Register(taskType string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[taskType] = h
}

// Enqueue ставит задачу в очередь. Удобная обёртка для сервисов.
func (d *Dispatcher) Enqueue(ctx context.Context, taskType string, payload interface{}) error {
	task, err := NewTask(taskType, payload)
	if err != nil {
		return err
	}
	return d.queue.Enqueue(ctx, task)
}

// Run запускает воркеры и блокируется до отмены контекста.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < d.cfg.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			d.work(ctx, worker)
		}(i)
	}
	wg.Wait()
	d.retries.Wait()
}

func (d *Dispatcher) work(ctx context.Context, worker int) {
	for {
		task, err := d.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.log.WithError(err).WithField("worker", worker).Error("outbox: dequeue failed")
			select {
			case <-time.After(d.cfg.BaseBackoff):
			case <-ctx.Done():
				return
			}
			continue
		}
		d.Process(ctx, task)
	}
}

// Process выполняет одну задачу и при ошибке планирует повтор.
func (d *Dispatcher) Process(ctx context.Context, task Task) {
	entry := d.log.WithFields(logrus.Fields{"task_id": task.ID, "task_type": task.Type, "attempt": task.Attempts + 1})

	d.mu.RLock()
	h, ok := d.handlers[task.Type]
	d.mu.RUnlock()
	if !ok {
		entry.Error("outbox: no handler registered, task dropped")
		return
	}

	err := d.invoke(ctx, h, task)
	if err == nil {
		entry.Debug("outbox: task done")
		return
	}

	task.Attempts++
	if task.Attempts >= d.cfg.MaxAttempts {
		entry.WithError(err).Error("outbox: attempts exhausted, task dropped")
		return
	}

	delay := d.Backoff(task.Attempts)
	entry.WithError(err).WithField("retry_in", delay.String()).Warn("outbox: task failed, will retry")
	d.scheduleRetry(ctx, task, delay)
}

// Backoff задержка перед повтором номер attempt: base * 2^(attempt-1), не больше MaxBackoff.
func (d *Dispatcher) Backoff(attempt int) time.Duration {
	delay := d.cfg.BaseBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= d.cfg.MaxBackoff {
			return d.cfg.MaxBackoff
		}
	}
	return delay
}

func (d *Dispatcher) invoke(ctx context.Context, h Handler, task Task) (err error) {
	ok := goroutine.Run(func() {
		err = h(ctx, task)
	})
	if !ok {
		return errors.New("outbox: handler panicked")
	}
	return err
}

func (d *Dispatcher) scheduleRetry(ctx context.Context, task Task, delay time.Duration) {
	d.retries.Add(1)
	goroutine.SafeGo(func() {
		defer d.retries.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}
		if err := d.queue.Enqueue(context.Background(), task); err != nil {
			d.log.WithError(fmt.Errorf("requeue %s: %w", task.ID, err)).Error("outbox: retry lost")
		}
	})
}
