package outbox

import "context"

// MemoryQueue очередь в памяти процесса. Задачи теряются при перезапуске.
type MemoryQueue struct {
	ch chan Task
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 1024
	}
	return &MemoryQueue{ch: make(chan Task, size)}
}

// Enqueue не блокирует запрос: при полном буфере сразу возвращает ErrQueueFull.
func (q *MemoryQueue) Enqueue(ctx context.Context, task Task) error {
	select {
	case q.ch <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (Task, error) {
	select {
	case task := <-q.ch:
		return task, nil
	case <-ctx.Done():
		return Task{}, ctx.Err()
	}
}

// Len количество задач в буфере.
func (q *MemoryQueue) Len() int {
	return len(q.ch)
}

func (q *MemoryQueue) Close() error {
	return nil
}
