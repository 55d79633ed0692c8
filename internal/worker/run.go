package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/iconidentify/imgrabba/internal/domain"
)

// Outcome is the result of running a task on one item.
type Outcome[T, R any] struct {
	Item  T
	Value R
	Err   error
}

// Run applies fn to every item using at most workers goroutines and streams
// the outcomes in completion order. Each item yields exactly one Outcome; a
// panic inside fn is reported as domain.ErrUnexpectedTask for that item. The
// returned channel is closed once all items have finished, and the caller
// must drain it.
func Run[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error)) <-chan Outcome[T, R] {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	queue := make(chan T)
	out := make(chan Outcome[T, R])

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range queue {
				out <- call(ctx, fn, item)
			}
		}()
	}

	go func() {
		for _, item := range items {
			queue <- item
		}
		close(queue)
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

func call[T, R any](ctx context.Context, fn func(context.Context, T) (R, error), item T) (o Outcome[T, R]) {
	o.Item = item
	defer func() {
		if r := recover(); r != nil {
			var zero R
			o.Value = zero
			o.Err = fmt.Errorf("%w: panic: %v", domain.ErrUnexpectedTask, r)
		}
	}()
	o.Value, o.Err = fn(ctx, item)
	return o
}
