package fn

import (
	"context"
	"fmt"
	"sync"
)

// PanicError is the error recorded for a task that panicked.
type PanicError struct {
	Index int
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %d panicked: %v", e.Index, e.Value)
}

// Settle runs every task concurrently and waits until all of them return.
// Outcomes are reported in task order. A failing or panicking task never
// cancels its siblings; a panic becomes an Err carrying *PanicError.
func Settle[T any](ctx context.Context, tasks ...func(context.Context) Result[T]) []Result[T] {
	out := make([]Result[T], len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task func(context.Context) Result[T]) {
			defer wg.Done()
			defer func() {
				if v := recover(); v != nil {
					out[i] = Err[T](&PanicError{Index: i, Value: v})
				}
			}()
			out[i] = task(ctx)
		}(i, task)
	}
	wg.Wait()
	return out
}

// Await runs task in its own goroutine and returns its Result, or ctx.Err()
// as soon as ctx is done, whichever comes first. A task that ignores ctx is
// abandoned rather than waited on. A panic becomes an Err carrying *PanicError.
func Await[T any](ctx context.Context, task func(context.Context) Result[T]) Result[T] {
	done := make(chan Result[T], 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- Err[T](&PanicError{Value: v})
			}
		}()
		done <- task(ctx)
	}()
	select {
	case r := <-done:
		return r
	case <-ctx.Done():
		return Err[T](ctx.Err())
	}
}
