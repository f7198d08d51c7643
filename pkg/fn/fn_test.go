package fn

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"
)

// --- Result ---

func TestOkAndErr(t *testing.T) {
	v, err := Ok(42).Unwrap()
	if v != 42 || err != nil {
		t.Fatal("wrong unwrap")
	}

	if _, err := Err[int](errors.New("fail")).Unwrap(); err == nil || err.Error() != "fail" {
		t.Fatalf("Err should carry its error, got %v", err)
	}
}

func TestFromPair(t *testing.T) {
	if v, err := FromPair("x", nil).Unwrap(); v != "x" || err != nil {
		t.Fatal("nil error should be Ok")
	}
	if _, err := FromPair("x", errors.New("boom")).Unwrap(); err == nil {
		t.Fatal("non-nil error should be Err")
	}
}

// --- Settle ---

func TestSettlePreservesOrder(t *testing.T) {
	tasks := make([]func(context.Context) Result[string], 5)
	for i := range tasks {
		i := i
		tasks[i] = func(context.Context) Result[string] {
			time.Sleep(time.Duration(5-i) * time.Millisecond)
			return Ok(strconv.Itoa(i))
		}
	}
	out := Settle(context.Background(), tasks...)
	for i, r := range out {
		v, err := r.Unwrap()
		if err != nil || v != strconv.Itoa(i) {
			t.Fatalf("slot %d: got %q, %v", i, v, err)
		}
	}
}

func TestSettleIsolatesFailures(t *testing.T) {
	out := Settle(context.Background(),
		func(context.Context) Result[int] { return Ok(1) },
		func(context.Context) Result[int] { return Err[int](errors.New("down")) },
		func(context.Context) Result[int] { panic("boom") },
		func(context.Context) Result[int] { return Ok(4) },
	)
	if len(out) != 4 {
		t.Fatalf("expected 4 outcomes, got %d", len(out))
	}
	if v, _ := out[0].Unwrap(); v != 1 {
		t.Fatalf("slot 0: got %d", v)
	}
	if _, err := out[1].Unwrap(); err == nil {
		t.Fatal("slot 1 should be Err")
	}
	_, err := out[2].Unwrap()
	var pe *PanicError
	if !errors.As(err, &pe) || pe.Index != 2 {
		t.Fatalf("slot 2: expected PanicError, got %v", err)
	}
	if v, _ := out[3].Unwrap(); v != 4 {
		t.Fatalf("slot 3: got %d", v)
	}
}

func TestSettleRunsConcurrently(t *testing.T) {
	task := func(context.Context) Result[struct{}] {
		time.Sleep(50 * time.Millisecond)
		return Ok(struct{}{})
	}
	start := time.Now()
	Settle(context.Background(), task, task, task, task)
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Fatalf("tasks appear to run sequentially: %v", elapsed)
	}
}

func TestSettleEmpty(t *testing.T) {
	if out := Settle[int](context.Background()); len(out) != 0 {
		t.Fatalf("expected no outcomes, got %d", len(out))
	}
}

func TestAwaitReturnsResult(t *testing.T) {
	r := Await(context.Background(), func(context.Context) Result[int] { return Ok(7) })
	if v, err := r.Unwrap(); v != 7 || err != nil {
		t.Fatalf("got %v, %v", v, err)
	}
}

func TestAwaitAbandonsHungTask(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	r := Await(ctx, func(context.Context) Result[int] {
		<-release
		return Ok(1)
	})
	if _, err := r.Unwrap(); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("Await waited on a task that ignored its context")
	}
}

func TestAwaitRecoversPanic(t *testing.T) {
	r := Await(context.Background(), func(context.Context) Result[int] { panic("boom") })
	var pe *PanicError
	if _, err := r.Unwrap(); !errors.As(err, &pe) || pe.Value != "boom" {
		t.Fatalf("expected PanicError, got %v", err)
	}
}

// --- Slices ---

func TestMap(t *testing.T) {
	out := Map([]int{1, 2, 3}, func(v int) string { return strconv.Itoa(v * 2) })
	if len(out) != 3 || out[2] != "6" {
		t.Fatalf("got %v", out)
	}
}

func TestFilterMap(t *testing.T) {
	out := FilterMap([]string{"1", "x", "3"}, func(s string) (int, bool) {
		n, err := strconv.Atoi(s)
		return n, err == nil
	})
	if len(out) != 2 || out[0] != 1 || out[1] != 3 {
		t.Fatalf("got %v", out)
	}
}

func TestPartitionStable(t *testing.T) {
	yes, no := Partition([]int{5, 2, 8, 1, 4, 7}, func(v int) bool { return v%2 == 0 })
	if len(yes) != 3 || yes[0] != 2 || yes[1] != 8 || yes[2] != 4 {
		t.Fatalf("yes: %v", yes)
	}
	if len(no) != 3 || no[0] != 5 || no[1] != 1 || no[2] != 7 {
		t.Fatalf("no: %v", no)
	}
}

func TestFlatMap(t *testing.T) {
	out := FlatMap([]int{1, 2}, func(v int) []int { return []int{v, v * 10} })
	if len(out) != 4 || out[1] != 10 || out[3] != 20 {
		t.Fatalf("got %v", out)
	}
}

func TestUniqueBy(t *testing.T) {
	out := UniqueBy([]string{"a1", "b1", "a2"}, func(s string) byte { return s[0] })
	if len(out) != 2 || out[0] != "a1" || out[1] != "b1" {
		t.Fatalf("got %v", out)
	}
}
