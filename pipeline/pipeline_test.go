package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"testing"
	"time"
)

func TestFromSlice_Collect(t *testing.T) {
	got, err := Collect(context.Background(), FromSlice([]int{1, 2, 3}))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("got %v", got)
	}

	empty, err := Collect(context.Background(), FromSlice([]int{}))
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty, got %v, err %v", empty, err)
	}
}

func TestMap_ErrorStops(t *testing.T) {
	boom := errors.New("boom")
	p := Map(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	got, err := Collect(context.Background(), p)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !slices.Equal(got, []int{1}) {
		t.Errorf("expected values before the error, got %v", got)
	}
}

func TestEnumerate(t *testing.T) {
	got, err := Collect(context.Background(), Enumerate(FromSlice([]string{"a", "b", "c"})))
	if err != nil {
		t.Fatal(err)
	}
	for i, item := range got {
		if item.Index != i {
			t.Errorf("item %d has index %d", i, item.Index)
		}
	}
	if got[2].Value != "c" {
		t.Errorf("unexpected value %q", got[2].Value)
	}
}

func TestParallel(t *testing.T) {
	var calls atomic.Int32
	p := Parallel(FromSlice([]int{1, 2, 3, 4, 5}), 3, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		return n * n, nil
	})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	slices.Sort(got)
	if !slices.Equal(got, []int{1, 4, 9, 16, 25}) {
		t.Errorf("got %v", got)
	}
	if calls.Load() != 5 {
		t.Errorf("expected 5 calls, got %d", calls.Load())
	}
}

func TestParallel_Error(t *testing.T) {
	p := Parallel(FromSlice([]int{1, 2, 3}), 2, func(_ context.Context, n int) (int, error) {
		return 0, fmt.Errorf("unit %d failed", n)
	})
	if _, err := Collect(context.Background(), p); err == nil {
		t.Fatal("expected error")
	}
}

func TestOrderedParallel_PreservesOrder(t *testing.T) {
	input := []int{5, 1, 4, 2, 3, 0}
	p := OrderedParallel(FromSlice(input), 4, func(_ context.Context, n int) (int, error) {
		// later inputs finish first
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 2, nil
	})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{10, 2, 8, 4, 6, 0}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestOrderedParallel_SingleWorkerIsMap(t *testing.T) {
	got, err := Collect(context.Background(), OrderedParallel(FromSlice([]int{3, 2, 1}), 1, func(_ context.Context, n int) (int, error) {
		return n + 1, nil
	}))
	if err != nil || !slices.Equal(got, []int{4, 3, 2}) {
		t.Errorf("got %v, err %v", got, err)
	}
}

func TestMap_ErrorSkipsRest(t *testing.T) {
	var seen []int
	p := Map(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) (int, error) {
		seen = append(seen, n)
		if n == 2 {
			return 0, errors.New("bad unit")
		}
		return n * 10, nil
	})
	if _, err := Collect(context.Background(), p); err == nil {
		t.Fatal("expected error")
	}
	if !slices.Equal(seen, []int{1, 2}) {
		t.Errorf("units after the failing one should not run, saw %v", seen)
	}
}

func TestEnumerate_RestartsPerCollect(t *testing.T) {
	p := Enumerate(FromSlice([]string{"a", "b"}))
	for range 2 {
		got, err := Collect(context.Background(), p)
		if err != nil {
			t.Fatal(err)
		}
		if got[0].Index != 0 || got[1].Index != 1 {
			t.Errorf("indexes = %d, %d", got[0].Index, got[1].Index)
		}
	}
}
