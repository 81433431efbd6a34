package timing_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/croxit/timing"
)

// Maintenance runs every 64 Update ticks; the tests below tick past that
// boundary to force it.
const maintenanceTicks = 64

func TestMaintenance(t *testing.T) {
	sch := timing.NewScheduler()
	defer sch.Close()

	var order []int
	walker := func(i int) timing.Task {
		return func(co *timing.Coroutine) timing.Result {
			order = append(order, i)
			return timing.NextTick()
		}
	}

	handles := make([]timing.Handle, 10)
	for i := range handles {
		handles[i] = sch.Run(walker(i))
	}
	for i := 1; i < 10; i += 2 {
		if n := sch.Kill(handles[i]); n != 1 {
			t.Fatalf("Kill = %d, want 1.", n)
		}
	}

	survivors := []int{0, 2, 4, 6, 8}

	// Drive past the maintenance boundary; dead slots are skipped
	// before it and compacted away by it.
	order = nil
	for i := 0; i < maintenanceTicks; i++ {
		sch.Tick(timing.Update, 1)
	}
	if len(order) != maintenanceTicks*len(survivors) {
		t.Fatalf("len(order) = %d, want %d.", len(order), maintenanceTicks*len(survivors))
	}

	t.Run("OrderPreserved", func(t *testing.T) {
		order = nil
		sch.Tick(timing.Update, 1)
		if diff := cmp.Diff(survivors, order); diff != "" {
			t.Fatalf("post-maintenance visit order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("CountsRefreshed", func(t *testing.T) {
		if got := sch.Count(timing.Update); got != len(survivors) {
			t.Errorf("Count(Update) = %d, want %d.", got, len(survivors))
		}
		if got := sch.Count(timing.FixedUpdate); got != 0 {
			t.Errorf("Count(FixedUpdate) = %d, want 0.", got)
		}
	})

	t.Run("HandlesSurviveMoves", func(t *testing.T) {
		// Compaction moved the surviving slots down; their handles must
		// still address them.
		for _, i := range survivors {
			if !sch.IsRunning(handles[i]) {
				t.Fatalf("survivor %d lost its handle to compaction.", i)
			}
			if n := sch.Pause(handles[i]); n != 1 {
				t.Fatalf("Pause of survivor %d = %d, want 1.", i, n)
			}
		}
		for i := 1; i < 10; i += 2 {
			if sch.IsRunning(handles[i]) {
				t.Fatalf("killed coroutine %d came back.", i)
			}
		}
		order = nil
		sch.Tick(timing.Update, 1)
		if len(order) != 0 {
			t.Fatal("paused survivors were advanced.")
		}
		for _, i := range survivors {
			sch.Resume(handles[i])
		}
	})

	t.Run("Idempotence", func(t *testing.T) {
		// A second maintenance pass with no intervening churn must not
		// change the live set, the visit order or the counts.
		for i := 0; i < maintenanceTicks; i++ {
			sch.Tick(timing.Update, 1)
		}
		order = nil
		sch.Tick(timing.Update, 1)
		if diff := cmp.Diff(survivors, order); diff != "" {
			t.Fatalf("visit order changed across idle maintenance (-want +got):\n%s", diff)
		}
		if got := sch.Count(timing.Update); got != len(survivors) {
			t.Errorf("Count(Update) = %d, want %d.", got, len(survivors))
		}
	})
}
