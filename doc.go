// Package timing is a cooperative coroutine scheduler for frame loops.
//
// A host program that advances in discrete ticks (a game loop, a simulation
// step, a render loop) often accumulates long-lived pieces of work that must
// make a little progress every tick: fades, timers, AI behaviors, staged
// setups. Package timing runs such work as coroutines: suspendable units
// that are advanced incrementally, once per tick, on the thread that drives
// the loop. There are no goroutines per coroutine and no locks; everything
// is single-threaded and cooperative.
//
// # Schedulers and Segments
//
// A [Scheduler] is an isolated coroutine domain. Up to 15 of them can exist
// at once, each addressed by a small key that is also baked into every
// [Handle] it issues. Most programs use exactly one.
//
// Each scheduler owns three update [Segment]s ([Update], [FixedUpdate] and
// [LateUpdate]), which the host ticks independently, each with its own
// elapsed-time value. Segments keep separate local clocks because they may
// run at different rates within the same wall-clock frame.
//
// # Tasks
//
// A coroutine's body is a [Task]: a function that is called every time the
// coroutine is resumed and returns a [Result] saying what to do next.
// A task can sleep ([WaitForSeconds]), skip a frame ([NextTick]), finish
// ([End]), hand its slot over to a different task ([Transition]), or
// suspend until other coroutines finish ([WaitUntilDone]).
//
//	h := sch.Run(func(co *timing.Coroutine) timing.Result {
//		fmt.Println("later")
//		return timing.End()
//	})
//
// State lives in the task's closure; a task that wants staged behavior
// transitions to the next stage, or is written as a generator with
// [FromSeq]. Chaining one coroutine into another's execution costs zero
// extra ticks: a transition is re-evaluated at the same slot in the same
// tick.
//
// # Control
//
// Registration returns a [Handle], a stable identifier that outlives any
// physical storage reshuffling. Handles can be killed, paused and resumed
// from outside the tick: individually, by string tag, or en masse.
// Pausing and holding are orthogonal: "paused" is user-requested, "held"
// means suspended on another coroutine's completion or on an explicit lock
// token (see [Scheduler.LockCoroutine]).
//
// # Faults
//
// A panic in a task body is caught per slot, reported through the
// scheduler's logger, and the coroutine is left in place to retry on its
// next tick. Nothing a coroutine does can take down the driver or its
// neighbors.
package timing
