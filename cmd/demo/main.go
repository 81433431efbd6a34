// Command demo runs a scheduler under a wall-clock frame loop for a few
// seconds: a heartbeat coroutine in Update, a counter in FixedUpdate, and
// a staged sequence that waits for the counter to be killed by tag.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-logr/logr/funcr"

	"github.com/croxit/timing"
	"github.com/croxit/timing/frameloop"
)

const configDoc = `
tick_rate: 30
fixed_step: 0.05
max_catch_up: 5
`

func main() {
	logger := funcr.New(func(prefix, args string) {
		log.Println(prefix, args)
	}, funcr.Options{})

	cfg, err := frameloop.ParseConfig([]byte(configDoc))
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}

	sch := timing.NewScheduler()
	defer sch.Close()
	sch.SetLogger(logger.WithName("timing"))

	loop, err := frameloop.New(sch, cfg)
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
	loop.SetLogger(logger.WithName("frameloop"))

	heartbeat := sch.RunTagged(timing.Update, "demo", timing.FromSeq(func(yield func(timing.Result) bool) {
		for {
			fmt.Println("ba-dum")
			if !yield(timing.WaitForSeconds(0.5)) {
				return
			}
		}
	}))

	ticks := 0
	sch.RunTagged(timing.FixedUpdate, "demo", func(co *timing.Coroutine) timing.Result {
		ticks++
		return timing.NextTick()
	})

	sch.Run(timing.Sequence(
		timing.Do(func() { fmt.Println("warming up") }),
		func(co *timing.Coroutine) timing.Result {
			return timing.WaitForSeconds(2).Then(timing.Do(func() {
				n := sch.KillTag("demo")
				fmt.Printf("killed %d tagged coroutines after %d fixed ticks\n", n, ticks)
			}))
		},
	))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := loop.Run(ctx); err != context.DeadlineExceeded {
		log.Println(err)
		os.Exit(1)
	}

	fmt.Println("heartbeat still running:", sch.IsRunning(heartbeat))
}
