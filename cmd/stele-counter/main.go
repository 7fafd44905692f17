// Command stele-counter is a sample task for the execution engine.
//
// It counts up to a target, one step per tick, keeping its progress in checkpoints:
//
//	stele run --checkpoint-interval 1 -- stele-counter --target 100
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oneconcern/stele/pkg/dlogger"
	"github.com/oneconcern/stele/pkg/task"
	flag "github.com/spf13/pflag"
)

func main() {
	log.SetFlags(0)
	target := flag.Int64("target", 60, "count up to this value")
	step := flag.Duration("step", time.Second, "time between increments")
	logLevel := flag.String("loglevel", "info", "the logging level")
	flag.Parse()

	l, err := dlogger.GetLogger(*logLevel)
	if err != nil {
		log.Fatalln(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err = task.Run(ctx, count(*target, *step), task.Logger(l)); err != nil {
		log.Fatalln(err)
	}
}

func count(target int64, step time.Duration) task.Func {
	return func(ctx context.Context, state *task.State) error {
		n, _ := state.Int64("count")
		if n > 0 {
			fmt.Printf("resuming at %d\n", n)
		}
		ticker := time.NewTicker(step)
		defer ticker.Stop()

		for n < target {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			n++
			state.Update(func(values map[string]interface{}) {
				values["count"] = n
				values["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)
			})
			fmt.Println(n)
		}
		return nil
	}
}
