// Package async includes helpers for scheduling runnable, periodic functions.
package async

import (
	"context"
	"reflect"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

// RunEvery runs the provided command periodically.
// It runs in a goroutine, and can be cancelled by finishing the supplied context.
func RunEvery(ctx context.Context, period time.Duration, f func()) {
	RunEveryAfter(ctx, period, period, f)
}

// RunEveryAfter runs the provided command once the initial delay has passed and then
// periodically. A zero delay runs the command right away. It runs in a goroutine, and
// can be cancelled by finishing the supplied context, including while still waiting
// for the first run.
func RunEveryAfter(ctx context.Context, delay, period time.Duration, f func()) {
	funcName := runtime.FuncForPC(reflect.ValueOf(f).Pointer()).Name()
	go func() {
		first := time.NewTimer(delay)
		defer first.Stop()
		select {
		case <-first.C:
		case <-ctx.Done():
			log.WithField("function", funcName).Debug("context is closed, exiting")
			return
		}
		log.WithField("function", funcName).Trace("running")
		f()
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				log.WithField("function", funcName).Trace("running")
				f()
			case <-ctx.Done():
				log.WithField("function", funcName).Debug("context is closed, exiting")
				return
			}
		}
	}()
}
