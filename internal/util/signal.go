package util

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// OnInterrupt calls handle for every SIGINT/SIGTERM with the running count of
// signals seen so far. The returned func unregisters the handler.
func OnInterrupt(handle func(sig os.Signal, count int)) (release func()) {
	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	var once sync.Once

	go func() {
		count := 0
		for {
			select {
			case s := <-sig:
				count++
				handle(s, count)
			case <-done:
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			signal.Stop(sig)
			close(done)
		})
	}
}
