package cpu

import (
	"log/slog"
	"os"
	"os/signal"
)

// Only Ctrl+C interrupts a running program. Termination signals keep their
// default behavior.
var interruptSignals = []os.Signal{os.Interrupt}

// interruptOnSignal forwards interrupt signals to the given function until
// the returned stop function is called
func interruptOnSignal(interrupt func()) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, interruptSignals...)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case sig := <-sigChan:
				slog.Debug("interrupt", "signal", sig.String())
				interrupt()
			}
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
