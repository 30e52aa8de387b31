//go:build unix

package cpu

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterruptSignals(t *testing.T) {
	assert.Equal(t, []os.Signal{os.Interrupt}, interruptSignals)
	assert.NotContains(t, interruptSignals, syscall.SIGTERM)
}

func TestInterruptOnSignal(t *testing.T) {
	interrupted := make(chan struct{}, 1)
	stop := interruptOnSignal(func() {
		interrupted <- struct{}{}
	})
	defer stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))

	select {
	case <-interrupted:
	case <-time.After(5 * time.Second):
		t.Fatal("SIGINT was not forwarded")
	}
}
