package cli

import (
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalHandler_New(t *testing.T) {
	handler := NewSignalHandler()

	require.NotNil(t, handler)
	assert.NotNil(t, handler.signals)
	assert.NotNil(t, handler.onSignal)
}

func TestSignalHandler_AbsorbsRepeatedSignals(t *testing.T) {
	handler := NewSignalHandler()

	got := make(chan os.Signal, 3)
	handler.OnSignal(func(sig os.Signal) { got <- sig })

	handler.StartWithNotify(false)
	defer handler.Stop()

	handler.signals <- syscall.SIGINT
	handler.signals <- syscall.SIGTERM
	handler.signals <- syscall.SIGINT

	for _, want := range []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGINT} {
		select {
		case sig := <-got:
			assert.Equal(t, want, sig)
		case <-time.After(time.Second):
			t.Fatal("signal was not delivered to callback")
		}
	}
}

func TestSignalHandler_CallbackOrder(t *testing.T) {
	handler := NewSignalHandler()

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})
	for i := 1; i <= 3; i++ {
		i := i
		handler.OnSignal(func(os.Signal) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			if i == 3 {
				close(done)
			}
		})
	}

	handler.StartWithNotify(false)
	defer handler.Stop()
	handler.signals <- syscall.SIGTERM

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callbacks did not run")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestSignalHandler_StopExitsGoroutine(t *testing.T) {
	handler := NewSignalHandler()
	handler.StartWithNotify(false)

	handler.Stop()

	select {
	case <-handler.done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not exit after Stop")
	}
}

func TestSignalHandler_StopIsIdempotent(t *testing.T) {
	handler := NewSignalHandler()
	handler.StartWithNotify(false)

	assert.NotPanics(t, func() {
		handler.Stop()
		handler.Stop()
	})
}
