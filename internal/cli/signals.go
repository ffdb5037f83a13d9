package cli

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/RevCBH/floki/internal/logging"
)

// forwardBuffer bounds signals queued for a container that has not started.
const forwardBuffer = 4

// SignalHandler catches SIGINT and SIGTERM while a foreground container
// runs and hands them to callbacks instead of terminating the launcher.
//
// The launcher must outlive the container so deferred cleanup, such as
// stopping a sidecar, still happens. SIGKILL cannot be caught and may
// leave a sidecar behind.
type SignalHandler struct {
	signals  chan os.Signal
	stopCh   chan struct{} // closed by Stop to signal goroutine to exit
	done     chan struct{} // closed when goroutine exits
	stopOnce sync.Once
	onSignal []func(os.Signal)
	mu       sync.Mutex
}

// NewSignalHandler creates an inactive handler.
func NewSignalHandler() *SignalHandler {
	return &SignalHandler{
		signals:  make(chan os.Signal, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		onSignal: make([]func(os.Signal), 0),
	}
}

// Start begins catching SIGINT and SIGTERM.
func (h *SignalHandler) Start() {
	h.StartWithNotify(true)
}

// StartWithNotify begins listening for signals, optionally registering with OS signal handling.
// Pass false for notify in unit tests to avoid global signal state interactions.
func (h *SignalHandler) StartWithNotify(notify bool) {
	if notify {
		signal.Notify(h.signals, syscall.SIGINT, syscall.SIGTERM)
	}

	started := make(chan struct{})
	go func() {
		defer close(h.done)
		close(started)

		for {
			select {
			case sig := <-h.signals:
				logging.Debugf("Received signal %v, waiting for the container to exit", sig)

				h.mu.Lock()
				callbacks := make([]func(os.Signal), len(h.onSignal))
				copy(callbacks, h.onSignal)
				h.mu.Unlock()

				for _, fn := range callbacks {
					fn(sig)
				}
			case <-h.stopCh:
				return
			}
		}
	}()

	<-started
}

// OnSignal registers a callback run for every caught signal, in
// registration order.
func (h *SignalHandler) OnSignal(fn func(os.Signal)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSignal = append(h.onSignal, fn)
}

// relayTo returns a callback queueing signals on ch. A full queue drops the
// signal rather than stall the handler.
func relayTo(ch chan<- os.Signal) func(os.Signal) {
	return func(sig os.Signal) {
		select {
		case ch <- sig:
		default:
			logging.Warnf("Dropping %v: %d signals already pending for the container", sig, cap(ch))
		}
	}
}

// Stop restores default signal handling and stops the goroutine.
func (h *SignalHandler) Stop() {
	signal.Stop(h.signals)
	h.stopOnce.Do(func() {
		close(h.stopCh)
	})
	// Don't block if the goroutine is in the middle of a callback
	select {
	case <-h.done:
	case <-time.After(100 * time.Millisecond):
	}
}
