package pool

import "time"

// waitUntil blocks until the done channel is closed or the timeout is
// reached. A timeout of zero or less means wait forever. It is used during
// shutdown to bound the caller's wait without cutting the drain short.
func waitUntil(done <-chan struct{}, timeout time.Duration) error {
	if timeout <= 0 {
		<-done
		return nil
	}

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}
