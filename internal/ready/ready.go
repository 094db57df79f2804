// Package ready gates the test-runner on the service actually accepting TCP
// connections. The original behaviour here was a flat grace-period sleep;
// active polling keeps the same contract and hands control over sooner.
package ready

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrNotReady is returned when the service never accepted a connection within
// the readiness timeout.
var ErrNotReady = errors.New("service did not become ready")

const (
	pollInterval = 100 * time.Millisecond
	dialTimeout  = 250 * time.Millisecond
)

// AwaitTCP polls addr until a TCP connection succeeds, the timeout expires,
// or ctx is canceled. The test-runner must not start before this returns nil.
func AwaitTCP(ctx context.Context, addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		conn, err := net.DialTimeout("tcp", addr, dialTimeout)
		if err == nil {
			conn.Close()
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s after %s", ErrNotReady, addr, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
