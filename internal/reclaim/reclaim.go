// Package reclaim frees a TCP port by force-killing whatever currently
// listens on it. Killing unrelated processes that happen to hold the port is
// an accepted, documented risk of this design, callers opt into it knowingly.
package reclaim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"syscall"
	"time"
)

// ErrStillBound is returned when the port remains occupied after the bounded
// wait following forced termination of its owners.
var ErrStillBound = errors.New("port is still bound after reclamation")

const pollInterval = 100 * time.Millisecond

// Reclaimer frees TCP ports for exclusive use by the harness.
type Reclaimer struct {
	logger *slog.Logger

	// waitBound caps how long a reclaim waits for the port to become free
	// after killing its owners.
	waitBound time.Duration
}

func New(logger *slog.Logger) *Reclaimer {
	return &Reclaimer{
		logger:    logger,
		waitBound: 5 * time.Second,
	}
}

// Reclaim kills every process listening on port and waits until the port is
// free. Calling it on an already-free port is a no-op, not an error.
func (r *Reclaimer) Reclaim(ctx context.Context, port int) error {
	pids, err := Owners(port)
	if err != nil {
		return fmt.Errorf("failed to enumerate port owners: %w", err)
	}
	if len(pids) == 0 {
		r.logger.Debug("port already free", "port", port)
		return nil
	}

	for _, pid := range pids {
		r.logger.Warn("killing process holding port", "port", port, "pid", pid)
		if err := syscall.Kill(pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("failed to kill pid %d: %w", pid, err)
		}
	}

	return r.awaitFree(ctx, port)
}

func (r *Reclaimer) awaitFree(ctx context.Context, port int) error {
	deadline := time.Now().Add(r.waitBound)
	for {
		pids, err := Owners(port)
		if err != nil {
			return fmt.Errorf("failed to re-probe port: %w", err)
		}
		if len(pids) == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: port %d held by %v", ErrStillBound, port, pids)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
