// Package service owns the lifecycle of the service-under-test: detached
// launch at the start of a run, forced termination at the end of it.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/programme-lv/harness/internal/reclaim"
)

// ErrNotTerminated is returned when the service process could not be
// confirmed dead after teardown.
var ErrNotTerminated = errors.New("service process could not be confirmed terminated")

// Process is the handle to a launched service-under-test. It is created by
// Launch, owned by the orchestrator for the duration of one run, and destroyed
// by Teardown.
type Process struct {
	Pid       int
	StartedAt time.Time

	cmd     *exec.Cmd
	logFile *os.File
	done    chan struct{}
}

// Manager launches and tears down service processes.
type Manager struct {
	logger    *slog.Logger
	reclaimer *reclaim.Reclaimer

	// killBound caps how long a teardown waits for the process to die.
	killBound time.Duration
}

func NewManager(logger *slog.Logger, reclaimer *reclaim.Reclaimer) *Manager {
	return &Manager{
		logger:    logger,
		reclaimer: reclaimer,
		killBound: 5 * time.Second,
	}
}

// Launch starts command as a detached child in dir. The child runs in its own
// process group so it survives the harness's own suspension and is only torn
// down by an explicit Teardown. Its output goes to logPath, or is discarded
// when logPath is empty.
func (m *Manager) Launch(command []string, dir string, logPath string) (*Process, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("failed to spawn service: empty command")
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("failed to spawn service: invalid working directory %s", dir)
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var logFile *os.File
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			m.logger.Warn("failed to open service log file, discarding output", "path", logPath, "error", err)
		} else {
			logFile = f
		}
	}
	if logFile != nil {
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	} else {
		cmd.Stdout = io.Discard
		cmd.Stderr = io.Discard
	}

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, fmt.Errorf("failed to spawn service: %w", err)
	}

	p := &Process{
		Pid:       cmd.Process.Pid,
		StartedAt: time.Now(),
		cmd:       cmd,
		logFile:   logFile,
		done:      make(chan struct{}),
	}

	go func() {
		cmd.Wait()
		if logFile != nil {
			logFile.Close()
		}
		close(p.done)
	}()

	m.logger.Info("service launched", "pid", p.Pid, "dir", dir)
	return p, nil
}

// Alive reports whether the process still exists in the process table.
func (p *Process) Alive() bool {
	err := syscall.Kill(p.Pid, 0)
	return err == nil
}

// Teardown force-kills the service's process group and waits until the
// process is confirmed gone. If the recorded pid is already stale it falls
// back to port-based reclamation so nothing is left listening on the port.
func (m *Manager) Teardown(ctx context.Context, p *Process, port int) error {
	if p == nil {
		// Nothing was launched; free the port anyway, best effort.
		return m.reclaimer.Reclaim(ctx, port)
	}

	// Negative pid addresses the whole process group created at launch.
	err := syscall.Kill(-p.Pid, syscall.SIGKILL)
	if err != nil && errors.Is(err, syscall.ESRCH) {
		m.logger.Debug("service process group already gone, reclaiming port", "pid", p.Pid)
		return m.reclaimer.Reclaim(ctx, port)
	}
	if err != nil {
		return fmt.Errorf("failed to kill service process group %d: %w", p.Pid, err)
	}

	select {
	case <-p.done:
	case <-time.After(m.killBound):
		if p.Alive() {
			return fmt.Errorf("%w: pid %d", ErrNotTerminated, p.Pid)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	m.logger.Info("service terminated", "pid", p.Pid)
	return nil
}
