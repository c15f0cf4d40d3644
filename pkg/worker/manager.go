package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/logging"
)

// Spawner builds the argv/workdir/env for a project's worker process. It is
// an interface so tests can substitute a fake child without touching the
// real nodeworker binary.
type Spawner interface {
	InterpreterPath() string
	WorkingDir(projectID string) string
	Env(projectID string) []string
}

// Manager supervises exactly one long-lived worker process per project.
type Manager struct {
	spawner Spawner
	logger  *logging.Logger
	grace   time.Duration
	retry   bool

	mu      sync.Mutex
	workers map[string]*process
	closed  bool
}

// New creates a Manager. grace bounds how long a terminated worker is given
// before SIGKILL; retry controls whether a failed call is retried once
// against a freshly spawned worker.
func New(spawner Spawner, logger *logging.Logger, grace time.Duration, retry bool) *Manager {
	return &Manager{
		spawner: spawner,
		logger:  logger,
		grace:   grace,
		retry:   retry,
		workers: make(map[string]*process),
	}
}

// Exec runs op=exec_node against the project's worker, spawning it on
// first use. On timeout or a dead pipe, the worker is torn down and, when
// retry is enabled, the call is attempted exactly once more against a
// freshly spawned worker.
func (m *Manager) Exec(ctx context.Context, projectID, file string, input interface{}, timeout time.Duration) (Response, error) {
	resp, err := m.tryExec(ctx, projectID, file, input, timeout)
	if err == nil {
		return resp, nil
	}
	if err != ErrTimeout && err != ErrWorkerExited {
		return Response{}, err
	}

	m.restart(projectID)
	if !m.retry {
		return Response{}, err
	}
	m.logger.Warn("worker: retrying after failure", logging.Fields{"project_id": projectID, "error": err.Error()})
	return m.tryExec(ctx, projectID, file, input, timeout)
}

func (m *Manager) tryExec(ctx context.Context, projectID, file string, input interface{}, timeout time.Duration) (Response, error) {
	p, err := m.ensure(ctx, projectID)
	if err != nil {
		return Response{}, err
	}
	req := Request{
		ID:          newRequestID(),
		Op:          "exec_node",
		File:        file,
		Input:       input,
		ProjectRoot: m.spawner.WorkingDir(projectID),
	}
	return p.call(ctx, req, timeout)
}

func (m *Manager) ensure(ctx context.Context, projectID string) (*process, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrAlreadyClosed
	}
	if p, ok := m.workers[projectID]; ok {
		return p, nil
	}
	p, err := spawn(ctx, m.spawner.InterpreterPath(), m.spawner.WorkingDir(projectID), m.spawner.Env(projectID), m.logger)
	if err != nil {
		return nil, fmt.Errorf("worker: spawning for project %q: %w", projectID, err)
	}
	m.workers[projectID] = p
	return p, nil
}

func (m *Manager) restart(projectID string) {
	m.mu.Lock()
	p, ok := m.workers[projectID]
	if ok {
		delete(m.workers, projectID)
	}
	m.mu.Unlock()
	if ok {
		p.terminate(m.grace)
	}
}

// StopAll terminates every live worker process.
func (m *Manager) StopAll() {
	m.mu.Lock()
	m.closed = true
	workers := m.workers
	m.workers = make(map[string]*process)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, p := range workers {
		wg.Add(1)
		go func(p *process) {
			defer wg.Done()
			p.terminate(m.grace)
		}(p)
	}
	wg.Wait()
}
