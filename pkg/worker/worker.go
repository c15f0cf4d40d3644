// Package worker supervises one long-lived child process per project and
// speaks a JSON-lines RPC protocol with it over stdin/stdout, so heavier
// node evaluations can run isolated from the caller's own process.
package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/logging"
)

// process wraps one spawned child and the plumbing needed to demultiplex
// its line-delimited responses back to the goroutine awaiting each one.
type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	mu      sync.Mutex
	pending map[string]chan Response

	done   chan struct{}
	logger *logging.Logger
}

func spawn(ctx context.Context, interpreterPath, workingDir string, env []string, logger *logging.Logger) (*process, error) {
	// Not tied to ctx: the caller's context is scoped to one request, while
	// the process must outlive it and is stopped only through terminate.
	cmd := exec.Command(interpreterPath)
	cmd.Dir = workingDir
	cmd.Env = env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("worker: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("worker: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("worker: starting process: %w", err)
	}

	p := &process{
		cmd:     cmd,
		stdin:   stdin,
		stdout:  stdout,
		pending: make(map[string]chan Response),
		done:    make(chan struct{}),
		logger:  logger,
	}
	go p.readLoop()
	return p, nil
}

// readLoop is the background reader demultiplexing responses by id.
func (p *process) readLoop() {
	defer close(p.done)
	scanner := bufio.NewScanner(p.stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			p.logger.Warn("worker: malformed response line", logging.Fields{"error": err.Error()})
			continue
		}
		if resp.ID == nil {
			continue
		}
		p.mu.Lock()
		ch, ok := p.pending[*resp.ID]
		if ok {
			delete(p.pending, *resp.ID)
		}
		p.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

func (p *process) call(ctx context.Context, req Request, timeout time.Duration) (Response, error) {
	ch := make(chan Response, 1)
	p.mu.Lock()
	p.pending[req.ID] = ch
	p.mu.Unlock()

	raw, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("worker: encoding request: %w", err)
	}
	raw = append(raw, '\n')
	if _, err := p.stdin.Write(raw); err != nil {
		// A failed write means the pipe to the child is dead.
		p.mu.Lock()
		delete(p.pending, req.ID)
		p.mu.Unlock()
		return Response{}, ErrWorkerExited
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-time.After(timeout):
		p.mu.Lock()
		delete(p.pending, req.ID)
		p.mu.Unlock()
		return Response{}, ErrTimeout
	case <-p.done:
		return Response{}, ErrWorkerExited
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// terminate sends SIGTERM, waits up to grace for exit, then sends SIGKILL.
func (p *process) terminate(grace time.Duration) {
	if p.cmd.Process == nil {
		return
	}
	_ = p.cmd.Process.Signal(terminationSignal())
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-p.done:
	case <-timer.C:
		_ = p.cmd.Process.Kill()
		<-p.done
	}
}

func newRequestID() string {
	return uuid.NewString()
}
