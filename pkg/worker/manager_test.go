package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/logging"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/worker"
)

// catSpawner launches /bin/cat as the child process, which echoes every
// request line straight back. This is enough to exercise the line-
// delimited JSON framing and id-based demultiplexing without needing a
// real nodeworker binary on the test machine.
type catSpawner struct{ dir string }

func (catSpawner) InterpreterPath() string       { return "/bin/cat" }
func (s catSpawner) WorkingDir(string) string    { return s.dir }
func (catSpawner) Env(string) []string           { return nil }

func TestManager_ExecRoundTripsRequestID(t *testing.T) {
	spawner := catSpawner{dir: t.TempDir()}
	m := worker.New(spawner, logging.NoOp(), 200*time.Millisecond, true)
	defer m.StopAll()

	resp, err := m.Exec(context.Background(), "proj1", "node.txt", map[string]interface{}{"x": 1.0}, 2*time.Second)
	require.NoError(t, err)
	// cat echoes the request verbatim, which has no "ok" field, so it
	// decodes as OK=false with no error -- proof the response was
	// correctly matched to the outstanding request by id.
	assert.False(t, resp.OK)
	assert.Empty(t, resp.Error)
}

func TestManager_TimeoutSurfacesError(t *testing.T) {
	// tail only writes once its stdin is closed, so it never answers a
	// request line on stdout and every call times out.
	spawner := silentSpawner{dir: t.TempDir()}
	m := worker.New(spawner, logging.NoOp(), 50*time.Millisecond, false)
	defer m.StopAll()

	_, err := m.Exec(context.Background(), "proj1", "node.txt", nil, 100*time.Millisecond)
	assert.Error(t, err)
}

type silentSpawner struct{ dir string }

func (silentSpawner) InterpreterPath() string    { return "/usr/bin/tail" }
func (s silentSpawner) WorkingDir(string) string { return s.dir }
func (silentSpawner) Env(string) []string        { return nil }
