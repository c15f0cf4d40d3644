// Command nodeworker is the long-lived per-project child process spawned by
// pkg/worker.Manager. It speaks the JSON-lines exec_node protocol over its
// own stdin/stdout, evaluating node source files with the same sandboxed
// evaluator used for in-process execution.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/evaluator"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/worker"
)

func main() {
	eval := evaluator.New(nil)
	reader := bufio.NewScanner(os.Stdin)
	reader.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	writer := bufio.NewWriter(os.Stdout)
	defer writer.Flush()

	for reader.Scan() {
		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}
		resp := handleLine(eval, line)
		raw, err := json.Marshal(resp)
		if err != nil {
			continue
		}
		writer.Write(raw)
		writer.WriteByte('\n')
		writer.Flush()
	}
}

func handleLine(eval *evaluator.Evaluator, line string) worker.Response {
	var req worker.Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return worker.Response{OK: false, Error: fmt.Sprintf("Invalid message: %v", err)}
	}

	if req.Op != "exec_node" {
		return worker.Response{ID: &req.ID, OK: false, Error: fmt.Sprintf("Unknown op: %s", req.Op)}
	}

	projectRoot := req.ProjectRoot
	filePath := filepath.Join(projectRoot, req.File)
	resolvedRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return worker.Response{ID: &req.ID, OK: false, Error: err.Error()}
	}
	resolvedFile, err := filepath.Abs(filePath)
	if err != nil {
		return worker.Response{ID: &req.ID, OK: false, Error: err.Error()}
	}
	if !strings.HasPrefix(resolvedFile, resolvedRoot) {
		return worker.Response{ID: &req.ID, OK: false, Error: "Node file path escapes project root"}
	}

	source, err := os.ReadFile(resolvedFile)
	if err != nil {
		return worker.Response{ID: &req.ID, OK: false, Error: fmt.Sprintf("Node file not found: %s", req.File)}
	}

	start := time.Now()
	out, err := eval.Run(string(source), req.Input)
	elapsedMs := time.Since(start).Milliseconds()
	if err != nil {
		return worker.Response{ID: &req.ID, OK: false, Error: err.Error(), Traceback: err.Error()}
	}
	return worker.Response{ID: &req.ID, OK: true, Output: out, TimeMs: elapsedMs}
}
