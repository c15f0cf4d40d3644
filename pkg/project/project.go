// Package project resolves a project id to the environment descriptor the
// evaluator and worker process manager need to run that project's node
// code: its filesystem root, working directory, and any environment
// variables to expose to env.get.
package project

import (
	"fmt"
	"os"
	"path/filepath"
)

// Env is a project's resolved execution environment. InterpreterPath names
// the binary the Worker Process Manager should spawn for this project;
// since every node runs as Go code in this implementation, it is always
// the nodeworker binary, but the field is kept distinct from WorkingDir so
// a future per-project override has somewhere to live.
type Env struct {
	InterpreterPath string
	WorkingDir      string
	EnvVars         map[string]string
}

// Resolver maps project ids to their root directory on disk.
type Resolver struct {
	rootDir         string
	interpreterPath string
}

// NewResolver creates a Resolver rooted at rootDir, the directory under
// which each project gets its own subdirectory named by id.
func NewResolver(rootDir, interpreterPath string) *Resolver {
	return &Resolver{rootDir: rootDir, interpreterPath: interpreterPath}
}

// ProjectDir returns the absolute path of a project's root directory.
func (r *Resolver) ProjectDir(projectID string) string {
	return filepath.Join(r.rootDir, projectID)
}

// Resolve builds the Env descriptor for a project, failing if the
// project's directory does not exist on disk.
func (r *Resolver) Resolve(projectID string) (*Env, error) {
	dir := r.ProjectDir(projectID)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("project: resolving %q: %w", projectID, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project: %q is not a directory", dir)
	}
	return &Env{
		InterpreterPath: r.interpreterPath,
		WorkingDir:      dir,
		EnvVars:         map[string]string{"PROJECT_ROOT": dir},
	}, nil
}
