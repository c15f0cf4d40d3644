package worker

import (
	"fmt"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/project"
)

// ProjectSpawner adapts a project.Resolver into the Spawner interface the
// Manager needs, always launching the nodeworker binary for every project.
type ProjectSpawner struct {
	Resolver        *project.Resolver
	NodeWorkerPath  string
	AuxPath         string
}

func (s *ProjectSpawner) InterpreterPath() string {
	return s.NodeWorkerPath
}

func (s *ProjectSpawner) WorkingDir(projectID string) string {
	return s.Resolver.ProjectDir(projectID)
}

func (s *ProjectSpawner) Env(projectID string) []string {
	projectDir := s.Resolver.ProjectDir(projectID)
	env := []string{fmt.Sprintf("WORKER_PROJECT_PATH=%s", projectDir)}
	if resolved, err := s.Resolver.Resolve(projectID); err == nil {
		for k, v := range resolved.EnvVars {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
	}
	if s.AuxPath != "" {
		env = append(env, fmt.Sprintf("AIM_FORGE_AUX_PATH=%s", s.AuxPath))
	}
	return env
}
