package project

import (
	"strings"

	"deployer/internal/repoconfig"
)

const headsPrefix = "refs/heads/"

// Project represents a validated entry of the projects registry
type Project struct {
	Name   string
	Path   string
	Secret string
}

// ProjectConfig represents the YAML configuration for a project
type ProjectConfig struct {
	Path   string `yaml:"path"`
	Secret string `yaml:"secret"`
}

// Config represents the root configuration structure
type Config struct {
	Projects map[string]ProjectConfig `yaml:"projects"`
}

// BranchFromRef extracts the branch name from a pushed git ref. Tags and
// other refs report false.
func (p *Project) BranchFromRef(ref string) (string, bool) {
	branch, ok := strings.CutPrefix(ref, headsPrefix)
	if !ok || branch == "" {
		return "", false
	}
	return branch, true
}

// LoadRepoConfig reads the project's deployer configuration fresh from disk,
// so edits to the file take effect on the next request.
func (p *Project) LoadRepoConfig() (*repoconfig.RepoConfig, error) {
	return repoconfig.Load(p.Path)
}
