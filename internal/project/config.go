// Package project loads the registry of projects the plan server answers
// for. Each project names a checkout containing a deployer configuration and
// the secret its webhooks are signed with.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"deployer/internal/repoconfig"
	"deployer/internal/security"
	"deployer/internal/verifiedpath"
)

// ProjectsRootEnv optionally confines every project path to one directory.
const ProjectsRootEnv = "DEPLOYER_PROJECTS_ROOT"

// LoadConfig loads and validates the configuration from a YAML file
func LoadConfig(configPath string) (*Config, map[string]*Project, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Initialize Projects map if it's nil (happens with empty YAML files)
	if config.Projects == nil {
		config.Projects = make(map[string]ProjectConfig)
	}

	projects := make(map[string]*Project)
	for name, projectConfig := range config.Projects {
		errors := ValidateProjectConfig(name, projectConfig)
		if len(errors) > 0 {
			return nil, nil, fmt.Errorf("invalid configuration for project '%s':\n%s",
				name, strings.Join(errors, "\n"))
		}

		realPath, err := filepath.EvalSymlinks(projectConfig.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve symlinks for project '%s': %w", name, err)
		}

		projects[name] = &Project{
			Name:   name,
			Path:   realPath,
			Secret: projectConfig.Secret,
		}
	}

	return &config, projects, nil
}

// ValidateProjectConfig validates a single project configuration
func ValidateProjectConfig(name string, config ProjectConfig) []string {
	var errors []string

	if err := security.ValidateProjectName(name); err != nil {
		errors = append(errors, fmt.Sprintf("  - Project '%s': %v", name, err))
	}

	errors = append(errors, validatePath(name, config.Path)...)

	if config.Secret == "" {
		errors = append(errors, fmt.Sprintf("  - Project '%s': missing required 'secret' field", name))
	} else if err := security.ValidateSecret(config.Secret); err != nil {
		errors = append(errors, fmt.Sprintf("  - Project '%s': %v", name, err))
	}

	return errors
}

func validatePath(name, path string) []string {
	if path == "" {
		return []string{fmt.Sprintf("  - Project '%s': missing required 'path' field", name)}
	}

	var errors []string
	if !filepath.IsAbs(path) {
		errors = append(errors, fmt.Sprintf("  - Project '%s': path must be absolute, got '%s'", name, path))
	}

	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return append(errors, fmt.Sprintf("  - Project '%s': cannot resolve path '%s': %v", name, path, err))
	}

	dir, err := verifiedpath.Dir("", realPath)
	if err != nil {
		return append(errors, fmt.Sprintf("  - Project '%s': %v", name, err))
	}

	if _, err := verifiedpath.File(dir.Abs(), repoconfig.FileName); err != nil {
		errors = append(errors, fmt.Sprintf("  - Project '%s': missing %s: '%s'", name, repoconfig.FileName, dir))
	}

	// Check path is within allowed root if configured
	if projectsRoot := os.Getenv(ProjectsRootEnv); projectsRoot != "" {
		rootPath, err := filepath.EvalSymlinks(projectsRoot)
		if err == nil {
			relPath, err := filepath.Rel(rootPath, realPath)
			if err != nil || strings.HasPrefix(relPath, "..") {
				errors = append(errors, fmt.Sprintf("  - Project '%s': path '%s' is outside allowed root '%s'", name, realPath, rootPath))
			}
		}
	}

	return errors
}
