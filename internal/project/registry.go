package project

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownProject is returned by Get for a name the projects file does not
// list.
var ErrUnknownProject = errors.New("unknown project")

// Registry holds the projects loaded from one projects file, keyed by the
// name webhooks and plan requests address them by.
type Registry struct {
	mu       sync.RWMutex
	projects map[string]*Project
	source   string
}

// NewRegistry creates a registry over projects, remembering the projects
// file they were loaded from so lookups can name it.
func NewRegistry(projects map[string]*Project, source string) *Registry {
	return &Registry{
		projects: projects,
		source:   source,
	}
}

// Get retrieves a project by name.
func (r *Registry) Get(name string) (*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	project, exists := r.projects[name]
	if !exists {
		return nil, fmt.Errorf("%w '%s' (not listed in %s)", ErrUnknownProject, name, r.source)
	}

	return project, nil
}

// Source returns the projects file the registry was loaded from.
func (r *Registry) Source() string {
	return r.source
}

// List returns all project names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.projects))
	for name := range r.projects {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Count returns the number of projects
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.projects)
}
