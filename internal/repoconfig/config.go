// Package repoconfig resolves a repository's .deployer.conf into a validated
// deployment definition per branch.
//
// The document has a [defaults] section and one [branches.<name>] table per
// deployable branch. Each branch picks a method (makefile or ansible),
// inheriting the default method when it names none, and the parameters that
// method needs. Loading is all-or-nothing: either every branch resolves to a
// complete definition or Load returns the first error, attributed to the
// configuration key, branch or file responsible.
package repoconfig

import (
	"io"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"deployer/internal/deployerr"
	"deployer/internal/task"
	"deployer/internal/verifiedpath"
)

// FileName is the name of the configuration file in a project root.
const FileName = ".deployer.conf"

const (
	defaultsKeyName = "defaults"
	branchesKey     = "branches"
)

// RepoConfig is the resolved configuration of one project. It is immutable
// and safe for concurrent use.
type RepoConfig struct {
	defaults    defaults
	branches    map[string]*BranchConfig
	order       []string
	projectRoot string
}

// Load reads and resolves FileName in projectRoot.
func Load(projectRoot string) (*RepoConfig, error) {
	path := filepath.Join(projectRoot, FileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, deployerr.Wrap(deployerr.KindIO, "could not open deployer configuration", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, deployerr.Wrap(deployerr.KindIO, "could not read file contents", path, err)
	}
	return FromString(string(data), projectRoot)
}

// FromString resolves a configuration document. Relative paths in the
// document are resolved against projectRoot.
func FromString(text, projectRoot string) (*RepoConfig, error) {
	doc := []byte(text)
	var root table
	if err := toml.Unmarshal(doc, &root); err != nil {
		return nil, deployerr.Wrap(deployerr.KindParse, "could not parse toml", "", err)
	}

	rawDefaults, ok := root[defaultsKeyName]
	if !ok {
		return nil, deployerr.New(deployerr.KindStructure, "missing 'defaults' section", defaultsKeyName)
	}
	defaultsSection, ok := rawDefaults.(table)
	if !ok {
		return nil, deployerr.New(deployerr.KindStructure, "'defaults' must be a table", defaultsKeyName)
	}
	resolved, err := resolveDefaults(defaultsSection, projectRoot)
	if err != nil {
		return nil, err
	}

	rawBranches, ok := root[branchesKey]
	if !ok {
		return nil, deployerr.New(deployerr.KindStructure,
			"must configure at least one branch (missing [branches.*])", "branches.*")
	}
	branchSections, ok := rawBranches.(table)
	if !ok {
		return nil, deployerr.New(deployerr.KindStructure, "'branches' must be a table", branchesKey)
	}
	if len(branchSections) == 0 {
		return nil, deployerr.New(deployerr.KindStructure,
			"must configure at least one branch (missing [branches.*])", "branches.*")
	}

	cfg := &RepoConfig{
		defaults:    resolved,
		branches:    make(map[string]*BranchConfig, len(branchSections)),
		order:       branchOrder(doc, branchSections),
		projectRoot: projectRoot,
	}
	for _, name := range cfg.order {
		b, err := resolveBranch(name, branchSections[name], resolved, projectRoot)
		if err != nil {
			return nil, err
		}
		cfg.branches[name] = b
	}

	return cfg, nil
}

// LookupBranch returns the configuration of the named branch. Names are
// matched exactly.
func (c *RepoConfig) LookupBranch(name string) (*BranchConfig, bool) {
	b, ok := c.branches[name]
	return b, ok
}

// BranchNames returns the configured branch names in document order.
func (c *RepoConfig) BranchNames() []string {
	return append([]string(nil), c.order...)
}

// DefaultMethod returns the repository-wide deploy method.
func (c *RepoConfig) DefaultMethod() DeployMethod {
	return c.defaults.method
}

// DefaultTask returns the repository-wide make target, or nil.
func (c *RepoConfig) DefaultTask() *task.MakeTask {
	return c.defaults.task
}

// DefaultPlaybook returns the repository-wide playbook, if configured.
func (c *RepoConfig) DefaultPlaybook() (verifiedpath.VerifiedPath, bool) {
	if c.defaults.playbook == nil {
		return verifiedpath.VerifiedPath{}, false
	}
	return *c.defaults.playbook, true
}

// DefaultNotifyURL returns the repository-wide notification address, if
// configured.
func (c *RepoConfig) DefaultNotifyURL() (string, bool) {
	if c.defaults.notifyURL == nil {
		return "", false
	}
	return *c.defaults.notifyURL, true
}

// ProjectRoot returns the directory relative paths were resolved against.
func (c *RepoConfig) ProjectRoot() string {
	return c.projectRoot
}
