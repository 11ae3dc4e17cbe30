package repoconfig

import (
	"deployer/internal/deployerr"
	"deployer/internal/task"
	"deployer/internal/verifiedpath"
)

// BranchConfig is the resolved deployment of one branch. Exactly one of
// MakeTask and AnsibleTask is non-nil, matching Method.
type BranchConfig struct {
	method      DeployMethod
	makeTask    *task.MakeTask
	ansibleTask *task.AnsibleTask
	notifyURL   *string
}

// Method returns the deploy method of the branch.
func (b *BranchConfig) Method() DeployMethod {
	return b.method
}

// MakeTask returns the make target, or nil for an ansible branch.
func (b *BranchConfig) MakeTask() *task.MakeTask {
	return b.makeTask
}

// AnsibleTask returns the playbook run, or nil for a makefile branch.
func (b *BranchConfig) AnsibleTask() *task.AnsibleTask {
	return b.ansibleTask
}

// NotifyURL returns the branch's notification address, if configured.
func (b *BranchConfig) NotifyURL() (string, bool) {
	if b.notifyURL == nil {
		return "", false
	}
	return *b.notifyURL, true
}

func branchSubject(name string) string {
	return "branch." + name
}

// resolveBranch resolves the section of branch name against the defaults.
func resolveBranch(name string, raw any, d defaults, projectRoot string) (*BranchConfig, error) {
	section, ok := raw.(table)
	if !ok {
		return nil, deployerr.New(deployerr.KindStructure, "every 'branches' must be a table", branchSubject(name))
	}

	method, err := lookupMethod(section, branchKey(name, "method"), d.method)
	if err != nil {
		return nil, err
	}

	playbook, err := branchFile(section, name, "playbook", projectRoot)
	if err != nil {
		return nil, err
	}
	inventory, err := branchFile(section, name, "inventory", projectRoot)
	if err != nil {
		return nil, err
	}

	b := &BranchConfig{method: method}

	if method == Ansible {
		if playbook == nil && inventory != nil && d.playbook != nil {
			playbook = d.playbook
		}
		if playbook == nil || inventory == nil {
			return nil, deployerr.New(deployerr.KindCrossField,
				"could not combine default and branch config to find playbook + inventory combination",
				branchSubject(name))
		}
		if b.ansibleTask, err = task.NewAnsibleTask(*playbook, *inventory, projectRoot); err != nil {
			return nil, err
		}
	}

	if method == Makefile {
		// A makefile branch never inherits defaults.task.
		taskName, ok, err := lookupString(section, "task", branchKey(name, "task"))
		if err != nil {
			return nil, err
		}
		if ok {
			if b.makeTask, err = task.NewMakeTask(projectRoot, taskName); err != nil {
				return nil, err
			}
		}
	}

	if b.makeTask == nil && b.ansibleTask == nil {
		return nil, deployerr.New(deployerr.KindCrossField,
			"cannot construct a task for branch between local config and defaults",
			branchSubject(name))
	}

	url, ok, err := lookupString(section, "notify_url", branchKey(name, "notify_url"))
	if err != nil {
		return nil, err
	}
	if ok {
		b.notifyURL = &url
	}

	return b, nil
}

// branchFile resolves an optional file key of a branch section.
func branchFile(section table, branch, key, projectRoot string) (*verifiedpath.VerifiedPath, error) {
	candidate, ok, err := lookupString(section, key, branchKey(branch, key))
	if err != nil || !ok {
		return nil, err
	}
	p, err := verifiedpath.File(projectRoot, candidate)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
