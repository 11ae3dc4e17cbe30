package repoconfig

import (
	"deployer/internal/task"
	"deployer/internal/verifiedpath"
)

// defaults are the repository-wide values branches fall back to.
type defaults struct {
	method    DeployMethod
	task      *task.MakeTask
	playbook  *verifiedpath.VerifiedPath
	notifyURL *string
}

// resolveDefaults resolves the [defaults] section. A missing method falls
// back to Makefile; every other key is optional.
func resolveDefaults(section table, projectRoot string) (defaults, error) {
	var d defaults

	method, err := lookupMethod(section, defaultsKey("method"), Makefile)
	if err != nil {
		return defaults{}, err
	}
	d.method = method

	name, ok, err := lookupString(section, "task", defaultsKey("task"))
	if err != nil {
		return defaults{}, err
	}
	if ok {
		if d.task, err = task.NewMakeTask(projectRoot, name); err != nil {
			return defaults{}, err
		}
	}

	playbook, ok, err := lookupString(section, "playbook", defaultsKey("playbook"))
	if err != nil {
		return defaults{}, err
	}
	if ok {
		p, err := verifiedpath.File(projectRoot, playbook)
		if err != nil {
			return defaults{}, err
		}
		d.playbook = &p
	}

	url, ok, err := lookupString(section, "notify_url", defaultsKey("notify_url"))
	if err != nil {
		return defaults{}, err
	}
	if ok {
		d.notifyURL = &url
	}

	return d, nil
}
