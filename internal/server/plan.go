package server

import (
	"deployer/internal/repoconfig"
)

// Plan is the JSON description of what a branch would deploy.
type Plan struct {
	Project   string    `json:"project"`
	Branch    string    `json:"branch"`
	Method    string    `json:"method"`
	Task      *TaskPlan `json:"task,omitempty"`
	Playbook  string    `json:"playbook,omitempty"`
	Inventory string    `json:"inventory,omitempty"`
	Command   string    `json:"command,omitempty"`
	NotifyURL *string   `json:"notify_url"`
}

// TaskPlan describes a make target.
type TaskPlan struct {
	Name    string `json:"name"`
	Command string `json:"command"`
}

// NewPlan describes the resolved branch b of projectName.
func NewPlan(projectName, branch string, b *repoconfig.BranchConfig) Plan {
	plan := Plan{
		Project: projectName,
		Branch:  branch,
		Method:  b.Method().String(),
	}

	switch {
	case b.MakeTask() != nil:
		t := b.MakeTask()
		plan.Task = &TaskPlan{Name: t.Name(), Command: t.CommandString()}
	case b.AnsibleTask() != nil:
		t := b.AnsibleTask()
		plan.Playbook = t.Playbook
		plan.Inventory = t.Inventory
		plan.Command = t.CommandString()
	}

	if url, ok := b.NotifyURL(); ok {
		plan.NotifyURL = &url
	}
	return plan
}
