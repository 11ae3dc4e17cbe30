package task

import (
	"os"

	"gopkg.in/yaml.v3"

	"deployer/internal/deployerr"
	"deployer/internal/verifiedpath"
	"deployer/pkg/cmdutil"
)

// AnsibleTask is a playbook run against an inventory.
type AnsibleTask struct {
	// Playbook and Inventory are stored exactly as configured.
	Playbook  string
	Inventory string
	root      string
}

// NewAnsibleTask checks that the playbook parses as a list of plays and
// returns the task. The command runs from projectRoot.
func NewAnsibleTask(playbookPath, inventoryPath verifiedpath.VerifiedPath, projectRoot string) (*AnsibleTask, error) {
	playbook, inventory := playbookPath.Path(), inventoryPath.Path()
	data, err := os.ReadFile(playbookPath.Abs())
	if err != nil {
		return nil, deployerr.Wrap(deployerr.KindTask, "could not read playbook", playbook, err)
	}

	var plays []map[string]any
	if err := yaml.Unmarshal(data, &plays); err != nil {
		return nil, deployerr.Wrap(deployerr.KindTask, "could not parse playbook", playbook, err)
	}
	if len(plays) == 0 {
		return nil, deployerr.New(deployerr.KindTask, "playbook contains no plays", playbook)
	}

	return &AnsibleTask{Playbook: playbook, Inventory: inventory, root: projectRoot}, nil
}

// Command returns the argv that runs the playbook from the project root.
func (t *AnsibleTask) Command() []string {
	return []string{"ansible-playbook", "-i", t.Inventory, t.Playbook}
}

// CommandString is Command rendered for a shell.
func (t *AnsibleTask) CommandString() string {
	return cmdutil.FormatCommand(t.Command())
}

// Dir is the directory the command runs in.
func (t *AnsibleTask) Dir() string {
	return t.root
}

func (t *AnsibleTask) String() string {
	return t.CommandString()
}
