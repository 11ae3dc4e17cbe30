package repoconfig

import "fmt"

// DeployMethod is the mechanism a branch deploys with.
type DeployMethod int

const (
	// Makefile runs a make target. It is the fallback when no method is
	// configured anywhere.
	Makefile DeployMethod = iota
	// Ansible runs a playbook against an inventory.
	Ansible
)

// ParseDeployMethod maps a configured method name to a DeployMethod.
// "make" is accepted as a synonym for "makefile".
func ParseDeployMethod(s string) (DeployMethod, bool) {
	switch s {
	case "ansible":
		return Ansible, true
	case "makefile", "make":
		return Makefile, true
	default:
		return Makefile, false
	}
}

func (m DeployMethod) String() string {
	switch m {
	case Ansible:
		return "ansible"
	case Makefile:
		return "makefile"
	default:
		return fmt.Sprintf("DeployMethod(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler so methods render by name in
// JSON output.
func (m DeployMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
