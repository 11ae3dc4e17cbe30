// Package cmdutil renders the argv of commands a deployment would run, for
// display to users and logs.
package cmdutil

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

const shellSpecial = " \t\n\"'\\$`;&|<>*?()#~"

// FormatCommand formats command parts into a string a user can paste into a
// shell. Example: ["make", "-C", "/srv/my app", "deploy"] -> "make -C '/srv/my app' deploy"
func FormatCommand(cmdParts []string) string {
	if len(cmdParts) == 0 {
		return "<empty command>"
	}

	quoted := make([]string, len(cmdParts))
	for i, part := range cmdParts {
		if part == "" || strings.ContainsAny(part, shellSpecial) {
			quoted[i] = shellquote.Join(part)
		} else {
			quoted[i] = part
		}
	}

	return strings.Join(quoted, " ")
}
