// Package task holds validated references to the units of work a branch
// deploys with: a make target or an ansible playbook run.
package task

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"deployer/internal/deployerr"
	"deployer/pkg/cmdutil"
	"deployer/pkg/fileutil"
)

// makefileNames is the order in which GNU make looks for a makefile.
var makefileNames = []string{"GNUmakefile", "makefile", "Makefile"}

// MakeTask is a make target verified to be declared by the project's
// makefile.
type MakeTask struct {
	root     string
	makefile string
	name     string
}

// NewMakeTask locates the makefile in projectRoot and checks that name is
// one of its targets.
func NewMakeTask(projectRoot, name string) (*MakeTask, error) {
	if strings.TrimSpace(name) == "" {
		return nil, deployerr.New(deployerr.KindTask, "task name cannot be empty", name)
	}

	makefile, ok := fileutil.FirstFileIn(projectRoot, makefileNames...)
	if !ok {
		return nil, deployerr.New(deployerr.KindTask, "no makefile found in project root", projectRoot)
	}

	data, err := os.ReadFile(makefile)
	if err != nil {
		return nil, deployerr.Wrap(deployerr.KindTask, "could not read makefile", makefile, err)
	}

	declared, err := declaresTarget(data, name)
	if err != nil {
		return nil, deployerr.Wrap(deployerr.KindTask, "could not read makefile", makefile, err)
	}
	if !declared {
		return nil, deployerr.New(deployerr.KindTask, "task is not a target in "+filepath.Base(makefile), name)
	}

	return &MakeTask{root: projectRoot, makefile: makefile, name: name}, nil
}

// Name returns the target name.
func (t *MakeTask) Name() string {
	return t.name
}

// Makefile returns the path of the makefile declaring the target.
func (t *MakeTask) Makefile() string {
	return t.makefile
}

// Command returns the argv that runs the target.
func (t *MakeTask) Command() []string {
	return []string{"make", "-C", t.root, t.name}
}

// CommandString is Command rendered for a shell.
func (t *MakeTask) CommandString() string {
	return cmdutil.FormatCommand(t.Command())
}

func (t *MakeTask) String() string {
	return t.name
}

// maxLineLength bounds a single makefile line, continuations excluded.
const maxLineLength = 16 * 1024 * 1024

// declaresTarget reports whether a rule line in data names target, either
// literally or through a single-'%' pattern rule.
func declaresTarget(data []byte, target string) (bool, error) {
	targets, err := ruleTargets(data)
	if err != nil {
		return false, err
	}
	for _, t := range targets {
		if t == target || matchesPattern(t, target) {
			return true, nil
		}
	}
	return false, nil
}

// ruleTargets returns the targets of every rule line. Recipe lines, comments,
// variable assignments, define blocks and targets built from variable
// references are skipped.
func ruleTargets(data []byte) ([]string, error) {
	var targets []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	continued := false
	defineDepth := 0
	for scanner.Scan() {
		line := scanner.Text()
		wasContinued := continued
		continued = strings.HasSuffix(line, "\\")
		if wasContinued {
			continue
		}

		d := directive(line)
		if defineDepth > 0 {
			switch d {
			case "define":
				defineDepth++
			case "endef":
				defineDepth--
			}
			continue
		}
		if strings.HasPrefix(line, "\t") || d == "endef" {
			continue
		}
		if d == "define" {
			defineDepth++
			continue
		}

		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}

		colon := strings.Index(line, ":")
		if colon <= 0 {
			continue
		}
		lhs, rest := line[:colon], line[colon+1:]
		if strings.ContainsAny(lhs, "=$") || strings.HasPrefix(rest, "=") || strings.HasPrefix(rest, ":=") {
			continue
		}
		targets = append(targets, strings.Fields(lhs)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return targets, nil
}

// directive returns "define" or "endef" when line opens or closes a
// multi-line variable, including the override, export and private forms.
func directive(line string) string {
	fields := strings.Fields(line)
	for len(fields) > 0 && (fields[0] == "override" || fields[0] == "export" || fields[0] == "private") {
		fields = fields[1:]
	}
	if len(fields) > 0 && (fields[0] == "define" || fields[0] == "endef") {
		return fields[0]
	}
	return ""
}

func matchesPattern(pattern, name string) bool {
	if strings.Count(pattern, "%") != 1 {
		return false
	}
	prefix, suffix, _ := strings.Cut(pattern, "%")
	return len(name) > len(prefix)+len(suffix) &&
		strings.HasPrefix(name, prefix) &&
		strings.HasSuffix(name, suffix)
}
