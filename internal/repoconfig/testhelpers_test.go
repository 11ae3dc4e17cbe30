package repoconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testMakefile = `.PHONY: deploy self-deploy

deploy:
	./scripts/deploy.sh

self-deploy:
	./scripts/deploy.sh --self
`

const testPlaybook = "- hosts: all\n  roles:\n    - app\n"

// newProject creates a project root with a Makefile, playbooks and
// inventories matching the paths used throughout these tests.
func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"Makefile":                     testMakefile,
		"ansible/deploy.yml":           testPlaybook,
		"ansible/production.yml":       testPlaybook,
		"ansible/inventory/production": "[web]\nprod1\n",
		"ansible/inventory/staging":    "[web]\nstaging1\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

// writeConfig writes doc as the project's configuration file.
func writeConfig(t *testing.T, root, doc string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(doc), 0644))
}

// requireBranchInvariant checks that exactly one task is set and that it
// matches the branch method.
func requireBranchInvariant(t *testing.T, name string, b *BranchConfig) {
	t.Helper()
	switch b.Method() {
	case Makefile:
		require.NotNil(t, b.MakeTask(), "branch %s: makefile branch without make task", name)
		require.Nil(t, b.AnsibleTask(), "branch %s: makefile branch with ansible task", name)
	case Ansible:
		require.NotNil(t, b.AnsibleTask(), "branch %s: ansible branch without ansible task", name)
		require.Nil(t, b.MakeTask(), "branch %s: ansible branch with make task", name)
	default:
		t.Fatalf("branch %s: unknown method %v", name, b.Method())
	}
}
