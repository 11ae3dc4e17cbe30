// Package verifiedpath provides paths that were confirmed to exist on disk
// when they were constructed.
package verifiedpath

import (
	"path/filepath"

	"deployer/internal/deployerr"
	"deployer/pkg/fileutil"
)

// VerifiedPath is a path that existed, with the expected file type, at
// construction time. Values are only produced by File and Dir.
type VerifiedPath struct {
	path string
	abs  string
}

// File verifies that candidate names an existing regular file. A relative
// candidate is resolved against base; with an empty base it is resolved
// against the working directory.
func File(base, candidate string) (VerifiedPath, error) {
	full := resolve(base, candidate)
	if fileutil.FileExists(full) {
		return VerifiedPath{path: candidate, abs: full}, nil
	}
	if fileutil.DirExists(full) {
		return VerifiedPath{}, deployerr.New(deployerr.KindPath, "path is a directory, expected a file", candidate)
	}
	return VerifiedPath{}, deployerr.New(deployerr.KindPath, "file does not exist", candidate)
}

// Dir verifies that candidate names an existing directory, resolved the same
// way as File.
func Dir(base, candidate string) (VerifiedPath, error) {
	full := resolve(base, candidate)
	if fileutil.DirExists(full) {
		return VerifiedPath{path: candidate, abs: full}, nil
	}
	if fileutil.PathExists(full) {
		return VerifiedPath{}, deployerr.New(deployerr.KindPath, "path is not a directory", candidate)
	}
	return VerifiedPath{}, deployerr.New(deployerr.KindPath, "directory does not exist", candidate)
}

func resolve(base, candidate string) string {
	if base == "" || filepath.IsAbs(candidate) {
		return filepath.Clean(candidate)
	}
	return filepath.Join(base, candidate)
}

// Path returns the path as it was given to File or Dir.
func (p VerifiedPath) Path() string {
	return p.path
}

// Abs returns the path joined with its base.
func (p VerifiedPath) Abs() string {
	return p.abs
}

func (p VerifiedPath) String() string {
	return p.path
}
