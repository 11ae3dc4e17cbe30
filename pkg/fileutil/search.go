package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// SearchPaths returns the first path that exists, or an error listing every
// location tried.
func SearchPaths(paths []string) (string, error) {
	if found := SearchPathsOptional(paths); found != "" {
		return found, nil
	}
	return "", fmt.Errorf("file not found in any of the search paths: %v", paths)
}

// SearchPathsOptional is SearchPaths for optional files: it returns "" when
// nothing matches.
func SearchPathsOptional(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// DefaultConfigPaths returns the standard search locations for filename:
//  1. ./<filename>
//  2. ./config/<filename>
//  3. /etc/deployer/<filename>
func DefaultConfigPaths(filename string) []string {
	return []string{
		filepath.Join(".", filename),
		filepath.Join(".", "config", filename),
		filepath.Join("/etc/deployer", filename),
	}
}

// FirstFileIn returns the first of names that exists as a regular file in dir.
func FirstFileIn(dir string, names ...string) (string, bool) {
	for _, name := range names {
		path := filepath.Join(dir, name)
		if FileExists(path) {
			return path, true
		}
	}
	return "", false
}

// FileExists checks if a file exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// PathExists checks if a path exists (file or directory).
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
