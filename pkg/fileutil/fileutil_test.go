package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSearchPaths(t *testing.T) {
	tmpDir := t.TempDir()

	file1 := filepath.Join(tmpDir, "file1.txt")
	file2 := filepath.Join(tmpDir, "file2.txt")
	if err := os.WriteFile(file1, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	tests := []struct {
		name    string
		paths   []string
		want    string
		wantErr bool
	}{
		{"finds first existing file", []string{file2, file1}, file1, false},
		{"returns error when no files exist", []string{file2, filepath.Join(tmpDir, "nonexistent.txt")}, "", true},
		{"handles empty path list", []string{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SearchPaths(tt.paths)
			if (err != nil) != tt.wantErr {
				t.Errorf("SearchPaths() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("SearchPaths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchPathsOptional(t *testing.T) {
	tmpDir := t.TempDir()
	existing := filepath.Join(tmpDir, "projects.yaml")
	if err := os.WriteFile(existing, []byte("projects: {}"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if got := SearchPathsOptional([]string{filepath.Join(tmpDir, "missing"), existing}); got != existing {
		t.Errorf("SearchPathsOptional() = %q, want %q", got, existing)
	}
	if got := SearchPathsOptional([]string{filepath.Join(tmpDir, "missing")}); got != "" {
		t.Errorf("SearchPathsOptional() = %q, want empty", got)
	}
}

func TestDefaultConfigPaths(t *testing.T) {
	paths := DefaultConfigPaths("projects.yaml")

	if len(paths) != 3 {
		t.Fatalf("Expected 3 search paths, got %d", len(paths))
	}
	for _, p := range paths {
		if !strings.HasSuffix(p, "projects.yaml") {
			t.Errorf("Expected path %q to end with projects.yaml", p)
		}
	}
	if paths[2] != "/etc/deployer/projects.yaml" {
		t.Errorf("Expected system-wide path last, got %q", paths[2])
	}
}

func TestFirstFileIn(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "Makefile"), []byte("all:\n"), 0644); err != nil {
		t.Fatalf("Failed to create Makefile: %v", err)
	}
	if err := os.Mkdir(filepath.Join(tmpDir, "makefile"), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	got, ok := FirstFileIn(tmpDir, "GNUmakefile", "makefile", "Makefile")
	if !ok {
		t.Fatal("Expected a makefile to be found")
	}
	if got != filepath.Join(tmpDir, "Makefile") {
		t.Errorf("FirstFileIn() = %q, directories must be skipped", got)
	}

	if _, ok := FirstFileIn(tmpDir, "GNUmakefile"); ok {
		t.Error("Expected no match for GNUmakefile")
	}
}

func TestFileAndDirExists(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	tests := []struct {
		name       string
		path       string
		wantFile   bool
		wantDir    bool
		wantExists bool
	}{
		{"regular file", file, true, false, true},
		{"directory", tmpDir, false, true, true},
		{"missing", filepath.Join(tmpDir, "nope"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileExists(tt.path); got != tt.wantFile {
				t.Errorf("FileExists(%q) = %v, want %v", tt.path, got, tt.wantFile)
			}
			if got := DirExists(tt.path); got != tt.wantDir {
				t.Errorf("DirExists(%q) = %v, want %v", tt.path, got, tt.wantDir)
			}
			if got := PathExists(tt.path); got != tt.wantExists {
				t.Errorf("PathExists(%q) = %v, want %v", tt.path, got, tt.wantExists)
			}
		})
	}
}
