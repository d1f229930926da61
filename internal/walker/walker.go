// Package walker enumerates the Python source files of a project tree.
package walker

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo holds metadata about a discovered source file.
type FileInfo struct {
	Path    string
	RelPath string
	Size    int64
}

// maxFileSize is the largest file we'll consider (1 MB).
const maxFileSize = 1 << 20

// pythonExts are the extensions that count as Python source.
var pythonExts = map[string]bool{
	"py":  true,
	"pyi": true,
}

// defaultIgnores are used when no .cortexignore file exists.
var defaultIgnores = []string{
	".git",
	".svn",
	".hg",
	".logs",
	".venv",
	"venv",
	"node_modules",
	"__pycache__",
	".idea",
	".vscode",
	".cortex",
	"dist",
	"build",
}

// Walk collects the Python source files under root, skipping directories
// matching .cortexignore patterns, symlinks, and empty or oversized files.
// Results come back sorted by relative path.
func Walk(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	ignores := loadIgnorePatterns(absRoot)

	var files []FileInfo
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors, keep walking
		}

		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			rel, _ := filepath.Rel(absRoot, path)
			if matchesIgnore(d.Name(), filepath.ToSlash(rel), ignores) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if !pythonExts[ext] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxFileSize || info.Size() == 0 {
			return nil
		}

		relPath, _ := filepath.Rel(absRoot, path)
		files = append(files, FileInfo{
			Path:    path,
			RelPath: filepath.ToSlash(relPath),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// loadIgnorePatterns reads .cortexignore from the project root, falling back
// to the built-in defaults when the file is missing or empty.
func loadIgnorePatterns(root string) []string {
	f, err := os.Open(filepath.Join(root, ".cortexignore"))
	if err != nil {
		return defaultIgnores
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if len(patterns) == 0 {
		return defaultIgnores
	}
	return patterns
}

// matchesIgnore checks a directory name or relative path against the ignore
// patterns. Supports exact names, path prefixes, and globs.
func matchesIgnore(name, relPath string, patterns []string) bool {
	for _, p := range patterns {
		if name == p {
			return true
		}
		if strings.HasPrefix(relPath, p) {
			return true
		}
		if matched, _ := filepath.Match(p, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}
