// Package targetlist resolves the three non-stdout target kinds (a
// regular file, a directory tree, a list of files) into a concrete
// slice of file paths; the core engine only ever sees single resolved
// paths.
package targetlist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StdoutSentinel is the path value meaning "write to standard output".
const StdoutSentinel = "-"

// FromFilelist parses a UTF-8 filelist: one path per line, `#`-prefixed
// lines ignored, relative paths resolved against the list file's own
// directory.
func FromFilelist(path string) ([]string, error) {
	return readFilelist(path, filepath.Dir(path))
}

// readFilelist parses the filelist at path, resolving relative entries
// against base.
func readFilelist(path, base string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("targetlist: open filelist %s: %w", path, err)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("targetlist: read filelist %s: %w", path, err)
	}
	return out, nil
}

// DirectoryTargets resolves a directory target into concrete file
// paths: the directory is created if
// absent, and then:
//   - if filelistPath is given, its entries (resolved relative to the
//     directory) are the targets;
//   - otherwise, `times`-many synthetic names `pump-<n>.bin` are
//     generated directly under dir.
func DirectoryTargets(dir string, filelistPath string, times int) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("targetlist: create directory %s: %w", dir, err)
	}

	if filelistPath != "" {
		return readFilelist(filelistPath, dir)
	}

	if times <= 0 {
		times = 1
	}
	out := make([]string, times)
	for i := 0; i < times; i++ {
		out[i] = filepath.Join(dir, fmt.Sprintf("pump-%d.bin", i))
	}
	return out, nil
}

// IsStdout reports whether path is the standard-output sentinel.
func IsStdout(path string) bool { return path == StdoutSentinel }

// IsDirectory reports whether path already exists as a directory.
// Non-existent paths are never treated as directory targets implicitly
// — callers must opt into directory-target semantics explicitly (e.g.
// a `--dir` flag), since a bare nonexistent path is ambiguous between
// "a new file" and "a new directory".
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
