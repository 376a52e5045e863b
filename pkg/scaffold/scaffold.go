// Package scaffold writes generated project text to disk.
package scaffold

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var ErrUnsafePath = errors.New("file path escapes output directory")

var headerRegex = regexp.MustCompile(`^=== (.*?) ===$`)

const fence = "````"

// File is one file of a generated project.
type File struct {
	Path    string
	Content string
}

// Parse splits generator output into files. A line "=== path ===" starts a
// new file; four-backtick fence lines are dropped; text before the first
// header is ignored.
func Parse(text string) []File {
	var (
		files   []File
		current *File
		body    strings.Builder
	)
	flush := func() {
		if current != nil {
			current.Content = strings.TrimSpace(body.String())
			files = append(files, *current)
		}
		body.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if m := headerRegex.FindStringSubmatch(line); m != nil {
			flush()
			current = &File{Path: strings.TrimSpace(m[1])}
			continue
		}
		if line == fence {
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	return files
}

// Write creates every file under dir. With clean set, an existing dir is
// removed first. Paths that would land outside dir are rejected before
// anything is written.
func Write(dir string, files []File, clean bool) error {
	targets := make([]string, len(files))
	for i, f := range files {
		target, err := resolve(dir, f.Path)
		if err != nil {
			return err
		}
		targets[i] = target
	}

	if clean {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to clear output directory: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for i, f := range files {
		if err := os.MkdirAll(filepath.Dir(targets[i]), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(targets[i], []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
	}
	return nil
}

func resolve(dir, p string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(p))
	if p == "" || filepath.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, p)
	}
	return filepath.Join(dir, clean), nil
}
