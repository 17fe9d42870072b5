// Package filetree reads a directory tree and individual file contents for
// the desktop UI's file browser. Grounded line-for-line on
// original_source/git.rs's list_directory_files/list_dir_recursive/read_file:
// directory-first alphabetical sort, hidden-file skip, node_modules/target/
// .git exclusion, a 5MB read cap, and an extension-to-language map.
package filetree

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxDepth mirrors git.rs's list_directory_files default when
// max_depth is omitted.
const DefaultMaxDepth = 10

// MaxReadableFileSize mirrors git.rs's read_file 5MB cap.
const MaxReadableFileSize = 5 * 1024 * 1024

// alwaysSkippedDirs are excluded regardless of the show-hidden flag.
var alwaysSkippedDirs = map[string]bool{
	"node_modules": true,
	"target":       true,
	".git":         true,
}

// Entry is one node in the listed tree.
type Entry struct {
	Name        string  `json:"name"`
	Path        string  `json:"path"` // relative to the listed root
	IsDirectory bool    `json:"isDirectory"`
	Children    []Entry `json:"children,omitempty"`
}

// Content is the result of reading a single file.
type Content struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Language string `json:"language"`
	Size     int64  `json:"size"`
}

// List walks root up to maxDepth levels deep (0 means DefaultMaxDepth),
// optionally including dot-prefixed entries.
func List(root string, maxDepth int, showHidden bool) ([]Entry, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("directory does not exist: %s", root)
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return listDirRecursive(root, root, maxDepth, showHidden)
}

func listDirRecursive(basePath, currentPath string, depth int, showHidden bool) ([]Entry, error) {
	if depth == 0 {
		return []Entry{}, nil
	}

	dirEntries, err := os.ReadDir(currentPath)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()

		if !showHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if alwaysSkippedDirs[name] {
			continue
		}

		path := filepath.Join(currentPath, name)
		relPath, err := filepath.Rel(basePath, path)
		if err != nil {
			relPath = name
		}

		isDir := de.IsDir()

		var children []Entry
		switch {
		case isDir && depth > 1:
			children, err = listDirRecursive(basePath, path, depth-1, showHidden)
			if err != nil {
				return nil, err
			}
		case isDir:
			children = []Entry{}
		default:
			children = nil
		}

		entries = append(entries, Entry{
			Name:        name,
			Path:        relPath,
			IsDirectory: isDir,
			Children:    children,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDirectory != entries[j].IsDirectory {
			return entries[i].IsDirectory
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	return entries, nil
}

// ReadFile reads a single file's content, rejecting directories and files
// over MaxReadableFileSize.
func ReadFile(path string) (*Content, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("cannot read a directory")
	}
	if info.Size() > MaxReadableFileSize {
		return nil, fmt.Errorf("file is too large to read (max 5MB)")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return &Content{
		Path:     path,
		Content:  string(raw),
		Language: languageForExt(filepath.Ext(path)),
		Size:     info.Size(),
	}, nil
}

// languageForExt maps a file extension (with leading dot) to a display
// language name, matching git.rs's extension match arms.
func languageForExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "rs":
		return "rust"
	case "ts", "tsx":
		return "typescript"
	case "js", "jsx":
		return "javascript"
	case "py":
		return "python"
	case "json":
		return "json"
	case "toml":
		return "toml"
	case "yaml", "yml":
		return "yaml"
	case "md":
		return "markdown"
	case "html":
		return "html"
	case "css":
		return "css"
	case "scss", "sass":
		return "scss"
	case "sql":
		return "sql"
	case "sh", "bash":
		return "bash"
	case "go":
		return "go"
	case "java":
		return "java"
	case "kt":
		return "kotlin"
	case "swift":
		return "swift"
	case "c", "h":
		return "c"
	case "cpp", "cc", "hpp":
		return "cpp"
	case "xml":
		return "xml"
	case "svg":
		return "svg"
	default:
		return "plaintext"
	}
}
