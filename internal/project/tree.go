package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultTreeDepth is the depth used when opening a mod folder
const DefaultTreeDepth = 3

// FileItem is one entry of a mod folder tree
type FileItem struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Type     string     `json:"type"` // "folder" or "file"
	Children []FileItem `json:"children,omitempty"`
}

// ErrFolderNotFound is returned by FileTree for a missing root
var ErrFolderNotFound = errors.New("folder does not exist")

// FileTree lists root recursively, directories first and then by name.
// Folders deeper than maxDepth are listed without children.
func FileTree(root string, maxDepth int) ([]FileItem, error) {
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrFolderNotFound
		}
		return nil, fmt.Errorf("failed to open folder: %w", err)
	}
	if maxDepth < 0 {
		maxDepth = DefaultTreeDepth
	}
	return buildTree(root, 0, maxDepth), nil
}

func buildTree(path string, depth, maxDepth int) []FileItem {
	items := make([]FileItem, 0)
	if depth > maxDepth {
		return items
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return items
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].IsDir(), entries[j].IsDir()
		if a != b {
			return a
		}
		return entries[i].Name() < entries[j].Name()
	})

	for _, e := range entries {
		entryPath := filepath.Join(path, e.Name())
		item := FileItem{Name: e.Name(), Path: entryPath, Type: "file"}
		if e.IsDir() {
			item.Type = "folder"
			if depth < maxDepth {
				item.Children = buildTree(entryPath, depth+1, maxDepth)
			}
		}
		items = append(items, item)
	}
	return items
}
