package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrModExists is returned by CreateMod when the target directory exists.
var ErrModExists = errors.New("mod directory already exists")

// ModData describes a mod to scaffold
type ModData struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Version     string `json:"version"`
	ModID       string `json:"modId" validate:"required,excludesall=/\\"`
	Path        string `json:"path" validate:"required"`
}

// ScriptsDir is where generated scripts live inside a mod
const ScriptsDir = "scripts/vscripts"

var modDirs = []string{
	"scripts",
	ScriptsDir,
	"paks",
	"audio",
	"resource",
}

type manifest struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Version      string            `json:"version"`
	Author       string            `json:"author"`
	ModID        string            `json:"modId"`
	Scripts      []string          `json:"scripts"`
	Rpaks        []string          `json:"rpaks"`
	Audio        []string          `json:"audio"`
	Localization map[string]string `json:"localization"`
}

// CreateMod creates <path>/<modId> with the standard folder layout, a
// mod.vdf, a manifest.json and a README.md. It returns the mod directory.
func CreateMod(data ModData) (string, error) {
	modDir := filepath.Join(data.Path, data.ModID)
	if _, err := os.Stat(modDir); err == nil {
		return "", ErrModExists
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to check mod directory: %w", err)
	}

	if err := os.MkdirAll(modDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	for _, dir := range modDirs {
		if err := os.MkdirAll(filepath.Join(modDir, dir), 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(filepath.Join(modDir, "mod.vdf"), []byte(modVDF(data)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write mod.vdf: %w", err)
	}

	m := manifest{
		Name:         data.Name,
		Description:  data.Description,
		Version:      data.Version,
		Author:       data.Author,
		ModID:        data.ModID,
		Scripts:      make([]string, 0),
		Rpaks:        make([]string, 0),
		Audio:        make([]string, 0),
		Localization: make(map[string]string),
	}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(modDir, "manifest.json"), raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest.json: %w", err)
	}

	if err := os.WriteFile(filepath.Join(modDir, "README.md"), []byte(readme(data)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write README.md: %w", err)
	}

	return modDir, nil
}

func modVDF(data ModData) string {
	return fmt.Sprintf(`"%s"
{
    "Name"              "%s"
    "Description"       "%s"
    "Version"           "%s"
    "RequiredOnClient"  "1"
}`, data.ModID, data.Name, data.Description, data.Version)
}

func readme(data ModData) string {
	return fmt.Sprintf(`# %s

%s

## Author
%s

## Version
%s

## Installation
Place this mod in your mods directory.
`, data.Name, data.Description, data.Author, data.Version)
}

// WriteScript stores a generated script under the mod's scripts directory
// and returns its path.
func WriteScript(modDir, fileName string, source []byte) (string, error) {
	if filepath.Base(fileName) != fileName {
		return "", fmt.Errorf("invalid script name %q", fileName)
	}
	dir := filepath.Join(modDir, ScriptsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, source, 0o644); err != nil {
		return "", fmt.Errorf("failed to write script: %w", err)
	}
	return path, nil
}
