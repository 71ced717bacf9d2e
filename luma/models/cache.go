// Package models inspects the local model snapshot cache. Downloading the
// snapshots is handled out of process; this package only answers whether the
// expected directories are populated, which the health endpoint reports.
package models

import (
	"os"
	"path/filepath"
)

// Subdirectories of the cache root, one per backend.
const (
	textModelSubdir  = "deepseek"
	imageModelSubdir = "stable-diffusion"
)

// TextModelDir returns the snapshot directory of the text model.
func TextModelDir(cacheDir string) string {
	return filepath.Join(cacheDir, textModelSubdir)
}

// ImageModelDir returns the snapshot directory of the image model.
func ImageModelDir(cacheDir string) string {
	return filepath.Join(cacheDir, imageModelSubdir)
}

// IsPopulated reports whether dir exists and contains at least one entry.
func IsPopulated(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}
