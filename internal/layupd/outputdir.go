package layupd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidOutputDir is returned for an output_dir the service will not write to
var ErrInvalidOutputDir = errors.New("invalid output_dir")

// resolveOutputDir joins a client-supplied directory onto root. Absolute paths
// and paths that leave root are rejected, as is any directory when root is empty.
func resolveOutputDir(root, dir string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("%w: report output is disabled on this server", ErrInvalidOutputDir)
	}
	if filepath.IsAbs(dir) || filepath.VolumeName(dir) != "" {
		return "", fmt.Errorf("%w: %q must be relative to the output root", ErrInvalidOutputDir, dir)
	}
	rel := filepath.Clean(dir)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes the output root", ErrInvalidOutputDir, dir)
	}
	return filepath.Join(filepath.Clean(root), rel), nil
}
