package execx

import (
	"os"
	"os/exec"
	"path/filepath"
)

// Finder resolves executable names against the search path.
type Finder interface {
	Find(name string) (string, bool)
}

// PathFinder implements Finder using exec.LookPath.
type PathFinder struct{}

// NewPathFinder creates a new PathFinder.
func NewPathFinder() *PathFinder {
	return &PathFinder{}
}

// Find returns the absolute path of name if it is on PATH.
func (f *PathFinder) Find(name string) (string, bool) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return p, true
}

// IsExecutable reports whether path is an existing regular file with an
// executable bit set.
func IsExecutable(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
