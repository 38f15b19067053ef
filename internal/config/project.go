package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ProjectRoot resolves the multi-module project directory for a build started
// in workingDir. MAVEN_PROJECTBASEDIR wins when set; otherwise the nearest
// ancestor holding a .mvn directory is used, and workingDir itself when none does.
func ProjectRoot(workingDir string) string {
	if value, ok := os.LookupEnv("MAVEN_PROJECTBASEDIR"); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	dir := filepath.Clean(workingDir)
	for {
		if info, err := os.Stat(filepath.Join(dir, ".mvn")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return filepath.Clean(workingDir)
		}
		dir = parent
	}
}
