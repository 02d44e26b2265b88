package config

import (
	"os"
	"path/filepath"
)

func GetRuntimePath() string {
	path := os.Getenv("MEMOBOT_RUNTIME_PATH")
	if path == "" {
		path = ".memobot"
	}
	return resolveRuntimePath(path)
}

// resolveRuntimePath anchors relative runtime paths under the home directory.
func resolveRuntimePath(path string) string {
	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}
