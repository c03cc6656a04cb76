// Package utils holds small helpers shared across the app.
package utils

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// findModuleRoot walks up from the working directory until it finds go.mod.
// Development builds are usually launched from somewhere inside the module,
// not its root.
func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// LoadEnv loads the .env file at the module root, or at the working
// directory when no module root exists (packaged builds).
func LoadEnv() error {
	root, err := findModuleRoot()
	if err != nil {
		root, err = os.Getwd()
		if err != nil {
			return err
		}
	}
	return godotenv.Load(filepath.Join(root, ".env"))
}
