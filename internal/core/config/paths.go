package config

import (
	"os"
	"path/filepath"
	"strings"
)

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// Find returns the config file governing dir: the nearest autoinject.toml,
// autoinject.yaml or autoinject.yml in dir or its parents, stopping at a
// package.json or .git boundary. It returns "" when none exists.
func Find(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	names := []string{DefaultFile, "autoinject.yaml", "autoinject.yml"}
	for {
		for _, name := range names {
			candidate := filepath.Join(abs, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
		for _, boundary := range []string{"package.json", ".git"} {
			if _, err := os.Stat(filepath.Join(abs, boundary)); err == nil {
				return ""
			}
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return ""
		}
		abs = parent
	}
}
