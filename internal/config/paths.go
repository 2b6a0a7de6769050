package config

import (
	"os"
	"path/filepath"
	"strings"
)

// runtimeBaseDir anchors relative runtime paths: the directory of the loaded
// config file, or the executable's directory when no file was read.
func (c *AppConfig) runtimeBaseDir() string {
	if c.baseDir != "" {
		return c.baseDir
	}
	return executableDir()
}

func executableDir() string {
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// resolvePath turns a configured directory into an absolute one. Empty raw
// falls back to fallback; "~/" expands to the user's home.
func (c *AppConfig) resolvePath(raw, fallback string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = fallback
	}
	if rest, ok := strings.CutPrefix(target, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Join(c.runtimeBaseDir(), target)
}
