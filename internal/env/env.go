// Package env discovers a hitman project and builds request scopes from its
// TOML files.
//
// A project root holds hitman.toml, optionally hitman.local.toml with
// private overrides, the current target in .hitman-target and values
// captured from earlier responses in .hitman-data.toml.
package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hitman/internal/scope"
	"hitman/internal/template"

	"github.com/pelletier/go-toml/v2"
)

const (
	ConfigFile      = "hitman.toml"
	LocalConfigFile = "hitman.local.toml"
	TargetFile      = ".hitman-target"
	DataFile        = ".hitman-data.toml"

	// DefaultTarget is used when no target has been selected.
	DefaultTarget = "default"
)

// ErrNoRoot is returned when no ancestor directory holds hitman.toml.
var ErrNoRoot = errors.New("could not find " + ConfigFile + " in this or any parent directory")

// FindRoot returns the nearest directory at or above start that holds
// hitman.toml.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoRoot
		}
		dir = parent
	}
}

// ReadConfig reads hitman.toml with hitman.local.toml merged over it.
func ReadConfig(root string) (scope.Table, error) {
	config := make(scope.Table)
	for _, name := range []string{ConfigFile, LocalConfigFile} {
		t, err := readTOML(filepath.Join(root, name))
		if err != nil {
			return nil, err
		}
		Merge(config, t)
	}
	return config, nil
}

// Merge copies src into dst. Tables present on both sides are merged
// recursively; everything else in src replaces dst.
func Merge(dst, src scope.Table) {
	for k, v := range src {
		if sub, ok := v.(scope.Table); ok {
			if cur, ok := dst[k].(scope.Table); ok {
				Merge(cur, sub)
				continue
			}
		}
		dst[k] = v
	}
}

// FindEnvironments lists the targets defined in the config: top-level
// tables not starting with an underscore, sorted.
func FindEnvironments(root string) ([]string, error) {
	config, err := ReadConfig(root)
	if err != nil {
		return nil, err
	}
	var names []string
	for k, v := range config {
		if _, ok := v.(scope.Table); ok && !strings.HasPrefix(k, "_") {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Target returns the selected target, or DefaultTarget.
func Target(root string) string {
	data, err := os.ReadFile(filepath.Join(root, TargetFile))
	if err != nil {
		return DefaultTarget
	}
	if t := strings.TrimSpace(string(data)); t != "" {
		return t
	}
	return DefaultTarget
}

// SetTarget stores the selected target.
func SetTarget(root, target string) error {
	if err := os.WriteFile(filepath.Join(root, TargetFile), []byte(target), 0o644); err != nil {
		return fmt.Errorf("set target: %w", err)
	}
	return nil
}

// LoadScope builds the scope for a request, lowest priority first: global
// non-table values, the target table, the request's own .toml file and the
// data file. Command line values are layered on top by the caller.
func LoadScope(root, target, requestPath string) (scope.Scope, error) {
	config, err := ReadConfig(root)
	if err != nil {
		return scope.Scope{}, err
	}

	globals := make(scope.Table)
	for k, v := range config {
		if _, ok := v.(scope.Table); !ok {
			globals[k] = v
		}
	}
	targetTable, _ := config[target].(scope.Table)

	var requestTable scope.Table
	if requestPath != "" {
		if requestTable, err = readTOML(template.ScopePath(requestPath)); err != nil {
			return scope.Scope{}, err
		}
	}

	data, err := ReadData(root)
	if err != nil {
		return scope.Scope{}, err
	}

	return scope.New(globals, targetTable, requestTable, data), nil
}

// readTOML returns nil for missing files.
func readTOML(path string) (scope.Table, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := make(scope.Table)
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("when reading %s: %w", path, err)
	}
	return t, nil
}
