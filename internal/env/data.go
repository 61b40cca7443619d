package env

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"hitman/internal/scope"

	"github.com/pelletier/go-toml/v2"
)

// dataMu serializes read-modify-write cycles on data files within the
// process.
var dataMu sync.Mutex

// ReadData returns the persisted values, or nil when there are none.
func ReadData(root string) (scope.Table, error) {
	dataMu.Lock()
	defer dataMu.Unlock()
	return readTOML(filepath.Join(root, DataFile))
}

// UpdateData stores vars in the data file, replacing existing keys.
func UpdateData(root string, vars scope.Table) error {
	if len(vars) == 0 {
		return nil
	}

	dataMu.Lock()
	defer dataMu.Unlock()

	path := filepath.Join(root, DataFile)
	state, err := readTOML(path)
	if err != nil {
		// An unreadable data file is replaced.
		state = nil
	}
	if state == nil {
		state = make(scope.Table)
	}
	for k, v := range vars {
		state[k] = v
	}

	out, err := toml.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode %s: %w", DataFile, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", DataFile, err)
	}
	return nil
}
