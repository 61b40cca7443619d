package env

import (
	"io/fs"
	"path/filepath"
	"sort"

	"hitman/internal/template"
)

// FindAvailableRequests lists the request files under dir as paths
// relative to dir, sorted.
func FindAvailableRequests(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && len(d.Name()) > 1 && d.Name()[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		if !template.IsRequestFile(path) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// WatchList returns the files a request depends on. The data file is left
// out since every run writes to it.
func WatchList(root string, src *template.Source) []string {
	list := []string{src.Path}
	if src.TemplatePath != src.Path {
		list = append(list, src.TemplatePath)
	}
	return append(list,
		template.ScopePath(src.Path),
		filepath.Join(root, TargetFile),
		filepath.Join(root, ConfigFile),
		filepath.Join(root, LocalConfigFile),
	)
}
