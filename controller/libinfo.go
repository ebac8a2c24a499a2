package controller

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/slices"
)

// SearchPaths lists the directories that currently back loaded shared
// objects, derived from the module map.
func (p *Process) SearchPaths() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.upToDate {
		p.rebuildLocked()
	}
	if p.maps == nil {
		return nil
	}
	return p.maps.GetLibSearchPaths()
}

// FindLibrary locates a library file by name on the process's library
// search paths, resolving symlinks. An absolute name is checked as-is.
// Multiple distinct hits are an error so the caller can disambiguate
// with a full path.
func (p *Process) FindLibrary(libName string) (string, error) {
	if libName == "" {
		return "", fmt.Errorf("no library name specified")
	}
	if strings.HasPrefix(libName, "/") {
		if _, err := os.Stat(libName); err != nil {
			return "", err
		}
		return libName, nil
	}

	var fullPaths []string
	for _, dir := range p.SearchPaths() {
		checkPath := strings.TrimRight(dir, "/") + "/" + libName
		if _, err := os.Stat(checkPath); err != nil {
			continue
		}
		pathInfo, err := os.Lstat(checkPath)
		if err != nil {
			continue
		}
		if pathInfo.Mode()&os.ModeSymlink != 0 {
			realPath, err := filepath.EvalSymlinks(checkPath)
			if err != nil {
				continue
			}
			checkPath = realPath
		}
		if !slices.Contains(fullPaths, checkPath) {
			fullPaths = append(fullPaths, checkPath)
		}
	}

	if len(fullPaths) == 0 {
		return "", fmt.Errorf("cannot find %s on any search path", libName)
	}
	if len(fullPaths) > 1 {
		return "", fmt.Errorf("found %d libraries named %s:\n\t%s",
			len(fullPaths), libName, strings.Join(fullPaths, "\n\t"))
	}
	return fullPaths[0], nil
}
