// package runner
//
// locates the engine launcher and runs one invocation at a time
package runner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/baderkha/cdm-runner/pkg/migrate/config/enginecfg"
	"github.com/baderkha/cdm-runner/pkg/migrate/errs"
	"github.com/spf13/afero"
)

// Resolver : finds the launcher on a search path, then in a fallback install dir
type Resolver struct {
	Fs          afero.Fs
	Name        string
	SearchPath  string // PATH style list
	FallbackDir string
}

// NewResolver : resolver for the launcher configured in engine
func NewResolver(fsys afero.Fs, engine enginecfg.Spark) *Resolver {
	return &Resolver{
		Fs:          fsys,
		Name:        engine.Launcher,
		SearchPath:  engine.SearchPath,
		FallbackDir: engine.FallbackDir,
	}
}

// Resolve : path of the first existing executable regular file named Name
func (r *Resolver) Resolve() (string, error) {
	if r.Name == "" {
		return "", errs.Newf(errs.Environment, "resolve launcher", "no launcher name configured")
	}
	if strings.ContainsRune(r.Name, os.PathSeparator) || strings.ContainsRune(r.Name, '/') {
		if r.isExecutable(r.Name) {
			return r.Name, nil
		}
		return "", errs.Newf(errs.Environment, "resolve launcher", "%s is not an executable file", r.Name)
	}

	var searched []string
	for _, dir := range filepath.SplitList(r.SearchPath) {
		// relative entries are ignored so the working dir never shadows the real launcher
		if dir == "" || !filepath.IsAbs(dir) {
			continue
		}
		searched = append(searched, dir)
		if p := filepath.Join(dir, r.Name); r.isExecutable(p) {
			return p, nil
		}
	}
	if r.FallbackDir != "" {
		searched = append(searched, r.FallbackDir)
		if p := filepath.Join(r.FallbackDir, r.Name); r.isExecutable(p) {
			return p, nil
		}
	}
	return "", errs.Newf(errs.Environment, "resolve launcher", "%s not found on search path or fallback directory (searched %s)", r.Name, strings.Join(searched, string(filepath.ListSeparator)))
}

func (r *Resolver) isExecutable(path string) bool {
	fi, err := r.Fs.Stat(path)
	if err != nil {
		return false
	}
	return fi.Mode().IsRegular() && fi.Mode().Perm()&0111 != 0
}
