package runner

import (
	"os"
	"testing"

	"github.com/baderkha/cdm-runner/pkg/migrate/errs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExec(t *testing.T, fs afero.Fs, path string, mode uint32) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte("#!/bin/sh\n"), 0))
	require.NoError(t, fs.Chmod(path, os.FileMode(mode)))
}

func TestResolveSearchPathFirst(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeExec(t, fs, "/usr/local/bin/spark-submit", 0755)
	writeExec(t, fs, "/opt/spark/bin/spark-submit", 0755)

	r := &Resolver{Fs: fs, Name: "spark-submit", SearchPath: "/usr/bin:/usr/local/bin", FallbackDir: "/opt/spark/bin"}
	p, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/spark-submit", p)
}

func TestResolveFallback(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeExec(t, fs, "/opt/spark/bin/spark-submit", 0755)
	// not executable, must be passed over
	writeExec(t, fs, "/usr/bin/spark-submit", 0644)

	r := &Resolver{Fs: fs, Name: "spark-submit", SearchPath: "/usr/bin", FallbackDir: "/opt/spark/bin"}
	p, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "/opt/spark/bin/spark-submit", p)
}

func TestResolveIgnoresRelativeAndDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeExec(t, fs, "bin/spark-submit", 0755)
	require.NoError(t, fs.MkdirAll("/usr/bin/spark-submit", 0755))

	r := &Resolver{Fs: fs, Name: "spark-submit", SearchPath: "bin::/usr/bin"}
	_, err := r.Resolve()
	assert.True(t, errs.Is(err, errs.Environment))
}

func TestResolveExplicitPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeExec(t, fs, "/srv/spark/bin/spark-submit", 0700)

	r := &Resolver{Fs: fs, Name: "/srv/spark/bin/spark-submit"}
	p, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "/srv/spark/bin/spark-submit", p)

	r.Name = "/srv/spark/bin/missing"
	_, err = r.Resolve()
	assert.True(t, errs.Is(err, errs.Environment))
}

func TestResolveNotFound(t *testing.T) {
	r := &Resolver{Fs: afero.NewMemMapFs(), Name: "spark-submit", SearchPath: "/usr/bin:/bin", FallbackDir: "/opt/spark/bin"}
	_, err := r.Resolve()
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Environment))
	assert.ErrorContains(t, err, "/usr/bin:/bin:/opt/spark/bin")

	r.Name = ""
	_, err = r.Resolve()
	assert.True(t, errs.Is(err, errs.Environment))
}
