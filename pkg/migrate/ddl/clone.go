// package ddl
//
// creates a copy table by renaming the table in an exported schema definition and
// submitting it through cqlsh. runs out of band, before a copy run
package ddl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

var (
	ErrEmptyDDL     = errors.New("DDL file is empty")
	ErrNameNotFound = errors.New("table name not found in DDL")
)

// Executor : submits one cql statement and returns its output
type Executor interface {
	Exec(ctx context.Context, statement string) (string, error)
}

// CloneRequest : schema file plus the name to replace and its replacement
type CloneRequest struct {
	DDLPath  string
	Original string
	New      string
}

// Cloner : reads ddl through Fs and applies it through Executor
type Cloner struct {
	Fs       afero.Fs
	Executor Executor
	Log      zerolog.Logger
}

func NewCloner(fsys afero.Fs, exec Executor, log zerolog.Logger) *Cloner {
	return &Cloner{Fs: fsys, Executor: exec, Log: log}
}

// Prepare : drops comment lines and renames the first occurrence of original
func Prepare(ddl string, original string, replacement string) (string, error) {
	if strings.TrimSpace(ddl) == "" {
		return "", ErrEmptyDDL
	}
	var kept []string
	for _, line := range strings.Split(strings.TrimSpace(ddl), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, strings.TrimSuffix(line, "\r"))
	}
	core := strings.Join(kept, "\n")
	if original == "" || !strings.Contains(core, original) {
		return "", fmt.Errorf("%w : %q", ErrNameNotFound, original)
	}
	return strings.Replace(core, original, replacement, 1), nil
}

// Clone : creates req.New from the schema of req.Original. returns the client output
func (c *Cloner) Clone(ctx context.Context, req CloneRequest) (string, error) {
	b, err := afero.ReadFile(c.Fs, req.DDLPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("File not found: %s", req.DDLPath)
	case errors.Is(err, fs.ErrPermission):
		return "", fmt.Errorf("Permission denied when reading: %s", req.DDLPath)
	case err != nil:
		return "", fmt.Errorf("could not read %s due to : %w", req.DDLPath, err)
	}

	stmt, err := Prepare(string(b), req.Original, req.New)
	if err != nil {
		return "", err
	}

	c.Log.Info().Str("from", req.Original).Str("to", req.New).Msg("creating table")
	out, err := c.Executor.Exec(ctx, stmt)
	if err != nil {
		return out, fmt.Errorf("table creation failed : %w", err)
	}
	c.Log.Info().Str("table", req.New).Msg("table created successfully")
	return out, nil
}
