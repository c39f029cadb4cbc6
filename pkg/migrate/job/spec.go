// package job
//
// reads the declarative list of {table, as of date conditions} entries and expands it
// into the ordered tasks a run invokes
package job

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/baderkha/cdm-runner/pkg/migrate/errs"
	"github.com/baderkha/cdm-runner/pkg/migrate/table"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// Spec : one declared target table and its partition conditions, in input order
type Spec struct {
	TableName  string   `json:"table_name"`
	Conditions []string `json:"as_of_date_conditions"`
}

// SkippedEntry : an entry left out of the run because it failed validation
type SkippedEntry struct {
	Index  int    // 1 based position in the document
	Raw    string // the entry as written, compacted
	Reason string
}

func (s SkippedEntry) Error() string {
	return fmt.Sprintf("entry #%d %s : %s", s.Index, s.Raw, s.Reason)
}

// LoadResult : valid specs in document order plus the entries that were skipped
type LoadResult struct {
	Specs   []Spec
	Skipped []SkippedEntry
}

// Err : the skipped entries folded into one validation error, nil when nothing was skipped
func (r *LoadResult) Err() error {
	var finalErr error
	for _, s := range r.Skipped {
		finalErr = multierror.Append(finalErr, s)
	}
	if finalErr == nil {
		return nil
	}
	return errs.New(errs.Validation, "load jobs", finalErr)
}

// Loader : reads job spec documents
type Loader struct {
	Fs     afero.Fs
	Naming table.Naming
}

// NewLoader : loader over the given fs. entries are validated against naming
func NewLoader(fsys afero.Fs, naming table.Naming) *Loader {
	return &Loader{Fs: fsys, Naming: naming}
}

// Load : reads the document at path. only an unreadable or malformed document is an
// error, a bad entry is recorded in LoadResult.Skipped and loading continues
func (l *Loader) Load(path string) (*LoadResult, error) {
	b, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.Newf(errs.Config, "load jobs", "Input file not found: %s", path)
		}
		return nil, errs.Newf(errs.Config, "load jobs", "Failed to read input file %s: %w", path, err)
	}
	return l.Parse(b)
}

// Parse : same as Load for an in memory document
func (l *Loader) Parse(b []byte) (*LoadResult, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, errs.Newf(errs.Parse, "load jobs", "Failed to read input JSON: %w", err)
	}
	if entries == nil {
		return nil, errs.Newf(errs.Parse, "load jobs", "Failed to read input JSON: expected an array, got null")
	}

	res := &LoadResult{}
	for i, raw := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			res.Skipped = append(res.Skipped, SkippedEntry{Index: i + 1, Raw: compact(raw), Reason: "entry is not an object"})
			continue
		}
		spec, reason := l.validate(fields)
		if reason != "" {
			res.Skipped = append(res.Skipped, SkippedEntry{Index: i + 1, Raw: compact(raw), Reason: reason})
			continue
		}
		res.Specs = append(res.Specs, spec)
	}
	return res, nil
}

func (l *Loader) validate(fields map[string]json.RawMessage) (Spec, string) {
	var spec Spec
	rawName, ok := fields["table_name"]
	if !ok || json.Unmarshal(rawName, &spec.TableName) != nil || strings.TrimSpace(spec.TableName) == "" {
		return spec, "table_name is missing or blank"
	}
	rawConds, ok := fields["as_of_date_conditions"]
	if !ok || json.Unmarshal(rawConds, &spec.Conditions) != nil || len(spec.Conditions) == 0 {
		return spec, "as_of_date_conditions is missing or empty"
	}
	for i, c := range spec.Conditions {
		if strings.TrimSpace(c) == "" {
			return spec, fmt.Sprintf("condition #%d is blank", i+1)
		}
		if strings.IndexByte(c, 0) >= 0 {
			return spec, fmt.Sprintf("condition #%d contains a NUL byte", i+1)
		}
	}
	if err := l.Naming.Check(spec.TableName); err != nil {
		return spec, err.Error()
	}
	return spec, ""
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
