package ddl

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exported = `-- exported from cluster A
CREATE TABLE ks.trade_pnl_f (
    id uuid PRIMARY KEY,
    -- trailing comment
    note text
) WITH comment = 'trade_pnl_f copy source';
`

type fakeExecutor struct {
	statements []string
	out        string
	err        error
}

func (f *fakeExecutor) Exec(_ context.Context, stmt string) (string, error) {
	f.statements = append(f.statements, stmt)
	return f.out, f.err
}

func TestPrepare(t *testing.T) {
	stmt, err := Prepare(exported, "trade_pnl_f", "trade_pnl_f_copy")
	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE ks.trade_pnl_f_copy (
    id uuid PRIMARY KEY,
    note text
) WITH comment = 'trade_pnl_f copy source';`, stmt)
}

func TestPrepareErrors(t *testing.T) {
	_, err := Prepare("  \n\t", "a", "b")
	assert.ErrorIs(t, err, ErrEmptyDDL)

	_, err = Prepare(exported, "orders", "orders_copy")
	assert.ErrorIs(t, err, ErrNameNotFound)

	// a name that only appears in a comment does not count
	_, err = Prepare("-- users\nCREATE TABLE ks.x (id int PRIMARY KEY);", "users", "users_copy")
	assert.ErrorIs(t, err, ErrNameNotFound)
}

func TestClone(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "ddl_output.cql", []byte(exported), 0644))
	exec := &fakeExecutor{out: "ok"}

	out, err := NewCloner(fs, exec, zerolog.Nop()).Clone(context.Background(), CloneRequest{
		DDLPath:  "ddl_output.cql",
		Original: "trade_pnl_f",
		New:      "trade_pnl_f_copy",
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	require.Len(t, exec.statements, 1)
	assert.Contains(t, exec.statements[0], "CREATE TABLE ks.trade_pnl_f_copy (")
}

func TestCloneFailures(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "ddl_output.cql", []byte(exported), 0644))

	t.Run("missing file", func(t *testing.T) {
		exec := &fakeExecutor{}
		_, err := NewCloner(fs, exec, zerolog.Nop()).Clone(context.Background(), CloneRequest{DDLPath: "nope.cql", Original: "a", New: "b"})
		assert.ErrorContains(t, err, "File not found: nope.cql")
		assert.Empty(t, exec.statements)
	})

	t.Run("executor error", func(t *testing.T) {
		exec := &fakeExecutor{err: errors.New("Command failed: AlreadyExists")}
		_, err := NewCloner(fs, exec, zerolog.Nop()).Clone(context.Background(), CloneRequest{DDLPath: "ddl_output.cql", Original: "trade_pnl_f", New: "trade_pnl_f_copy"})
		assert.ErrorContains(t, err, "table creation failed")
		assert.ErrorContains(t, err, "AlreadyExists")
	})
}
