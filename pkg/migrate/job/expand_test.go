package job

import (
	"strings"
	"testing"

	"github.com/baderkha/cdm-runner/pkg/migrate/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandSingleSpec(t *testing.T) {
	tasks := Expand([]Spec{
		{TableName: "orders_copy", Conditions: []string{"= '2024-01-01'", "= '2024-01-02'"}},
	}, naming)

	require.Len(t, tasks, 2)
	assert.Equal(t, Task{
		Origin:    table.Qualify("ks", "orders"),
		Target:    table.Qualify("ks", "orders_copy"),
		Condition: "= '2024-01-01'",
		Seq:       1,
	}, tasks[0])
	assert.Equal(t, "ks.orders", tasks[1].Origin.String())
	assert.Equal(t, "ks.orders_copy", tasks[1].Target.String())
	assert.Equal(t, "= '2024-01-02'", tasks[1].Condition)
	assert.Equal(t, 2, tasks[1].Seq)
}

func TestExpandOrderAndCount(t *testing.T) {
	specs := []Spec{
		{TableName: "a_copy", Conditions: []string{"= 1", "= 2", "= 3"}},
		{TableName: "b_copy", Conditions: []string{"= 4"}},
		{TableName: "ks.c_copy", Conditions: []string{"= 5", "= 6"}},
	}
	tasks := Expand(specs, naming)
	require.Len(t, tasks, 6)

	var got []string
	for i, tk := range tasks {
		assert.Equal(t, i+1, tk.Seq)
		assert.Equal(t, tk.Origin.Namespace, tk.Target.Namespace)
		assert.Equal(t, strings.Replace(tk.Target.Name, "_copy", "", 1), tk.Origin.Name)
		got = append(got, tk.Target.Name+" "+tk.Condition)
	}
	assert.Equal(t, []string{
		"a_copy = 1", "a_copy = 2", "a_copy = 3",
		"b_copy = 4",
		"c_copy = 5", "c_copy = 6",
	}, got)
}

func TestExpandEmpty(t *testing.T) {
	assert.Empty(t, Expand(nil, naming))
}
