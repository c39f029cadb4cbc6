package job

import (
	"github.com/baderkha/cdm-runner/pkg/migrate/table"
)

// Task : one engine invocation, copying the rows of Origin matching Condition into Target
type Task struct {
	Origin    table.Identifier
	Target    table.Identifier
	Condition string
	Seq       int // 1 based position in the run
}

// Expand : one task per (spec, condition) in spec order then condition order
func Expand(specs []Spec, naming table.Naming) []Task {
	var (
		res []Task
		seq int
	)
	for _, s := range specs {
		origin := naming.Origin(s.TableName)
		target := naming.Target(s.TableName)
		for _, c := range s.Conditions {
			seq++
			res = append(res, Task{
				Origin:    origin,
				Target:    target,
				Condition: c,
				Seq:       seq,
			})
		}
	}
	return res
}
