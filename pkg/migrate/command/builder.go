// package command
//
// maps a task onto the argv of the cassandra data migrator. nothing here executes and
// nothing is ever handed to a shell, every element is passed to the process verbatim
package command

import (
	"github.com/baderkha/cdm-runner/pkg/migrate/config/enginecfg"
	"github.com/baderkha/cdm-runner/pkg/migrate/job"
)

const (
	OriginTableConf = "spark.cdm.schema.origin.keyspaceTable"
	TargetTableConf = "spark.cdm.schema.target.keyspaceTable"
	WhereConf       = "spark.cdm.filter.cassandra.whereCondition"
)

// Descriptor : a fully built invocation. Args does not include the executable
type Descriptor struct {
	Executable string
	Args       []string
}

// Argv : executable followed by its args
func (d Descriptor) Argv() []string {
	return append([]string{d.Executable}, d.Args...)
}

// Predicate : the where condition handed to the engine for a task
func Predicate(partitionColumn string, condition string) string {
	return partitionColumn + " " + condition
}

// Build : the descriptor for one task. executable is the resolved launcher path
func Build(executable string, task job.Task, engine enginecfg.Spark) Descriptor {
	args := []string{
		"--properties-file", engine.PropertiesFile,
		"--master", engine.Master,
		"--driver-memory", engine.DriverMemory,
		"--executor-memory", engine.ExecutorMemory,
	}
	for _, kv := range engine.ExtraConfArgs() {
		args = append(args, "--conf", kv)
	}
	args = append(args,
		"--class", engine.ClassName,
		engine.Jar,
		"--conf", OriginTableConf+"="+task.Origin.String(),
		"--conf", TargetTableConf+"="+task.Target.String(),
		"--conf", WhereConf+"="+Predicate(engine.PartitionColumn, task.Condition),
	)
	return Descriptor{Executable: executable, Args: args}
}
