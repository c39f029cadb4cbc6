package command

import (
	"testing"

	"github.com/baderkha/cdm-runner/pkg/migrate/config"
	"github.com/baderkha/cdm-runner/pkg/migrate/job"
	"github.com/baderkha/cdm-runner/pkg/migrate/table"
	"github.com/stretchr/testify/assert"
)

func task(cond string) job.Task {
	return job.Task{
		Origin:    table.Qualify("ks", "orders"),
		Target:    table.Qualify("ks", "orders_copy"),
		Condition: cond,
		Seq:       1,
	}
}

func TestBuild(t *testing.T) {
	engine := config.Default().Engine
	d := Build("/opt/spark/bin/spark-submit", task("= '2024-01-01'"), engine)

	assert.Equal(t, "/opt/spark/bin/spark-submit", d.Executable)
	assert.Equal(t, []string{
		"--properties-file", "config/clusters_clone.properties",
		"--master", "local[*]",
		"--driver-memory", "8G",
		"--executor-memory", "8G",
		"--class", "com.datastax.cdm.job.Migrate",
		"lib/cassandra-data-migrator-5.4.0.jar",
		"--conf", "spark.cdm.schema.origin.keyspaceTable=ks.orders",
		"--conf", "spark.cdm.schema.target.keyspaceTable=ks.orders_copy",
		"--conf", "spark.cdm.filter.cassandra.whereCondition=as_of_date = '2024-01-01'",
	}, d.Args)
	assert.Equal(t, "/opt/spark/bin/spark-submit", d.Argv()[0])
	assert.Len(t, d.Argv(), len(d.Args)+1)
}

func TestBuildExtraConfSortedBeforeJar(t *testing.T) {
	engine := config.Default().Engine
	engine.ExtraConf = map[string]string{"spark.b": "2", "spark.a": "1"}

	d := Build("spark-submit", task("= 1"), engine)
	assert.Equal(t, []string{"--conf", "spark.a=1", "--conf", "spark.b=2", "--class"}, d.Args[8:13])
}

func TestBuildConditionStaysOneArgument(t *testing.T) {
	engine := config.Default().Engine
	cond := "= '2024-01-01'; rm -rf / $(whoami) `id` \"x\""

	d := Build("spark-submit", task(cond), engine)
	last := d.Args[len(d.Args)-1]
	assert.Equal(t, WhereConf+"=as_of_date "+cond, last)
	assert.Equal(t, "--conf", d.Args[len(d.Args)-2])
}

func TestPredicate(t *testing.T) {
	assert.Equal(t, "as_of_date >= '2024-01-01'", Predicate("as_of_date", ">= '2024-01-01'"))
}
