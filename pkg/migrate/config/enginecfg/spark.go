package enginecfg

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Spark : how the cassandra data migrator is launched through spark-submit
type Spark struct {
	Launcher        string            `yaml:"launcher"`     // executable name or path, looked up on SearchPath first
	FallbackDir     string            `yaml:"fallback_dir"` // install dir searched when the launcher is not on SearchPath
	SearchPath      string            `yaml:"-"`            // PATH captured once at startup
	Jar             string            `yaml:"jar"`
	PropertiesFile  string            `yaml:"properties_file"`
	Master          string            `yaml:"master"`
	DriverMemory    string            `yaml:"driver_memory"`
	ExecutorMemory  string            `yaml:"executor_memory"`
	ClassName       string            `yaml:"class_name"`
	PartitionColumn string            `yaml:"partition_column"`
	ExtraConf       map[string]string `yaml:"extra_conf"` // spark level --conf entries passed before the jar
}

// FallbackFromHome : $SPARK_HOME/bin , empty when home is empty
func FallbackFromHome(home string) string {
	if home == "" {
		return ""
	}
	return filepath.Join(home, "bin")
}

// ExtraConfArgs : extra conf as k=v strings sorted by key
func (s *Spark) ExtraConfArgs() []string {
	keys := make([]string, 0, len(s.ExtraConf))
	for k := range s.ExtraConf {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	res := make([]string, 0, len(keys))
	for _, k := range keys {
		res = append(res, fmt.Sprintf("%s=%s", k, s.ExtraConf[k]))
	}
	return res
}

// Problems : every required field that is empty
func (s *Spark) Problems() []error {
	var res []error
	required := []struct {
		name string
		val  string
	}{
		{"engine.launcher", s.Launcher},
		{"engine.jar", s.Jar},
		{"engine.properties_file", s.PropertiesFile},
		{"engine.master", s.Master},
		{"engine.driver_memory", s.DriverMemory},
		{"engine.executor_memory", s.ExecutorMemory},
		{"engine.class_name", s.ClassName},
		{"engine.partition_column", s.PartitionColumn},
	}
	for _, r := range required {
		if r.val == "" {
			res = append(res, fmt.Errorf("%s is required", r.name))
		}
	}
	for k := range s.ExtraConf {
		if k == "" {
			res = append(res, fmt.Errorf("engine.extra_conf has an empty key"))
		}
	}
	return res
}
