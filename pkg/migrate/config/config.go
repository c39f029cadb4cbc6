package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/baderkha/cdm-runner/pkg/conditional"
	"github.com/baderkha/cdm-runner/pkg/migrate/config/archivecfg"
	"github.com/baderkha/cdm-runner/pkg/migrate/config/clustercfg"
	"github.com/baderkha/cdm-runner/pkg/migrate/config/enginecfg"
	"github.com/baderkha/cdm-runner/pkg/migrate/config/ledgercfg"
	"github.com/baderkha/cdm-runner/pkg/migrate/errs"
	"github.com/baderkha/cdm-runner/pkg/migrate/table"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultPath : config file picked up from the working directory when no path is given
const DefaultPath = "cdm.yaml"

// Config : configuration for a run. built once at startup and never mutated after
type Config struct {
	Namespace string               `yaml:"namespace"`
	Suffix    string               `yaml:"suffix"` // stripped from a target name to get its origin
	InputFile string               `yaml:"input_file"`
	LogDir    string               `yaml:"log_dir"`
	Engine    enginecfg.Spark      `yaml:"engine"`
	Cluster   clustercfg.Cassandra `yaml:"cluster"`
	Ledger    ledgercfg.MYSQL      `yaml:"ledger"`
	Archive   archivecfg.S3        `yaml:"archive"`
}

// Env : looks up an environment variable, os.Getenv in production
type Env func(key string) string

// MapEnv : an Env backed by a map
func MapEnv(m map[string]string) Env {
	return func(key string) string { return m[key] }
}

// Default : the settings the copy scripts shipped with
func Default() Config {
	return Config{
		Namespace: "ks",
		Suffix:    "_copy",
		InputFile: "table_copy_jobs.json",
		LogDir:    "logs",
		Engine: enginecfg.Spark{
			Launcher:        "spark-submit",
			FallbackDir:     "/opt/spark/bin",
			Jar:             "lib/cassandra-data-migrator-5.4.0.jar",
			PropertiesFile:  "config/clusters_clone.properties",
			Master:          "local[*]",
			DriverMemory:    "8G",
			ExecutorMemory:  "8G",
			ClassName:       "com.datastax.cdm.job.Migrate",
			PartitionColumn: "as_of_date",
		},
		Cluster: clustercfg.Cassandra{
			Cqlsh:   "cqlsh",
			Host:    "127.0.0.1",
			Port:    9042,
			Timeout: 10 * time.Second,
		},
		Ledger: ledgercfg.MYSQL{
			Port:     3306,
			MaxConns: 2,
		},
		Archive: archivecfg.S3{
			PrefixOverride: "cdm-logs",
			MaxRetry:       3,
			MaxConcurrency: 4,
		},
	}
}

// Load : defaults, then the yaml file at path (skipped when path is empty), then env
// overrides. the result is validated
func Load(fsys afero.Fs, path string, env Env) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := afero.ReadFile(fsys, path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, errs.Newf(errs.Config, "load config", "config file not found : %s", path)
			}
			return nil, errs.Newf(errs.Config, "load config", "could not read %s due to : %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, errs.Newf(errs.Config, "load config", "could not parse %s due to : %w", path, err)
		}
	}
	cfg.applyEnv(env)
	if err := cfg.Validate(); err != nil {
		return nil, errs.New(errs.Config, "validate config", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv(env Env) {
	if env == nil {
		return
	}
	c.LogDir = conditional.Ternary(env("CDM_LOG_DIR") != "", env("CDM_LOG_DIR"), c.LogDir)
	c.InputFile = conditional.Ternary(env("CDM_INPUT_FILE") != "", env("CDM_INPUT_FILE"), c.InputFile)
	c.Engine.FallbackDir = conditional.FirstNonZero(enginecfg.FallbackFromHome(env("SPARK_HOME")), c.Engine.FallbackDir)
	c.Engine.SearchPath = env("PATH")
	c.Cluster.Password = conditional.Ternary(env("CQLSH_PASSWORD") != "", env("CQLSH_PASSWORD"), c.Cluster.Password)
	c.Ledger.Password = conditional.Ternary(env("CDM_LEDGER_PASSWORD") != "", env("CDM_LEDGER_PASSWORD"), c.Ledger.Password)
	c.Archive.PrefixOverride = conditional.Ternary(env("CDM_S3_PREFIX") != "", env("CDM_S3_PREFIX"), c.Archive.PrefixOverride)
}

// Naming : the origin/target naming convention of this config
func (c *Config) Naming() table.Naming {
	return table.Naming{Namespace: c.Namespace, Suffix: c.Suffix}
}

// Validate : every problem with the config, aggregated
func (c *Config) Validate() error {
	var finalErr error
	if c.Namespace == "" {
		finalErr = multierror.Append(finalErr, fmt.Errorf("namespace is required"))
	}
	if c.Suffix == "" {
		finalErr = multierror.Append(finalErr, fmt.Errorf("suffix is required"))
	}
	if c.InputFile == "" {
		finalErr = multierror.Append(finalErr, fmt.Errorf("input_file is required"))
	}
	if c.LogDir == "" {
		finalErr = multierror.Append(finalErr, fmt.Errorf("log_dir is required"))
	}
	for _, p := range c.Engine.Problems() {
		finalErr = multierror.Append(finalErr, p)
	}
	if c.Ledger.Enabled() && c.Ledger.DB == "" {
		finalErr = multierror.Append(finalErr, fmt.Errorf("ledger.db is required when ledger.host is set"))
	}
	if c.Archive.Enabled() {
		if c.Archive.MaxRetry < 1 {
			finalErr = multierror.Append(finalErr, fmt.Errorf("archive.max_retry must be at least 1"))
		}
		if c.Archive.MaxConcurrency < 1 {
			finalErr = multierror.Append(finalErr, fmt.Errorf("archive.max_concurrency must be at least 1"))
		}
	}
	return finalErr
}
