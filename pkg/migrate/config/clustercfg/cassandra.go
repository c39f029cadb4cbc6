package clustercfg

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Cassandra : cqlsh connection used when cloning table ddl
type Cassandra struct {
	Cqlsh    string        `yaml:"cqlsh"`
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	UserName string        `yaml:"user_name"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Validate : checks the fields cqlsh needs
func (c *Cassandra) Validate() error {
	var err error
	if c.Cqlsh == "" {
		err = multierror.Append(err, fmt.Errorf("cluster.cqlsh is required"))
	}
	if c.Host == "" {
		err = multierror.Append(err, fmt.Errorf("cluster.host is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		err = multierror.Append(err, fmt.Errorf("cluster.port %d is out of range", c.Port))
	}
	if c.Timeout <= 0 {
		err = multierror.Append(err, fmt.Errorf("cluster.timeout must be positive"))
	}
	return err
}
